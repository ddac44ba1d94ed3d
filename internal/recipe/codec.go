package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// PayloadVersion is the payload format version written by Encode.
const PayloadVersion = 1

// payload is the wire shape of a recipe body. Pointer-to-slice fields keep the
// absent (nil pointer, key omitted) and empty (pointer to empty slice, "[]")
// states apart.
type payload struct {
	V            int               `json:"v"`
	Name         string            `json:"name"`
	Tags         *[]tagWire        `json:"tags,omitempty"`
	Ingredients  *[]ingredientWire `json:"ingredients,omitempty"`
	Instructions string            `json:"instructions"`
	Notes        *[]noteWire       `json:"notes,omitempty"`
}

type tagWire struct {
	Name string `json:"name"`
}

type ingredientWire struct {
	QtyUnit string `json:"qty_unit"`
	Content string `json:"content"`
}

type noteWire struct {
	Content string `json:"content"`
}

// Encode produces the compact payload for r. The id is not part of the payload.
//
// Encode is a pure structural transform: it does not validate r. Strings
// that are not valid UTF-8 cannot round trip through JSON and fail with a
// PersistenceError.
func Encode(r Recipe) ([]byte, error) {
	if field, ok := invalidUTF8(r); ok {
		return nil, NewPersistenceError("encode", fmt.Errorf("%s is not valid UTF-8", field))
	}

	p := payload{
		V:            PayloadVersion,
		Name:         r.Name,
		Tags:         mapOut(r.Tags, func(t Tag) tagWire { return tagWire{Name: t.Name} }),
		Ingredients:  mapOut(r.Ingredients, func(i Ingredient) ingredientWire { return ingredientWire{QtyUnit: i.QtyUnit, Content: i.Content} }),
		Instructions: r.Instructions,
		Notes:        mapOut(r.Notes, func(n Note) noteWire { return noteWire{Content: n.Content} }),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, NewPersistenceError("encode", err)
	}

	// Encoder terminates each value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode rebuilds a recipe from its payload and id.
// A nil id yields a transient recipe.
//
// Malformed payloads and unknown format versions fail with a PersistenceError.
func Decode(data []byte, id *int64) (Recipe, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Recipe{}, NewPersistenceError("decode", err)
	}
	if p.V != PayloadVersion {
		return Recipe{}, NewPersistenceError("decode", fmt.Errorf("unsupported payload version %d", p.V))
	}

	r := Recipe{
		Name:         p.Name,
		Tags:         mapIn(p.Tags, func(t tagWire) Tag { return Tag{Name: t.Name} }),
		Ingredients:  mapIn(p.Ingredients, func(i ingredientWire) Ingredient { return Ingredient{QtyUnit: i.QtyUnit, Content: i.Content} }),
		Instructions: p.Instructions,
		Notes:        mapIn(p.Notes, func(n noteWire) Note { return Note{Content: n.Content} }),
	}
	if id != nil {
		v := *id
		r.ID = &v
	}
	return r, nil
}

// DecodeLight decodes a payload straight into the list-view projection.
func DecodeLight(data []byte, id int64) (RecipeLight, error) {
	r, err := Decode(data, &id)
	if err != nil {
		return RecipeLight{}, err
	}
	light, _ := r.Light()
	return light, nil
}

// DecodeRecord decodes a stored row.
func DecodeRecord(rec StoredRecord) (Recipe, error) {
	return Decode(rec.Payload, &rec.ID)
}

// mapOut converts a domain collection to its wire form, keeping nil as nil.
func mapOut[T, W any](in []T, f func(T) W) *[]W {
	if in == nil {
		return nil
	}
	out := make([]W, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return &out
}

// mapIn is the inverse of mapOut. A present-but-empty wire slice becomes a
// non-nil empty domain slice.
func mapIn[W, T any](in *[]W, f func(W) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(*in))
	for i, v := range *in {
		out[i] = f(v)
	}
	return out
}

// invalidUTF8 returns the path of the first string field of r that is not
// valid UTF-8.
func invalidUTF8(r Recipe) (string, bool) {
	if !utf8.ValidString(r.Name) {
		return "name", true
	}
	if !utf8.ValidString(r.Instructions) {
		return "instructions", true
	}
	for i, t := range r.Tags {
		if !utf8.ValidString(t.Name) {
			return fmt.Sprintf("tags[%d]", i), true
		}
	}
	for i, ing := range r.Ingredients {
		if !utf8.ValidString(ing.QtyUnit) || !utf8.ValidString(ing.Content) {
			return fmt.Sprintf("ingredients[%d]", i), true
		}
	}
	for i, n := range r.Notes {
		if !utf8.ValidString(n.Content) {
			return fmt.Sprintf("notes[%d]", i), true
		}
	}
	return "", false
}
