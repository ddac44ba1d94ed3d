package dispatch

import (
	"fmt"

	"github.com/roach88/recipebox/internal/recipe"
)

// Kind distinguishes action descriptors.
type Kind int

const (
	// KindAdd creates a new recipe; the gateway assigns the id.
	KindAdd Kind = iota + 1
	// KindSave overwrites a persisted recipe.
	KindSave
	// KindDelete removes a persisted recipe.
	KindDelete
	// KindDuplicate copies a persisted recipe under a fresh id.
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindSave:
		return "save"
	case KindDelete:
		return "delete"
	case KindDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is a tagged union of Add(Recipe), Save(Recipe), Delete(id) and
// Duplicate(id). Build one with the constructor of the same name.
type Action struct {
	kind   Kind
	recipe recipe.Recipe
	id     int64
}

// Add describes creating r. r must not carry an id.
func Add(r recipe.Recipe) Action {
	return Action{kind: KindAdd, recipe: r}
}

// Save describes overwriting the persisted recipe r.
func Save(r recipe.Recipe) Action {
	a := Action{kind: KindSave, recipe: r}
	if r.ID != nil {
		a.id = *r.ID
	}
	return a
}

// Delete describes removing the recipe with the given id.
func Delete(id int64) Action {
	return Action{kind: KindDelete, id: id}
}

// Duplicate describes copying the recipe with the given id.
func Duplicate(id int64) Action {
	return Action{kind: KindDuplicate, id: id}
}

// Kind returns the descriptor tag.
func (a Action) Kind() Kind {
	return a.kind
}

// Recipe returns the carried recipe for Add and Save.
func (a Action) Recipe() recipe.Recipe {
	return a.recipe
}

// ID returns the target id for Save, Delete and Duplicate. Zero for Add.
func (a Action) ID() int64 {
	return a.id
}

// Validate checks the descriptor invariants: Add carries no id, Save,
// Delete and Duplicate carry a populated id, and Add and Save pass
// recipe.ValidForSave. Failures match recipe.ErrInvalidRecipe.
func (a Action) Validate() error {
	switch a.kind {
	case KindAdd:
		if a.recipe.ID != nil {
			return &recipe.ValidationError{Field: "id", Message: "add must not carry an id"}
		}
		return recipe.ValidForSave(a.recipe)
	case KindSave:
		if a.recipe.ID == nil {
			return &recipe.ValidationError{Field: "id", Message: "save requires a persisted recipe"}
		}
		if *a.recipe.ID <= 0 {
			return &recipe.ValidationError{Field: "id", Message: fmt.Sprintf("save requires a positive id, got %d", *a.recipe.ID)}
		}
		return recipe.ValidForSave(a.recipe)
	case KindDelete, KindDuplicate:
		if a.id <= 0 {
			return &recipe.ValidationError{Field: "id", Message: fmt.Sprintf("%s requires a positive id, got %d", a.kind, a.id)}
		}
		return nil
	default:
		return &recipe.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown action %s", a.kind)}
	}
}

func (a Action) String() string {
	switch a.kind {
	case KindAdd:
		return fmt.Sprintf("add(%q)", a.recipe.Name)
	default:
		return fmt.Sprintf("%s(%d)", a.kind, a.id)
	}
}
