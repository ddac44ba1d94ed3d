package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/recipebox/internal/entrylist"
	"github.com/roach88/recipebox/internal/recipe"
)

// Field names one of the session's entry lists.
type Field int

const (
	FieldTags Field = iota + 1
	FieldIngredients
	FieldNotes
)

func (f Field) String() string {
	switch f {
	case FieldTags:
		return "tags"
	case FieldIngredients:
		return "ingredients"
	case FieldNotes:
		return "notes"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField parses "tags", "ingredients" or "notes".
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tags", "tag":
		return FieldTags, nil
	case "ingredients", "ingredient":
		return FieldIngredients, nil
	case "notes", "note":
		return FieldNotes, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

var (
	// ErrUnknownField is returned for a Field outside the three lists.
	ErrUnknownField = errors.New("unknown field")

	// ErrNoEntry is returned when an entry identity is not in the list.
	ErrNoEntry = errors.New("no such entry")
)

// Row is a field-agnostic view of one entry: its identity and its field
// values in selector order.
type Row struct {
	ID     int
	Fields []string
}

// SessionEvent is delivered to OnChange listeners after every command.
type SessionEvent struct {
	Version uint64
	Command string
	Field   Field
	EntryID int
}

// Session is the edit state of one recipe. Every command bumps Version and
// notifies listeners. Not safe for concurrent use.
type Session struct {
	id           *int64
	name         string
	instructions string

	tags        *entrylist.List[recipe.Tag]
	ingredients *entrylist.List[recipe.Ingredient]
	notes       *entrylist.List[recipe.Note]

	version   uint64
	saved     uint64
	listeners []func(SessionEvent)
	logger    *slog.Logger
}

func newSession(r recipe.Recipe, mode entrylist.Identity, logger *slog.Logger) *Session {
	s := &Session{
		name:         r.Name,
		instructions: r.Instructions,
		logger:       logger,
	}
	if r.ID != nil {
		s.id = recipe.ID(*r.ID)
	}
	s.tags = entrylist.From(r.Tags,
		entrylist.WithIdentity[recipe.Tag](mode),
		entrylist.WithDispose(func(recipe.Tag) { s.disposed(FieldTags) }))
	s.ingredients = entrylist.From(r.Ingredients,
		entrylist.WithIdentity[recipe.Ingredient](mode),
		entrylist.WithDispose(func(recipe.Ingredient) { s.disposed(FieldIngredients) }))
	s.notes = entrylist.From(r.Notes,
		entrylist.WithIdentity[recipe.Note](mode),
		entrylist.WithDispose(func(recipe.Note) { s.disposed(FieldNotes) }))
	return s
}

// ID returns the persisted id, or nil for a transient recipe.
func (s *Session) ID() *int64 {
	if s.id == nil {
		return nil
	}
	return recipe.ID(*s.id)
}

// Name returns the current name.
func (s *Session) Name() string {
	return s.name
}

// Instructions returns the current instructions.
func (s *Session) Instructions() string {
	return s.instructions
}

// Version returns the number of commands applied.
func (s *Session) Version() uint64 {
	return s.version
}

// Dirty reports whether commands were applied since load or the last submit.
func (s *Session) Dirty() bool {
	return s.version != s.saved
}

// OnChange registers fn to run after every command.
func (s *Session) OnChange(fn func(SessionEvent)) {
	s.listeners = append(s.listeners, fn)
}

// SetName replaces the recipe name.
func (s *Session) SetName(name string) {
	s.name = name
	s.changed(SessionEvent{Command: "set_name"})
}

// SetInstructions replaces the instructions.
func (s *Session) SetInstructions(text string) {
	s.instructions = text
	s.changed(SessionEvent{Command: "set_instructions"})
}

// AddEntry appends an empty entry to f and returns its identity.
func (s *Session) AddEntry(f Field) (int, error) {
	var id int
	switch f {
	case FieldTags:
		id = s.tags.Add()
	case FieldIngredients:
		id = s.ingredients.Add()
	case FieldNotes:
		id = s.notes.Add()
	default:
		return 0, fmt.Errorf("add entry: %w: %s", ErrUnknownField, f)
	}
	s.changed(SessionEvent{Command: "add_entry", Field: f, EntryID: id})
	return id, nil
}

// RemoveEntry removes the entry with the given identity from f.
func (s *Session) RemoveEntry(f Field, id int) error {
	var ok bool
	switch f {
	case FieldTags:
		ok = s.tags.Remove(id)
	case FieldIngredients:
		ok = s.ingredients.Remove(id)
	case FieldNotes:
		ok = s.notes.Remove(id)
	default:
		return fmt.Errorf("remove entry: %w: %s", ErrUnknownField, f)
	}
	if !ok {
		return fmt.Errorf("remove entry %s[%d]: %w", f, id, ErrNoEntry)
	}
	s.changed(SessionEvent{Command: "remove_entry", Field: f, EntryID: id})
	return nil
}

// UpdateEntry routes input into the field named by selector of entry id.
// Tags and notes ignore the selector; ingredients use
// recipe.IngredientQtyUnit and recipe.IngredientContent.
func (s *Session) UpdateEntry(f Field, id, selector int, input string) error {
	var ok bool
	switch f {
	case FieldTags:
		ok = s.tags.Update(id, selector, input)
	case FieldIngredients:
		ok = s.ingredients.Update(id, selector, input)
	case FieldNotes:
		ok = s.notes.Update(id, selector, input)
	default:
		return fmt.Errorf("update entry: %w: %s", ErrUnknownField, f)
	}
	if !ok {
		return fmt.Errorf("update entry %s[%d]: %w", f, id, ErrNoEntry)
	}
	s.changed(SessionEvent{Command: "update_entry", Field: f, EntryID: id})
	return nil
}

// Entries returns the keyed entries of f as rows.
func (s *Session) Entries(f Field) ([]Row, error) {
	switch f {
	case FieldTags:
		return rows(s.tags.Entries(), func(t recipe.Tag) []string {
			return []string{t.Name}
		}), nil
	case FieldIngredients:
		return rows(s.ingredients.Entries(), func(i recipe.Ingredient) []string {
			return []string{i.QtyUnit, i.Content}
		}), nil
	case FieldNotes:
		return rows(s.notes.Entries(), func(n recipe.Note) []string {
			return []string{n.Content}
		}), nil
	default:
		return nil, fmt.Errorf("entries: %w: %s", ErrUnknownField, f)
	}
}

// Recipe assembles the full recipe from the current state.
func (s *Session) Recipe() recipe.Recipe {
	return recipe.Recipe{
		ID:           s.ID(),
		Name:         s.name,
		Tags:         s.tags.Snapshot(),
		Ingredients:  s.ingredients.Snapshot(),
		Instructions: s.instructions,
		Notes:        s.notes.Snapshot(),
	}
}

func (s *Session) bind(id int64) {
	s.id = recipe.ID(id)
	s.markSaved()
}

func (s *Session) markSaved() {
	s.saved = s.version
}

func (s *Session) changed(ev SessionEvent) {
	s.version++
	ev.Version = s.version
	for _, fn := range s.listeners {
		fn(ev)
	}
}

func (s *Session) disposed(f Field) {
	s.logger.Debug("entry disposed", "field", f.String(), "name", s.name)
}

func rows[T any](entries []entrylist.Entry[T], fields func(T) []string) []Row {
	out := make([]Row, len(entries))
	for i, e := range entries {
		out[i] = Row{ID: e.ID, Fields: fields(e.Value)}
	}
	return out
}
