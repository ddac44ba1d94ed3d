package recipe

// Recipe is the canonical in-memory recipe record.
//
// ID is nil while the recipe is being authored and becomes populated once the
// gateway has persisted it.
type Recipe struct {
	ID           *int64
	Name         string
	Tags         []Tag
	Ingredients  []Ingredient
	Instructions string
	Notes        []Note
}

// RecipeLight is the list-view projection of a persisted recipe.
// Instructions and notes are omitted.
type RecipeLight struct {
	ID          int64
	Name        string
	Tags        []Tag
	Ingredients []Ingredient
}

// Tag labels a recipe for filtering.
type Tag struct {
	Name string
}

// Ingredient is one line of an ingredient list, e.g. "2 cups" + "flour".
type Ingredient struct {
	QtyUnit string
	Content string
}

// Note is a free-form remark attached to a recipe.
type Note struct {
	Content string
}

// StoredRecord is the gateway's row representation of a recipe.
// Payload is the codec encoding of the recipe minus its id.
type StoredRecord struct {
	ID      int64
	Name    string
	Payload []byte
}

// Ingredient field selectors for WithField.
const (
	IngredientQtyUnit = 0
	IngredientContent = 1
)

// WithField returns the tag with its name replaced. The selector is ignored.
func (t Tag) WithField(_ int, input string) Tag {
	t.Name = input
	return t
}

// WithField routes input into the quantity/unit (IngredientQtyUnit) or the
// content (IngredientContent) field. Unknown selectors leave i unchanged.
func (i Ingredient) WithField(selector int, input string) Ingredient {
	switch selector {
	case IngredientQtyUnit:
		i.QtyUnit = input
	case IngredientContent:
		i.Content = input
	}
	return i
}

// WithField returns the note with its content replaced. The selector is ignored.
func (n Note) WithField(_ int, input string) Note {
	n.Content = input
	return n
}

// Persisted reports whether the recipe has an id.
func (r Recipe) Persisted() bool {
	return r.ID != nil
}

// Light projects r into its list-view form.
// Returns false if r has not been persisted.
func (r Recipe) Light() (RecipeLight, bool) {
	if r.ID == nil {
		return RecipeLight{}, false
	}
	return RecipeLight{
		ID:          *r.ID,
		Name:        r.Name,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}, true
}

// WithID returns a copy of r carrying id.
func (r Recipe) WithID(id int64) Recipe {
	r.ID = &id
	return r
}

// TagNames returns the tag names in order. Absent tags yield nil.
func (r RecipeLight) TagNames() []string {
	if r.Tags == nil {
		return nil
	}
	names := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		names[i] = t.Name
	}
	return names
}

// ValidForSave checks the only invariant enforced before a save: the name must
// be non-empty. All other fields are optional.
func ValidForSave(r Recipe) error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// ID returns a pointer to id, for building recipes in literals.
func ID(id int64) *int64 {
	return &id
}
