package importer

import (
	"github.com/roach88/recipebox/internal/recipe"
)

// File is the top-level document shape.
type File struct {
	Recipes []Document `json:"recipes" yaml:"recipes" toml:"recipes"`
}

// Document is one recipe in interchange form. Pointer-to-slice fields keep
// an absent collection distinct from an empty one.
type Document struct {
	ID           *int64           `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name         string           `json:"name" yaml:"name" toml:"name"`
	Tags         *[]string        `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Ingredients  *[]IngredientDoc `json:"ingredients,omitempty" yaml:"ingredients,omitempty" toml:"ingredients,omitempty"`
	Instructions string           `json:"instructions,omitempty" yaml:"instructions,omitempty" toml:"instructions,omitempty"`
	Notes        *[]string        `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
}

// IngredientDoc is one ingredient line.
type IngredientDoc struct {
	QtyUnit string `json:"qty_unit,omitempty" yaml:"qty_unit,omitempty" toml:"qty_unit,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
}

// Recipe converts d. The id is not carried: imported recipes are new.
func (d Document) Recipe() recipe.Recipe {
	return recipe.Recipe{
		Name: d.Name,
		Tags: mapPtr(d.Tags, func(s string) recipe.Tag {
			return recipe.Tag{Name: s}
		}),
		Ingredients: mapPtr(d.Ingredients, func(i IngredientDoc) recipe.Ingredient {
			return recipe.Ingredient{QtyUnit: i.QtyUnit, Content: i.Content}
		}),
		Instructions: d.Instructions,
		Notes: mapPtr(d.Notes, func(s string) recipe.Note {
			return recipe.Note{Content: s}
		}),
	}
}

// FromRecipe converts r for export, keeping its id.
func FromRecipe(r recipe.Recipe) Document {
	d := Document{
		Name:         r.Name,
		Instructions: r.Instructions,
		Tags: toPtr(r.Tags, func(t recipe.Tag) string {
			return t.Name
		}),
		Ingredients: toPtr(r.Ingredients, func(i recipe.Ingredient) IngredientDoc {
			return IngredientDoc{QtyUnit: i.QtyUnit, Content: i.Content}
		}),
		Notes: toPtr(r.Notes, func(n recipe.Note) string {
			return n.Content
		}),
	}
	if r.ID != nil {
		d.ID = recipe.ID(*r.ID)
	}
	return d
}

func mapPtr[A, B any](in *[]A, fn func(A) B) []B {
	if in == nil {
		return nil
	}
	out := make([]B, len(*in))
	for i, v := range *in {
		out[i] = fn(v)
	}
	return out
}

func toPtr[A, B any](in []A, fn func(A) B) *[]B {
	if in == nil {
		return nil
	}
	out := make([]B, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return &out
}
