package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/roach88/recipebox/internal/recipe"
)

// RecipeSummary is one row of list output.
type RecipeSummary struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// RecipeView is the full show output.
type RecipeView struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Tags         []string         `json:"tags"`
	Ingredients  []IngredientView `json:"ingredients"`
	Instructions string           `json:"instructions"`
	Notes        []string         `json:"notes"`
}

// IngredientView is one ingredient line of show output.
type IngredientView struct {
	QtyUnit string `json:"qty_unit"`
	Content string `json:"content"`
}

// MutationResult is the data of a mutation response.
type MutationResult struct {
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

func summarize(items []recipe.RecipeLight) []RecipeSummary {
	out := make([]RecipeSummary, len(items))
	for i, r := range items {
		tags := r.TagNames()
		if tags == nil {
			tags = []string{}
		}
		out[i] = RecipeSummary{ID: r.ID, Name: r.Name, Tags: tags}
	}
	return out
}

func viewOf(r recipe.Recipe) RecipeView {
	v := RecipeView{
		Name:         r.Name,
		Tags:         make([]string, len(r.Tags)),
		Ingredients:  make([]IngredientView, len(r.Ingredients)),
		Instructions: r.Instructions,
		Notes:        make([]string, len(r.Notes)),
	}
	if r.ID != nil {
		v.ID = *r.ID
	}
	for i, t := range r.Tags {
		v.Tags[i] = t.Name
	}
	for i, ing := range r.Ingredients {
		v.Ingredients[i] = IngredientView{QtyUnit: ing.QtyUnit, Content: ing.Content}
	}
	for i, n := range r.Notes {
		v.Notes[i] = n.Content
	}
	return v
}

func writeSummaries(w io.Writer, rows []RecipeSummary) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No recipes found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAGS")
	for _, r := range rows {
		tags := "-"
		if len(r.Tags) > 0 {
			tags = strings.Join(r.Tags, ", ")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.Name, tags)
	}
	return tw.Flush()
}

// writeRecipe prints v with the entry indices edit accepts.
func writeRecipe(w io.Writer, v RecipeView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", v.Name, v.ID)
	if len(v.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(v.Tags, ", "))
	}
	if len(v.Ingredients) > 0 {
		b.WriteString("\nIngredients:\n")
		for i, ing := range v.Ingredients {
			fmt.Fprintf(&b, "  [%d] %s\n", i, strings.TrimSpace(ing.QtyUnit+" "+ing.Content))
		}
	}
	if v.Instructions != "" {
		fmt.Fprintf(&b, "\nInstructions:\n%s\n", v.Instructions)
	}
	if len(v.Notes) > 0 {
		b.WriteString("\nNotes:\n")
		for i, n := range v.Notes {
			fmt.Fprintf(&b, "  [%d] %s\n", i, n)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
