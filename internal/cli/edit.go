package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recipebox/internal/catalog"
	"github.com/roach88/recipebox/internal/recipe"
)

// EntryFlags are the entry-list edits shared by add and edit.
type EntryFlags struct {
	Name         string
	Instructions string
	Tags         []string
	Ingredients  []string // "qty|content" or "content"
	Notes        []string
}

func (e *EntryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.Name, "name", "", "recipe name")
	cmd.Flags().StringVar(&e.Instructions, "instructions", "", "instructions text")
	cmd.Flags().StringArrayVar(&e.Tags, "tag", nil, "tag to add (repeatable)")
	cmd.Flags().StringArrayVar(&e.Ingredients, "ingredient", nil, `ingredient to add as "qty|content" (repeatable)`)
	cmd.Flags().StringArrayVar(&e.Notes, "note", nil, "note to add (repeatable)")
}

// apply runs the flags' commands against s. Name and instructions are only
// set when the flag was given.
func (e *EntryFlags) apply(cmd *cobra.Command, s *catalog.Session) error {
	if cmd.Flags().Changed("name") {
		s.SetName(e.Name)
	}
	if cmd.Flags().Changed("instructions") {
		s.SetInstructions(e.Instructions)
	}
	for _, tag := range e.Tags {
		if err := addEntry(s, catalog.FieldTags, 0, tag); err != nil {
			return err
		}
	}
	for _, line := range e.Ingredients {
		qty, content := splitIngredient(line)
		id, err := s.AddEntry(catalog.FieldIngredients)
		if err != nil {
			return err
		}
		if err := s.UpdateEntry(catalog.FieldIngredients, id, recipe.IngredientQtyUnit, qty); err != nil {
			return err
		}
		if err := s.UpdateEntry(catalog.FieldIngredients, id, recipe.IngredientContent, content); err != nil {
			return err
		}
	}
	for _, note := range e.Notes {
		if err := addEntry(s, catalog.FieldNotes, 0, note); err != nil {
			return err
		}
	}
	return nil
}

func addEntry(s *catalog.Session, f catalog.Field, selector int, input string) error {
	id, err := s.AddEntry(f)
	if err != nil {
		return err
	}
	return s.UpdateEntry(f, id, selector, input)
}

// splitIngredient parses "qty|content"; without a separator the whole line
// is the content.
func splitIngredient(line string) (qty, content string) {
	if before, after, ok := strings.Cut(line, "|"); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(line)
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	EntryFlags
	RemoveTags        []string
	RemoveIngredients []int
	RemoveNotes       []int
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a recipe",
		Long: `Edit a recipe and save it.

Removals are applied first and address entries by the indices show prints;
additions are appended after them.

Examples:
  recipebox edit 3 --db ./recipes.db --name "Tomato Soup"
  recipebox edit 3 --db ./recipes.db --remove-ingredient 0 --remove-ingredient 2
  recipebox edit 3 --db ./recipes.db --remove-tag slow --tag quick`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, cmd, args[0])
		},
	}

	opts.EntryFlags.register(cmd)
	cmd.Flags().StringArrayVar(&opts.RemoveTags, "remove-tag", nil, "tag name to remove (repeatable)")
	cmd.Flags().IntSliceVar(&opts.RemoveIngredients, "remove-ingredient", nil, "ingredient index as listed by show to remove (repeatable)")
	cmd.Flags().IntSliceVar(&opts.RemoveNotes, "remove-note", nil, "note index as listed by show to remove (repeatable)")

	return cmd
}

func runEdit(opts *EditOptions, cmd *cobra.Command, arg string) error {
	f := opts.formatter(cmd)
	id, err := parseID(arg)
	if err != nil {
		return report(f, "", err)
	}
	a, err := opts.openApp()
	if err != nil {
		return report(f, "", err)
	}
	defer a.Close()

	s, err := a.catalog.Edit(cmd.Context(), id)
	if err != nil {
		return f.Fail("failed to load recipe", err)
	}

	if err := opts.removeEntries(s); err != nil {
		return report(f, "", WrapExitError(ExitCommandError, "invalid removal", err))
	}
	if err := opts.EntryFlags.apply(cmd, s); err != nil {
		return report(f, "", WrapExitError(ExitCommandError, "invalid edit", err))
	}
	if !s.Dirty() {
		return f.Mutation(MutationResult{Action: "save", ID: id}, a.catalog.Version(), "Nothing to change.")
	}

	if err := a.catalog.Submit(cmd.Context(), s); err != nil {
		return f.Fail("failed to save recipe", err)
	}
	f.VerboseLog("applied %d edits", s.Version())
	return f.Mutation(MutationResult{Action: "save", ID: id}, a.catalog.Version(),
		fmt.Sprintf("Saved recipe %d.", id))
}

// removeEntries removes by the indices show prints, which are the
// identities assigned at load. Targets are resolved before any removal.
func (o *EditOptions) removeEntries(s *catalog.Session) error {
	rows, err := s.Entries(catalog.FieldTags)
	if err != nil {
		return err
	}
	tagIDs := make([]int, 0, len(o.RemoveTags))
	for _, name := range o.RemoveTags {
		idx := slices.IndexFunc(rows, func(r catalog.Row) bool { return r.Fields[0] == name })
		if idx < 0 {
			return fmt.Errorf("recipe has no tag %q", name)
		}
		tagIDs = append(tagIDs, rows[idx].ID)
	}

	if err := removeAll(s, catalog.FieldTags, tagIDs); err != nil {
		return err
	}
	if err := removeAll(s, catalog.FieldIngredients, o.RemoveIngredients); err != nil {
		return err
	}
	return removeAll(s, catalog.FieldNotes, o.RemoveNotes)
}

// removeAll removes ids from f highest first, so positional relabelling
// never shifts an identity that is still to be removed. Every id must exist
// before anything is removed.
func removeAll(s *catalog.Session, f catalog.Field, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	slices.Reverse(ids)

	rows, err := s.Entries(f)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !slices.ContainsFunc(rows, func(r catalog.Row) bool { return r.ID == id }) {
			return fmt.Errorf("remove entry %s[%d]: %w", f, id, catalog.ErrNoEntry)
		}
	}
	for _, id := range ids {
		if err := s.RemoveEntry(f, id); err != nil {
			return err
		}
	}
	return nil
}
