package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe",
		Long: `Show a recipe with its tags, ingredients, instructions and notes.

Ingredient and note indices in the output are the ones edit accepts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return report(f, "", err)
			}
			a, err := rootOpts.openApp()
			if err != nil {
				return report(f, "", err)
			}
			defer a.Close()

			r, err := a.catalog.Detail(cmd.Context(), id)
			if err != nil {
				return f.Fail("failed to load recipe", err)
			}
			v := viewOf(r)
			return f.Result(v, func(w io.Writer) error {
				return writeRecipe(w, v)
			})
		},
	}
	return cmd
}
