package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	EntryFlags
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recipe",
		Long: `Create a recipe and print its path.

Examples:
  recipebox add --db ./recipes.db --name "Tomato Soup" --tag soup \
    --ingredient "4|tomatoes" --ingredient "1 l|stock" --instructions "Simmer."`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	opts.EntryFlags.register(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	a, err := opts.openApp()
	if err != nil {
		return report(f, "", err)
	}
	defer a.Close()

	s := a.catalog.NewSession()
	if err := opts.EntryFlags.apply(cmd, s); err != nil {
		return report(f, "", WrapExitError(ExitCommandError, "invalid recipe", err))
	}
	if err := a.catalog.Submit(cmd.Context(), s); err != nil {
		return f.Fail("failed to create recipe", err)
	}

	id := *s.ID()
	path := a.navigated[len(a.navigated)-1]
	return f.Mutation(MutationResult{Action: "add", ID: id, Path: path}, a.catalog.Version(),
		fmt.Sprintf("Created recipe %d at %s", id, path))
}
