package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return newIDMutationCommand(rootOpts, "delete", "Delete a recipe", "Deleted recipe %d.",
		func(ctx context.Context, a *app, id int64) error {
			return a.catalog.Delete(ctx, id)
		})
}

// NewDuplicateCommand creates the duplicate command.
func NewDuplicateCommand(rootOpts *RootOptions) *cobra.Command {
	return newIDMutationCommand(rootOpts, "duplicate", "Copy a recipe into a new one", "Duplicated recipe %d.",
		func(ctx context.Context, a *app, id int64) error {
			return a.catalog.Duplicate(ctx, id)
		})
}

func newIDMutationCommand(rootOpts *RootOptions, name, short, done string,
	run func(ctx context.Context, a *app, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:           name + " <id>",
		Short:         short,
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

			if err := run(cmd.Context(), a, id); err != nil {
				return f.Fail(fmt.Sprintf("failed to %s recipe %d", name, id), err)
			}
			return f.Mutation(MutationResult{Action: name, ID: id}, a.catalog.Version(), fmt.Sprintf(done, id))
		},
	}
}
