package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recipebox/internal/filter"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Tags   []string
	Search string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Long: `List recipes in creation order.

--tag may be repeated; a recipe is shown if it has any selected tag.
--search matches words of the name, tags and ingredients, ignoring case
and accents, in either direction of containment.

Examples:
  recipebox list --db ./recipes.db
  recipebox list --db ./recipes.db --tag soup --tag quick
  recipebox list --db ./recipes.db --search "tomato" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "only recipes with any of these tags")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "free-text search")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	a, err := opts.openApp()
	if err != nil {
		return report(f, "", err)
	}
	defer a.Close()

	q := filter.Query{Tags: filter.NewSelection(opts.Tags...), Search: opts.Search}
	items, err := a.catalog.List(cmd.Context(), q)
	if err != nil {
		return f.Fail("failed to list recipes", err)
	}

	rows := summarize(items)
	return f.Result(rows, func(w io.Writer) error {
		return writeSummaries(w, rows)
	})
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tags",
		Short:         "List every tag in use, sorted",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp()
			if err != nil {
				return report(f, "", err)
			}
			defer a.Close()

			tags, err := a.catalog.Tags(cmd.Context())
			if err != nil {
				return f.Fail("failed to list tags", err)
			}
			return f.Result(tags, func(w io.Writer) error {
				if len(tags) == 0 {
					_, err := fmt.Fprintln(w, "No tags.")
					return err
				}
				_, err := fmt.Fprintln(w, strings.Join(tags, "\n"))
				return err
			})
		},
	}
	return cmd
}
