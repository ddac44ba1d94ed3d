package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recipebox/internal/dispatch"
	"github.com/roach88/recipebox/internal/filter"
	"github.com/roach88/recipebox/internal/importer"
	"github.com/roach88/recipebox/internal/recipe"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import recipes from a YAML, TOML, CUE or JSON document",
		Long: `Import every recipe of a document file as a new recipe.

The format is chosen by extension (.yaml, .yml, .toml, .cue, .json). The
whole file is validated before anything is written.

Examples:
  recipebox import --db ./recipes.db soups.yaml
  recipebox import --db ./recipes.db soups.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			recipes, err := importer.Load(args[0])
			if err != nil {
				return f.Fail("failed to read document", err)
			}

			a, err := rootOpts.openApp()
			if err != nil {
				return report(f, "", err)
			}
			defer a.Close()

			d := a.catalog.Dispatcher()
			for i, r := range recipes {
				out, err := d.Dispatch(cmd.Context(), dispatch.Add(r))
				if err != nil {
					return f.Fail(fmt.Sprintf("failed to import recipe %d of %d (%q)", i+1, len(recipes), r.Name), err)
				}
				f.VerboseLog("imported %q (token %s)", r.Name, out.Token)
			}
			return f.Mutation(MutationResult{Action: "import", Count: len(recipes)}, d.Version(),
				fmt.Sprintf("Imported %d recipes from %s.", len(recipes), args[0]))
		},
	}
	return cmd
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	As     string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all recipes as a YAML, JSON or TOML document",
		Long: `Export all recipes as a document that import accepts.

Examples:
  recipebox export --db ./recipes.db > recipes.yaml
  recipebox export --db ./recipes.db --as json -o recipes.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "yaml", "document format (yaml|json|toml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	format, err := importer.ParseFormat(opts.As)
	if err != nil || format == importer.FormatCUE {
		return report(f, "", NewExitError(ExitCommandError, fmt.Sprintf("cannot export as %q: use yaml, json or toml", opts.As)))
	}

	a, err := opts.openApp()
	if err != nil {
		return report(f, "", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	items, err := a.catalog.List(ctx, filter.Query{})
	if err != nil {
		return f.Fail("failed to list recipes", err)
	}
	recipes := make([]recipe.Recipe, 0, len(items))
	for _, item := range items {
		r, err := a.catalog.Detail(ctx, item.ID)
		if err != nil {
			return f.Fail(fmt.Sprintf("failed to load recipe %d", item.ID), err)
		}
		recipes = append(recipes, r)
	}

	var buf bytes.Buffer
	if err := importer.Write(&buf, format, recipes); err != nil {
		return f.Fail("failed to encode recipes", err)
	}

	if opts.Output == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return report(f, "", WrapExitError(ExitCommandError, "failed to write export", err))
	}
	return f.Mutation(MutationResult{Action: "export", Count: len(recipes)}, a.catalog.Version(),
		fmt.Sprintf("Exported %d recipes to %s.", len(recipes), opts.Output))
}
