package cli

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/recipebox/internal/config"
	"github.com/roach88/recipebox/internal/metrics"
)

// RootOptions holds global flags and the configuration resolved from them.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	ConfigFile  string
	MetricsFile string

	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewRootCommand creates the root command for the recipebox CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
	}

	cmd := &cobra.Command{
		Use:   "recipebox",
		Short: "recipebox - a personal recipe catalog",
		Long: `A personal recipe catalog backed by SQLite.

Recipes have a name, tags, ingredient lines, instructions and notes.
List and search them, edit them, and move them in and out of YAML, TOML,
CUE and JSON documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if opts.Verbose {
				cfg.LogLevel = slog.LevelDebug
			}
			opts.Config = cfg
			opts.Format = cfg.Format
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
			if cfg.File != "" {
				opts.Logger.Debug("config loaded", "file", cfg.File)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config.MetricsFile == "" {
				return nil
			}
			if err := metrics.WriteTextfile(opts.Config.MetricsFile, opts.Registry); err != nil {
				return WrapExitError(ExitFailure, "failed to write metrics", err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (or RECIPEBOX_DB)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/recipebox/recipebox.yaml)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write dispatch metrics to this node-exporter textfile")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDuplicateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
