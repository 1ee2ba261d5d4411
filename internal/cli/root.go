package cli

import (
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/ir"
)

// RootOptions holds global flags for all commands. PersistentPreRunE
// replaces the flag values with the merged configuration, so commands
// read settings from here rather than from their flags.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Schema     string // CUE schema directory
	Catalog    string // SQLite shape catalog
	BaseURL    string
	Depth      int
	Gen        GenConfig
	Logger     *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pgshape CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "pgshape",
		Short:   "pgshape - typed PostgREST queries",
		Version: ir.EngineVersion,
		Long: `Resolve PostgREST select expressions and filter paths against a CUE
schema, build type-checked requests, and generate Go types for the shapes
an application uses.

Settings come from flags, PGSHAPE_* environment variables, pgshape.yaml
and built-in defaults, in that order of priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}
			opts.apply(cfg)
			opts.Logger = newLogger(cmd, opts.Verbose)
			opts.Logger.Debug("configuration loaded",
				"file", cfg.File, "schema", cfg.Schema, "catalog", cfg.Catalog)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default pgshape.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", DefaultSchemaDir, "CUE schema directory")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", DefaultCatalog, "shape catalog database")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", DefaultBaseURL, "PostgREST base URL")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShapeCommand(opts))
	cmd.AddCommand(NewPathCommand(opts))
	cmd.AddCommand(NewRequestCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewGenCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func (o *RootOptions) apply(cfg *Config) {
	o.Verbose = cfg.Verbose
	o.Format = cfg.Format
	o.Schema = cfg.Schema
	o.Catalog = cfg.Catalog
	o.BaseURL = cfg.BaseURL
	o.Depth = cfg.Depth
	o.Gen = cfg.Gen
}

// logger returns the configured logger, or one that discards everything
// when the command runs without the root (as in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// newLogger writes to stderr so that JSON on stdout stays parseable.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
