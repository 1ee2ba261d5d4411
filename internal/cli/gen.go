package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/codegen"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	All bool // generate shapes of every schema version
}

// GenResult lists the written files.
type GenResult struct {
	Package string   `json:"package"`
	Files   []string `json:"files"`
	Types   int      `json:"types"`
	Bytes   int64    `json:"bytes"`
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go types for catalogued shapes",
		Long: `Generate one Go file per table with a struct for every catalogued
shape of the current schema. Unknown fields become json.RawMessage and
nullable columns become pointers.

Examples:
  pgshape gen --package shapes --out ./internal/shapes
  pgshape gen --all --workers 8`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&rootOpts.Gen.Package, "package", DefaultGenPackage, "Go package name")
	cmd.Flags().StringVar(&rootOpts.Gen.Out, "out", DefaultGenOut, "output directory")
	cmd.Flags().IntVar(&rootOpts.Gen.Workers, "workers", 0, "files rendered at once (0 means GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include shapes of every schema version")

	return cmd
}

func runGen(opts *GenOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	records, err := catalogRecords(cmd.Context(), opts.RootOptions, formatter, opts.All)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		if formatter.JSON() {
			return formatter.Success(GenResult{Package: opts.Gen.Package, Files: []string{}})
		}
		fmt.Fprintln(formatter.Writer, "No shapes catalogued.")
		return nil
	}

	gen := codegen.New(opts.Gen.Package,
		codegen.WithWorkers(opts.Gen.Workers),
		codegen.WithLogger(opts.logger()),
	)
	files, err := gen.WriteAll(cmd.Context(), opts.Gen.Out, records)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	m := gen.Metrics()
	result := GenResult{Package: opts.Gen.Package, Files: files, Types: m.TypesGenerated, Bytes: m.TotalBytes}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %d type(s) in %d file(s)\n", result.Types, len(result.Files))
	for _, f := range result.Files {
		fmt.Fprintf(formatter.Writer, "  %s\n", f)
	}
	return nil
}
