package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/compiler"
	"github.com/roach88/pgshape/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled schema with its hash and cycle
// report.
type CompilationResult struct {
	IRVersion  string                  `json:"ir_version"`
	SchemaHash string                  `json:"schema_hash"`
	Schema     map[string]any          `json:"schema"`
	Cycles     []compiler.CycleWarning `json:"cycles,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the CUE schema to canonical IR",
		Long: `Compile the CUE schema directory to canonical IR.

The compiler loads every CUE file of the schema package, checks tables,
columns and relationships, and writes the schema as canonical JSON. The
schema hash identifies the schema version shapes are catalogued against.
Relationship cycles are reported as information.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR to this file")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	schema, err := loadSchemaOrFail(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	hash, err := ir.SchemaHash(schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("hashing schema: %v", err), nil)
	}

	result := &CompilationResult{
		IRVersion:  ir.IRVersion,
		SchemaHash: hash,
		Schema:     ir.SchemaToMap(schema),
		Cycles:     compiler.AnalyzeCycles(schema),
	}
	for _, t := range schema.Tables() {
		formatter.VerboseLog("Compiled table: %s", t.Name)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result.Schema, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, schema, result, opts.Output)
}

// writeIRToFile writes the schema IR as canonical JSON.
func writeIRToFile(schema map[string]any, path string) error {
	data, err := ir.MarshalCanonical(schema)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, schema *ir.Schema, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	// Human-readable text output
	tables := schema.Tables()
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d table(s)\n\n", len(tables))

	fmt.Fprintln(formatter.Writer, "Tables:")
	for _, t := range tables {
		fmt.Fprintf(formatter.Writer, "  %s: %d column(s), %d relationship(s)\n",
			t.Name, len(t.ScalarColumns()), len(t.Relations()))
	}
	fmt.Fprintln(formatter.Writer)

	if len(result.Cycles) > 0 {
		fmt.Fprintln(formatter.Writer, "Cycles:")
		for _, c := range result.Cycles {
			fmt.Fprintf(formatter.Writer, "  %s\n", c.Message)
		}
		fmt.Fprintln(formatter.Writer)
	}

	fmt.Fprintf(formatter.Writer, "Schema hash: %s\n", result.SchemaHash)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", outputFile)
	}
	return nil
}
