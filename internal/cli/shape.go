package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/shape"
)

// ShapeOptions holds flags for the shape command.
type ShapeOptions struct {
	*RootOptions
	Strict bool // fail when any part of the shape degraded
}

// ShapeResult is one resolved projection.
type ShapeResult struct {
	ID          string         `json:"id"`
	Table       string         `json:"table"`
	Select      string         `json:"select"`
	Shape       string         `json:"shape"`
	Type        map[string]any `json:"type"`
	Degraded    bool           `json:"degraded"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewShapeCommand creates the shape command.
func NewShapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shape <table> [select]",
		Short: "Resolve the row shape of a select expression",
		Long: `Resolve the row shape a PostgREST select returns for a table.

Fields that cannot be resolved degrade to unknown instead of failing; the
diagnostics say which and why. An omitted or empty select is "*".

Examples:
  pgshape shape workspaces "id, team:members(user:users(id, email))"
  pgshape shape users --strict --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			columns := ""
			if len(args) == 2 {
				columns = args[1]
			}
			return runShape(opts, args[0], columns, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any field degraded to unknown")

	return cmd
}

func runShape(opts *ShapeOptions, table, columns string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	schema, err := loadSchemaOrFail(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	projector := shape.NewProjector(schema, shape.WithLogger(opts.logger()))
	result := newShapeResult(projector.Resolve(table, columns, nil))

	if err := outputShape(formatter, result); err != nil {
		return err
	}
	if opts.Strict && result.Degraded {
		return NewExitError(ExitFailure, fmt.Sprintf("shape of %s degraded", table))
	}
	return nil
}

func newShapeResult(p shape.Projection) ShapeResult {
	result := ShapeResult{
		ID:       p.ID,
		Table:    p.Table,
		Select:   p.Select,
		Shape:    p.Type.String(),
		Type:     ir.TypeToMap(p.Type),
		Degraded: p.Degraded,
	}
	for _, d := range p.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, d.String())
	}
	if p.Err != nil {
		result.Error = p.Err.Error()
	}
	return result
}

func outputShape(formatter *OutputFormatter, result ShapeResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Shape)
	if result.Error != "" {
		fmt.Fprintf(formatter.Writer, "  degraded: %s\n", result.Error)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(formatter.Writer, "  degraded: %s\n", d)
	}
	formatter.VerboseLog("shape id %s", result.ID)
	return nil
}
