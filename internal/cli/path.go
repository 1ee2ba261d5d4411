package cli

import (
	"fmt"
	"strconv"

	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/resolve"
)

// PathResult is the filter type of one path.
type PathResult struct {
	Table string `json:"table"`
	Path  string `json:"path"`
	Type  string `json:"type"`
}

// PathListResult lists every filter path reachable from a table.
type PathListResult struct {
	Table string        `json:"table"`
	Depth int           `json:"depth"`
	Paths []PathSummary `json:"paths"`
}

// PathSummary is one enumerated path.
type PathSummary struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	FanOut int    `json:"fan_out"`
}

// NewPathCommand creates the path command.
func NewPathCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <table> [path]",
		Short: "Type a filter path, or list every path of a table",
		Long: `Resolve the type a filter value on a dotted path must have.

Each to-many relationship along the path makes the filter type an array of
the leaf type, wrapped once however many to-many hops there are. Without a
path, every scalar path reachable within --depth relationships is listed.

Examples:
  pgshape path workspaces members.users.id
  pgshape path workspaces --depth 3`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return runPath(rootOpts, args[0], args[1], cmd)
			}
			return runPathList(rootOpts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&rootOpts.Depth, "depth", DefaultDepth, "relationships to follow when listing paths")

	return cmd
}

func runPath(opts *RootOptions, table, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, err := loadSchemaOrFail(opts, formatter)
	if err != nil {
		return err
	}

	typ, err := resolve.FilterType(schema, table, path)
	if err != nil {
		return formatter.Fail(ExitFailure, ResolveErrorCode(err), err.Error(), map[string]string{"table": table, "path": path})
	}

	result := PathResult{Table: table, Path: path, Type: typ.String()}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Type)
	return nil
}

func runPathList(opts *RootOptions, table string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, err := loadSchemaOrFail(opts, formatter)
	if err != nil {
		return err
	}

	paths, err := resolve.Enumerate(schema, table, opts.Depth)
	if err != nil {
		code := ResolveErrorCode(err)
		if code == ErrCodeGeneric {
			code = ErrCodeInvalidArgument
		}
		return formatter.Fail(ExitFailure, code, err.Error(), nil)
	}

	result := PathListResult{Table: table, Depth: opts.Depth, Paths: make([]PathSummary, len(paths))}
	for i, p := range paths {
		result.Paths[i] = PathSummary{Path: p.Path, Type: p.Type.String(), FanOut: p.FanOut}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	t := lgtable.New().Headers("PATH", "TYPE", "FAN-OUT")
	for _, p := range result.Paths {
		t.Row(p.Path, p.Type, strconv.Itoa(p.FanOut))
	}
	fmt.Fprintln(formatter.Writer, t.Render())
	return nil
}
