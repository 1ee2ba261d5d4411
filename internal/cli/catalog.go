package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/shape"
	"github.com/roach88/pgshape/internal/store"
)

// Manifest lists the shapes an application uses, for catalog import.
type Manifest struct {
	Shapes []ManifestEntry `yaml:"shapes"`
}

// ManifestEntry is one named shape.
type ManifestEntry struct {
	Name   string `yaml:"name"`
	From   string `yaml:"from"`
	Select string `yaml:"select"`
}

// CatalogEntry is one catalogued shape as printed.
type CatalogEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Table    string `json:"table"`
	Select   string `json:"select"`
	Shape    string `json:"shape"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
	Seq      int64  `json:"seq"`
	Added    bool   `json:"added"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Record and list the shapes an application uses",
		Long: `Manage the shape catalog, a SQLite database of resolved shapes.

Each shape is keyed by the schema hash, the table and the canonical select,
so recording the same select twice keeps the first record. Code generation
reads the catalog.`,
	}

	cmd.AddCommand(newCatalogAddCommand(rootOpts))
	cmd.AddCommand(newCatalogImportCommand(rootOpts))
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogShowCommand(rootOpts))

	return cmd
}

func newCatalogAddCommand(rootOpts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:           "add <table> [select]",
		Short:         "Resolve a shape and record it",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := ManifestEntry{Name: name, From: args[0]}
			if len(args) == 2 {
				entry.Select = args[1]
			}
			return runCatalogAdd(rootOpts, []ManifestEntry{entry}, cmd)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Go type name for the shape")

	return cmd
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Record every shape listed in a manifest",
		Long: `Record every shape listed in a YAML manifest:

  shapes:
    - name: WorkspaceTeam
      from: workspaces
      select: "id, team:members(user:users(id, email))"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			manifest, err := LoadManifest(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, err.Error(), nil)
			}
			return runCatalogAdd(rootOpts, manifest.Shapes, cmd)
		},
	}
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List catalogued shapes of the current schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(rootOpts, all, cmd)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include shapes of every schema version")

	return cmd
}

func newCatalogShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one catalogued shape",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(rootOpts, args[0], cmd)
		},
	}
}

// LoadManifest reads a shape manifest. Unknown fields are rejected.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Shapes) == 0 {
		return nil, fmt.Errorf("invalid manifest: no shapes")
	}
	for i, e := range m.Shapes {
		if e.From == "" {
			return nil, fmt.Errorf("invalid manifest: shapes[%d]: from is required", i)
		}
	}
	return &m, nil
}

// openCatalog opens the catalog, creating its directory.
func openCatalog(path string) (*store.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}
	return store.Open(path)
}

func runCatalogAdd(opts *RootOptions, entries []ManifestEntry, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, err := loadSchemaOrFail(opts, formatter)
	if err != nil {
		return err
	}

	st, err := openCatalog(opts.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}
	defer st.Close()

	added, err := recordShapes(cmd.Context(), st, schema, entries, opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(added)
	}
	for _, e := range added {
		mark := "✓"
		if e.Degraded {
			mark = "!"
		}
		status := "added"
		if !e.Added {
			status = "already catalogued"
		}
		fmt.Fprintf(formatter.Writer, "%s %s?select=%s (%s)\n", mark, e.Table, e.Select, status)
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Shape)
		if e.Error != "" {
			fmt.Fprintf(formatter.Writer, "  degraded: %s\n", e.Error)
		}
	}
	return nil
}

// recordShapes resolves entries in order and writes them to the catalog.
// The clock resumes after the highest recorded seq so new shapes sort
// after old ones.
func recordShapes(ctx context.Context, st *store.Store, schema *ir.Schema, entries []ManifestEntry, opts *RootOptions) ([]CatalogEntry, error) {
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return nil, err
	}

	projector := shape.NewProjector(schema, shape.WithLogger(opts.logger()))
	cache := shape.NewCache(projector,
		shape.WithClock(shape.NewClockAt(maxSeq)),
		shape.WithCacheLogger(opts.logger()),
	)

	out := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		proj := cache.Resolve(e.From, e.Select, nil)
		rec := store.RecordFromProjection(projector.SchemaHash(), e.Name, proj)
		inserted, err := st.WriteShape(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !inserted {
			if rec, err = st.ReadShape(ctx, rec.ID); err != nil {
				return nil, err
			}
		}
		entry := newCatalogEntry(rec)
		entry.Added = inserted
		out = append(out, entry)
	}
	return out, nil
}

func newCatalogEntry(rec store.ShapeRecord) CatalogEntry {
	sel := rec.Select
	if sel == "" {
		sel = rec.Columns
	}
	return CatalogEntry{
		ID:       rec.ID,
		Name:     rec.Name,
		Table:    rec.Table,
		Select:   sel,
		Shape:    rec.Type.String(),
		Degraded: rec.Degraded,
		Error:    rec.Error,
		Seq:      rec.Seq,
	}
}

// catalogRecords returns the shapes of the current schema, or every shape
// when all is set.
func catalogRecords(ctx context.Context, opts *RootOptions, formatter *OutputFormatter, all bool) ([]store.ShapeRecord, error) {
	var hash string
	if !all {
		schema, err := loadSchemaOrFail(opts, formatter)
		if err != nil {
			return nil, err
		}
		if hash, err = ir.SchemaHash(schema); err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	}

	st, err := openCatalog(opts.Catalog)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}
	defer st.Close()

	var records []store.ShapeRecord
	if all {
		records, err = st.ListShapes(ctx)
	} else {
		records, err = st.ListShapesForSchema(ctx, hash)
	}
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d shape(s) from %s", len(records), opts.Catalog)
	return records, nil
}

func runCatalogList(opts *RootOptions, all bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	records, err := catalogRecords(cmd.Context(), opts, formatter, all)
	if err != nil {
		return err
	}

	entries := make([]CatalogEntry, len(records))
	for i, rec := range records {
		entries[i] = newCatalogEntry(rec)
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No shapes catalogued.")
		return nil
	}

	t := table.New().Headers("SEQ", "NAME", "TABLE", "SELECT", "SHAPE")
	for _, e := range entries {
		t.Row(strconv.FormatInt(e.Seq, 10), e.Name, e.Table, e.Select, e.Shape)
	}
	fmt.Fprintln(formatter.Writer, t.Render())
	return nil
}

func runCatalogShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openCatalog(opts.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}
	defer st.Close()

	rec, err := st.ReadShape(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("shape %s not catalogued", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(map[string]any{
			"entry":       newCatalogEntry(rec),
			"schema_hash": rec.SchemaHash,
			"type":        ir.TypeToMap(rec.Type),
		})
	}

	entry := newCatalogEntry(rec)
	fmt.Fprintf(formatter.Writer, "%s?select=%s\n", entry.Table, entry.Select)
	fmt.Fprintf(formatter.Writer, "  id:     %s\n", entry.ID)
	fmt.Fprintf(formatter.Writer, "  schema: %s\n", rec.SchemaHash)
	if entry.Name != "" {
		fmt.Fprintf(formatter.Writer, "  name:   %s\n", entry.Name)
	}
	fmt.Fprintf(formatter.Writer, "  shape:  %s\n", entry.Shape)
	return nil
}
