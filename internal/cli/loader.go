package cli

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/pgshape/internal/compiler"
	"github.com/roach88/pgshape/internal/harness"
	"github.com/roach88/pgshape/internal/ir"
)

// LoadError represents an error that occurred while loading the schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Located is the message prefixed with the source position, if any.
func (e *LoadError) Located() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Line is the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCatalog     = "E008" // Shape catalog unreadable or unwritable

	// Schema compilation errors
	ErrCodeInvalidTable        = "E101" // Table declaration malformed
	ErrCodeInvalidRelationship = "E102" // Relationship cardinality or target malformed
	ErrCodeInvalidColumnType   = "E103" // Unsupported kind or @pg tag

	// Resolution errors
	ErrCodeUnknownTable    = "E201"
	ErrCodeUnknownSegment  = "E202"
	ErrCodeIncompletePath  = "E203"
	ErrCodeEmptyPath       = "E204"
	ErrCodeParse           = "E205" // Malformed select expression
	ErrCodeTypeMismatch    = "E206" // Filter value not assignable to the path type
	ErrCodeInvalidArgument = "E207" // Malformed command argument
)

// LoadSchema compiles the CUE package in dir, converting compiler errors
// into LoadErrors with CLI codes.
func LoadSchema(dir string) (*ir.Schema, error) {
	schema, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertLoadError(err)
	}
	return schema, nil
}

func convertLoadError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapCompileErrorToCode(compileErr),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}

	code := ErrCodeGeneric
	switch {
	case errors.Is(err, compiler.ErrDirNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, compiler.ErrNoCUEFiles):
		code = ErrCodeNoFiles
	case errors.Is(err, compiler.ErrCUELoad):
		code = ErrCodeLoadFailed
	case errors.Is(err, compiler.ErrCUEBuild):
		code = ErrCodeBuildFailed
	case strings.HasPrefix(err.Error(), "scanning "):
		code = ErrCodeScanError
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// MapCompileErrorToCode maps a compiler error to an error code.
func MapCompileErrorToCode(err *compiler.CompileError) string {
	switch {
	case err.Field == "cue":
		return ErrCodeBuildFailed
	case strings.Contains(err.Message, "relationship"):
		return ErrCodeInvalidRelationship
	case strings.Contains(err.Message, "@pg"), strings.HasPrefix(err.Message, "unsupported type"):
		return ErrCodeInvalidColumnType
	default:
		return ErrCodeInvalidTable
	}
}

// ResolveErrorCode maps a resolution, parse or typing error to its CLI
// code.
func ResolveErrorCode(err error) string {
	switch harness.ErrorKind(err) {
	case harness.KindUnknownTable:
		return ErrCodeUnknownTable
	case harness.KindUnknownSegment:
		return ErrCodeUnknownSegment
	case harness.KindIncompletePath:
		return ErrCodeIncompletePath
	case harness.KindEmptyPath:
		return ErrCodeEmptyPath
	case harness.KindParse:
		return ErrCodeParse
	case harness.KindType:
		return ErrCodeTypeMismatch
	default:
		return ErrCodeGeneric
	}
}

// loadSchemaOrFail loads opts.Schema and prints a load failure through
// formatter. Load failures are command-level errors (exit code 2).
func loadSchemaOrFail(opts *RootOptions, formatter *OutputFormatter) (*ir.Schema, error) {
	schema, err := LoadSchema(opts.Schema)
	if err != nil {
		var loadErr *LoadError
		errors.As(err, &loadErr)
		return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Located(), nil)
	}
	formatter.VerboseLog("Loaded %d table(s) from %s", len(schema.Tables()), opts.Schema)
	return schema, nil
}
