package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pgshape/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Tables int                        `json:"tables"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the schema without writing IR",
		Long: `Validate the CUE schema.

Compiles the schema and checks that every table and column name can be
written in a select expression or filter path. Reports every problem found
rather than stopping at the first. Faster than compile for development
feedback.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	schema, err := LoadSchema(opts.Schema)
	if err != nil {
		var loadErr *LoadError
		errors.As(err, &loadErr)
		// Errors in the schema's content are validation failures; a
		// missing or unreadable directory is a command error.
		if loadErr.Pos.IsValid() || isContentCode(loadErr.Code) {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field:   "schema",
				Message: loadErr.Located(),
				Code:    loadErr.Code,
				Line:    loadErr.Line(),
			}})
		}
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}

	formatter.VerboseLog("Validating %d table(s) in %s", len(schema.Tables()), opts.Schema)

	if errs := compiler.Validate(schema); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter, len(schema.Tables()))
}

func isContentCode(code string) bool {
	switch code {
	case ErrCodeBuildFailed, ErrCodeInvalidTable, ErrCodeInvalidRelationship, ErrCodeInvalidColumnType:
		return true
	}
	return false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, tables int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d table(s))\n", tables)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return failure
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return failure
}
