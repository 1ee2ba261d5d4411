package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pgshape/internal/postgrest"
	"github.com/roach88/pgshape/internal/resolve"
	"github.com/roach88/pgshape/internal/selectexpr"
)

// ErrorKind classifies err into one of the Kind constants. It returns ""
// for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var parseErr *selectexpr.ParseError
	var filterErr *postgrest.FilterTypeError
	var valueErr *postgrest.ValueTypeError
	switch {
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &filterErr), errors.As(err, &valueErr):
		return KindType
	case errors.Is(err, resolve.ErrUnknownTable):
		return KindUnknownTable
	case errors.Is(err, resolve.ErrUnknownPathSegment):
		return KindUnknownSegment
	case errors.Is(err, resolve.ErrIncompletePath):
		return KindIncompletePath
	case errors.Is(err, resolve.ErrEmptyPath):
		return KindEmptyPath
	default:
		return KindOther
	}
}

// checkShape returns a mismatch message, or "" when out meets expect.
func checkShape(expect ShapeExpect, out Outcome) string {
	if expect.Error != "" {
		if out.Error != expect.Error {
			return mismatch("error", expect.Error, out.Error)
		}
		return ""
	}
	if out.Error != "" {
		return mismatch("error", "", out.Error)
	}
	if out.Type != expect.Shape {
		return mismatch("shape", expect.Shape, out.Type)
	}
	if expect.Degraded != nil && !slices.Equal(expect.Degraded, out.Degraded) {
		return mismatch("degraded", strings.Join(expect.Degraded, ","), strings.Join(out.Degraded, ","))
	}
	return ""
}

func checkFilter(expect FilterExpect, out Outcome) string {
	if out.Error != expect.Error {
		return mismatch("error", expect.Error, out.Error)
	}
	if out.Type != expect.Type {
		return mismatch("type", expect.Type, out.Type)
	}
	return ""
}

func checkRequest(expect RequestExpect, out Outcome) string {
	if out.Error != expect.Error {
		return mismatch("error", expect.Error, out.Error)
	}
	if expect.Target != "" && out.Target != expect.Target {
		return mismatch("target", expect.Target, out.Target)
	}
	return ""
}

func mismatch(field, expected, actual string) string {
	if expected == "" {
		expected = "<none>"
	}
	if actual == "" {
		actual = "<none>"
	}
	return fmt.Sprintf("%s: expected %q, got %q", field, expected, actual)
}
