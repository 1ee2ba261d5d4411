package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. A *PathError wraps exactly one of these; compare with
// errors.Is.
var (
	ErrUnknownTable       = errors.New("unknown table")
	ErrUnknownPathSegment = errors.New("unknown path segment")
	ErrIncompletePath     = errors.New("path ends on a relationship")
	ErrEmptyPath          = errors.New("empty path")
	ErrNotAssignable      = errors.New("value not assignable")
)

// PathError reports where resolution of a path failed.
type PathError struct {
	Table    string   // root table
	Segments []string // the full path
	Index    int      // failing segment, -1 when the path as a whole is bad
	Err      error
}

func (e *PathError) Error() string {
	path := strings.Join(e.Segments, ".")
	if e.Index < 0 || e.Index >= len(e.Segments) {
		return fmt.Sprintf("resolve %s %q: %v", e.Table, path, e.Err)
	}
	return fmt.Sprintf("resolve %s %q: segment %q: %v", e.Table, path, e.Segments[e.Index], e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
