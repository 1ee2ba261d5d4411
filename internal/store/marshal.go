package store

import (
	"fmt"

	"github.com/roach88/pgshape/internal/ir"
)

// marshalShape encodes a row type as canonical JSON TEXT. Field order is
// kept because shapes encode fields as an array.
func marshalShape(t ir.Type) (string, error) {
	if t == nil {
		t = ir.Unknown{}
	}
	data, err := ir.MarshalType(t)
	if err != nil {
		return "", fmt.Errorf("marshal shape: %w", err)
	}
	return string(data), nil
}

func unmarshalShape(data string) (ir.Type, error) {
	if data == "" {
		return ir.Unknown{}, nil
	}
	t, err := ir.UnmarshalType([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal shape: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
