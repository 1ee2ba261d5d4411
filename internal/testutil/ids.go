package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDs generates request IDs "00000000-0000-7000-8000-000000000001",
// "...0002" and so on. Each generator starts from 1.
//
// Stands in for the UUIDv7 generator so encoded requests and logs are
// reproducible.
type SequentialIDs struct {
	n atomic.Int64
}

// NewSequentialIDs creates a generator whose first ID ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n.Add(1))
}
