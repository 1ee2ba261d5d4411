package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	gen := NewSequentialIDs()
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", gen.Generate())
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", gen.Generate())
}

func TestSequentialIDsConcurrent(t *testing.T) {
	gen := NewSequentialIDs()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}
