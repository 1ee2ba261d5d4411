package shape

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pgshape/internal/ir"
	"github.com/roach88/pgshape/internal/testutil"
)

type memRecorder struct {
	mu      sync.Mutex
	records []Projection
	err     error
}

func (r *memRecorder) Record(p Projection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, p)
	return r.err
}

func newCache(opts ...CacheOption) *Cache {
	return NewCache(newProjector(testutil.WorkspaceSchema()), opts...)
}

func TestCacheMemoizes(t *testing.T) {
	rec := &memRecorder{}
	c := newCache(WithRecorder(rec), WithClock(testutil.NewDeterministicClock()))

	first := c.Resolve("workspaces", "id, name", nil)
	again := c.Resolve("workspaces", "id, name", nil)
	spaced := c.Resolve("workspaces", "id ,name", nil)
	other := c.Resolve("users", "*", nil)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, first, again)
	assert.Equal(t, first.ID, spaced.ID)
	assert.Equal(t, first.Seq, spaced.Seq, "same canonical select shares a seq")
	assert.Equal(t, int64(2), other.Seq)

	assert.Equal(t, 2, c.Len())
	require.Len(t, rec.records, 2, "one record per distinct projection")
	assert.Equal(t, first.ID, rec.records[0].ID)
	assert.Equal(t, other.ID, rec.records[1].ID)
}

func TestCacheEntriesOrderedBySeq(t *testing.T) {
	c := newCache()
	for _, cols := range []string{"id", "name", "*", "id"} {
		c.Resolve("workspaces", cols, nil)
	}

	var selects []string
	for _, p := range c.Entries() {
		selects = append(selects, p.Select)
	}
	assert.Equal(t, []string{"id", "name", "*"}, selects)
}

func TestCacheConcurrentMissesShareWork(t *testing.T) {
	rec := &memRecorder{}
	c := newCache(WithRecorder(rec))

	var wg sync.WaitGroup
	results := make([]Projection, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Resolve("workspaces", "*, members(*)", nil)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0].ID, r.ID)
		assert.Equal(t, results[0].Seq, r.Seq)
	}
	assert.Len(t, rec.records, 1)
}

func TestCacheAppliesFallbackPerCaller(t *testing.T) {
	c := newCache()
	fa := ir.Scalar{Name: ir.TypeJSON}
	fb := ir.Object{Shape: ir.NewShape()}

	assert.Equal(t, fa, c.Resolve("ghosts", "*", fa).Type)
	assert.Equal(t, fb, c.Resolve("ghosts", "*", fb).Type)
	assert.Equal(t, ir.Unknown{}, c.Resolve("ghosts", "*", nil).Type)
}

func TestCacheRecorderErrorIsNotFatal(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	c := newCache(WithRecorder(rec))

	proj := c.Resolve("users", "*", nil)
	assert.NoError(t, proj.Err)
	assert.Equal(t, "{id: string, email: string}", proj.Shape().String())
}

func TestClockResumes(t *testing.T) {
	clock := NewClockAt(41)
	assert.Equal(t, int64(42), clock.Next())
	assert.Equal(t, int64(42), clock.Current())
	assert.Equal(t, int64(1), NewClock().Next())
}
