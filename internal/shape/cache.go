package shape

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/pgshape/internal/ir"
)

// Recorder persists newly computed projections. The SQLite catalog
// implements it. Record is called once per distinct projection ID.
type Recorder interface {
	Record(p Projection) error
}

// Cache memoizes projections for one schema. The map is read-mostly and
// insert-if-absent; concurrent misses on the same key share one
// computation. Entries are never evicted or invalidated.
type Cache struct {
	projector *Projector
	recorder  Recorder
	clock     Sequencer
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]Projection // keyed by table + "\x00" + columns
	byID    map[string]Projection // first projection computed per ID

	group singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithRecorder persists every newly computed projection.
func WithRecorder(r Recorder) CacheOption {
	return func(c *Cache) {
		c.recorder = r
	}
}

// WithClock sets the sequencer used to stamp projections. Defaults to a
// fresh Clock.
func WithClock(clock Sequencer) CacheOption {
	return func(c *Cache) {
		c.clock = clock
	}
}

// WithCacheLogger sets the logger. Defaults to the projector's logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache wraps a projector with memoization.
func NewCache(p *Projector, opts ...CacheOption) *Cache {
	c := &Cache{
		projector: p,
		clock:     NewClock(),
		logger:    p.logger,
		entries:   make(map[string]Projection),
		byID:      make(map[string]Projection),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Projector returns the wrapped projector.
func (c *Cache) Projector() *Projector {
	return c.projector
}

// Resolve is Projector.Resolve with memoization.
func (c *Cache) Resolve(table, columns string, fallback ir.Type) Projection {
	key := table + "\x00" + columns

	c.mu.RLock()
	proj, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return proj.withFallback(fallback)
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		return c.compute(key, table, columns), nil
	})
	return v.(Projection).withFallback(fallback)
}

func (c *Cache) compute(key, table, columns string) Projection {
	c.mu.RLock()
	if proj, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return proj
	}
	c.mu.RUnlock()

	c.logger.Debug("shape cache miss", "table", table, "columns", columns)
	proj := c.projector.resolve(table, columns)

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return existing
	}
	first, seen := c.byID[proj.ID]
	if seen {
		proj.Seq = first.Seq
	} else {
		proj.Seq = c.clock.Next()
		c.byID[proj.ID] = proj
	}
	c.entries[key] = proj
	c.mu.Unlock()

	if !seen && c.recorder != nil {
		if err := c.recorder.Record(proj); err != nil {
			c.logger.Warn("failed to record projection", "id", proj.ID, "error", err)
		}
	}
	return proj
}

// Len returns the number of distinct projection IDs computed so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Entries returns one projection per distinct ID, ordered by seq.
func (c *Cache) Entries() []Projection {
	c.mu.RLock()
	out := make([]Projection, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b Projection) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}
