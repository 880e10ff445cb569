// Package cache stores rendered segments keyed by their raw source text.
//
// Entries are swept lazily: each insert first checks the entry count
// against a threshold and, when it is exceeded, drops every entry that
// was not read within the freshness window. A separate last-known-good
// slot keeps the most recent successfully compiled diagram so a transient
// compile error can be masked while the author is typing.
package cache

import (
	"sync"
	"time"
)

// Defaults for a live-preview session.
const (
	DefaultThreshold   = 50
	DefaultFreshness   = 10 * time.Second
	DefaultGracePeriod = 10 * time.Second
)

// Diagram is a successfully compiled diagram and its source description.
type Diagram struct {
	Description string
	Rendered    string
}

type entry struct {
	rendered string
	lastRead time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	threshold int
	freshness time.Duration
	grace     time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	started time.Time
	lkg     *Diagram
}

// Option configures a Cache.
type Option func(*Cache)

// WithThreshold sets the entry count above which inserts trigger a sweep.
func WithThreshold(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithFreshness sets how recently an entry must have been read to survive a sweep.
func WithFreshness(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.freshness = d
		}
	}
}

// WithGracePeriod sets how long after creation (or Reset) the
// last-known-good slot stays untouched.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.grace = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		threshold: DefaultThreshold,
		freshness: DefaultFreshness,
		grace:     DefaultGracePeriod,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.now()
	return c
}

// Get returns the rendered output for raw and refreshes its last-read time.
func (c *Cache) Get(raw string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[raw]
	if !ok {
		return "", false
	}
	e.lastRead = c.now()
	return e.rendered, true
}

// Put stores rendered output for raw.
func (c *Cache) Put(raw, rendered string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(raw, rendered)
}

// PutDiagram stores a compiled diagram and, once the grace period has
// elapsed, makes it the last-known-good diagram.
func (c *Cache) PutDiagram(raw, rendered string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Sub(c.started) > c.grace {
		c.lkg = &Diagram{Description: raw, Rendered: rendered}
	}
	c.insert(raw, rendered)
}

// LastKnownGood returns the most recent diagram recorded by PutDiagram.
func (c *Cache) LastKnownGood() (Diagram, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lkg == nil {
		return Diagram{}, false
	}
	return *c.lkg, true
}

// Reset drops every entry and the last-known-good diagram, and restarts
// the grace period.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.lkg = nil
	c.started = c.now()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// insert must be called with c.mu held.
func (c *Cache) insert(raw, rendered string) {
	now := c.now()
	if len(c.entries) > c.threshold {
		c.sweep(now)
	}
	c.entries[raw] = &entry{rendered: rendered, lastRead: now}
}

func (c *Cache) sweep(now time.Time) {
	cutoff := now.Add(-c.freshness)
	for raw, e := range c.entries {
		if !e.lastRead.After(cutoff) {
			delete(c.entries, raw)
		}
	}
}
