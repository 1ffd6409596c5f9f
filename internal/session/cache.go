package session

import (
	"context"
	"sort"
	"sync"

	"github.com/futig/pdf-digest/internal/entity"
	"golang.org/x/sync/singleflight"
)

// Engine is a built query engine held by the cache.
type Engine interface {
	Query(ctx context.Context, query string) (*entity.QueryResponse, error)
	Documents() []entity.DocumentMetadata
}

// BuildFunc constructs the engine for a cache miss.
type BuildFunc func(ctx context.Context) (Engine, error)

// Key joins a session identifier and an uploaded filename.
func Key(sessionID, filename string) string {
	return sessionID + "-" + filename
}

type cacheEntry struct {
	filename string
	engine   Engine
}

// EngineCache memoizes query engines of one session by (session, filename).
type EngineCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	builds  singleflight.Group
}

func NewEngineCache() *EngineCache {
	return &EngineCache{
		entries: make(map[string]cacheEntry),
	}
}

// Lookup returns the cached engine, if any.
func (c *EngineCache) Lookup(sessionID, filename string) (Engine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[Key(sessionID, filename)]
	return e.engine, ok
}

// Store inserts or replaces the engine for (sessionID, filename).
func (c *EngineCache) Store(sessionID, filename string, engine Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(sessionID, filename)] = cacheEntry{filename: filename, engine: engine}
}

// GetOrBuild returns the cached engine or builds and stores it. Concurrent
// calls for the same key share one build; every caller waits with its own
// context while the build itself is not cancelled by any single caller.
// A failed build stores nothing. cached reports whether no build was needed.
func (c *EngineCache) GetOrBuild(ctx context.Context, sessionID, filename string, build BuildFunc) (engine Engine, cached bool, err error) {
	if engine, ok := c.Lookup(sessionID, filename); ok {
		return engine, true, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := c.builds.DoChan(Key(sessionID, filename), func() (any, error) {
		if engine, ok := c.Lookup(sessionID, filename); ok {
			return engine, nil
		}

		engine, err := build(buildCtx)
		if err != nil {
			return nil, err
		}

		c.Store(sessionID, filename, engine)
		return engine, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(Engine), false, nil
	}
}

// Filenames lists cached filenames in lexical order.
func (c *EngineCache) Filenames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.filename)
	}
	sort.Strings(names)
	return names
}

func (c *EngineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear drops every entry.
func (c *EngineCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
