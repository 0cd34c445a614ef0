package core

import (
	"sync"

	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
)

// cacheKey identifies identical content analysed under the same extension
type cacheKey struct {
	hash      uint64
	extension string
}

type cacheEntry struct {
	done     chan struct{}
	findings []*models.Finding
	err      error
}

// analysisCache deduplicates detector runs within one scan. The first
// caller for a key computes the result; concurrent callers wait for it.
type analysisCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	hits    int
}

func newAnalysisCache() *analysisCache {
	return &analysisCache{entries: make(map[cacheKey]*cacheEntry)}
}

// do returns the findings for key, computing them with fn at most once.
// The returned findings are attributed to path.
func (c *analysisCache) do(key cacheKey, path string, fn func() ([]*models.Finding, error)) ([]*models.Finding, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		<-e.done
		if e.err != nil {
			return nil, e.err
		}
		return reattribute(e.findings, path), nil
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.findings, e.err = fn()
	close(e.done)
	if e.err != nil {
		return nil, e.err
	}
	return reattribute(e.findings, path), nil
}

// Hits returns how many lookups were served from the cache
func (c *analysisCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func reattribute(findings []*models.Finding, path string) []*models.Finding {
	out := make([]*models.Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.WithFile(path))
	}
	return out
}
