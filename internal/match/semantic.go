package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Result is the outcome of one semantic field-name comparison.
type Result struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SemanticMatcher is the injected capability for semantic field-name
// matching. Implementations may block on a network round-trip; cancellation
// is the implementation's concern via ctx.
type SemanticMatcher interface {
	MatchFieldNames(ctx context.Context, name1, name2, context1, context2 string) (Result, error)
}

// pairKey is an unordered, lowercased name pair.
type pairKey struct {
	a, b string
}

func newPairKey(name1, name2 string) pairKey {
	a := strings.ToLower(name1)
	b := strings.ToLower(name2)
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Cache memoizes semantic-match results for the lifetime of one run, so a
// given name pair is never queried twice. It is constructor-owned state;
// two engine instances never share a cache.
type Cache struct {
	mu      sync.Mutex
	results map[pairKey]Result
}

// NewCache returns an empty semantic-match cache.
func NewCache() *Cache {
	return &Cache{results: make(map[pairKey]Result)}
}

// Match returns the memoized result for a name pair, querying the matcher
// on a miss. A matcher error fails open to a deterministic zero-confidence
// non-match; the failure is cached like any other result.
func (c *Cache) Match(ctx context.Context, m SemanticMatcher, name1, name2, context1, context2 string) Result {
	key := newPairKey(name1, name2)

	c.mu.Lock()
	if r, ok := c.results[key]; ok {
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	r, err := m.MatchFieldNames(ctx, name1, name2, context1, context2)
	if err != nil {
		r = Result{
			IsMatch:    false,
			Confidence: 0.0,
			Reasoning:  fmt.Sprintf("semantic matcher unavailable: %v", err),
		}
	}

	c.mu.Lock()
	c.results[key] = r
	c.mu.Unlock()
	return r
}

// Len reports the number of memoized pairs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
