package match

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"ruleforge/internal/schema"
)

// DefaultFuzzyThreshold is the minimum token-sort ratio (0-100 scale,
// token-order-insensitive) for a fuzzy match to be accepted.
const DefaultFuzzyThreshold = 80

// Resolver resolves a free-text field reference to a concrete field record.
// The zero value is not usable; construct with NewResolver.
type Resolver struct {
	fuzzyThreshold int
	matcher        SemanticMatcher // optional; nil stops the cascade at fuzzy
	cache          *Cache
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFuzzyThreshold overrides the fuzzy acceptance threshold.
func WithFuzzyThreshold(threshold int) Option {
	return func(r *Resolver) { r.fuzzyThreshold = threshold }
}

// WithSemanticMatcher attaches a semantic matcher as the final cascade
// step. The cache is owned by the resolver instance.
func WithSemanticMatcher(m SemanticMatcher) Option {
	return func(r *Resolver) { r.matcher = m }
}

// NewResolver returns a resolver with the default cascade configuration.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fuzzyThreshold: DefaultFuzzyThreshold,
		cache:          NewCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the best-matching field for a reference, or nil. The
// cascade runs strictly from most to least restrictive; the first hit at
// any level wins:
//
//  1. exact equality on name
//  2. case-insensitive equality on name
//  3. equality on variable name, raw or with underscores trimmed
//  4. normalized equality (lowercase, [a-z0-9] only)
//  5. substring containment in either direction, case-insensitive
//  6. synonym table, then fuzzy token-sort ratio, then the semantic
//     matcher if one is attached
//
// Containment (step 5) can false-positive on short names ("PAN" inside
// "PAN Type"); the behavior is kept for compatibility with existing rule
// sets.
func (r *Resolver) Resolve(ctx context.Context, ref string, fields []schema.FieldRecord) *schema.FieldRecord {
	ref = strings.TrimSpace(ref)
	if ref == "" || len(fields) == 0 {
		return nil
	}

	// 1. Exact name.
	for i := range fields {
		if fields[i].Name == ref {
			return &fields[i]
		}
	}

	// 2. Case-insensitive name.
	for i := range fields {
		if strings.EqualFold(fields[i].Name, ref) {
			return &fields[i]
		}
	}

	// 3. Variable name, raw and underscore-trimmed.
	trimmedRef := TrimUnderscores(ref)
	for i := range fields {
		v := fields[i].VariableName
		if v == "" {
			continue
		}
		if v == ref || TrimUnderscores(v) == trimmedRef {
			return &fields[i]
		}
	}

	// 4. Normalized equality.
	normRef := Normalize(ref)
	if normRef != "" {
		for i := range fields {
			if Normalize(fields[i].Name) == normRef {
				return &fields[i]
			}
		}
	}

	// 5. Substring containment, either direction.
	lowerRef := strings.ToLower(ref)
	for i := range fields {
		name := strings.ToLower(fields[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, lowerRef) || strings.Contains(lowerRef, name) {
			return &fields[i]
		}
	}

	// 6a. Synonym table, before any fuzzy scoring.
	for i := range fields {
		if Synonymous(ref, fields[i].Name) {
			return &fields[i]
		}
	}

	// 6b. Fuzzy: best token-sort ratio at or above the threshold.
	bestIdx := -1
	bestRatio := 0
	for i := range fields {
		ratio := fuzzy.TokenSortRatio(lowerRef, strings.ToLower(fields[i].Name))
		if ratio >= r.fuzzyThreshold && ratio > bestRatio {
			bestRatio = ratio
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		return &fields[bestIdx]
	}

	// 6c. Semantic matcher, when attached.
	if r.matcher != nil {
		for i := range fields {
			res := r.cache.Match(ctx, r.matcher, ref, fields[i].Name, "", "")
			if res.IsMatch {
				return &fields[i]
			}
		}
	}

	return nil
}

// CacheLen exposes the memoized semantic pair count, used by tests to
// assert the matcher was never consulted.
func (r *Resolver) CacheLen() int { return r.cache.Len() }
