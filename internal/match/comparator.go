package match

import (
	"context"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"ruleforge/internal/schema"
)

// Comparison is a labeled field-name match used by the evaluation engine.
type Comparison struct {
	Type       schema.MatchType
	Confidence float64
	Reasoning  string
}

// Comparator extends the resolver cascade with explicit match-type labels
// and confidences: exact 1.0, normalized 0.95, semantic at the matcher's
// reported confidence, none 0.0.
type Comparator struct {
	fuzzyThreshold int
	matcher        SemanticMatcher
	cache          *Cache
}

// NewComparator builds a comparator sharing the resolver's cascade rules.
// matcher may be nil, in which case the semantic step is skipped.
func NewComparator(matcher SemanticMatcher, fuzzyThreshold int) *Comparator {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Comparator{
		fuzzyThreshold: fuzzyThreshold,
		matcher:        matcher,
		cache:          NewCache(),
	}
}

// Compare labels the relationship between a generated and a reference field
// name. Exact covers byte and case-insensitive equality; normalized covers
// the rest of the lexical cascade (normalization, containment, synonyms,
// fuzzy); semantic defers to the matcher and fails open to none.
func (c *Comparator) Compare(ctx context.Context, genName, refName, genContext, refContext string) Comparison {
	if genName == refName || strings.EqualFold(genName, refName) {
		return Comparison{Type: schema.MatchExact, Confidence: 1.0}
	}

	if c.lexicalMatch(genName, refName) {
		return Comparison{Type: schema.MatchNormalized, Confidence: 0.95}
	}

	if c.matcher != nil {
		res := c.cache.Match(ctx, c.matcher, genName, refName, genContext, refContext)
		if res.IsMatch {
			return Comparison{
				Type:       schema.MatchSemantic,
				Confidence: res.Confidence,
				Reasoning:  res.Reasoning,
			}
		}
	}

	return Comparison{Type: schema.MatchNone, Confidence: 0.0}
}

// lexicalMatch applies cascade steps 4-6 (normalization, containment,
// synonyms, fuzzy) to a name pair.
func (c *Comparator) lexicalMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na != "" && na == nb {
		return true
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != "" && lb != "" && (strings.Contains(la, lb) || strings.Contains(lb, la)) {
		return true
	}
	if Synonymous(a, b) {
		return true
	}
	return fuzzy.TokenSortRatio(la, lb) >= c.fuzzyThreshold
}

// CacheLen exposes the memoized semantic pair count.
func (c *Comparator) CacheLen() int { return c.cache.Len() }
