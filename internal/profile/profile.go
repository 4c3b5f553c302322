// Package profile defines evaluation profiles that modulate matching
// strictness: the pass threshold, the fuzzy acceptance floor, and an
// addendum appended to the semantic matcher's system prompt.
package profile

import "fmt"

// Profile describes one evaluation strategy.
type Profile struct {
	Name        string
	Description string
	// PassThreshold is the overall score at or above which an evaluation
	// passes.
	PassThreshold float64
	// FuzzyThreshold is the token-sort-ratio floor (0-100) for lexical
	// fuzzy matching.
	FuzzyThreshold int
	// MatcherAddendum is appended to the semantic matcher's system prompt.
	MatcherAddendum string
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"general": {
		Name:           "general",
		Description:    "Default profile; balanced matching and the standard pass bar.",
		PassThreshold:  0.90,
		FuzzyThreshold: 80,
		MatcherAddendum: "When a label pair is ambiguous, lean on domain convention: " +
			"KYC forms routinely abbreviate (PAN, GSTIN, IFSC). State the ambiguity " +
			"in the reasoning field rather than guessing.",
	},
	"strict": {
		Name:           "strict",
		Description:    "Strict profile; only confident matches count, higher pass bar.",
		PassThreshold:  0.95,
		FuzzyThreshold: 90,
		MatcherAddendum: "Be conservative. Declare a match only when the two labels " +
			"clearly denote the same logical field. Shared words alone are never " +
			"sufficient. When unsure, return is_match false.",
	},
	"lenient": {
		Name:           "lenient",
		Description:    "Lenient profile; tolerant matching for early drafts of a rule set.",
		PassThreshold:  0.80,
		FuzzyThreshold: 70,
		MatcherAddendum: "Prefer recall over precision: if the labels plausibly denote " +
			"the same field under common KYC abbreviations, declare a match with " +
			"moderate confidence.",
	},
}

// Load returns the named built-in profile or an error if the name is unknown.
func Load(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: general, strict, lenient)", name)
	}
	return p, nil
}
