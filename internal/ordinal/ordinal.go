// Package ordinal maps resolved form fields into the fixed-size,
// ordinal-indexed destination arrays dictated by a rule schema.
package ordinal

import (
	"sort"
	"strings"

	"ruleforge/internal/schema"
)

// MapToOrdinals builds the destination array for a rule schema from a
// schema-field-name → form-field-id mapping. The result always has length
// schema.NumberOfItems; every entry is either a mapped field id or the
// UnusedSlot sentinel. Ordinals are 1-based; array slots are 0-based.
//
// Schema field names are resolved exactly first, then case-insensitively.
// Mapping entries that name no schema field are dropped silently: an
// unmatched name is not an error, it just leaves its slot unused.
func MapToOrdinals(rs schema.RuleSchema, fieldMappings map[string]int) []int {
	out := make([]int, rs.NumberOfItems)
	for i := range out {
		out[i] = schema.UnusedSlot
	}

	byName := make(map[string]int, len(rs.DestinationFields))
	byLower := make(map[string]int, len(rs.DestinationFields))
	for _, f := range rs.DestinationFields {
		byName[f.Name] = f.Ordinal
		byLower[strings.ToLower(f.Name)] = f.Ordinal
	}

	// Sorted key iteration keeps the output stable when two mapping keys
	// differ only by case and collide on one slot.
	names := make([]string, 0, len(fieldMappings))
	for name := range fieldMappings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ord, ok := byName[name]
		if !ok {
			ord, ok = byLower[strings.ToLower(name)]
		}
		if !ok || ord < 1 || ord > rs.NumberOfItems {
			continue
		}
		out[ord-1] = fieldMappings[name]
	}
	return out
}

// SuggestFieldMappings proposes a schema-field-name → form-field-id mapping
// against a field corpus, used to bootstrap MapToOrdinals. Matching is
// exact (case-insensitive) first, then substring containment in either
// direction. Schema fields with no candidate are absent from the result.
func SuggestFieldMappings(rs schema.RuleSchema, fields []schema.FieldRecord) map[string]int {
	out := make(map[string]int)
	for _, sf := range rs.DestinationFields {
		want := strings.ToLower(sf.Name)

		found := false
		for _, f := range fields {
			if strings.ToLower(f.Name) == want {
				out[sf.Name] = f.ID
				found = true
				break
			}
		}
		if found {
			continue
		}
		for _, f := range fields {
			have := strings.ToLower(f.Name)
			if have == "" {
				continue
			}
			if strings.Contains(have, want) || strings.Contains(want, have) {
				out[sf.Name] = f.ID
				break
			}
		}
	}
	return out
}
