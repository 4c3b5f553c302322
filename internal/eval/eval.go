// Package eval matches a generated rule set against a reference rule set
// and scores the result. Matching is two-phase: fields first, then rules
// within each matched field pair. Every detected gap becomes a typed,
// severity-ranked discrepancy; nothing here fails after input loading.
package eval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ruleforge/internal/match"
	"ruleforge/internal/schema"
)

// DefaultPassThreshold is the overall score at or above which an
// evaluation passes.
const DefaultPassThreshold = 0.90

// Score weights for the three coverage ratios.
const (
	weightFieldCoverage = 0.4
	weightRuleCoverage  = 0.4
	weightRuleAccuracy  = 0.2
)

// Rule-pair scoring increments. Action type dominates; id sets are
// compared by name, not number, because ids are run-specific.
const (
	scoreActionMatch     = 10
	scoreSourceSetMatch  = 5
	scoreDestSetMatch    = 5
	scoreConditionMatch  = 3
	scoreCondValuesMatch = 2
)

// Engine evaluates one generated field set against one reference set.
// The comparator carries the semantic-match cache, so one Engine instance
// is one evaluation scope.
type Engine struct {
	comparator    *match.Comparator
	passThreshold float64
}

// NewEngine builds an evaluation engine. A non-positive threshold falls
// back to DefaultPassThreshold.
func NewEngine(comparator *match.Comparator, passThreshold float64) *Engine {
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	return &Engine{comparator: comparator, passThreshold: passThreshold}
}

// OverallScore combines the three ratios with the fixed 0.4/0.4/0.2
// weighting.
func OverallScore(fieldCoverage, ruleCoverage, ruleAccuracy float64) float64 {
	return weightFieldCoverage*fieldCoverage +
		weightRuleCoverage*ruleCoverage +
		weightRuleAccuracy*ruleAccuracy
}

// ratio returns matched/total, or 1.0 when total is zero (vacuously
// complete).
func ratio(matched, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(matched) / float64(total)
}

// fieldPair is one accepted generated↔reference field match.
type fieldPair struct {
	genIdx int
	refIdx int
	comp   match.Comparison
}

// Evaluate runs both phases and assembles the report. Field matching
// iterates the generated list in order; that order decides which field
// wins a multi-candidate match and must stay stable for deterministic
// output.
func (e *Engine) Evaluate(ctx context.Context, generated, reference []schema.FormField) schema.EvalResult {
	pairs := e.matchFields(ctx, generated, reference)

	genNames := fieldNamesByID(generated)
	refNames := fieldNamesByID(reference)
	refRulesByID := rulesByID(reference)

	matchedRefs := make(map[int]bool, len(pairs))
	pairByGen := make(map[int]*fieldPair, len(pairs))
	for i := range pairs {
		matchedRefs[pairs[i].refIdx] = true
		pairByGen[pairs[i].genIdx] = &pairs[i]
	}

	var result schema.EvalResult
	matchedRules := 0

	for gi := range generated {
		gen := &generated[gi]
		fe := schema.FieldEvaluation{
			FieldName:  gen.FormTag.Name,
			MatchType:  schema.MatchNone,
			RulesTotal: len(gen.FormFillRules),
		}

		pair, ok := pairByGen[gi]
		if !ok {
			// Extra generated field: benign, the reference never asked for it.
			fe.Discrepancies = append(fe.Discrepancies, schema.Discrepancy{
				Type:      schema.DiscrepancyFieldMissing,
				Severity:  schema.SeverityLow,
				FieldName: gen.FormTag.Name,
				Message:   fmt.Sprintf("field %q has no counterpart in the reference set", gen.FormTag.Name),
				Actual:    gen.FormTag.Name,
				FixInstruction: fmt.Sprintf("remove field %q or confirm it belongs in this form",
					gen.FormTag.Name),
			})
			result.FieldEvaluations = append(result.FieldEvaluations, fe)
			result.AllDiscrepancies = append(result.AllDiscrepancies, fe.Discrepancies...)
			continue
		}

		ref := &reference[pair.refIdx]
		fe.MatchedReference = ref.FormTag.Name
		fe.MatchType = pair.comp.Type
		fe.Confidence = pair.comp.Confidence

		if !strings.EqualFold(gen.FormTag.Type, ref.FormTag.Type) {
			fe.Discrepancies = append(fe.Discrepancies, schema.Discrepancy{
				Type:      schema.DiscrepancyFieldTypeMismatch,
				Severity:  schema.SeverityMedium,
				FieldName: gen.FormTag.Name,
				Message:   fmt.Sprintf("field %q type differs from reference", gen.FormTag.Name),
				Expected:  ref.FormTag.Type,
				Actual:    gen.FormTag.Type,
				FixInstruction: fmt.Sprintf("change the type of %q to %q",
					gen.FormTag.Name, ref.FormTag.Type),
			})
		}

		n, ds := e.matchRules(gen, ref, genNames, refNames)
		matchedRules += n
		fe.RulesMatched = n
		fe.Discrepancies = append(fe.Discrepancies, ds...)

		result.FieldEvaluations = append(result.FieldEvaluations, fe)
		result.AllDiscrepancies = append(result.AllDiscrepancies, fe.Discrepancies...)
	}

	// Reference fields nothing in the generated set matched: real gaps.
	for ri := range reference {
		if matchedRefs[ri] {
			continue
		}
		name := reference[ri].FormTag.Name
		result.AllDiscrepancies = append(result.AllDiscrepancies, schema.Discrepancy{
			Type:           schema.DiscrepancyFieldMissing,
			Severity:       schema.SeverityHigh,
			FieldName:      name,
			Message:        fmt.Sprintf("reference field %q is missing from the generated set", name),
			Expected:       name,
			FixInstruction: fmt.Sprintf("add field %q with its %d rule(s)", name, len(reference[ri].FormFillRules)),
		})
	}

	result.AllDiscrepancies = append(result.AllDiscrepancies,
		e.checkPostTriggerChains(generated, reference, refRulesByID)...)

	result.Totals = schema.Totals{
		ReferenceFields: len(reference),
		GeneratedFields: len(generated),
		MatchedFields:   len(pairs),
		ReferenceRules:  countRules(reference),
		GeneratedRules:  countRules(generated),
		MatchedRules:    matchedRules,
	}
	result.FieldCoverage = ratio(result.Totals.MatchedFields, result.Totals.ReferenceFields)
	result.RuleCoverage = ratio(result.Totals.MatchedRules, result.Totals.ReferenceRules)
	result.RuleAccuracy = ratio(result.Totals.MatchedRules, result.Totals.GeneratedRules)
	result.OverallScore = OverallScore(result.FieldCoverage, result.RuleCoverage, result.RuleAccuracy)
	result.Passed = result.OverallScore >= e.passThreshold
	result.RuleTypeComparison = compareRuleTypes(generated, reference)
	return result
}

// matchFields is phase 1: bijective partial matching in generated order.
// An exact hit short-circuits the candidate scan; otherwise the
// highest-confidence candidate wins and ties keep the first found.
func (e *Engine) matchFields(ctx context.Context, generated, reference []schema.FormField) []fieldPair {
	var pairs []fieldPair
	taken := make(map[int]bool, len(reference))

	for gi := range generated {
		gen := &generated[gi]
		best := match.Comparison{Type: schema.MatchNone}
		bestRef := -1

		for ri := range reference {
			if taken[ri] {
				continue
			}
			ref := &reference[ri]
			comp := e.comparator.Compare(ctx, gen.FormTag.Name, ref.FormTag.Name, gen.FormTag.Type, ref.FormTag.Type)
			if comp.Type == schema.MatchExact {
				best, bestRef = comp, ri
				break
			}
			if comp.Type != schema.MatchNone && comp.Confidence > best.Confidence {
				best, bestRef = comp, ri
			}
		}

		if bestRef >= 0 {
			taken[bestRef] = true
			pairs = append(pairs, fieldPair{genIdx: gi, refIdx: bestRef, comp: best})
		}
	}
	return pairs
}

// matchRules is phase 2 for one matched field pair. Generated rules are
// grouped by action type; each scores the remaining reference rules of
// that type and takes the best. Returns the matched count and the rule
// discrepancies.
func (e *Engine) matchRules(gen, ref *schema.FormField, genNames, refNames map[int]string) (int, []schema.Discrepancy) {
	var out []schema.Discrepancy
	matched := 0
	taken := make(map[int]bool, len(ref.FormFillRules))

	for gi := range gen.FormFillRules {
		gr := &gen.FormFillRules[gi]
		bestScore := -1
		bestRef := -1

		for ri := range ref.FormFillRules {
			if taken[ri] || ref.FormFillRules[ri].ActionType != gr.ActionType {
				continue
			}
			s := e.scoreRulePair(gr, &ref.FormFillRules[ri], genNames, refNames)
			if s > bestScore {
				bestScore, bestRef = s, ri
			}
		}

		if bestRef < 0 {
			out = append(out, schema.Discrepancy{
				Type:      schema.DiscrepancyRuleExtra,
				Severity:  schema.SeverityLow,
				FieldName: gen.FormTag.Name,
				Message: fmt.Sprintf("generated %s rule %d on %q has no reference counterpart",
					gr.ActionType, gr.ID, gen.FormTag.Name),
				Actual:         string(gr.ActionType),
				FixInstruction: fmt.Sprintf("remove the %s rule or confirm it against the requirement", gr.ActionType),
			})
			continue
		}

		taken[bestRef] = true
		matched++
		out = append(out, e.diffRulePair(gen.FormTag.Name, gr, &ref.FormFillRules[bestRef], genNames, refNames)...)
	}

	for ri := range ref.FormFillRules {
		if taken[ri] {
			continue
		}
		rr := &ref.FormFillRules[ri]
		out = append(out, schema.Discrepancy{
			Type:      schema.DiscrepancyRuleMissing,
			Severity:  schema.SeverityHigh,
			FieldName: gen.FormTag.Name,
			Message: fmt.Sprintf("reference %s rule on %q is missing from the generated set",
				rr.ActionType, gen.FormTag.Name),
			Expected:       string(rr.ActionType),
			FixInstruction: fmt.Sprintf("add a %s rule to field %q", rr.ActionType, gen.FormTag.Name),
		})
	}
	return matched, out
}

// scoreRulePair applies the fixed increment table to a candidate pair.
// Both rules already share an action type.
func (e *Engine) scoreRulePair(gr, rr *schema.GeneratedRule, genNames, refNames map[int]string) int {
	score := scoreActionMatch
	if sameNameSet(idNameSet(gr.SourceIDs, genNames), idNameSet(rr.SourceIDs, refNames)) {
		score += scoreSourceSetMatch
	}
	if sameNameSet(idNameSet(gr.DestinationIDs, genNames), idNameSet(rr.DestinationIDs, refNames)) {
		score += scoreDestSetMatch
	}
	if gr.Condition == rr.Condition {
		score += scoreConditionMatch
	}
	if sameValueSet(gr.ConditionalValues, rr.ConditionalValues) {
		score += scoreCondValuesMatch
	}
	return score
}

// diffRulePair reports the per-attribute mismatches of an accepted rule
// pair. Unresolvable reference ids surface as structure errors rather
// than vanishing from the comparison.
func (e *Engine) diffRulePair(fieldName string, gr, rr *schema.GeneratedRule, genNames, refNames map[int]string) []schema.Discrepancy {
	var out []schema.Discrepancy

	if unresolved := unresolvedIDs(rr.SourceIDs, refNames); len(unresolved) > 0 {
		out = append(out, schema.Discrepancy{
			Type:      schema.DiscrepancySchemaStructureError,
			Severity:  schema.SeverityMedium,
			FieldName: fieldName,
			Message: fmt.Sprintf("reference %s rule references unknown field id(s) %v",
				rr.ActionType, unresolved),
			FixInstruction: "fix the reference document: every sourceIds entry must resolve to a field",
		})
	}

	genSrc, refSrc := idNameSet(gr.SourceIDs, genNames), idNameSet(rr.SourceIDs, refNames)
	if !sameNameSet(genSrc, refSrc) {
		out = append(out, schema.Discrepancy{
			Type:      schema.DiscrepancyRuleSourceIDMismatch,
			Severity:  schema.SeverityMedium,
			FieldName: fieldName,
			Message:   fmt.Sprintf("%s rule source fields differ", gr.ActionType),
			Expected:  strings.Join(refSrc, ", "),
			Actual:    strings.Join(genSrc, ", "),
			FixInstruction: fmt.Sprintf("point the %s rule's sourceIds at: %s",
				gr.ActionType, strings.Join(refSrc, ", ")),
		})
	}

	genDst, refDst := idNameSet(gr.DestinationIDs, genNames), idNameSet(rr.DestinationIDs, refNames)
	if !sameNameSet(genDst, refDst) {
		out = append(out, schema.Discrepancy{
			Type:      schema.DiscrepancyRuleDestIDMismatch,
			Severity:  schema.SeverityMedium,
			FieldName: fieldName,
			Message:   fmt.Sprintf("%s rule destination fields differ", gr.ActionType),
			Expected:  strings.Join(refDst, ", "),
			Actual:    strings.Join(genDst, ", "),
			FixInstruction: fmt.Sprintf("map the %s rule's destinationIds to: %s",
				gr.ActionType, strings.Join(refDst, ", ")),
		})
	}

	if gr.Condition != rr.Condition {
		out = append(out, schema.Discrepancy{
			Type:           schema.DiscrepancyRuleConditionMismatch,
			Severity:       schema.SeverityMedium,
			FieldName:      fieldName,
			Message:        fmt.Sprintf("%s rule condition differs", gr.ActionType),
			Expected:       string(rr.Condition),
			Actual:         string(gr.Condition),
			FixInstruction: fmt.Sprintf("set the %s rule's condition to %s", gr.ActionType, rr.Condition),
		})
	}

	if !sameValueSet(gr.ConditionalValues, rr.ConditionalValues) {
		out = append(out, schema.Discrepancy{
			Type:           schema.DiscrepancyRuleCondValuesMismatch,
			Severity:       schema.SeverityLow,
			FieldName:      fieldName,
			Message:        fmt.Sprintf("%s rule conditional values differ", gr.ActionType),
			Expected:       strings.Join(rr.ConditionalValues, ", "),
			Actual:         strings.Join(gr.ConditionalValues, ", "),
			FixInstruction: "align conditionalValues with the reference rule",
		})
	}

	if gr.ProcessingType != rr.ProcessingType {
		out = append(out, schema.Discrepancy{
			Type:           schema.DiscrepancyRuleProcessingMismatch,
			Severity:       schema.SeverityLow,
			FieldName:      fieldName,
			Message:        fmt.Sprintf("%s rule processing type differs", gr.ActionType),
			Expected:       string(rr.ProcessingType),
			Actual:         string(gr.ProcessingType),
			FixInstruction: fmt.Sprintf("set processingType to %s", rr.ProcessingType),
		})
	}

	if gr.Button != rr.Button {
		out = append(out, schema.Discrepancy{
			Type:           schema.DiscrepancyButtonMismatch,
			Severity:       schema.SeverityInfo,
			FieldName:      fieldName,
			Message:        fmt.Sprintf("%s rule button text differs", gr.ActionType),
			Expected:       rr.Button,
			Actual:         gr.Button,
			FixInstruction: fmt.Sprintf("set the button text to %q", rr.Button),
		})
	}
	return out
}

// ruleKey is the identity used for post-trigger chain checks: the rule's
// action plus the name of the field that owns it.
type ruleKey struct {
	action schema.ActionType
	field  string
}

// checkPostTriggerChains verifies every reference post-trigger edge
// transitively: the target is resolved to (action type, owning field
// name) and the generated set must declare a post-trigger edge to a rule
// with the same action on a matching field.
func (e *Engine) checkPostTriggerChains(generated, reference []schema.FormField, refRulesByID map[int]ruleKey) []schema.Discrepancy {
	genTargets := make(map[ruleKey]bool)
	genRulesByID := rulesByID(generated)
	for _, f := range generated {
		for _, r := range f.FormFillRules {
			for _, id := range r.PostTriggerRuleIDs {
				if key, ok := genRulesByID[id]; ok {
					genTargets[key] = true
				}
			}
		}
	}

	var out []schema.Discrepancy
	for _, f := range reference {
		for _, r := range f.FormFillRules {
			for _, id := range r.PostTriggerRuleIDs {
				key, ok := refRulesByID[id]
				if !ok {
					out = append(out, schema.Discrepancy{
						Type:      schema.DiscrepancySchemaStructureError,
						Severity:  schema.SeverityMedium,
						FieldName: f.FormTag.Name,
						Message: fmt.Sprintf("reference %s rule chains to unknown rule id %d",
							r.ActionType, id),
						FixInstruction: "fix the reference document: every postTriggerRuleIds entry must resolve to a rule",
					})
					continue
				}
				if !e.hasChainTarget(genTargets, key) {
					out = append(out, schema.Discrepancy{
						Type:      schema.DiscrepancyPostTriggerRuleMissing,
						Severity:  schema.SeverityHigh,
						FieldName: f.FormTag.Name,
						Message: fmt.Sprintf("generated set has no post-trigger chain to a %s rule on %q",
							key.action, key.field),
						Expected: fmt.Sprintf("%s on %q", key.action, key.field),
						FixInstruction: fmt.Sprintf("chain the %s rule on %q into its parent's postTriggerRuleIds",
							key.action, key.field),
					})
				}
			}
		}
	}
	return out
}

// hasChainTarget looks for a generated chain target with the same action
// and a field name matching by the lexical cascade. The semantic step is
// skipped here: chain identity is structural, not a judgment call.
func (e *Engine) hasChainTarget(genTargets map[ruleKey]bool, want ruleKey) bool {
	if genTargets[want] {
		return true
	}
	for got := range genTargets {
		if got.action != want.action {
			continue
		}
		if strings.EqualFold(got.field, want.field) || match.Normalize(got.field) == match.Normalize(want.field) {
			return true
		}
	}
	return false
}

// fieldNamesByID indexes a field set's id→name map for id-set resolution.
func fieldNamesByID(fields []schema.FormField) map[int]string {
	out := make(map[int]string, len(fields))
	for _, f := range fields {
		out[f.ID] = f.FormTag.Name
	}
	return out
}

// rulesByID indexes every rule in a field set by rule id, remembering the
// owning field's name.
func rulesByID(fields []schema.FormField) map[int]ruleKey {
	out := make(map[int]ruleKey)
	for _, f := range fields {
		for _, r := range f.FormFillRules {
			out[r.ID] = ruleKey{action: r.ActionType, field: f.FormTag.Name}
		}
	}
	return out
}

// idNameSet resolves an id list to a sorted, deduplicated name set.
// Unused slots are skipped; unresolvable ids are skipped here and
// reported separately by diffRulePair.
func idNameSet(ids []int, names map[int]string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == schema.UnusedSlot {
			continue
		}
		name, ok := names[id]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// unresolvedIDs returns ids that are neither the unused sentinel nor a
// known field.
func unresolvedIDs(ids []int, names map[int]string) []int {
	var out []int
	for _, id := range ids {
		if id == schema.UnusedSlot {
			continue
		}
		if _, ok := names[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// sameNameSet compares resolved name sets case-insensitively.
func sameNameSet(a, b []string) bool {
	return sameValueSet(a, b)
}

// sameValueSet compares conditional-value lists as case-insensitive sets.
func sameValueSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i] = strings.ToLower(a[i])
	}
	for i := range b {
		bs[i] = strings.ToLower(b[i])
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func countRules(fields []schema.FormField) int {
	n := 0
	for _, f := range fields {
		n += len(f.FormFillRules)
	}
	return n
}

func compareRuleTypes(generated, reference []schema.FormField) schema.RuleTypeComparison {
	out := schema.RuleTypeComparison{
		Generated: make(map[schema.ActionType]int),
		Reference: make(map[schema.ActionType]int),
	}
	for _, f := range generated {
		for _, r := range f.FormFillRules {
			out.Generated[r.ActionType]++
		}
	}
	for _, f := range reference {
		for _, r := range f.FormFillRules {
			out.Reference[r.ActionType]++
		}
	}
	return out
}
