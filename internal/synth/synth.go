// Package synth builds concrete form-fill rule records from classified
// logic. Each declarative pattern maps to a fixed rule shape: paired
// visibility/mandatory rules, server-side VERIFY rules, and OCR rules
// chained into their verification step.
package synth

import (
	"context"
	"strings"

	"ruleforge/internal/catalog"
	"ruleforge/internal/classify"
	"ruleforge/internal/logictext"
	"ruleforge/internal/match"
	"ruleforge/internal/ordinal"
	"ruleforge/internal/schema"
)

// DefaultIDBase seeds the rule-id counter.
const DefaultIDBase = 200000

// ruleAuthor is stamped into createUser/updateUser on every emitted rule.
const ruleAuthor = "SYSTEM"

// Counter hands out monotonically increasing rule ids. It is the only
// mutable shared state in this package and is constructor-injected so two
// synthesizer instances never interfere.
type Counter struct {
	next int
}

// NewCounter returns a counter seeded at base; a non-positive base falls
// back to DefaultIDBase.
func NewCounter(base int) *Counter {
	if base <= 0 {
		base = DefaultIDBase
	}
	return &Counter{next: base}
}

// Next returns the next rule id.
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// Reset rewinds the counter to base, for deterministic tests.
func (c *Counter) Reset(base int) {
	if base <= 0 {
		base = DefaultIDBase
	}
	c.next = base
}

// Synthesizer emits GeneratedRule records for classified logic.
type Synthesizer struct {
	catalog  *catalog.Catalog
	resolver *match.Resolver
	counter  *Counter
}

// New constructs a Synthesizer. counter may be shared across fields of one
// document so ids stay unique within the run.
func New(cat *catalog.Catalog, resolver *match.Resolver, counter *Counter) *Synthesizer {
	if counter == nil {
		counter = NewCounter(DefaultIDBase)
	}
	return &Synthesizer{catalog: cat, resolver: resolver, counter: counter}
}

// baseRule stamps the shared defaults of every emitted rule.
func (s *Synthesizer) baseRule(action schema.ActionType, processing schema.ProcessingType) schema.GeneratedRule {
	return schema.GeneratedRule{
		ID:                 s.counter.Next(),
		CreateUser:         ruleAuthor,
		UpdateUser:         ruleAuthor,
		ActionType:         action,
		ProcessingType:     processing,
		SourceIDs:          []int{},
		DestinationIDs:     []int{},
		PostTriggerRuleIDs: []int{},
	}
}

// BuildVisibilityPair emits a MAKE_VISIBLE rule with condition IN and its
// MAKE_INVISIBLE mirror with condition NOT_IN. The mirror always carries
// the same conditional values as the primary; they are never computed
// independently.
func (s *Synthesizer) BuildVisibilityPair(sourceID int, destinationIDs []int, values []string) []schema.GeneratedRule {
	return s.buildConditionalPair(schema.ActionMakeVisible, sourceID, destinationIDs, values)
}

// BuildMandatoryPair emits MAKE_MANDATORY (IN) and MAKE_NON_MANDATORY
// (NOT_IN) with shared conditional values.
func (s *Synthesizer) BuildMandatoryPair(sourceID int, destinationIDs []int, values []string) []schema.GeneratedRule {
	return s.buildConditionalPair(schema.ActionMakeMandatory, sourceID, destinationIDs, values)
}

// BuildVisibilityMandatoryQuad emits all four rules for combined "visible
// and mandatory, otherwise invisible and non-mandatory" phrasing:
// MAKE_VISIBLE and MAKE_MANDATORY with IN, MAKE_INVISIBLE and
// MAKE_NON_MANDATORY with NOT_IN.
func (s *Synthesizer) BuildVisibilityMandatoryQuad(sourceID int, destinationIDs []int, values []string) []schema.GeneratedRule {
	out := s.buildConditionalPair(schema.ActionMakeVisible, sourceID, destinationIDs, values)
	return append(out, s.buildConditionalPair(schema.ActionMakeMandatory, sourceID, destinationIDs, values)...)
}

func (s *Synthesizer) buildConditionalPair(action schema.ActionType, sourceID int, destinationIDs []int, values []string) []schema.GeneratedRule {
	mirror, _ := schema.MirrorAction(action)

	primary := s.baseRule(action, schema.ProcessingClient)
	primary.SourceIDs = []int{sourceID}
	primary.DestinationIDs = append([]int{}, destinationIDs...)
	primary.Condition = schema.ConditionIn
	primary.ConditionalValues = append([]string{}, values...)

	inverse := s.baseRule(mirror, schema.ProcessingClient)
	inverse.SourceIDs = []int{sourceID}
	inverse.DestinationIDs = append([]int{}, destinationIDs...)
	inverse.Condition = schema.ConditionNotIn
	inverse.ConditionalValues = append([]string{}, primary.ConditionalValues...)

	return []schema.GeneratedRule{primary, inverse}
}

// BuildVerifyRule emits a SERVER-side VERIFY rule for a document type.
// sourceIDs carries one field id, or two for bank verification (IFSC plus
// account number). The destination array is ordinal-indexed per the
// catalog schema. Returns false when the catalog has no schema for the
// document type.
func (s *Synthesizer) BuildVerifyRule(docType string, sourceIDs []int, fieldMappings map[string]int) (schema.GeneratedRule, bool) {
	sourceType, ok := catalog.VerifySourceType(docType)
	if !ok {
		return schema.GeneratedRule{}, false
	}
	rs, ok := s.catalog.BySourceType(sourceType)
	if !ok {
		return schema.GeneratedRule{}, false
	}

	rule := s.baseRule(schema.ActionVerify, schema.ProcessingServer)
	rule.SourceIDs = append([]int{}, sourceIDs...)
	rule.DestinationIDs = ordinal.MapToOrdinals(rs, fieldMappings)
	rule.SourceType = sourceType
	rule.Button = rs.Button
	return rule, true
}

// BuildOCRRule emits an OCR rule. When the OCR source type has a defined
// verification chain and chainedVerifyID is positive, the rule's
// post-trigger list points at that VERIFY rule; OCR types with no chain
// legitimately carry none.
func (s *Synthesizer) BuildOCRRule(docType string, sourceIDs []int, fieldMappings map[string]int, chainedVerifyID int) (schema.GeneratedRule, bool) {
	sourceType, ok := catalog.OCRSourceType(docType)
	if !ok {
		return schema.GeneratedRule{}, false
	}
	rs, ok := s.catalog.BySourceType(sourceType)
	if !ok {
		return schema.GeneratedRule{}, false
	}

	rule := s.baseRule(schema.ActionOCR, schema.ProcessingServer)
	rule.SourceIDs = append([]int{}, sourceIDs...)
	rule.DestinationIDs = ordinal.MapToOrdinals(rs, fieldMappings)
	rule.SourceType = sourceType
	rule.Button = rs.Button
	if _, chained := catalog.ChainedVerifyType(sourceType); chained && chainedVerifyID > 0 {
		rule.PostTriggerRuleIDs = []int{chainedVerifyID}
	}
	return rule, true
}

// BuildNonEditableRule emits a CLIENT rule marking a field read-only.
func (s *Synthesizer) BuildNonEditableRule(fieldID int) schema.GeneratedRule {
	rule := s.baseRule(schema.ActionMakeNonEditable, schema.ProcessingClient)
	rule.DestinationIDs = []int{fieldID}
	return rule
}

// SynthesizeField classifies every logic unit attached to a field and
// emits the corresponding rules. Unresolvable references degrade to
// dropped rules or unused slots; nothing here is fatal.
func (s *Synthesizer) SynthesizeField(ctx context.Context, field schema.FieldRecord, corpus []schema.FieldRecord) []schema.GeneratedRule {
	var out []schema.GeneratedRule
	for _, unit := range logictext.Split(field.Logic) {
		p := classify.Classify(unit)
		if p.ShouldSkip || p.Confidence == 0.0 {
			continue
		}
		out = append(out, s.synthesizeUnit(ctx, field, p, corpus)...)
	}
	return out
}

// synthesizeUnit maps one classified logic unit to its rule shape.
func (s *Synthesizer) synthesizeUnit(ctx context.Context, field schema.FieldRecord, p schema.ParsedLogic, corpus []schema.FieldRecord) []schema.GeneratedRule {
	switch {
	case p.IsOCR && p.DocumentType != "":
		return s.buildOCRChain(ctx, field, p, corpus)
	case p.IsVerify && p.DocumentType != "":
		rule, ok := s.buildVerifyFor(ctx, field, p.DocumentType, corpus)
		if !ok {
			return nil
		}
		return []schema.GeneratedRule{rule}
	case len(p.Conditions) > 0 && hasConditionalAction(p.Actions):
		return s.buildConditionalRules(ctx, field, p, corpus)
	case p.IsNonEditable:
		return []schema.GeneratedRule{s.BuildNonEditableRule(field.ID)}
	}
	return nil
}

// buildVerifyFor assembles the VERIFY source list. Bank verification
// uniquely requires two sources: IFSC code plus account number.
func (s *Synthesizer) buildVerifyFor(ctx context.Context, field schema.FieldRecord, docType string, corpus []schema.FieldRecord) (schema.GeneratedRule, bool) {
	sourceIDs := []int{field.ID}
	if docType == "bank" {
		ifsc := s.resolver.Resolve(ctx, "IFSC Code", corpus)
		account := s.resolver.Resolve(ctx, "Account Number", corpus)
		if ifsc != nil && account != nil && ifsc.ID != account.ID {
			sourceIDs = []int{ifsc.ID, account.ID}
		}
	}
	return s.BuildVerifyRule(docType, sourceIDs, s.suggestDestinations(docType, corpus, true))
}

// buildOCRChain emits the VERIFY rule first so the OCR rule can chain into
// it by id. OCR types with no chain emit the OCR rule alone.
func (s *Synthesizer) buildOCRChain(ctx context.Context, field schema.FieldRecord, p schema.ParsedLogic, corpus []schema.FieldRecord) []schema.GeneratedRule {
	var out []schema.GeneratedRule
	chainedID := 0

	ocrType, ok := catalog.OCRSourceType(p.DocumentType)
	if !ok {
		return nil
	}
	if _, chained := catalog.ChainedVerifyType(ocrType); chained {
		if verify, ok := s.buildVerifyFor(ctx, field, p.DocumentType, corpus); ok {
			out = append(out, verify)
			chainedID = verify.ID
		}
	}

	ocr, ok := s.BuildOCRRule(p.DocumentType, []int{field.ID}, s.suggestDestinations(p.DocumentType, corpus, false), chainedID)
	if !ok {
		return out
	}
	return append(out, ocr)
}

// suggestDestinations bootstraps the ordinal field mapping for a document
// type's verify or OCR schema from the field corpus.
func (s *Synthesizer) suggestDestinations(docType string, corpus []schema.FieldRecord, verify bool) map[string]int {
	var sourceType string
	var ok bool
	if verify {
		sourceType, ok = catalog.VerifySourceType(docType)
	} else {
		sourceType, ok = catalog.OCRSourceType(docType)
	}
	if !ok {
		return nil
	}
	rs, ok := s.catalog.BySourceType(sourceType)
	if !ok {
		return nil
	}
	return ordinal.SuggestFieldMappings(rs, corpus)
}

// buildConditionalRules resolves the gating source and affected fields,
// then emits the pair or quad shape.
func (s *Synthesizer) buildConditionalRules(ctx context.Context, field schema.FieldRecord, p schema.ParsedLogic, corpus []schema.FieldRecord) []schema.GeneratedRule {
	var out []schema.GeneratedRule
	for _, cond := range p.Conditions {
		src := s.resolver.Resolve(ctx, cond.SourceFieldName, corpus)
		if src == nil {
			continue
		}

		destinations := s.resolveDestinations(ctx, p.FieldReferences, cond.SourceFieldName, corpus)
		if len(destinations) == 0 {
			// Logic attached to a field gates the field itself by default.
			destinations = []int{field.ID}
		}

		values := cond.ValueList
		if len(values) == 0 && cond.Value != "" {
			values = []string{cond.Value}
		}

		visibility := containsAny(p.Actions, "MAKE_VISIBLE", "MAKE_INVISIBLE")
		mandatory := containsAny(p.Actions, "MAKE_MANDATORY", "MAKE_NON_MANDATORY")
		switch {
		case visibility && mandatory:
			out = append(out, s.BuildVisibilityMandatoryQuad(src.ID, destinations, values)...)
		case mandatory:
			out = append(out, s.BuildMandatoryPair(src.ID, destinations, values)...)
		default:
			out = append(out, s.BuildVisibilityPair(src.ID, destinations, values)...)
		}
	}
	return out
}

// resolveDestinations maps field references to ids, skipping the condition
// source and anything unresolvable.
func (s *Synthesizer) resolveDestinations(ctx context.Context, refs []string, conditionSource string, corpus []schema.FieldRecord) []int {
	var out []int
	seen := make(map[int]bool)
	for _, ref := range refs {
		if strings.EqualFold(ref, conditionSource) {
			continue
		}
		f := s.resolver.Resolve(ctx, ref, corpus)
		if f == nil || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f.ID)
	}
	return out
}

func hasConditionalAction(actions []string) bool {
	return containsAny(actions,
		"MAKE_VISIBLE", "MAKE_INVISIBLE", "MAKE_MANDATORY", "MAKE_NON_MANDATORY")
}

func containsAny(haystack []string, needles ...string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if h == n {
				return true
			}
		}
	}
	return false
}
