package eval

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ruleforge/internal/match"
	"ruleforge/internal/schema"
)

func newTestEngine() *Engine {
	return NewEngine(match.NewComparator(nil, 0), DefaultPassThreshold)
}

func field(id int, name, fieldType string, rules ...schema.GeneratedRule) schema.FormField {
	return schema.FormField{
		ID:            id,
		FormTag:       schema.FormTag{Name: name, Type: fieldType},
		FormFillRules: rules,
	}
}

func verifyRule(id int, sourceIDs []int) schema.GeneratedRule {
	return schema.GeneratedRule{
		ID:             id,
		ActionType:     schema.ActionVerify,
		ProcessingType: schema.ProcessingServer,
		SourceIDs:      sourceIDs,
		DestinationIDs: []int{},
	}
}

func TestOverallScore_Weighting(t *testing.T) {
	got := OverallScore(0.8, 0.5, 1.0)
	if math.Abs(got-0.72) > 1e-9 {
		t.Errorf("OverallScore(0.8, 0.5, 1.0) = %v, want 0.72", got)
	}
}

func TestEvaluate_IdenticalSetsPass(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(1, "PAN Number", "TEXT", verifyRule(10, []int{1}))}
	ref := []schema.FormField{field(1, "PAN Number", "TEXT", verifyRule(10, []int{1}))}

	res := e.Evaluate(context.Background(), gen, ref)
	if !res.Passed {
		t.Fatalf("identical sets must pass, got score %v, discrepancies %+v",
			res.OverallScore, res.AllDiscrepancies)
	}
	if res.FieldCoverage != 1.0 || res.RuleCoverage != 1.0 || res.RuleAccuracy != 1.0 {
		t.Errorf("ratios = %v/%v/%v, want 1/1/1",
			res.FieldCoverage, res.RuleCoverage, res.RuleAccuracy)
	}
	if res.Totals.MatchedFields != 1 || res.Totals.MatchedRules != 1 {
		t.Errorf("totals = %+v", res.Totals)
	}
}

// Ids are run-specific: rules whose source ids differ numerically but
// resolve to identically named fields must still match.
func TestEvaluate_IDSetsCompareByName(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(9001, "PAN Number", "TEXT", verifyRule(10, []int{9001}))}
	ref := []schema.FormField{field(5001, "PAN Number", "TEXT", verifyRule(77, []int{5001}))}

	res := e.Evaluate(context.Background(), gen, ref)
	if res.Totals.MatchedFields != 1 {
		t.Fatalf("matched fields = %d, want 1", res.Totals.MatchedFields)
	}
	if res.RuleCoverage != 1.0 {
		t.Errorf("rule coverage = %v, want 1.0", res.RuleCoverage)
	}
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyRuleSourceIDMismatch {
			t.Errorf("unexpected source-id mismatch: %+v", d)
		}
	}
}

func TestEvaluate_FieldMatchTypes(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{
		field(1, "PAN Number", "TEXT"),
		field(2, "ifsc_code", "TEXT"),
	}
	ref := []schema.FormField{
		field(11, "pan number", "TEXT"),
		field(12, "IFSC Code", "TEXT"),
	}

	res := e.Evaluate(context.Background(), gen, ref)
	if len(res.FieldEvaluations) != 2 {
		t.Fatalf("got %d field evaluations", len(res.FieldEvaluations))
	}
	if res.FieldEvaluations[0].MatchType != schema.MatchExact {
		t.Errorf("case-insensitive equality must label exact, got %s",
			res.FieldEvaluations[0].MatchType)
	}
	if res.FieldEvaluations[1].MatchType != schema.MatchNormalized {
		t.Errorf("normalized equality must label normalized, got %s",
			res.FieldEvaluations[1].MatchType)
	}
}

func TestEvaluate_MissingReferenceField(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(1, "PAN Number", "TEXT")}
	ref := []schema.FormField{
		field(11, "PAN Number", "TEXT"),
		field(12, "GST Number", "TEXT", verifyRule(20, []int{12})),
	}

	res := e.Evaluate(context.Background(), gen, ref)
	var missing *schema.Discrepancy
	for i, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyFieldMissing && d.FieldName == "GST Number" {
			missing = &res.AllDiscrepancies[i]
		}
	}
	if missing == nil {
		t.Fatalf("no field_missing discrepancy for GST Number: %+v", res.AllDiscrepancies)
	}
	if missing.Severity != schema.SeverityHigh {
		t.Errorf("missing reference field severity = %s, want high", missing.Severity)
	}
	if res.FieldCoverage != 0.5 {
		t.Errorf("field coverage = %v, want 0.5", res.FieldCoverage)
	}
}

func TestEvaluate_ExtraGeneratedFieldIsBenign(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{
		field(1, "PAN Number", "TEXT"),
		field(2, "Internal Notes", "TEXT"),
	}
	ref := []schema.FormField{field(11, "PAN Number", "TEXT")}

	res := e.Evaluate(context.Background(), gen, ref)
	var extra *schema.Discrepancy
	for i, d := range res.AllDiscrepancies {
		if d.FieldName == "Internal Notes" {
			extra = &res.AllDiscrepancies[i]
		}
	}
	if extra == nil {
		t.Fatal("extra generated field not reported")
	}
	if extra.Severity != schema.SeverityLow {
		t.Errorf("extra field severity = %s, want low", extra.Severity)
	}
	if res.FieldCoverage != 1.0 {
		t.Errorf("field coverage = %v, want 1.0 (extras do not reduce coverage)", res.FieldCoverage)
	}
}

func TestEvaluate_RuleMissing(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(1, "PAN Number", "TEXT")}
	ref := []schema.FormField{field(11, "PAN Number", "TEXT", verifyRule(20, []int{11}))}

	res := e.Evaluate(context.Background(), gen, ref)
	found := false
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyRuleMissing && d.Severity == schema.SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("no rule_missing discrepancy: %+v", res.AllDiscrepancies)
	}
	if res.RuleCoverage != 0.0 {
		t.Errorf("rule coverage = %v, want 0.0", res.RuleCoverage)
	}
}

func TestEvaluate_ConditionMismatch(t *testing.T) {
	e := newTestEngine()
	genRule := schema.GeneratedRule{
		ID: 10, ActionType: schema.ActionMakeVisible, ProcessingType: schema.ProcessingClient,
		SourceIDs: []int{1}, DestinationIDs: []int{2},
		Condition: schema.ConditionIn, ConditionalValues: []string{"Yes"},
	}
	refRule := genRule
	refRule.ID = 70
	refRule.SourceIDs = []int{11}
	refRule.DestinationIDs = []int{12}
	refRule.Condition = schema.ConditionNotIn

	gen := []schema.FormField{field(1, "Has GST", "DROPDOWN"), field(2, "GST Number", "TEXT", genRule)}
	ref := []schema.FormField{field(11, "Has GST", "DROPDOWN"), field(12, "GST Number", "TEXT", refRule)}

	res := e.Evaluate(context.Background(), gen, ref)
	if res.Totals.MatchedRules != 1 {
		t.Fatalf("matched rules = %d, want 1 (mismatch does not unmatch)", res.Totals.MatchedRules)
	}
	found := false
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyRuleConditionMismatch {
			found = true
			if d.Expected != "NOT_IN" || d.Actual != "IN" {
				t.Errorf("condition mismatch expected/actual = %q/%q", d.Expected, d.Actual)
			}
		}
	}
	if !found {
		t.Errorf("no rule_condition_mismatch discrepancy: %+v", res.AllDiscrepancies)
	}
}

func TestEvaluate_UnresolvedReferenceID(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(1, "PAN Number", "TEXT", verifyRule(10, []int{1}))}
	ref := []schema.FormField{field(11, "PAN Number", "TEXT", verifyRule(20, []int{424242}))}

	res := e.Evaluate(context.Background(), gen, ref)
	found := false
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancySchemaStructureError {
			found = true
		}
	}
	if !found {
		t.Errorf("unresolved reference id not reported: %+v", res.AllDiscrepancies)
	}
}

func TestEvaluate_PostTriggerChainMissing(t *testing.T) {
	e := newTestEngine()

	refVerify := verifyRule(21, []int{11})
	refOCR := schema.GeneratedRule{
		ID: 20, ActionType: schema.ActionOCR, ProcessingType: schema.ProcessingServer,
		SourceIDs: []int{11}, DestinationIDs: []int{}, PostTriggerRuleIDs: []int{21},
	}
	ref := []schema.FormField{field(11, "Pan Image", "FILE", refOCR, refVerify)}

	// Generated set has both rules but never declares the chain.
	genVerify := verifyRule(31, []int{1})
	genOCR := schema.GeneratedRule{
		ID: 30, ActionType: schema.ActionOCR, ProcessingType: schema.ProcessingServer,
		SourceIDs: []int{1}, DestinationIDs: []int{},
	}
	gen := []schema.FormField{field(1, "Pan Image", "FILE", genOCR, genVerify)}

	res := e.Evaluate(context.Background(), gen, ref)
	found := false
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyPostTriggerRuleMissing {
			found = true
		}
	}
	if !found {
		t.Errorf("missing chain not reported: %+v", res.AllDiscrepancies)
	}
}

func TestEvaluate_PostTriggerChainPresent(t *testing.T) {
	e := newTestEngine()

	build := func(base int) []schema.FormField {
		verify := verifyRule(base+1, []int{base})
		ocr := schema.GeneratedRule{
			ID: base, ActionType: schema.ActionOCR, ProcessingType: schema.ProcessingServer,
			SourceIDs: []int{base}, DestinationIDs: []int{}, PostTriggerRuleIDs: []int{base + 1},
		}
		return []schema.FormField{field(base, "Pan Image", "FILE", ocr, verify)}
	}

	res := e.Evaluate(context.Background(), build(100), build(500))
	for _, d := range res.AllDiscrepancies {
		if d.Type == schema.DiscrepancyPostTriggerRuleMissing {
			t.Errorf("chain present on both sides but reported missing: %+v", d)
		}
	}
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	e := newTestEngine()
	res := e.Evaluate(context.Background(), nil, nil)
	if !res.Passed {
		t.Error("empty vs empty must pass")
	}
	if res.FieldCoverage != 1.0 || res.RuleCoverage != 1.0 || res.RuleAccuracy != 1.0 {
		t.Errorf("zero denominators must yield 1.0, got %v/%v/%v",
			res.FieldCoverage, res.RuleCoverage, res.RuleAccuracy)
	}
	if res.OverallScore != 1.0 {
		t.Errorf("overall = %v, want 1.0", res.OverallScore)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{
		field(1, "Employment Type", "DROPDOWN"),
		field(2, "Employer Name", "TEXT", schema.GeneratedRule{
			ID: 10, ActionType: schema.ActionMakeVisible, ProcessingType: schema.ProcessingClient,
			SourceIDs: []int{1}, DestinationIDs: []int{2},
			Condition: schema.ConditionIn, ConditionalValues: []string{"Salaried"},
		}),
		field(3, "Extra Field", "TEXT"),
	}
	ref := []schema.FormField{
		field(11, "Employment Type", "DROPDOWN"),
		field(12, "Employer Name", "TEXT", schema.GeneratedRule{
			ID: 70, ActionType: schema.ActionMakeVisible, ProcessingType: schema.ProcessingClient,
			SourceIDs: []int{11}, DestinationIDs: []int{12},
			Condition: schema.ConditionNotIn, ConditionalValues: []string{"Salaried"},
		}),
		field(13, "Missing Field", "TEXT"),
	}

	first := e.Evaluate(context.Background(), gen, ref)
	second := NewEngine(match.NewComparator(nil, 0), DefaultPassThreshold).
		Evaluate(context.Background(), gen, ref)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("evaluation is not deterministic (-first +second):\n%s", diff)
	}
}

func TestEvaluate_RuleTypeComparison(t *testing.T) {
	e := newTestEngine()
	gen := []schema.FormField{field(1, "PAN Number", "TEXT",
		verifyRule(10, []int{1}), verifyRule(11, []int{1}))}
	ref := []schema.FormField{field(21, "PAN Number", "TEXT", verifyRule(30, []int{21}))}

	res := e.Evaluate(context.Background(), gen, ref)
	if res.RuleTypeComparison.Generated[schema.ActionVerify] != 2 {
		t.Errorf("generated VERIFY count = %d, want 2",
			res.RuleTypeComparison.Generated[schema.ActionVerify])
	}
	if res.RuleTypeComparison.Reference[schema.ActionVerify] != 1 {
		t.Errorf("reference VERIFY count = %d, want 1",
			res.RuleTypeComparison.Reference[schema.ActionVerify])
	}
	if res.RuleAccuracy != 0.5 {
		t.Errorf("rule accuracy = %v, want 0.5", res.RuleAccuracy)
	}
}
