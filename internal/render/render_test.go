package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ruleforge/internal/schema"
)

func sampleResult() *schema.EvalResult {
	return &schema.EvalResult{
		Passed:        false,
		OverallScore:  0.72,
		FieldCoverage: 0.8,
		RuleCoverage:  0.5,
		RuleAccuracy:  1.0,
		Totals: schema.Totals{
			ReferenceFields: 5, GeneratedFields: 4, MatchedFields: 4,
			ReferenceRules: 6, GeneratedRules: 3, MatchedRules: 3,
		},
		FieldEvaluations: []schema.FieldEvaluation{
			{FieldName: "Pan Number", MatchedReference: "PAN Number",
				MatchType: schema.MatchExact, Confidence: 1.0, RulesMatched: 2, RulesTotal: 2},
			{FieldName: "Extra Field", MatchType: schema.MatchNone},
		},
		AllDiscrepancies: []schema.Discrepancy{
			{Type: schema.DiscrepancyFieldMissing, Severity: schema.SeverityHigh,
				FieldName: "GST Number", Message: "reference field \"GST Number\" is missing from the generated set",
				Expected: "GST Number", FixInstruction: "add field \"GST Number\" with its 2 rule(s)"},
			{Type: schema.DiscrepancyRuleCondValuesMismatch, Severity: schema.SeverityLow,
				FieldName: "Employer Name", Message: "MAKE_VISIBLE rule conditional values differ",
				Expected: "Salaried", Actual: "Self-Employed"},
		},
		RuleTypeComparison: schema.RuleTypeComparison{
			Generated: map[schema.ActionType]int{schema.ActionVerify: 2, schema.ActionOCR: 1},
			Reference: map[schema.ActionType]int{schema.ActionVerify: 2, schema.ActionMakeVisible: 4},
		},
	}
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	result := sampleResult()
	b, err := RenderJSON(result)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var back schema.EvalResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(*result, back); diff != "" {
		t.Errorf("round trip mismatch (-original +decoded):\n%s", diff)
	}
}

func TestRenderJSON_NilResult(t *testing.T) {
	if _, err := RenderJSON(nil); err == nil {
		t.Error("nil result must error")
	}
}

func TestRenderMarkdown_ContainsEverything(t *testing.T) {
	md := RenderMarkdown(sampleResult())

	for _, want := range []string{
		"**Verdict:** FAILED",
		"**Overall score:** 0.72",
		"Field Matching",
		"Pan Number",
		"### HIGH",
		"### LOW",
		"field_missing",
		"rule_conditional_values_mismatch",
		"Rules by Action Type",
		"| VERIFY | 2 | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_SeverityOrderHighFirst(t *testing.T) {
	md := RenderMarkdown(sampleResult())
	hi := strings.Index(md, "### HIGH")
	lo := strings.Index(md, "### LOW")
	if hi < 0 || lo < 0 || hi > lo {
		t.Errorf("severity sections out of order: high at %d, low at %d", hi, lo)
	}
}

func TestRenderMarkdown_Nil(t *testing.T) {
	if got := RenderMarkdown(nil); got != "" {
		t.Errorf("nil result should render empty, got %q", got)
	}
}

func TestRenderMarkdown_PassedVerdict(t *testing.T) {
	result := &schema.EvalResult{Passed: true, OverallScore: 1.0,
		FieldCoverage: 1.0, RuleCoverage: 1.0, RuleAccuracy: 1.0}
	md := RenderMarkdown(result)
	if !strings.Contains(md, "**Verdict:** PASSED") {
		t.Errorf("markdown missing passed verdict:\n%s", md)
	}
	if strings.Contains(md, "Discrepancies") {
		t.Error("clean result should have no discrepancy section")
	}
}
