// Package render produces output from a fully assembled schema.EvalResult.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ruleforge/internal/schema"
)

// RenderJSON produces a pretty-printed JSON representation of the result.
// The output round-trips through json.Unmarshal back to an equal EvalResult.
func RenderJSON(result *schema.EvalResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the
// result, suitable for PR comments or terminal output. Every discrepancy
// in the result appears in the output, grouped by severity.
func RenderMarkdown(result *schema.EvalResult) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder

	verdict := "FAILED"
	if result.Passed {
		verdict = "PASSED"
	}
	sb.WriteString("## Rule Evaluation Report\n\n")
	fmt.Fprintf(&sb, "**Verdict:** %s  \n", verdict)
	fmt.Fprintf(&sb, "**Overall score:** %.2f  \n", result.OverallScore)
	fmt.Fprintf(&sb, "**Field coverage:** %.2f | **Rule coverage:** %.2f | **Rule accuracy:** %.2f\n\n",
		result.FieldCoverage, result.RuleCoverage, result.RuleAccuracy)
	fmt.Fprintf(&sb, "Fields: %d/%d matched. Rules: %d/%d reference, %d generated.\n\n",
		result.Totals.MatchedFields, result.Totals.ReferenceFields,
		result.Totals.MatchedRules, result.Totals.ReferenceRules,
		result.Totals.GeneratedRules)

	if len(result.FieldEvaluations) > 0 {
		sb.WriteString("## Field Matching\n\n")
		sb.WriteString("| Field | Matched | Type | Confidence | Rules |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, fe := range result.FieldEvaluations {
			matched := fe.MatchedReference
			if matched == "" {
				matched = "(none)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %.2f | %d/%d |\n",
				mdEscape(fe.FieldName), mdEscape(matched), fe.MatchType,
				fe.Confidence, fe.RulesMatched, fe.RulesTotal)
		}
		sb.WriteString("\n")
	}

	if len(result.AllDiscrepancies) > 0 {
		sb.WriteString("## Discrepancies\n\n")
		for _, severity := range severityOrder(result.AllDiscrepancies) {
			fmt.Fprintf(&sb, "### %s\n\n", strings.ToUpper(string(severity)))
			for _, d := range result.AllDiscrepancies {
				if d.Severity != severity {
					continue
				}
				fmt.Fprintf(&sb, "- **%s**", d.Type)
				if d.FieldName != "" {
					fmt.Fprintf(&sb, " (%s)", mdEscape(d.FieldName))
				}
				fmt.Fprintf(&sb, ": %s", mdEscape(d.Message))
				if d.Expected != "" || d.Actual != "" {
					fmt.Fprintf(&sb, " — expected `%s`, got `%s`", mdEscape(d.Expected), mdEscape(d.Actual))
				}
				sb.WriteString("\n")
				if d.FixInstruction != "" {
					fmt.Fprintf(&sb, "  - Fix: %s\n", mdEscape(d.FixInstruction))
				}
			}
			sb.WriteString("\n")
		}
	}

	if len(result.RuleTypeComparison.Generated) > 0 || len(result.RuleTypeComparison.Reference) > 0 {
		sb.WriteString("## Rules by Action Type\n\n")
		sb.WriteString("| Action | Generated | Reference |\n")
		sb.WriteString("|---|---|---|\n")
		for _, action := range actionOrder(result.RuleTypeComparison) {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", action,
				result.RuleTypeComparison.Generated[action],
				result.RuleTypeComparison.Reference[action])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// severityOrder returns the severities present, highest rank first.
func severityOrder(ds []schema.Discrepancy) []schema.Severity {
	seen := make(map[schema.Severity]bool)
	var out []schema.Severity
	for _, d := range ds {
		if !seen[d.Severity] {
			seen[d.Severity] = true
			out = append(out, d.Severity)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return schema.SeverityOrdinal(out[i]) < schema.SeverityOrdinal(out[j])
	})
	return out
}

// actionOrder returns the union of action types on both sides, sorted for
// stable output.
func actionOrder(c schema.RuleTypeComparison) []schema.ActionType {
	seen := make(map[schema.ActionType]bool)
	var out []schema.ActionType
	for a := range c.Generated {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for a := range c.Reference {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
