// Package classify turns one free-text logic statement into a structured
// intent: keywords, conditions, actions, field references, boolean
// detectors, and a confidence weight. Classification never fails; malformed
// or empty text yields a zero-value ParsedLogic.
package classify

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"ruleforge/internal/schema"
)

//go:embed vocab.yaml
var vocabYAML []byte

type vocabulary struct {
	SkipPatterns  []string       `yaml:"skip_patterns"`
	Keywords      []string       `yaml:"keywords"`
	Actions       []actionEntry  `yaml:"actions"`
	DocumentTypes []docTypeEntry `yaml:"document_types"`
}

type actionEntry struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Not      []string `yaml:"not"`
}

type docTypeEntry struct {
	Type  string   `yaml:"type"`
	Match []string `yaml:"match"`
}

// Compiled vocabulary, built once at package init. The YAML keeps the
// tables as ordered data so priority lives in the file, not in code
// branches.
var (
	skipRes    []*regexp.Regexp
	keywordRes []keywordMatcher
	actionRes  []actionMatcher
	docTypes   []docTypeMatcher
)

type keywordMatcher struct {
	word string
	re   *regexp.Regexp
}

type actionMatcher struct {
	label string
	res   []*regexp.Regexp
	not   []*regexp.Regexp
}

type docTypeMatcher struct {
	docType string
	res     []*regexp.Regexp
}

func init() {
	var v vocabulary
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		panic(fmt.Sprintf("classify: embedded vocab.yaml is corrupt: %v", err))
	}
	for _, p := range v.SkipPatterns {
		skipRes = append(skipRes, regexp.MustCompile(p))
	}
	for _, kw := range v.Keywords {
		keywordRes = append(keywordRes, keywordMatcher{word: kw, re: wordRe(kw)})
	}
	for _, a := range v.Actions {
		m := actionMatcher{label: a.Label}
		for _, kw := range a.Keywords {
			m.res = append(m.res, wordRe(kw))
		}
		for _, kw := range a.Not {
			m.not = append(m.not, wordRe(kw))
		}
		actionRes = append(actionRes, m)
	}
	for _, d := range v.DocumentTypes {
		m := docTypeMatcher{docType: d.Type}
		for _, kw := range d.Match {
			m.res = append(m.res, wordRe(kw))
		}
		docTypes = append(docTypes, m)
	}
}

// wordRe compiles a case-insensitive, word-bounded matcher for a vocabulary
// phrase.
func wordRe(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// conditionPattern is one entry of the ordered condition-extraction table.
// Each pattern captures (source field, value expression); order is priority.
type conditionPattern struct {
	re       *regexp.Regexp
	operator string
}

var conditionPatterns = []conditionPattern{
	// if the field 'X' value is [selected as] Y then ...
	{regexp.MustCompile(`(?i)\bif\s+(?:the\s+)?field\s+'([^']+)'\s+value\s+is\s+(?:selected\s+as\s+)?'?([A-Za-z0-9][A-Za-z0-9 _/-]*?)'?\s*(?:\bthen\b|,)`), "=="},
	// if 'X' is Y then ...
	{regexp.MustCompile(`(?i)\bif\s+'([^']+)'\s+is\s+'?([A-Za-z0-9][A-Za-z0-9 _/-]*?)'?\s*(?:\bthen\b|,)`), "=="},
	// when X equals Y
	{regexp.MustCompile(`(?i)\bwhen\s+(?:the\s+)?(?:field\s+)?'?([A-Za-z0-9][A-Za-z0-9 _]*?)'?\s+equals\s+'?([A-Za-z0-9][A-Za-z0-9 _/-]*?)'?\s*(?:\bthen\b|,|\.|$)`), "=="},
	// if the field 'X' value is in (A, B, C)
	{regexp.MustCompile(`(?i)\bif\s+(?:the\s+)?(?:field\s+)?'([^']+)'\s+(?:value\s+)?is\s+in\s+\(([^)]+)\)`), "in"},
}

// valueSplitRe splits a captured value expression into alternatives:
// "Yes or No", "A, B".
var valueSplitRe = regexp.MustCompile(`(?i)\s*(?:,|\bor\b)\s*`)

// Signal weights for the confidence priority table. Confidence is the
// maximum weight among fired signals, not a sum.
const (
	weightOCR               = 0.90
	weightVerify            = 0.90
	weightVerifyDestination = 0.85
	weightNonEditable       = 0.85
	weightCondition         = 0.80
	weightAction            = 0.70
)

var (
	quotedRe    = regexp.MustCompile(`'([^']+)'|"([^"]+)"`)
	verifyRe    = regexp.MustCompile(`(?i)\b(?:validate|validation|verify|verification|verified)\b`)
	verifyDstRe = regexp.MustCompile(`(?i)\b(?:data\s+)?will\s+(?:come|be\s+(?:fetched|populated|auto[- ]?populated|filled))\s+from\b[^.]*\b(?:validation|verification)\b|\bcomes\s+from\b[^.]*\b(?:validation|verification)\b`)
	ocrRe       = regexp.MustCompile(`(?i)\bocr\b`)
)

// Classify derives a ParsedLogic from one logic string. The steps run in a
// fixed order; a skip-pattern hit short-circuits everything else.
func Classify(text string) schema.ParsedLogic {
	var out schema.ParsedLogic
	if strings.TrimSpace(text) == "" {
		return out
	}

	// 1. Skip patterns: expression/macro logic is opaque, not declarative.
	for _, re := range skipRes {
		if re.MatchString(text) {
			out.ShouldSkip = true
			return out
		}
	}

	// 2. Keyword vocabulary scan.
	for _, km := range keywordRes {
		if km.re.MatchString(text) {
			out.Keywords = append(out.Keywords, km.word)
		}
	}

	// 3. Ordered condition extraction. Every match from every pattern is
	// collected; a field can be gated by more than one source.
	out.Conditions = extractConditions(text)

	// 4. Independent boolean detectors.
	out.IsOCR = ocrRe.MatchString(text)
	out.IsVerifyDestination = verifyDstRe.MatchString(text)
	out.IsVerify = verifyRe.MatchString(text) && !out.IsVerifyDestination
	out.IsNonEditable = hasAction(text, "MAKE_NON_EDITABLE")

	// 5. Document type, first match wins.
	for _, dm := range docTypes {
		if matchesAny(text, dm.res) {
			out.DocumentType = dm.docType
			break
		}
	}

	// 6. Field references: union of quoted substrings, deduplicated in
	// first-seen order.
	out.FieldReferences = extractFieldReferences(text)

	// 7. Action detection and confidence. A guard phrase suppresses its
	// action outright.
	for _, am := range actionRes {
		if matchesAny(text, am.not) {
			continue
		}
		if matchesAny(text, am.res) {
			out.Actions = append(out.Actions, am.label)
		}
	}
	out.Confidence = confidence(&out)
	return out
}

func matchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasAction(text, label string) bool {
	for _, am := range actionRes {
		if am.label != label {
			continue
		}
		return matchesAny(text, am.res) && !matchesAny(text, am.not)
	}
	return false
}

func extractConditions(text string) []schema.Condition {
	var out []schema.Condition
	seen := make(map[string]bool)
	for _, cp := range conditionPatterns {
		for _, m := range cp.re.FindAllStringSubmatch(text, -1) {
			field := strings.TrimSpace(m[1])
			rawValue := strings.TrimSpace(m[2])
			if field == "" || rawValue == "" {
				continue
			}
			c := schema.Condition{SourceFieldName: field, Operator: cp.operator}
			values := valueSplitRe.Split(rawValue, -1)
			if len(values) > 1 || cp.operator == "in" {
				c.Operator = "in"
				for _, v := range values {
					v = strings.Trim(strings.TrimSpace(v), `'"`)
					if v != "" {
						c.ValueList = append(c.ValueList, v)
					}
				}
			} else {
				c.Value = strings.Trim(rawValue, `'"`)
			}
			key := field + "\x00" + c.Operator + "\x00" + c.Value + "\x00" + strings.Join(c.ValueList, "\x00")
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

func extractFieldReferences(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		ref := m[1]
		if ref == "" {
			ref = m[2]
		}
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

// confidence applies the fixed priority table: the strongest fired signal
// wins outright.
func confidence(p *schema.ParsedLogic) float64 {
	best := 0.0
	if p.IsOCR && weightOCR > best {
		best = weightOCR
	}
	if p.IsVerify && weightVerify > best {
		best = weightVerify
	}
	if p.IsVerifyDestination && weightVerifyDestination > best {
		best = weightVerifyDestination
	}
	if p.IsNonEditable && weightNonEditable > best {
		best = weightNonEditable
	}
	if len(p.Conditions) > 0 && weightCondition > best {
		best = weightCondition
	}
	if len(p.Actions) > 0 && weightAction > best {
		best = weightAction
	}
	return best
}
