// Package llm implements the semantic field-name matcher on top of hosted
// LLM providers: prompt construction, response validation, and a single
// repair attempt.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ruleforge/internal/match"
)

// ErrInvalidModelOutput is returned when both the initial and repair LLM
// responses fail validation. Callers fail open to a non-match.
var ErrInvalidModelOutput = errors.New("llm: invalid model output after repair attempt")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Matcher.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Addendum is appended to the system prompt; evaluation profiles use
	// it to tighten or loosen match judgement.
	Addendum string
	Debug    bool
}

// Matcher implements match.SemanticMatcher using an LLM provider.
type Matcher struct {
	provider Provider
	opts     Options
}

// NewMatcher constructs a Matcher for the configured provider.
func NewMatcher(opts Options) (*Matcher, error) {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 512
	}
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}
	return &Matcher{provider: provider, opts: opts}, nil
}

// MatchFieldNames asks the model whether two field labels denote the same
// form field. The response is validated; one repair attempt is made before
// giving up.
func (m *Matcher) MatchFieldNames(ctx context.Context, name1, name2, context1, context2 string) (match.Result, error) {
	sysPrompt := buildSystemPrompt(m.opts.Addendum)
	userPrompt := buildUserPrompt(name1, name2, context1, context2)

	if m.opts.Debug {
		fmt.Fprintf(os.Stderr, "=== DEBUG: system prompt ===\n%s\n", sysPrompt)
		fmt.Fprintf(os.Stderr, "=== DEBUG: user prompt ===\n%s\n", userPrompt)
	}

	raw, err := m.provider.Complete(ctx, sysPrompt, userPrompt, m.opts.MaxTokens, m.opts.Temperature)
	if err != nil {
		return match.Result{}, fmt.Errorf("llm: complete: %w", err)
	}

	result, verr := ValidateResponse(raw)
	if verr == nil {
		return result, nil
	}

	// One repair attempt: include the invalid response and the error so
	// the model has full context.
	repairPrompt := buildRepairPrompt(userPrompt, raw, verr)
	raw2, err := m.provider.Complete(ctx, sysPrompt, repairPrompt, m.opts.MaxTokens, m.opts.Temperature)
	if err != nil {
		return match.Result{}, fmt.Errorf("llm: repair complete: %w", err)
	}
	result, verr = ValidateResponse(raw2)
	if verr == nil {
		return result, nil
	}
	return match.Result{}, ErrInvalidModelOutput
}

// ValidationError records a single validation failure on an LLM response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences. The content
// group uses `.*?` (not `.+?`) to allow empty bodies inside fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing markdown code fences that LLMs
// sometimes wrap around JSON output (e.g., "```json\n...\n```").
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character. LLMs sometimes emit regex
// patterns unescaped inside JSON strings; the sanitizer double-escapes them
// so the parser accepts the response.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ValidateResponse parses and validates a raw LLM response into a
// match.Result. Leading/trailing markdown fences are stripped before
// parsing; invalid escape sequences get a one-shot sanitization pass.
func ValidateResponse(raw string) (match.Result, *ValidationError) {
	raw = stripMarkdownFences(raw)

	var result match.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		fixed := fixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &result); err2 != nil {
			return match.Result{}, &ValidationError{Field: "json_parse", Message: err.Error()}
		}
	}

	if result.Confidence < 0.0 || result.Confidence > 1.0 {
		return match.Result{}, &ValidationError{
			Field:   "confidence",
			Message: fmt.Sprintf("confidence %v outside [0,1]", result.Confidence),
		}
	}
	if result.IsMatch && result.Confidence == 0.0 {
		return match.Result{}, &ValidationError{
			Field:   "confidence",
			Message: "is_match is true but confidence is 0",
		}
	}
	return result, nil
}

// buildSystemPrompt assembles the matcher system prompt.
func buildSystemPrompt(addendum string) string {
	var sb strings.Builder

	sb.WriteString("You compare two form-field labels from business requirement documents " +
		"and decide whether they refer to the same logical field.\n\n")
	sb.WriteString("Output ONLY valid JSON conforming to the schema below. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")
	sb.WriteString("Consider abbreviations, word order, and domain synonyms " +
		"(e.g. \"Fullname\" and \"Name of PAN Holder\" may denote the same field). " +
		"Different fields that merely share a word are NOT a match.\n\n")

	if addendum != "" {
		sb.WriteString(addendum)
		sb.WriteString("\n\n")
	}

	sb.WriteString(outputSchema)
	return sb.String()
}

// outputSchema is the JSON schema fragment shown to the LLM.
const outputSchema = `Output schema (JSON only):
{
  "is_match": true,
  "confidence": 0.0,
  "reasoning": "one short sentence"
}
`

// buildUserPrompt assembles the comparison prompt. Context strings are the
// fields' widget types or surrounding labels, when known.
func buildUserPrompt(name1, name2, context1, context2 string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Field A: %q\n", name1)
	if context1 != "" {
		fmt.Fprintf(&sb, "Field A context: %s\n", context1)
	}
	fmt.Fprintf(&sb, "Field B: %q\n", name2)
	if context2 != "" {
		fmt.Fprintf(&sb, "Field B context: %s\n", context2)
	}
	sb.WriteString("\nDo Field A and Field B refer to the same form field? Produce the JSON now.")
	return sb.String()
}

// buildRepairPrompt constructs the repair message with the previous invalid
// response so the model does not repeat the error.
func buildRepairPrompt(originalUserPrompt, previousResponse string, verr *ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Error:\n")
	fmt.Fprintf(&sb, "  - %s\n", verr.Error())
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

// defaultAnthropicModel is used when no model override is configured.
// Field-name matching is a small judgement call; the fast tier is enough.
const defaultAnthropicModel = "claude-haiku-4-5"

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content type that carries assistant text
		// output; the SDK does not expose a typed constant for it.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
