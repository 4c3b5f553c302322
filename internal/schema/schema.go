// Package schema defines all canonical data types for the RuleForge engine:
// form fields, rule schemas, parsed logic, generated rules, and the
// evaluation report format.
package schema

import "fmt"

// ActionType identifies the kind of form-fill rule.
type ActionType string

const (
	ActionMakeVisible      ActionType = "MAKE_VISIBLE"
	ActionMakeInvisible    ActionType = "MAKE_INVISIBLE"
	ActionMakeMandatory    ActionType = "MAKE_MANDATORY"
	ActionMakeNonMandatory ActionType = "MAKE_NON_MANDATORY"
	ActionVerify           ActionType = "VERIFY"
	ActionOCR              ActionType = "OCR"
	ActionCopy             ActionType = "COPY"
	ActionMakeNonEditable  ActionType = "MAKE_NON_EDITABLE"
	ActionDropdown         ActionType = "DROPDOWN"
)

// ProcessingType says where a rule executes.
type ProcessingType string

const (
	ProcessingClient ProcessingType = "CLIENT"
	ProcessingServer ProcessingType = "SERVER"
)

// ConditionType is the membership operator on a conditional rule.
type ConditionType string

const (
	ConditionIn    ConditionType = "IN"
	ConditionNotIn ConditionType = "NOT_IN"
)

// Severity ranks a discrepancy.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// MatchType labels how a field-name match was established.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchNormalized MatchType = "normalized"
	MatchSemantic   MatchType = "semantic"
	MatchNone       MatchType = "none"
)

// DiscrepancyType categorizes a gap found during evaluation.
type DiscrepancyType string

const (
	DiscrepancyFieldMissing           DiscrepancyType = "field_missing"
	DiscrepancyFieldExtra             DiscrepancyType = "field_extra"
	DiscrepancyFieldTypeMismatch      DiscrepancyType = "field_type_mismatch"
	DiscrepancyRuleMissing            DiscrepancyType = "rule_missing"
	DiscrepancyRuleExtra              DiscrepancyType = "rule_extra"
	DiscrepancyIDMismatch             DiscrepancyType = "id_mismatch"
	DiscrepancyRuleActionMismatch     DiscrepancyType = "rule_action_mismatch"
	DiscrepancyRuleSourceIDMismatch   DiscrepancyType = "rule_source_id_mismatch"
	DiscrepancyRuleDestIDMismatch     DiscrepancyType = "rule_destination_id_mismatch"
	DiscrepancyRuleConditionMismatch  DiscrepancyType = "rule_condition_mismatch"
	DiscrepancyRuleCondValuesMismatch DiscrepancyType = "rule_conditional_values_mismatch"
	DiscrepancyRuleProcessingMismatch DiscrepancyType = "rule_processing_type_mismatch"
	DiscrepancyPostTriggerRuleMissing DiscrepancyType = "post_trigger_rule_missing"
	DiscrepancySchemaStructureError   DiscrepancyType = "schema_structure_error"
	DiscrepancyButtonMismatch         DiscrepancyType = "button_mismatch"
)

// UnusedSlot is the sentinel written into ordinal-indexed destination arrays
// for slots with no mapped field.
const UnusedSlot = -1

// FieldRecord is one form field extracted from a requirement document.
// Identity is ID; Name and VariableName are lookup keys. Immutable within
// the engine once created.
type FieldRecord struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	VariableName string `json:"variable_name"`
	FieldType    string `json:"field_type"`
	Logic        string `json:"logic,omitempty"`
	IsMandatory  bool   `json:"is_mandatory"`
}

// SchemaField is one ordered slot in a rule schema's source or destination
// field list. Ordinal is 1-based.
type SchemaField struct {
	Ordinal   int    `json:"ordinal"`
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory,omitempty"`
}

// RuleSchema is one entry of the rule-schema catalog, validated and
// strongly typed at load time.
type RuleSchema struct {
	SchemaID          int
	Action            ActionType
	SourceType        string
	ProcessingType    ProcessingType
	SourceFields      []SchemaField
	DestinationFields []SchemaField
	NumberOfItems     int
	Button            string
}

// Condition is one extracted gating condition from a logic string.
type Condition struct {
	SourceFieldName string   `json:"source_field_name"`
	Operator        string   `json:"operator"`
	Value           string   `json:"value,omitempty"`
	ValueList       []string `json:"value_list,omitempty"`
}

// ParsedLogic is the structured intent derived from one logic string.
// ShouldSkip short-circuits everything else: the text is expression or
// macro logic, not a declarative rule.
type ParsedLogic struct {
	Keywords            []string    `json:"keywords,omitempty"`
	Conditions          []Condition `json:"conditions,omitempty"`
	Actions             []string    `json:"actions,omitempty"`
	FieldReferences     []string    `json:"field_references,omitempty"`
	DocumentType        string      `json:"document_type,omitempty"`
	IsOCR               bool        `json:"is_ocr"`
	IsVerify            bool        `json:"is_verify"`
	IsVerifyDestination bool        `json:"is_verify_destination"`
	IsNonEditable       bool        `json:"is_non_editable"`
	ShouldSkip          bool        `json:"should_skip"`
	Confidence          float64     `json:"confidence"`
}

// GeneratedRule is one synthesized form-fill rule in the wire format
// consumed downstream. Optional keys are omitted, not null, when absent.
type GeneratedRule struct {
	ID                   int            `json:"id"`
	CreateUser           string         `json:"createUser"`
	UpdateUser           string         `json:"updateUser"`
	ActionType           ActionType     `json:"actionType"`
	ProcessingType       ProcessingType `json:"processingType"`
	SourceIDs            []int          `json:"sourceIds"`
	DestinationIDs       []int          `json:"destinationIds"`
	PostTriggerRuleIDs   []int          `json:"postTriggerRuleIds"`
	Button               string         `json:"button"`
	Searchable           bool           `json:"searchable"`
	ExecuteOnFill        bool           `json:"executeOnFill"`
	ExecuteOnRead        bool           `json:"executeOnRead"`
	ExecuteOnEsign       bool           `json:"executeOnEsign"`
	ExecutePostEsign     bool           `json:"executePostEsign"`
	RunPostConditionFail bool           `json:"runPostConditionFail"`
	SourceType           string         `json:"sourceType,omitempty"`
	ConditionalValues    []string       `json:"conditionalValues,omitempty"`
	Condition            ConditionType  `json:"condition,omitempty"`
	ConditionValueType   string         `json:"conditionValueType,omitempty"`
	Params               string         `json:"params,omitempty"`
	OnStatusFail         string         `json:"onStatusFail,omitempty"`
}

// FormTag carries the display name and widget type of a form field on the
// wire.
type FormTag struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FormField is the field container wire format: a field plus the rules
// attached to it.
type FormField struct {
	ID            int             `json:"id"`
	FormTag       FormTag         `json:"formTag"`
	FormFillRules []GeneratedRule `json:"formFillRules"`
	Logic         string          `json:"logic,omitempty"`
	Mandatory     bool            `json:"mandatory,omitempty"`
	VariableName  string          `json:"variableName,omitempty"`
}

// Discrepancy is one typed, severity-ranked gap between a generated and a
// reference rule set. Discrepancies are the evaluation engine's error
// channel: nothing downstream of input loading throws.
type Discrepancy struct {
	Type           DiscrepancyType `json:"type"`
	Severity       Severity        `json:"severity"`
	FieldName      string          `json:"field_name,omitempty"`
	Message        string          `json:"message"`
	Expected       string          `json:"expected,omitempty"`
	Actual         string          `json:"actual,omitempty"`
	FixInstruction string          `json:"fix_instruction,omitempty"`
}

// FieldEvaluation summarizes the match outcome for one generated field.
type FieldEvaluation struct {
	FieldName        string        `json:"field_name"`
	MatchedReference string        `json:"matched_reference,omitempty"`
	MatchType        MatchType     `json:"match_type"`
	Confidence       float64       `json:"confidence"`
	RulesMatched     int           `json:"rules_matched"`
	RulesTotal       int           `json:"rules_total"`
	Discrepancies    []Discrepancy `json:"discrepancies,omitempty"`
}

// Totals carries the raw counts behind the coverage ratios.
type Totals struct {
	ReferenceFields int `json:"total_reference_fields"`
	GeneratedFields int `json:"total_generated_fields"`
	MatchedFields   int `json:"matched_fields"`
	ReferenceRules  int `json:"total_reference_rules"`
	GeneratedRules  int `json:"total_generated_rules"`
	MatchedRules    int `json:"matched_rules"`
}

// RuleTypeComparison counts rules by action type on both sides.
type RuleTypeComparison struct {
	Generated map[ActionType]int `json:"generated"`
	Reference map[ActionType]int `json:"reference"`
}

// EvalResult is the terminal artifact of one evaluation run.
type EvalResult struct {
	Passed             bool               `json:"passed"`
	OverallScore       float64            `json:"overall_score"`
	FieldCoverage      float64            `json:"field_coverage"`
	RuleCoverage       float64            `json:"rule_coverage"`
	RuleAccuracy       float64            `json:"rule_accuracy"`
	Totals             Totals             `json:"totals"`
	FieldEvaluations   []FieldEvaluation  `json:"field_evaluations"`
	AllDiscrepancies   []Discrepancy      `json:"all_discrepancies"`
	RuleTypeComparison RuleTypeComparison `json:"rule_type_comparison"`
}

// ParseActionType converts a string to an ActionType constant.
// Returns an error for unrecognized values.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionMakeVisible, ActionMakeInvisible, ActionMakeMandatory,
		ActionMakeNonMandatory, ActionVerify, ActionOCR, ActionCopy,
		ActionMakeNonEditable, ActionDropdown:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("schema: unknown action type %q", s)
}

// ParseProcessingType converts a string to a ProcessingType constant.
func ParseProcessingType(s string) (ProcessingType, error) {
	switch ProcessingType(s) {
	case ProcessingClient, ProcessingServer:
		return ProcessingType(s), nil
	}
	return "", fmt.Errorf("schema: unknown processing type %q", s)
}

// SeverityOrdinal returns the numeric rank of a severity, highest first:
// critical=0 … info=4. Unknown severities sort last.
func SeverityOrdinal(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// MirrorAction returns the inverse action for paired rule emission:
// MAKE_VISIBLE↔MAKE_INVISIBLE, MAKE_MANDATORY↔MAKE_NON_MANDATORY.
// Actions with no mirror return "" and false.
func MirrorAction(a ActionType) (ActionType, bool) {
	switch a {
	case ActionMakeVisible:
		return ActionMakeInvisible, true
	case ActionMakeInvisible:
		return ActionMakeVisible, true
	case ActionMakeMandatory:
		return ActionMakeNonMandatory, true
	case ActionMakeNonMandatory:
		return ActionMakeMandatory, true
	}
	return "", false
}
