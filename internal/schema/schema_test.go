package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseActionType(t *testing.T) {
	valid := []string{
		"MAKE_VISIBLE", "MAKE_INVISIBLE", "MAKE_MANDATORY", "MAKE_NON_MANDATORY",
		"VERIFY", "OCR", "COPY", "MAKE_NON_EDITABLE", "DROPDOWN",
	}
	for _, s := range valid {
		got, err := ParseActionType(s)
		if err != nil {
			t.Errorf("ParseActionType(%q) returned error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseActionType(%q) = %q", s, got)
		}
	}
	if _, err := ParseActionType("EXPLODE"); err == nil {
		t.Error("ParseActionType(EXPLODE) should fail")
	}
}

func TestParseProcessingType(t *testing.T) {
	if _, err := ParseProcessingType("CLIENT"); err != nil {
		t.Errorf("CLIENT should parse: %v", err)
	}
	if _, err := ParseProcessingType("SERVER"); err != nil {
		t.Errorf("SERVER should parse: %v", err)
	}
	if _, err := ParseProcessingType("client"); err == nil {
		t.Error("lowercase client should not parse")
	}
}

func TestSeverityOrdinal_StrictlyAscending(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
	for i := 1; i < len(order); i++ {
		if SeverityOrdinal(order[i-1]) >= SeverityOrdinal(order[i]) {
			t.Errorf("SeverityOrdinal(%q) >= SeverityOrdinal(%q)", order[i-1], order[i])
		}
	}
	if SeverityOrdinal(Severity("bogus")) != 5 {
		t.Errorf("unknown severity ordinal = %d, want 5", SeverityOrdinal(Severity("bogus")))
	}
}

func TestMirrorAction(t *testing.T) {
	cases := []struct {
		in, want ActionType
		ok       bool
	}{
		{ActionMakeVisible, ActionMakeInvisible, true},
		{ActionMakeInvisible, ActionMakeVisible, true},
		{ActionMakeMandatory, ActionMakeNonMandatory, true},
		{ActionMakeNonMandatory, ActionMakeMandatory, true},
		{ActionVerify, "", false},
		{ActionOCR, "", false},
	}
	for _, c := range cases {
		got, ok := MirrorAction(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("MirrorAction(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestGeneratedRule_OptionalKeysOmitted(t *testing.T) {
	r := GeneratedRule{
		ID:             200001,
		CreateUser:     "SYSTEM",
		UpdateUser:     "SYSTEM",
		ActionType:     ActionMakeVisible,
		ProcessingType: ProcessingClient,
		SourceIDs:      []int{1},
		DestinationIDs: []int{2},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	// Absent optional keys must be omitted entirely, never emitted as null.
	for _, key := range []string{"sourceType", "conditionalValues", "condition", "conditionValueType", "params", "onStatusFail"} {
		if strings.Contains(s, key) {
			t.Errorf("empty optional key %q present in output: %s", key, s)
		}
	}
	if strings.Contains(s, "null") {
		t.Errorf("output contains null: %s", s)
	}
}

func TestGeneratedRule_ConditionalRoundTrip(t *testing.T) {
	r := GeneratedRule{
		ID:                200002,
		ActionType:        ActionMakeInvisible,
		ProcessingType:    ProcessingClient,
		SourceIDs:         []int{10},
		DestinationIDs:    []int{11, 12},
		Condition:         ConditionNotIn,
		ConditionalValues: []string{"YES"},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back GeneratedRule
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Condition != ConditionNotIn || len(back.ConditionalValues) != 1 || back.ConditionalValues[0] != "YES" {
		t.Errorf("round trip lost condition data: %+v", back)
	}
}
