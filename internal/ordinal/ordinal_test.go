package ordinal

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ruleforge/internal/schema"
)

// panSchema mimics the PAN validation schema: 10 destination slots with
// Fullname at ordinal 4 and Pan type at ordinal 8.
func panSchema() schema.RuleSchema {
	return schema.RuleSchema{
		SchemaID:       101,
		Action:         schema.ActionVerify,
		SourceType:     "PAN",
		ProcessingType: schema.ProcessingServer,
		DestinationFields: []schema.SchemaField{
			{Ordinal: 1, Name: "Pan number"},
			{Ordinal: 4, Name: "Fullname"},
			{Ordinal: 8, Name: "Pan type"},
		},
		NumberOfItems: 10,
	}
}

func TestMapToOrdinals_EmptyMapping(t *testing.T) {
	got := MapToOrdinals(panSchema(), nil)
	if len(got) != 10 {
		t.Fatalf("length = %d, want 10", len(got))
	}
	for i, v := range got {
		if v != schema.UnusedSlot {
			t.Errorf("slot %d = %d, want -1", i, v)
		}
	}
}

func TestMapToOrdinals_PANExample(t *testing.T) {
	got := MapToOrdinals(panSchema(), map[string]int{
		"Fullname": 275535,
		"Pan type": 275536,
	})
	want := []int{-1, -1, -1, 275535, -1, -1, -1, 275536, -1, -1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapToOrdinals mismatch (-want +got):\n%s", diff)
	}
}

func TestMapToOrdinals_CaseInsensitiveFallback(t *testing.T) {
	got := MapToOrdinals(panSchema(), map[string]int{"fullname": 42})
	if got[3] != 42 {
		t.Errorf("slot 4 = %d, want 42 via case-insensitive name", got[3])
	}
}

func TestMapToOrdinals_UnmatchedNamesDroppedSilently(t *testing.T) {
	got := MapToOrdinals(panSchema(), map[string]int{
		"No Such Field": 1,
		"Pan type":      2,
	})
	want := []int{-1, -1, -1, -1, -1, -1, -1, 2, -1, -1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapToOrdinals mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestFieldMappings(t *testing.T) {
	fields := []schema.FieldRecord{
		{ID: 275535, Name: "Fullname"},
		{ID: 275536, Name: "PAN Type of Holder"},
		{ID: 275537, Name: "GST Number"},
	}
	got := SuggestFieldMappings(panSchema(), fields)

	if got["Fullname"] != 275535 {
		t.Errorf("Fullname suggestion = %d, want 275535 (exact)", got["Fullname"])
	}
	// "Pan type" is a substring of "PAN Type of Holder".
	if got["Pan type"] != 275536 {
		t.Errorf("Pan type suggestion = %d, want 275536 (substring)", got["Pan type"])
	}
	// Unmatched schema slots are simply absent.
	if _, ok := got["Pan number"]; ok {
		t.Error("Pan number should have no suggestion")
	}
}
