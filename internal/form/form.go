// Package form reads and writes the field-container wire format: an
// ordered list of form fields, each carrying its formTag and attached
// form-fill rules. The same shape serves as synthesis output and as
// evaluation input on both sides.
package form

import (
	"encoding/json"
	"fmt"
	"os"

	"ruleforge/internal/schema"
)

// container is the top-level document shape. A bare JSON array is also
// accepted; exported documents always use the keyed form.
type container struct {
	Fields []schema.FormField `json:"fields"`
}

// Load reads a field container from disk.
func Load(path string) ([]schema.FormField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read %s: %w", path, err)
	}
	fields, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("form: parse %s: %w", path, err)
	}
	return fields, nil
}

// Parse decodes a field container document. Both `{"fields": [...]}` and
// a bare `[...]` array are accepted.
func Parse(data []byte) ([]schema.FormField, error) {
	var c container
	if err := json.Unmarshal(data, &c); err == nil && c.Fields != nil {
		return validate(c.Fields)
	}
	var fields []schema.FormField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("form: not a field container: %w", err)
	}
	return validate(fields)
}

// validate rejects structurally broken entries eagerly so downstream
// code never sees a half-formed field.
func validate(fields []schema.FormField) ([]schema.FormField, error) {
	seen := make(map[int]bool, len(fields))
	for i, f := range fields {
		if f.ID <= 0 {
			return nil, fmt.Errorf("form: field[%d]: non-positive id %d", i, f.ID)
		}
		if f.FormTag.Name == "" {
			return nil, fmt.Errorf("form: field[%d] (id %d): empty formTag.name", i, f.ID)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("form: duplicate field id %d", f.ID)
		}
		seen[f.ID] = true
		for j, r := range f.FormFillRules {
			if _, err := schema.ParseActionType(string(r.ActionType)); err != nil {
				return nil, fmt.Errorf("form: field %d rule[%d]: %w", f.ID, j, err)
			}
		}
	}
	return fields, nil
}

// Marshal encodes a field container document. Output is indented so
// diffs against reference documents stay readable.
func Marshal(fields []schema.FormField) ([]byte, error) {
	data, err := json.MarshalIndent(container{Fields: fields}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("form: marshal: %w", err)
	}
	return data, nil
}

// Save writes a field container document to disk.
func Save(path string, fields []schema.FormField) error {
	data, err := Marshal(fields)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("form: write %s: %w", path, err)
	}
	return nil
}

// Records converts container fields into the FieldRecord corpus the
// synthesis side works on.
func Records(fields []schema.FormField) []schema.FieldRecord {
	out := make([]schema.FieldRecord, 0, len(fields))
	for _, f := range fields {
		out = append(out, schema.FieldRecord{
			ID:           f.ID,
			Name:         f.FormTag.Name,
			VariableName: f.VariableName,
			FieldType:    f.FormTag.Type,
			Logic:        f.Logic,
			IsMandatory:  f.Mandatory,
		})
	}
	return out
}

// Attach rebuilds container fields from a record corpus plus the rules
// synthesized per field id. Fields keep their input order; fields with
// no rules carry an empty rule list, not null.
func Attach(records []schema.FieldRecord, rulesByField map[int][]schema.GeneratedRule) []schema.FormField {
	out := make([]schema.FormField, 0, len(records))
	for _, r := range records {
		rules := rulesByField[r.ID]
		if rules == nil {
			rules = []schema.GeneratedRule{}
		}
		out = append(out, schema.FormField{
			ID:            r.ID,
			FormTag:       schema.FormTag{Name: r.Name, Type: r.FieldType},
			FormFillRules: rules,
			Logic:         r.Logic,
			Mandatory:     r.IsMandatory,
			VariableName:  r.VariableName,
		})
	}
	return out
}
