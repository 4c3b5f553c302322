// Package catalog loads and holds the rule-schema registry. Each schema
// describes one producible rule shape: its action, source type, and the
// ordered source/destination field lists with ordinal positions.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"ruleforge/internal/schema"
)

// Wire format of the catalog file: a top-level content array.
type catalogFile struct {
	Content []catalogEntry `json:"content"`
}

type catalogEntry struct {
	ID                int       `json:"id"`
	Action            string    `json:"action"`
	Source            string    `json:"source"`
	ProcessingType    string    `json:"processingType"`
	Button            string    `json:"button"`
	SourceFields      fieldList `json:"sourceFields"`
	DestinationFields fieldList `json:"destinationFields"`
}

type fieldList struct {
	Fields        []schema.SchemaField `json:"fields"`
	NumberOfItems int                  `json:"numberOfItems"`
}

// Catalog is the read-only rule-schema registry, keyed by schema id and by
// source type.
type Catalog struct {
	byID     map[int]schema.RuleSchema
	bySource map[string]schema.RuleSchema
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse builds a Catalog from raw catalog JSON. Malformed entries are
// rejected eagerly so that lookups never see a partially valid schema.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{
		byID:     make(map[int]schema.RuleSchema, len(file.Content)),
		bySource: make(map[string]schema.RuleSchema, len(file.Content)),
	}
	for i, e := range file.Content {
		rs, err := buildSchema(e)
		if err != nil {
			return nil, fmt.Errorf("catalog: content[%d]: %w", i, err)
		}
		if _, dup := c.byID[rs.SchemaID]; dup {
			return nil, fmt.Errorf("catalog: content[%d]: duplicate schema id %d", i, rs.SchemaID)
		}
		c.byID[rs.SchemaID] = rs
		if rs.SourceType != "" {
			c.bySource[rs.SourceType] = rs
		}
	}
	return c, nil
}

// buildSchema validates one catalog entry and converts it to a RuleSchema.
func buildSchema(e catalogEntry) (schema.RuleSchema, error) {
	var zero schema.RuleSchema
	if e.ID <= 0 {
		return zero, fmt.Errorf("id must be positive, got %d", e.ID)
	}
	action, err := schema.ParseActionType(e.Action)
	if err != nil {
		return zero, err
	}
	processing, err := schema.ParseProcessingType(e.ProcessingType)
	if err != nil {
		return zero, err
	}

	n := e.DestinationFields.NumberOfItems
	if n == 0 {
		n = len(e.DestinationFields.Fields)
	}
	if n < len(e.DestinationFields.Fields) {
		return zero, fmt.Errorf("numberOfItems %d smaller than destination field list (%d)",
			n, len(e.DestinationFields.Fields))
	}
	for _, f := range e.DestinationFields.Fields {
		if f.Ordinal < 1 || f.Ordinal > n {
			return zero, fmt.Errorf("destination field %q ordinal %d out of range [1,%d]",
				f.Name, f.Ordinal, n)
		}
	}
	for _, f := range e.SourceFields.Fields {
		if f.Ordinal < 1 {
			return zero, fmt.Errorf("source field %q ordinal %d must be >= 1", f.Name, f.Ordinal)
		}
	}

	return schema.RuleSchema{
		SchemaID:          e.ID,
		Action:            action,
		SourceType:        e.Source,
		ProcessingType:    processing,
		SourceFields:      sortByOrdinal(e.SourceFields.Fields),
		DestinationFields: sortByOrdinal(e.DestinationFields.Fields),
		NumberOfItems:     n,
		Button:            e.Button,
	}, nil
}

func sortByOrdinal(fields []schema.SchemaField) []schema.SchemaField {
	out := make([]schema.SchemaField, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// Schema returns the schema for id. A false second return means the id is
// unknown; the caller treats that as "no rule producible".
func (c *Catalog) Schema(id int) (schema.RuleSchema, bool) {
	rs, ok := c.byID[id]
	return rs, ok
}

// BySourceType returns the schema registered for a source type.
func (c *Catalog) BySourceType(sourceType string) (schema.RuleSchema, bool) {
	rs, ok := c.bySource[sourceType]
	return rs, ok
}

// All returns every schema ordered by id.
func (c *Catalog) All() []schema.RuleSchema {
	out := make([]schema.RuleSchema, 0, len(c.byID))
	for _, rs := range c.byID {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaID < out[j].SchemaID })
	return out
}

// Len reports the number of schemas loaded.
func (c *Catalog) Len() int { return len(c.byID) }
