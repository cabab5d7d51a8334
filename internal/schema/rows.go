package schema

import (
	"encoding/json"
)

// FieldRow is one field as submitted by a form editor, before normalization.
type FieldRow struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Label     string   `json:"label"`
	Required  bool     `json:"required"`
	Sensitive bool     `json:"sensitive"`
	Options   []Option `json:"options,omitempty"`
}

// Rebuild derives the schema to store when an editor saves a form.
//
// The field list is replaced as a whole by rows; a nil rows slice keeps the
// previous fields untouched. logic and integrations replace the previous
// values only when non-nil, otherwise the stored values are carried over
// verbatim. The result goes through Parse, so it obeys the same
// normalization and default-substitution rules as a stored configuration.
func Rebuild(prev FormSchema, rows []FieldRow, logic []json.RawMessage, integrations map[string]json.RawMessage) (FormSchema, []string) {
	doc := struct {
		Version      int                        `json:"version"`
		Fields       any                        `json:"fields"`
		Logic        []json.RawMessage          `json:"logic"`
		Integrations map[string]json.RawMessage `json:"integrations"`
	}{
		Version:      prev.Version,
		Fields:       rows,
		Logic:        prev.Logic,
		Integrations: prev.Integrations,
	}
	if doc.Version <= 0 {
		doc.Version = CurrentVersion
	}
	if rows == nil {
		doc.Fields = prev.Fields
	}
	if logic != nil {
		doc.Logic = logic
	}
	if integrations != nil {
		doc.Integrations = integrations
	}
	if doc.Logic == nil {
		doc.Logic = []json.RawMessage{}
	}
	if doc.Integrations == nil {
		doc.Integrations = map[string]json.RawMessage{}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return DefaultSchema(), []string{"could not encode submitted fields; using defaults."}
	}
	return Parse(raw)
}
