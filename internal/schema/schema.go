// Package schema models the versioned configuration of a form: its ordered
// field definitions, opaque conditional-logic rules, and per-channel
// integration settings.
//
// Parse never fails. Malformed input, or input whose fields all turn out to be
// unusable, yields DefaultSchema so a form is never rendered without inputs.
// Field entries are normalized one by one; entries that cannot be salvaged are
// dropped and reported as warnings rather than errors.
//
// Serialize is the structural inverse of Parse for an already normalized
// schema: Parse(Serialize(s)) reproduces s.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CurrentVersion is the schema version written for new forms.
const CurrentVersion = 1

// FieldType enumerates the supported input kinds.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeEmail    FieldType = "email"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeCheckbox FieldType = "checkbox"
	TypeRadio    FieldType = "radio"
	TypeNumber   FieldType = "number"
)

var knownTypes = map[FieldType]struct{}{
	TypeText: {}, TypeEmail: {}, TypeTextarea: {}, TypeSelect: {},
	TypeCheckbox: {}, TypeRadio: {}, TypeNumber: {},
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// HasOptions reports whether fields of this type carry a choice list.
func (t FieldType) HasOptions() bool {
	return t == TypeSelect || t == TypeCheckbox || t == TypeRadio
}

// Option is one choice of a select, radio, or checkbox field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field describes a single input of a form.
//
// Sensitive marks values that should be redacted by consumers such as exports
// and notifications; nothing in this repository enforces it yet.
type Field struct {
	ID        string    `json:"id"`
	Type      FieldType `json:"type"`
	Label     string    `json:"label"`
	Required  bool      `json:"required"`
	Sensitive bool      `json:"sensitive"`
	Options   []Option  `json:"options"`
}

// FormSchema is the normalized configuration of one form.
//
// Logic and Integrations are carried verbatim (compacted JSON) and never
// interpreted here.
type FormSchema struct {
	Version      int                        `json:"version"`
	Fields       []Field                    `json:"fields"`
	Logic        []json.RawMessage          `json:"logic"`
	Integrations map[string]json.RawMessage `json:"integrations"`
}

// FieldByID returns the field with the given id.
func (s FormSchema) FieldByID(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// FieldIDs returns the field ids in display order.
func (s FormSchema) FieldIDs() []string {
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	return ids
}

// DefaultSchema returns the canonical name/email/message schema with email
// notifications enabled and the chat and webhook channels disabled.
func DefaultSchema() FormSchema {
	return FormSchema{
		Version:      CurrentVersion,
		Fields:       defaultFields(),
		Logic:        []json.RawMessage{},
		Integrations: defaultIntegrations(),
	}
}

func defaultFields() []Field {
	return []Field{
		{ID: "name", Type: TypeText, Label: "Name", Required: true, Options: []Option{}},
		{ID: "email", Type: TypeEmail, Label: "Email", Required: true, Options: []Option{}},
		{ID: "message", Type: TypeTextarea, Label: "Message", Required: false, Options: []Option{}},
	}
}

func defaultIntegrations() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"email":   json.RawMessage(`{"enabled":true,"to":""}`),
		"slack":   json.RawMessage(`{"enabled":false,"webhook_url":""}`),
		"webhook": json.RawMessage(`{"enabled":false,"url":""}`),
	}
}

// Parse decodes and normalizes a stored form configuration.
//
// Input that is not a JSON object yields DefaultSchema and no warnings. For an
// object, each field entry is normalized; dropped or coerced entries produce a
// warning. When no field survives, the default fields (and, if absent, the
// default integrations) are substituted.
func Parse(raw []byte) (FormSchema, []string) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return DefaultSchema(), nil
	}

	out := FormSchema{
		Version:      CurrentVersion,
		Logic:        []json.RawMessage{},
		Integrations: map[string]json.RawMessage{},
	}
	if v, ok := doc["version"]; ok {
		if i, ok := versionOf(v); ok {
			out.Version = i
		}
	}
	if v, ok := doc["logic"]; ok {
		out.Logic = parseLogic(v)
	}
	if v, ok := doc["integrations"]; ok {
		out.Integrations = parseIntegrations(v)
	}

	var warnings []string
	var rawFields []json.RawMessage
	if v, ok := doc["fields"]; ok {
		if err := json.Unmarshal(v, &rawFields); err != nil {
			warnings = append(warnings, "fields is not a list.")
			rawFields = nil
		}
	}
	out.Fields = parseFields(rawFields, &warnings)

	if len(out.Fields) == 0 {
		out.Fields = defaultFields()
		if len(out.Integrations) == 0 {
			out.Integrations = defaultIntegrations()
		}
	}
	return out, warnings
}

// ParseString is Parse for string-typed configuration columns.
func ParseString(raw string) (FormSchema, []string) { return Parse([]byte(raw)) }

// Serialize encodes s in the stored configuration format.
func Serialize(s FormSchema) ([]byte, error) {
	s = withNonNil(s)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("serialize schema: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MustSerialize is Serialize for schemas produced by this package, whose
// encoding cannot fail.
func MustSerialize(s FormSchema) string {
	b, err := Serialize(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func withNonNil(s FormSchema) FormSchema {
	if s.Fields == nil {
		s.Fields = []Field{}
	}
	for i := range s.Fields {
		if s.Fields[i].Options == nil {
			s.Fields[i].Options = []Option{}
		}
	}
	if s.Logic == nil {
		s.Logic = []json.RawMessage{}
	}
	if s.Integrations == nil {
		s.Integrations = map[string]json.RawMessage{}
	}
	return s
}

// versionOf reads a numeric version, truncating fractions toward zero so
// 2.0 and "2.7" both mean 2.
func versionOf(raw json.RawMessage) (int, bool) {
	n, ok := scalarString(raw)
	if !ok {
		return 0, false
	}
	f, err := json.Number(strings.TrimSpace(n)).Float64()
	if err != nil || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func parseFields(rawFields []json.RawMessage, warnings *[]string) []Field {
	out := make([]Field, 0, len(rawFields))
	seen := make(map[string]struct{}, len(rawFields))

	for idx, rf := range rawFields {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(rf, &entry); err != nil || entry == nil {
			*warnings = append(*warnings, fmt.Sprintf("Field at index %d is not an object.", idx))
			continue
		}

		label := SanitizeText(stringAt(entry, "label"))
		id := SanitizeKey(stringAt(entry, "id"))
		if id == "" {
			id = SanitizeKey(Token(label, '_'))
		}
		if id == "" || label == "" {
			*warnings = append(*warnings, fmt.Sprintf("Field at index %d is missing id/label.", idx))
			continue
		}
		if _, dup := seen[id]; dup {
			*warnings = append(*warnings, fmt.Sprintf("Duplicate field id '%s'.", id))
			continue
		}
		seen[id] = struct{}{}

		typ := TypeText
		if _, present := entry["type"]; present {
			typ = FieldType(SanitizeKey(stringAt(entry, "type")))
		}
		if !typ.Valid() {
			*warnings = append(*warnings, fmt.Sprintf("Field '%s' has unsupported type '%s'. Falling back to text.", id, typ))
			typ = TypeText
		}

		out = append(out, Field{
			ID:        id,
			Type:      typ,
			Label:     label,
			Required:  truthy(entry["required"]),
			Sensitive: truthy(entry["sensitive"]),
			Options:   parseOptions(entry["options"]),
		})
	}
	return out
}

func parseOptions(raw json.RawMessage) []Option {
	opts := []Option{}
	if len(raw) == 0 {
		return opts
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return opts
	}
	for _, e := range entries {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(e, &m); err != nil || m == nil {
			continue
		}
		label := SanitizeText(stringAt(m, "label"))
		value := SanitizeText(stringAt(m, "value"))
		if label != "" && value != "" {
			opts = append(opts, Option{Label: label, Value: value})
		}
	}
	return opts
}

// parseLogic keeps the rule list only when it is a JSON array.
func parseLogic(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []json.RawMessage{}
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		out = append(out, compact(it))
	}
	return out
}

// parseIntegrations keeps the channel map only when it is a JSON object.
func parseIntegrations(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]json.RawMessage{}
	}
	for k, v := range m {
		m[k] = compact(v)
	}
	return m
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}

func stringAt(m map[string]json.RawMessage, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := scalarString(v)
	return s
}

// scalarString renders a JSON scalar as a string: strings verbatim, numbers by
// their literal, true as "1". Objects, arrays, null and false render empty.
func scalarString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case 't':
		return "1", true
	case 'f', 'n', '{', '[':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// truthy mirrors loose "non-empty" semantics for flags stored by older editors:
// false, 0, "", "0", null, [] and {} are false.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != "" && s != "0"
	case '[':
		var a []json.RawMessage
		return json.Unmarshal(raw, &a) == nil && len(a) > 0
	case '{':
		var m map[string]json.RawMessage
		return json.Unmarshal(raw, &m) == nil && len(m) > 0
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		return err == nil && f != 0
	}
}
