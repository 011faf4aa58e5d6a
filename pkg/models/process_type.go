package models

import "encoding/json"

// Field kinds accepted in a process type schema.
const (
	TextField     = "text"
	TextareaField = "textarea"
	NumberField   = "number"
	DateField     = "date"
	DatetimeField = "datetime"
	SelectField   = "select"
)

// ProcessField describes one input in a request form.
type ProcessField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Kind     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"` // Only for "select"
}

// ProcessType defines a request type: its unique code tag, whether an amount
// is mandatory, and the form fields a submission must carry. The field list
// is persisted as JSON text and round-trips in declaration order.
type ProcessType struct {
	ID             int64          `json:"id" db:"id"`
	Code           string         `json:"code" db:"code"`
	Name           string         `json:"name" db:"name"`
	Description    string         `json:"description" db:"description"`
	RequiresAmount bool           `json:"requires_amount" db:"requires_amount"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	SchemaJSON     string         `json:"-" db:"schema_json"`
	Fields         []ProcessField `json:"fields"`
}

// DecodeFields populates Fields from the persisted schema. An empty or
// malformed schema yields an empty field list rather than an error, matching
// how stored schemas predating validation are tolerated.
func (p *ProcessType) DecodeFields() {
	p.Fields = []ProcessField{}
	if p.SchemaJSON == "" {
		return
	}
	var fields []ProcessField
	if err := json.Unmarshal([]byte(p.SchemaJSON), &fields); err != nil {
		return
	}
	p.Fields = fields
}

// EncodeFields serializes Fields into SchemaJSON, preserving order.
func (p *ProcessType) EncodeFields() error {
	if p.Fields == nil {
		p.Fields = []ProcessField{}
	}
	raw, err := json.Marshal(p.Fields)
	if err != nil {
		return err
	}
	p.SchemaJSON = string(raw)
	return nil
}
