package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FieldKind is the closed tag identifying a field's behavior and attribute shape.
type FieldKind string

const (
	FieldKindText      FieldKind = "TextField"
	FieldKindTitle     FieldKind = "TitleField"
	FieldKindSubTitle  FieldKind = "SubTitleField"
	FieldKindParagraph FieldKind = "ParagraphField"
	FieldKindSeparator FieldKind = "SeparatorField"
	FieldKindSpacer    FieldKind = "SpacerField"
	FieldKindNumber    FieldKind = "NumberField"
	FieldKindEmail     FieldKind = "EmailField"
	FieldKindTextarea  FieldKind = "TextareaField"
	FieldKindDate      FieldKind = "DateField"
	FieldKindSelect    FieldKind = "SelectField"
	FieldKindCheckbox  FieldKind = "CheckboxField"
)

var (
	ErrUnknownKind   = errors.New("unknown field kind")
	ErrKindMismatch  = errors.New("attributes do not belong to field kind")
	ErrDuplicateID   = errors.New("duplicate field id")
	ErrMissingFields = errors.New("field instance is missing id or attributes")
)

// AllKinds returns every FieldKind in palette order.
func AllKinds() []FieldKind {
	return []FieldKind{
		FieldKindTitle,
		FieldKindSubTitle,
		FieldKindParagraph,
		FieldKindSeparator,
		FieldKindSpacer,
		FieldKindText,
		FieldKindNumber,
		FieldKindEmail,
		FieldKindTextarea,
		FieldKindDate,
		FieldKindSelect,
		FieldKindCheckbox,
	}
}

// Valid reports whether k is one of the closed set of kinds.
func (k FieldKind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsLayout reports whether the kind is purely presentational and never
// carries a submitted value.
func (k FieldKind) IsLayout() bool {
	switch k {
	case FieldKindTitle, FieldKindSubTitle, FieldKindParagraph, FieldKindSeparator, FieldKindSpacer:
		return true
	}
	return false
}

// FieldInstance is one placed occurrence of a FieldKind.
// Kind is derived from Attributes and never changes for the lifetime of the instance.
type FieldInstance struct {
	ID         string     `json:"id"`
	Kind       FieldKind  `json:"type"`
	Attributes Attributes `json:"extraAttributes"`
}

// NewFieldInstance builds an instance whose kind is taken from attrs.
func NewFieldInstance(id string, attrs Attributes) FieldInstance {
	return FieldInstance{ID: id, Kind: attrs.Kind(), Attributes: attrs}
}

// WithAttributes returns a copy of the instance carrying attrs.
// The attribute record must belong to the same kind.
func (f FieldInstance) WithAttributes(attrs Attributes) (FieldInstance, error) {
	if attrs == nil || attrs.Kind() != f.Kind {
		return FieldInstance{}, fmt.Errorf("%w: %s", ErrKindMismatch, f.Kind)
	}
	f.Attributes = attrs
	return f, nil
}

// Required reports the required flag for kinds that have one.
func (f FieldInstance) Required() bool {
	if r, ok := f.Attributes.(interface{ IsRequired() bool }); ok {
		return r.IsRequired()
	}
	return false
}

type wireInstance struct {
	ID         string          `json:"id"`
	Kind       FieldKind       `json:"type"`
	Attributes json.RawMessage `json:"extraAttributes"`
}

// UnmarshalJSON decodes the {"id","type","extraAttributes"} encoding,
// dispatching the attribute record on the type tag.
func (f *FieldInstance) UnmarshalJSON(data []byte) error {
	var w wireInstance
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return ErrMissingFields
	}
	attrs, err := DecodeAttributes(w.Kind, w.Attributes)
	if err != nil {
		return fmt.Errorf("field %s: %w", w.ID, err)
	}
	*f = FieldInstance{ID: w.ID, Kind: w.Kind, Attributes: attrs}
	return nil
}

// FormDefinition is the ordered sequence of fields composing one form.
// Order is render order, top to bottom.
type FormDefinition []FieldInstance

// IDs returns the instance ids in order.
func (d FormDefinition) IDs() []string {
	ids := make([]string, len(d))
	for i, f := range d {
		ids[i] = f.ID
	}
	return ids
}

// Find returns the index of the instance with the given id, or -1.
func (d FormDefinition) Find(id string) int {
	for i, f := range d {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Validate checks that every instance is well formed and ids are unique.
func (d FormDefinition) Validate() error {
	seen := make(map[string]struct{}, len(d))
	for _, f := range d {
		if f.ID == "" || f.Attributes == nil {
			return ErrMissingFields
		}
		if f.Attributes.Kind() != f.Kind {
			return fmt.Errorf("%w: %s", ErrKindMismatch, f.ID)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

// Clone returns a copy that shares no slices with d.
func (d FormDefinition) Clone() FormDefinition {
	out := make(FormDefinition, len(d))
	for i, f := range d {
		out[i] = f
		if s, ok := f.Attributes.(SelectAttributes); ok {
			s.Options = append([]string(nil), s.Options...)
			out[i].Attributes = s
		}
	}
	return out
}

// MarshalDefinition encodes a definition as a JSON array.
func MarshalDefinition(d FormDefinition) (string, error) {
	if d == nil {
		d = FormDefinition{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	return string(data), nil
}

// UnmarshalDefinition decodes a JSON array produced by MarshalDefinition.
// An empty string decodes to an empty definition.
func UnmarshalDefinition(content string) (FormDefinition, error) {
	if content == "" {
		return FormDefinition{}, nil
	}
	var d FormDefinition
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	if d == nil {
		d = FormDefinition{}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// SubmissionValues maps a field id to its string-encoded value for one fill session.
type SubmissionValues map[string]string

// InvalidFlags maps a field id to whether it failed validation.
type InvalidFlags map[string]bool

// MarshalValues encodes submission values as a JSON object.
func MarshalValues(v SubmissionValues) (string, error) {
	if v == nil {
		v = SubmissionValues{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// UnmarshalValues decodes a JSON object produced by MarshalValues.
func UnmarshalValues(content string) (SubmissionValues, error) {
	v := SubmissionValues{}
	if content == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return v, nil
}
