package domain

import (
	"encoding/json"
	"fmt"
)

// Attributes is the kind-specific attribute record of a FieldInstance.
// The set of implementations is closed: one record type per FieldKind.
type Attributes interface {
	Kind() FieldKind
	attributes()
}

// InputAttributes is the attribute shape shared by single-line inputs.
type InputAttributes struct {
	Label       string `json:"label"`
	HelperText  string `json:"helperText"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder"`
}

func (a InputAttributes) IsRequired() bool { return a.Required }

// Input returns the shared input attributes; promoted to every kind embedding them.
func (a InputAttributes) Input() InputAttributes { return a }

type TextAttributes struct{ InputAttributes }

type NumberAttributes struct{ InputAttributes }

type EmailAttributes struct{ InputAttributes }

type TextareaAttributes struct {
	InputAttributes
	Rows int `json:"rows"`
}

// ChoiceAttributes is the attribute shape of date and checkbox fields.
type ChoiceAttributes struct {
	Label      string `json:"label"`
	HelperText string `json:"helperText"`
	Required   bool   `json:"required"`
}

func (a ChoiceAttributes) IsRequired() bool { return a.Required }

func (a ChoiceAttributes) Choice() ChoiceAttributes { return a }

type DateAttributes struct{ ChoiceAttributes }

type CheckboxAttributes struct{ ChoiceAttributes }

type SelectAttributes struct {
	InputAttributes
	Options []string `json:"options"`
}

type TitleAttributes struct {
	Title string `json:"title"`
}

type SubTitleAttributes struct {
	SubTitle string `json:"subTitle"`
}

type ParagraphAttributes struct {
	Text string `json:"text"`
}

type SeparatorAttributes struct{}

type SpacerAttributes struct {
	Height int `json:"height"`
}

func (TextAttributes) Kind() FieldKind      { return FieldKindText }
func (NumberAttributes) Kind() FieldKind    { return FieldKindNumber }
func (EmailAttributes) Kind() FieldKind     { return FieldKindEmail }
func (TextareaAttributes) Kind() FieldKind  { return FieldKindTextarea }
func (DateAttributes) Kind() FieldKind      { return FieldKindDate }
func (CheckboxAttributes) Kind() FieldKind  { return FieldKindCheckbox }
func (SelectAttributes) Kind() FieldKind    { return FieldKindSelect }
func (TitleAttributes) Kind() FieldKind     { return FieldKindTitle }
func (SubTitleAttributes) Kind() FieldKind  { return FieldKindSubTitle }
func (ParagraphAttributes) Kind() FieldKind { return FieldKindParagraph }
func (SeparatorAttributes) Kind() FieldKind { return FieldKindSeparator }
func (SpacerAttributes) Kind() FieldKind    { return FieldKindSpacer }

func (TextAttributes) attributes()      {}
func (NumberAttributes) attributes()    {}
func (EmailAttributes) attributes()     {}
func (TextareaAttributes) attributes()  {}
func (DateAttributes) attributes()      {}
func (CheckboxAttributes) attributes()  {}
func (SelectAttributes) attributes()    {}
func (TitleAttributes) attributes()     {}
func (SubTitleAttributes) attributes()  {}
func (ParagraphAttributes) attributes() {}
func (SeparatorAttributes) attributes() {}
func (SpacerAttributes) attributes()    {}

// DecodeAttributes is the closed dispatch from kind tag to attribute record.
func DecodeAttributes(kind FieldKind, raw json.RawMessage) (Attributes, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	switch kind {
	case FieldKindText:
		return decodeInto[TextAttributes](raw)
	case FieldKindNumber:
		return decodeInto[NumberAttributes](raw)
	case FieldKindEmail:
		return decodeInto[EmailAttributes](raw)
	case FieldKindTextarea:
		return decodeInto[TextareaAttributes](raw)
	case FieldKindDate:
		return decodeInto[DateAttributes](raw)
	case FieldKindCheckbox:
		return decodeInto[CheckboxAttributes](raw)
	case FieldKindSelect:
		a, err := decodeInto[SelectAttributes](raw)
		if err != nil {
			return nil, err
		}
		s := a.(SelectAttributes)
		if s.Options == nil {
			s.Options = []string{}
		}
		return s, nil
	case FieldKindTitle:
		return decodeInto[TitleAttributes](raw)
	case FieldKindSubTitle:
		return decodeInto[SubTitleAttributes](raw)
	case FieldKindParagraph:
		return decodeInto[ParagraphAttributes](raw)
	case FieldKindSeparator:
		return SeparatorAttributes{}, nil
	case FieldKindSpacer:
		return decodeInto[SpacerAttributes](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func decodeInto[T Attributes](raw json.RawMessage) (Attributes, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s attributes: %w", v.Kind(), err)
	}
	return v, nil
}
