// Package form discovers application form fields and decides what each of them is for.
package form

import (
	"fmt"
	"strings"
)

// Kind is the closed set of form element variants the bot knows how to fill.
type Kind string

const (
	KindText        Kind = "text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi-select"
	KindCheckbox    Kind = "checkbox"
	KindRadio       Kind = "radio"
	KindFile        Kind = "file"
	KindDate        Kind = "date"
	KindRange       Kind = "range"
	KindRichText    Kind = "rich-text"
)

// PurposeUnknown marks a field no pattern or scorer could classify.
const PurposeUnknown = "unknown"

// Attributes is the raw metadata read from a form element.
type Attributes struct {
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Class       string `json:"class,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	// Label is the text of an explicit <label for>, or of the nearest ancestor <label>.
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
	// Required is set when the element declares required or aria-required.
	Required bool `json:"required,omitempty"`
}

// Field is a single form element discovered on a page. Fields live for one
// fill pass and are never persisted.
type Field struct {
	Identifier string     `json:"identifier"`
	Kind       Kind       `json:"kind"`
	Required   bool       `json:"required"`
	Attrs      Attributes `json:"attributes"`
	Options    []string   `json:"options,omitempty"`
	Purpose    string     `json:"purpose"`
	Confidence float64    `json:"confidence"`
}

// Context is the lowercase text used to match a field against purpose patterns.
func (f Field) Context() string {
	parts := []string{f.Attrs.Label, f.Attrs.AriaLabel, f.Attrs.Placeholder, f.Attrs.Name, f.Attrs.ID, f.Attrs.Class}
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}

// Selector returns a CSS selector addressing the element on the page. A
// radio group is addressed by its shared name.
func (f Field) Selector() string {
	switch {
	case f.Kind == KindRadio && f.Attrs.Name != "":
		return fmt.Sprintf(`[name=%q]`, f.Attrs.Name)
	case f.Attrs.ID != "":
		return fmt.Sprintf(`[id=%q]`, f.Attrs.ID)
	default:
		return fmt.Sprintf(`[name=%q]`, f.Attrs.Name)
	}
}

// OptionSelector addresses one choice of a radio group. Other kinds are
// addressed as a whole.
func (f Field) OptionSelector(option string) string {
	if f.Kind == KindRadio && f.Attrs.Name != "" && option != "" {
		return fmt.Sprintf(`[name=%q][value=%q]`, f.Attrs.Name, option)
	}
	return f.Selector()
}

// IsClassified reports whether a purpose was assigned.
func (f Field) IsClassified() bool {
	return f.Purpose != "" && f.Purpose != PurposeUnknown
}
