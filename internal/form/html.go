package form

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form is one <form> element with the fields discovered inside it.
type Form struct {
	Action string
	Method string
	// Submit is a selector for the submit control, empty when none was found.
	Submit string
	Fields []Field
}

var inputKinds = map[string]Kind{
	"":         KindText,
	"text":     KindText,
	"email":    KindText,
	"tel":      KindText,
	"url":      KindText,
	"number":   KindText,
	"search":   KindText,
	"password": KindText,
	"checkbox": KindCheckbox,
	"radio":    KindRadio,
	"file":     KindFile,
	"date":     KindDate,
	"month":    KindDate,
	"range":    KindRange,
}

var skippedInputs = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

const fieldSelector = "input, select, textarea"

// ParseHTML extracts forms and their fields from a page. When the page has
// no <form> element the whole document is treated as a single form.
func ParseHTML(content string) ([]Form, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var forms []Form
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		forms = append(forms, parseForm(doc, s))
	})

	if len(forms) == 0 {
		forms = append(forms, parseForm(doc, doc.Selection))
	}

	return forms, nil
}

// Fields flattens the fields of all forms.
func Fields(forms []Form) []Field {
	var fields []Field
	for _, f := range forms {
		fields = append(fields, f.Fields...)
	}
	return fields
}

func parseForm(doc *goquery.Document, s *goquery.Selection) Form {
	form := Form{
		Action: s.AttrOr("action", ""),
		Method: strings.ToLower(s.AttrOr("method", "")),
		Submit: submitSelector(s),
	}

	groups := make(map[string]int)
	s.Find(fieldSelector).Each(func(_ int, el *goquery.Selection) {
		field, ok := parseField(doc, el)
		if !ok {
			return
		}

		if field.Kind == KindRadio && field.Attrs.Name != "" {
			if i, seen := groups[field.Attrs.Name]; seen {
				form.Fields[i] = joinRadio(form.Fields[i], field)
				return
			}
			groups[field.Attrs.Name] = len(form.Fields)
			field = radioGroup(el, field)
		}

		form.Fields = append(form.Fields, field)
	})

	return form
}

// radioGroup turns the first radio of a group into a field standing for the
// whole group. Its options are the radio values.
func radioGroup(el *goquery.Selection, first Field) Field {
	group := first
	group.Identifier = first.Attrs.Name
	group.Attrs.ID = ""
	group.Attrs.Value = ""
	group.Options = nil
	if legend := el.Closest("fieldset").Find("legend").First(); legend.Length() > 0 {
		group.Attrs.Label = cleanText(legend.Text())
	}
	return joinRadio(group, first)
}

func joinRadio(group, radio Field) Field {
	if radio.Attrs.Value != "" {
		group.Options = append(group.Options, radio.Attrs.Value)
	}
	group.Attrs.Required = group.Attrs.Required || radio.Attrs.Required
	return group
}

func parseField(doc *goquery.Document, el *goquery.Selection) (Field, bool) {
	tag := goquery.NodeName(el)
	inputType := strings.ToLower(strings.TrimSpace(el.AttrOr("type", "")))

	var kind Kind
	switch tag {
	case "textarea":
		kind = KindRichText
	case "select":
		kind = KindSelect
		if _, multiple := el.Attr("multiple"); multiple {
			kind = KindMultiSelect
		}
	default:
		if skippedInputs[inputType] {
			return Field{}, false
		}
		k, ok := inputKinds[inputType]
		if !ok {
			k = KindText
		}
		kind = k
	}

	attrs := Attributes{
		Name:        el.AttrOr("name", ""),
		ID:          el.AttrOr("id", ""),
		Class:       el.AttrOr("class", ""),
		Placeholder: el.AttrOr("placeholder", ""),
		AriaLabel:   el.AttrOr("aria-label", ""),
		Value:       el.AttrOr("value", ""),
	}
	if attrs.Name == "" && attrs.ID == "" {
		return Field{}, false
	}

	_, required := el.Attr("required")
	attrs.Required = required || strings.EqualFold(el.AttrOr("aria-required", ""), "true")
	attrs.Label = labelFor(doc, el, attrs)

	field := Field{
		Identifier: attrs.ID,
		Kind:       kind,
		Attrs:      attrs,
		Purpose:    PurposeUnknown,
	}
	if field.Identifier == "" {
		field.Identifier = attrs.Name
	}

	if kind == KindSelect || kind == KindMultiSelect {
		el.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value := strings.TrimSpace(opt.AttrOr("value", opt.Text()))
			if value != "" {
				field.Options = append(field.Options, value)
			}
		})
	}

	return field, true
}

func labelFor(doc *goquery.Document, el *goquery.Selection, attrs Attributes) string {
	if attrs.ID != "" {
		if label := doc.Find(fmt.Sprintf(`label[for=%q]`, attrs.ID)).First(); label.Length() > 0 {
			return cleanText(label.Text())
		}
	}
	if attrs.AriaLabel != "" {
		return cleanText(attrs.AriaLabel)
	}
	if label := el.Closest("label"); label.Length() > 0 {
		return cleanText(label.Text())
	}
	return ""
}

func submitSelector(s *goquery.Selection) string {
	candidates := []string{`button[type="submit"]`, `input[type="submit"]`, `button:not([type])`}
	for _, sel := range candidates {
		if s.Find(sel).Length() == 0 {
			continue
		}
		el := s.Find(sel).First()
		if id := el.AttrOr("id", ""); id != "" {
			return fmt.Sprintf(`[id=%q]`, id)
		}
		return sel
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
