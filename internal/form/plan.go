package form

import (
	"strings"
)

// Profile holds candidate values keyed by purpose ("name", "email", "resume", ...).
// The resume and cover_letter entries are local file paths used for file
// fields. Text fields with those purposes read "resume_text" and
// "cover_letter_text" instead, so a path is never typed into a text box.
type Profile map[string]string

// filePurposes are purposes whose profile value is a file path.
var filePurposes = map[string]bool{
	"resume":       true,
	"cover_letter": true,
}

// Value returns the trimmed value for a purpose.
func (p Profile) Value(purpose string) (string, bool) {
	v, ok := p[strings.ToLower(purpose)]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Action is the session operation needed to fill a field.
type Action string

const (
	ActionSetValue Action = "set_value"
	ActionSelect   Action = "select"
	ActionClick    Action = "click"
	ActionUpload   Action = "upload"
)

// Instruction is one fill step for a field.
type Instruction struct {
	Field  Field
	Action Action
	Value  string
	// Values carries the options to select for selects and multi-selects.
	Values []string
}

// Selector addresses the element the instruction acts on. For a radio group
// it is the chosen radio.
func (in Instruction) Selector() string {
	return in.Field.OptionSelector(in.Value)
}

type strategy func(f Field, value string) (Instruction, bool)

var strategies = map[Kind]strategy{
	KindText:        setValue,
	KindRichText:    setValue,
	KindDate:        setValue,
	KindRange:       setValue,
	KindSelect:      selectOne,
	KindMultiSelect: selectMany,
	KindCheckbox:    clickWhenTruthy,
	KindRadio:       chooseRadio,
	KindFile:        upload,
}

func setValue(f Field, value string) (Instruction, bool) {
	return Instruction{Field: f, Action: ActionSetValue, Value: value}, true
}

func selectOne(f Field, value string) (Instruction, bool) {
	option, ok := pickOption(f.Options, value)
	if !ok {
		return Instruction{}, false
	}
	return Instruction{Field: f, Action: ActionSelect, Value: option, Values: []string{option}}, true
}

func selectMany(f Field, value string) (Instruction, bool) {
	var picked []string
	for _, part := range strings.Split(value, ",") {
		if option, ok := pickOption(f.Options, part); ok {
			picked = append(picked, option)
		}
	}
	if len(picked) == 0 {
		return Instruction{}, false
	}
	return Instruction{Field: f, Action: ActionSelect, Value: strings.Join(picked, ","), Values: picked}, true
}

func clickWhenTruthy(f Field, value string) (Instruction, bool) {
	if !truthy(value) {
		return Instruction{}, false
	}
	return Instruction{Field: f, Action: ActionClick, Value: value}, true
}

// chooseRadio clicks the radio whose value matches the profile value. Yes/no
// style groups also accept boolean profile values such as "true" or "0".
func chooseRadio(f Field, value string) (Instruction, bool) {
	if len(f.Options) == 0 {
		return Instruction{}, false
	}
	option, ok := pickOption(f.Options, value)
	if !ok {
		option, ok = pickBoolean(f.Options, value)
	}
	if !ok {
		return Instruction{}, false
	}
	return Instruction{Field: f, Action: ActionClick, Value: option}, true
}

func upload(f Field, value string) (Instruction, bool) {
	return Instruction{Field: f, Action: ActionUpload, Value: value}, true
}

// pickOption matches a wanted value against select options. Without known
// options the value is used as is.
func pickOption(options []string, want string) (string, bool) {
	want = strings.TrimSpace(want)
	if want == "" {
		return "", false
	}
	if len(options) == 0 {
		return want, true
	}
	lower := strings.ToLower(want)
	for _, option := range options {
		if strings.EqualFold(option, want) {
			return option, true
		}
	}
	for _, option := range options {
		if strings.Contains(strings.ToLower(option), lower) {
			return option, true
		}
	}
	return "", false
}

var (
	truthyWords = []string{"1", "true", "yes", "y", "on"}
	falsyWords  = []string{"0", "false", "no", "n", "off"}
)

func truthy(value string) bool {
	return oneOf(value, truthyWords)
}

// pickBoolean maps a boolean-like value onto the option spelling the same answer.
func pickBoolean(options []string, value string) (string, bool) {
	var words []string
	switch {
	case oneOf(value, truthyWords):
		words = truthyWords
	case oneOf(value, falsyWords):
		words = falsyWords
	default:
		return "", false
	}
	for _, option := range options {
		if oneOf(option, words) {
			return option, true
		}
	}
	return "", false
}

func oneOf(value string, words []string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, w := range words {
		if value == w {
			return true
		}
	}
	return false
}

// Plan turns a classification into fill instructions. Required fields that
// cannot be filled are returned as missing; unfilled optional fields are skipped.
func Plan(result Result, profile Profile) ([]Instruction, []Field) {
	var (
		steps   []Instruction
		missing []Field
	)

	fields := make([]Field, 0, result.Len())
	fields = append(fields, result.Required...)
	fields = append(fields, result.Optional...)
	fields = append(fields, result.FileUploads...)

	for _, f := range fields {
		instruction, ok := planField(f, profile)
		if ok {
			steps = append(steps, instruction)
			continue
		}
		if f.Required {
			missing = append(missing, f)
		}
	}

	missing = append(missing, requiredOnly(result.Unknown)...)

	return steps, missing
}

func planField(f Field, profile Profile) (Instruction, bool) {
	if !f.IsClassified() {
		return Instruction{}, false
	}
	key := f.Purpose
	if filePurposes[key] && f.Kind != KindFile {
		key += "_text"
	}
	value, ok := profile.Value(key)
	if !ok {
		return Instruction{}, false
	}
	fill, ok := strategies[f.Kind]
	if !ok {
		return Instruction{}, false
	}
	return fill(f, value)
}

func requiredOnly(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}
