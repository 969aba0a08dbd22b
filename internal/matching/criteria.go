package matching

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Range is a desired yearly salary range.
type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Criteria holds user preferences a posting must satisfy.
// Zero values mean the predicate is not applied.
type Criteria struct {
	Keywords         []string `mapstructure:"keywords" json:"keywords,omitempty"`
	ExcludedKeywords []string `mapstructure:"excluded-keywords" json:"excluded_keywords,omitempty"`
	Locations        []string `mapstructure:"location" json:"location,omitempty"`
	SalaryRange      *Range   `mapstructure:"salary-range" json:"salary_range,omitempty"`
	ExperienceLevel  string   `mapstructure:"experience-level" json:"experience_level,omitempty"`
	JobType          string   `mapstructure:"job-type" json:"job_type,omitempty"`
	Industries       []string `mapstructure:"industry" json:"industry,omitempty"`
	RequiredSkills   []string `mapstructure:"required-skills" json:"required_skills,omitempty"`
	EducationLevel   string   `mapstructure:"education" json:"education,omitempty"`
	PostedWithinDays int      `mapstructure:"posted-within-days" json:"posted_within_days,omitempty"`
}

// DecodeCriteria builds criteria from a loosely typed map, as found in config files.
// List predicates accept either a list or a comma separated string; the salary
// range accepts a {min, max} map or a two element list.
func DecodeCriteria(raw map[string]any) (*Criteria, error) {
	criteria := &Criteria{}
	if len(raw) == 0 {
		return criteria, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           criteria,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			rangeFromSliceHook,
			stringToListHook,
		),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}

	criteria.normalize()
	return criteria, nil
}

func (c *Criteria) normalize() {
	c.Keywords = words(c.Keywords)
	c.ExcludedKeywords = words(c.ExcludedKeywords)
	c.Locations = cleanList(c.Locations)
	c.Industries = cleanList(c.Industries)
	c.RequiredSkills = cleanList(c.RequiredSkills)
	c.ExperienceLevel = strings.TrimSpace(c.ExperienceLevel)
	c.JobType = strings.TrimSpace(c.JobType)
	c.EducationLevel = strings.TrimSpace(c.EducationLevel)
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// words splits every keyword entry on whitespace, so "python developer"
// requires both words rather than the exact phrase.
func words(items []string) []string {
	var split []string
	for _, item := range items {
		split = append(split, strings.Fields(item)...)
	}
	return split
}

func stringToListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
		return data, nil
	}
	return strings.Split(data.(string), ","), nil
}

func rangeFromSliceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Slice || (to != reflect.TypeOf(Range{}) && to != reflect.TypeOf(&Range{})) {
		return data, nil
	}

	values := reflect.ValueOf(data)
	if values.Len() != 2 {
		return nil, fmt.Errorf("salary range must have exactly two values, got %d", values.Len())
	}

	return map[string]any{
		"min": values.Index(0).Interface(),
		"max": values.Index(1).Interface(),
	}, nil
}
