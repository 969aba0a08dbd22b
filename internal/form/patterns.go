package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingPatternTable is returned when a classifier is built without purpose patterns.
var ErrMissingPatternTable = errors.New("field pattern table is empty")

// Pattern lists the expressions that identify one purpose. Patterns are
// case-insensitive regular expressions matched against a field context.
type Pattern struct {
	Purpose  string   `mapstructure:"purpose" yaml:"purpose" json:"purpose"`
	Patterns []string `mapstructure:"patterns" yaml:"patterns" json:"patterns"`
}

// DefaultPatterns is the built-in purpose table. Order matters: the first
// purpose with a matching pattern wins, so "cover_letter_upload" resolves to
// resume through "upload", and relocation precedes location because
// "relocation" contains "location".
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Purpose: "name", Patterns: []string{`full[_-]?name`, `first[_-]?name`, `last[_-]?name`, `name`}},
		{Purpose: "email", Patterns: []string{`e[_-]?mail`}},
		{Purpose: "phone", Patterns: []string{`phone`, `telephone`, `mobile`, `cell`}},
		{Purpose: "resume", Patterns: []string{`resume`, `\bcv\b`, `upload`, `document`}},
		{Purpose: "cover_letter", Patterns: []string{`cover[_ -]?letter`, `letter`, `introduction`}},
		{Purpose: "experience", Patterns: []string{`years[_ -]?of[_ -]?experience`, `experience`}},
		{Purpose: "education", Patterns: []string{`education`, `degree`, `qualification`}},
		{Purpose: "linkedin", Patterns: []string{`linked[_-]?in`}},
		{Purpose: "portfolio", Patterns: []string{`portfolio`, `website`, `github`}},
		{Purpose: "salary", Patterns: []string{`salary`, `compensation`, `pay[_ -]?expectation`}},
		{Purpose: "relocation", Patterns: []string{`relocat`}},
		{Purpose: "location", Patterns: []string{`location`, `city`, `address`}},
		{Purpose: "start_date", Patterns: []string{`start[_ -]?date`, `available[_ -]?from`, `availability`}},
		{Purpose: "work_type", Patterns: []string{`work[_ -]?type`, `remote`, `hybrid`}},
		{Purpose: "skills", Patterns: []string{`skill`}},
	}
}

// DefaultRequiredIndicators mark a field as required when found in its context.
func DefaultRequiredIndicators() []string {
	return []string{`\brequired\b`, `mandatory`, `\*`}
}

type rule struct {
	purpose string
	exprs   []*regexp.Regexp
}

func compileTable(table []Pattern) ([]rule, error) {
	if len(table) == 0 {
		return nil, ErrMissingPatternTable
	}

	rules := make([]rule, 0, len(table))
	for _, entry := range table {
		purpose := strings.TrimSpace(entry.Purpose)
		if purpose == "" || purpose == PurposeUnknown {
			return nil, fmt.Errorf("invalid purpose %q in pattern table", entry.Purpose)
		}
		if len(entry.Patterns) == 0 {
			return nil, fmt.Errorf("purpose %q has no patterns", purpose)
		}

		exprs, err := compileAll(entry.Patterns)
		if err != nil {
			return nil, fmt.Errorf("purpose %q: %w", purpose, err)
		}
		rules = append(rules, rule{purpose: purpose, exprs: exprs})
	}

	return rules, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	exprs := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		expr, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func matchAny(exprs []*regexp.Regexp, text string) bool {
	for _, expr := range exprs {
		if expr.MatchString(text) {
			return true
		}
	}
	return false
}
