package matching

import "strings"

// Tables maps a level tag to the phrases that signal it in a description.
// They are data so new locales can extend them through configuration.
type Tables struct {
	Experience map[string][]string `mapstructure:"experience-levels"`
	Education  map[string][]string `mapstructure:"education-levels"`
}

// DefaultTables returns the built-in keyword tables.
func DefaultTables() *Tables {
	return &Tables{
		Experience: map[string][]string{
			"entry":     {"entry level", "junior", "0-2 years", "no experience"},
			"mid":       {"mid level", "intermediate", "2-5 years", "3-5 years"},
			"senior":    {"senior", "lead", "5+ years", "7+ years"},
			"executive": {"executive", "director", "head of", "vp", "chief"},
		},
		Education: map[string][]string{
			"high school": {"high school", "ged"},
			"associate":   {"associate", "associate's", "2 year degree"},
			"bachelor":    {"bachelor", "bachelor's", "4 year degree", "bs", "ba"},
			"master":      {"master", "master's", "ms", "ma"},
			"phd":         {"phd", "doctorate", "doctoral"},
		},
	}
}

// Merge returns a copy of t where tags present in other replace the existing ones.
func (t *Tables) Merge(other *Tables) *Tables {
	merged := &Tables{
		Experience: copyTable(t.Experience),
		Education:  copyTable(t.Education),
	}
	if other == nil {
		return merged
	}
	for tag, phrases := range other.Experience {
		merged.Experience[strings.ToLower(strings.TrimSpace(tag))] = phrases
	}
	for tag, phrases := range other.Education {
		merged.Education[strings.ToLower(strings.TrimSpace(tag))] = phrases
	}
	return merged
}

func copyTable(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for tag, phrases := range src {
		dst[tag] = append([]string(nil), phrases...)
	}
	return dst
}

// lookup returns the phrases for a tag. Unknown tags yield nil.
func lookup(table map[string][]string, tag string) []string {
	return table[strings.ToLower(strings.TrimSpace(tag))]
}
