package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/apply-pilot/internal/posting"
	"github.com/spigell/apply-pilot/internal/salary"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := New(nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func basePosting() *posting.Posting {
	posted := fixedNow.Add(-3 * 24 * time.Hour)
	return &posting.Posting{
		Title:        "Senior Go Developer",
		Company:      "Acme",
		Location:     "Austin, TX",
		Description:  "Full-time role in fintech. 5+ years of Go and Kubernetes. Bachelor's degree preferred.",
		Requirements: []string{"PostgreSQL", "gRPC"},
		Salary:       &salary.Quote{Min: 120000, Max: 150000, Period: salary.Year},
		URL:          "https://acme.test/jobs/1",
		Source:       "indeed",
		PostedAt:     &posted,
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(p *posting.Posting)
		criteria  *Criteria
		predicate string
	}{
		{
			name:     "empty criteria matches valid posting",
			criteria: &Criteria{},
		},
		{
			name:      "missing company is invalid",
			mutate:    func(p *posting.Posting) { p.Company = "" },
			criteria:  &Criteria{},
			predicate: PredicateValidity,
		},
		{
			name:     "all keywords present case-insensitive",
			criteria: &Criteria{Keywords: []string{"GO", "kubernetes"}},
		},
		{
			name:      "one keyword missing",
			criteria:  &Criteria{Keywords: []string{"go", "rust"}},
			predicate: PredicateKeywords,
		},
		{
			name:      "excluded keyword in company",
			criteria:  &Criteria{ExcludedKeywords: []string{"acme"}},
			predicate: PredicateExcludedKeywords,
		},
		{
			name:     "location token matches",
			criteria: &Criteria{Locations: []string{"Seattle", "Austin"}},
		},
		{
			name:      "location token misses",
			criteria:  &Criteria{Locations: []string{"Seattle", "Denver"}},
			predicate: PredicateLocation,
		},
		{
			name:      "remote requires remote posting",
			criteria:  &Criteria{Locations: []string{"Remote"}},
			predicate: PredicateLocation,
		},
		{
			name:     "remote in title is enough",
			mutate:   func(p *posting.Posting) { p.Title = "Go Developer (Remote)" },
			criteria: &Criteria{Locations: []string{"remote", "Austin"}},
		},
		{
			name:     "overlapping salary",
			criteria: &Criteria{SalaryRange: &Range{Min: 100000, Max: 160000}},
		},
		{
			name:      "salary above posting range",
			criteria:  &Criteria{SalaryRange: &Range{Min: 160000, Max: 200000}},
			predicate: PredicateSalaryRange,
		},
		{
			name:      "hourly salary is annualized",
			mutate:    func(p *posting.Posting) { p.Salary = &salary.Quote{Min: 20, Max: 25, Period: salary.Hour} },
			criteria:  &Criteria{SalaryRange: &Range{Min: 60000, Max: 90000}},
			predicate: PredicateSalaryRange,
		},
		{
			name:     "posting without salary passes salary filter",
			mutate:   func(p *posting.Posting) { p.Salary = nil },
			criteria: &Criteria{SalaryRange: &Range{Min: 500000, Max: 900000}},
		},
		{
			name:     "experience level found",
			criteria: &Criteria{ExperienceLevel: "Senior"},
		},
		{
			name:      "experience level missing",
			criteria:  &Criteria{ExperienceLevel: "entry"},
			predicate: PredicateExperienceLevel,
		},
		{
			name:      "unknown experience tag rejects",
			criteria:  &Criteria{ExperienceLevel: "wizard"},
			predicate: PredicateExperienceLevel,
		},
		{
			name:     "job type in description",
			criteria: &Criteria{JobType: "full-time"},
		},
		{
			name:      "job type missing",
			criteria:  &Criteria{JobType: "contract"},
			predicate: PredicateJobType,
		},
		{
			name:     "any industry matches",
			criteria: &Criteria{Industries: []string{"healthcare", "fintech"}},
		},
		{
			name:      "no industry matches",
			criteria:  &Criteria{Industries: []string{"healthcare"}},
			predicate: PredicateIndustry,
		},
		{
			name:     "skills from title and description",
			criteria: &Criteria{RequiredSkills: []string{"go", "kubernetes"}},
		},
		{
			name:      "requirements list is not searched for skills",
			criteria:  &Criteria{RequiredSkills: []string{"go", "grpc"}},
			predicate: PredicateRequiredSkills,
		},
		{
			name:      "skill missing",
			criteria:  &Criteria{RequiredSkills: []string{"go", "java"}},
			predicate: PredicateRequiredSkills,
		},
		{
			name:     "education found",
			criteria: &Criteria{EducationLevel: "bachelor"},
		},
		{
			name:      "education missing",
			criteria:  &Criteria{EducationLevel: "phd"},
			predicate: PredicateEducation,
		},
		{
			name:     "fresh posting",
			criteria: &Criteria{PostedWithinDays: 7},
		},
		{
			name:      "stale posting",
			criteria:  &Criteria{PostedWithinDays: 2},
			predicate: PredicatePostedWithin,
		},
		{
			name:     "unknown posted date passes",
			mutate:   func(p *posting.Posting) { p.PostedAt = nil },
			criteria: &Criteria{PostedWithinDays: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := basePosting()
			if tt.mutate != nil {
				tt.mutate(p)
			}

			verdict := newTestEngine().Evaluate(p, tt.criteria)
			assert.Equal(t, tt.predicate == "", verdict.Matched)
			assert.Equal(t, tt.predicate, verdict.Predicate)
		})
	}
}

func TestEvaluateKeywordPhraseNeedsEveryWord(t *testing.T) {
	t.Parallel()

	criteria, err := DecodeCriteria(map[string]any{"keywords": "python developer"})
	require.NoError(t, err)

	p := basePosting()
	p.Title = "Python Engineer"
	p.Description = "We need a backend developer."
	assert.True(t, newTestEngine().Evaluate(p, criteria).Matched)

	p.Description = "We need a backend engineer."
	assert.Equal(t, PredicateKeywords, newTestEngine().Evaluate(p, criteria).Predicate)
}

func TestEvaluateReportsFirstFailure(t *testing.T) {
	t.Parallel()

	criteria := &Criteria{
		Keywords:        []string{"rust"},
		Locations:       []string{"Denver"},
		ExperienceLevel: "entry",
	}

	verdict := newTestEngine().Evaluate(basePosting(), criteria)
	assert.False(t, verdict.Matched)
	assert.Equal(t, PredicateKeywords, verdict.Predicate)
}

func TestMatchesIsMonotonic(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	p := basePosting()

	additions := []func(c *Criteria){
		func(c *Criteria) { c.Keywords = []string{"go"} },
		func(c *Criteria) { c.ExcludedKeywords = []string{"php"} },
		func(c *Criteria) { c.Locations = []string{"Denver"} },
		func(c *Criteria) { c.SalaryRange = &Range{Min: 100000, Max: 160000} },
		func(c *Criteria) { c.ExperienceLevel = "senior" },
		func(c *Criteria) { c.JobType = "part-time" },
		func(c *Criteria) { c.EducationLevel = "bachelor" },
		func(c *Criteria) { c.PostedWithinDays = 30 },
	}

	criteria := &Criteria{}
	previous := engine.Matches(p, criteria)
	for i, add := range additions {
		add(criteria)
		current := engine.Matches(p, criteria)
		if !previous {
			require.False(t, current, "adding predicate %d turned a rejection into a match", i)
		}
		previous = current
	}
	assert.False(t, previous)
}

func TestEvaluateNilInputs(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	assert.Equal(t, Verdict{Predicate: PredicateValidity}, engine.Evaluate(nil, &Criteria{}))
	assert.True(t, engine.Matches(basePosting(), nil))
}

func TestCustomTables(t *testing.T) {
	t.Parallel()

	tables := DefaultTables().Merge(&Tables{
		Experience: map[string][]string{"Staff": {"staff engineer"}},
	})
	engine := New(tables)

	p := basePosting()
	p.Description = "We need a Staff Engineer"

	assert.True(t, engine.Matches(p, &Criteria{ExperienceLevel: "staff"}))
	assert.False(t, engine.Matches(p, &Criteria{ExperienceLevel: "senior"}))

	_, ok := DefaultTables().Experience["staff"]
	assert.False(t, ok, "merge must not modify the defaults")
}
