// Package matching decides whether a job posting satisfies user criteria.
package matching

import (
	"strings"
	"time"

	"github.com/spigell/apply-pilot/internal/posting"
	"github.com/spigell/apply-pilot/internal/salary"
)

// Predicate names reported by Evaluate, in evaluation order.
const (
	PredicateValidity         = "validity"
	PredicateKeywords         = "keywords"
	PredicateExcludedKeywords = "excluded_keywords"
	PredicateLocation         = "location"
	PredicateSalaryRange      = "salary_range"
	PredicateExperienceLevel  = "experience_level"
	PredicateJobType          = "job_type"
	PredicateIndustry         = "industry"
	PredicateRequiredSkills   = "required_skills"
	PredicateEducation        = "education"
	PredicatePostedWithin     = "posted_within_days"
)

// Verdict is the outcome of evaluating one posting.
// Predicate names the first failing check and is empty on a match.
type Verdict struct {
	Matched   bool
	Predicate string
}

type predicate struct {
	name  string
	check func(e *Engine, p *posting.Posting, c *Criteria) bool
}

// predicates run in this order; cheap checks first.
var predicates = []predicate{
	{PredicateValidity, (*Engine).checkValidity},
	{PredicateKeywords, (*Engine).checkKeywords},
	{PredicateExcludedKeywords, (*Engine).checkExcludedKeywords},
	{PredicateLocation, (*Engine).checkLocation},
	{PredicateSalaryRange, (*Engine).checkSalary},
	{PredicateExperienceLevel, (*Engine).checkExperience},
	{PredicateJobType, (*Engine).checkJobType},
	{PredicateIndustry, (*Engine).checkIndustry},
	{PredicateRequiredSkills, (*Engine).checkSkills},
	{PredicateEducation, (*Engine).checkEducation},
	{PredicatePostedWithin, (*Engine).checkPostedWithin},
}

// Engine evaluates postings against criteria. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	tables *Tables
	now    func() time.Time
}

// New creates an engine using the provided keyword tables, or the defaults when nil.
func New(tables *Tables) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Engine{tables: tables, now: time.Now}
}

// Matches reports whether the posting satisfies every criteria predicate.
func (e *Engine) Matches(p *posting.Posting, c *Criteria) bool {
	return e.Evaluate(p, c).Matched
}

// Evaluate runs the predicates in order and stops at the first failure.
func (e *Engine) Evaluate(p *posting.Posting, c *Criteria) Verdict {
	if p == nil {
		return Verdict{Predicate: PredicateValidity}
	}
	if c == nil {
		c = &Criteria{}
	}

	for _, pr := range predicates {
		if !pr.check(e, p, c) {
			return Verdict{Predicate: pr.name}
		}
	}
	return Verdict{Matched: true}
}

func (e *Engine) checkValidity(p *posting.Posting, _ *Criteria) bool {
	return p.IsValid()
}

func (e *Engine) checkKeywords(p *posting.Posting, c *Criteria) bool {
	return containsAll(lower(p.Title, p.Description), c.Keywords)
}

func (e *Engine) checkExcludedKeywords(p *posting.Posting, c *Criteria) bool {
	if len(c.ExcludedKeywords) == 0 {
		return true
	}
	text := lower(append([]string{p.Title, p.Company, p.Location, p.Description}, p.Requirements...)...)
	return !containsAny(text, c.ExcludedKeywords)
}

func (e *Engine) checkLocation(p *posting.Posting, c *Criteria) bool {
	if len(c.Locations) == 0 {
		return true
	}

	if containsAny(strings.ToLower(strings.Join(c.Locations, ",")), []string{"remote"}) {
		return containsAny(lower(p.Location, p.Title), []string{"remote"})
	}

	return containsAny(strings.ToLower(p.Location), c.Locations)
}

func (e *Engine) checkSalary(p *posting.Posting, c *Criteria) bool {
	if c.SalaryRange == nil || p.Salary == nil {
		return true
	}
	annual := salary.Annualize(p.Salary)
	return annual.Overlaps(c.SalaryRange.Min, c.SalaryRange.Max)
}

func (e *Engine) checkExperience(p *posting.Posting, c *Criteria) bool {
	if c.ExperienceLevel == "" {
		return true
	}
	return containsAny(strings.ToLower(p.Description), lookup(e.tables.Experience, c.ExperienceLevel))
}

func (e *Engine) checkJobType(p *posting.Posting, c *Criteria) bool {
	if c.JobType == "" {
		return true
	}
	return containsAny(lower(p.Title, p.Description), []string{c.JobType})
}

func (e *Engine) checkIndustry(p *posting.Posting, c *Criteria) bool {
	if len(c.Industries) == 0 {
		return true
	}
	return containsAny(strings.ToLower(p.Description), c.Industries)
}

func (e *Engine) checkSkills(p *posting.Posting, c *Criteria) bool {
	return containsAll(lower(p.Title, p.Description), c.RequiredSkills)
}

func (e *Engine) checkEducation(p *posting.Posting, c *Criteria) bool {
	if c.EducationLevel == "" {
		return true
	}
	return containsAny(strings.ToLower(p.Description), lookup(e.tables.Education, c.EducationLevel))
}

func (e *Engine) checkPostedWithin(p *posting.Posting, c *Criteria) bool {
	if c.PostedWithinDays <= 0 || p.PostedAt == nil {
		return true
	}
	maxAge := time.Duration(c.PostedWithinDays) * 24 * time.Hour
	return e.now().Sub(*p.PostedAt) <= maxAge
}

func lower(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}

// containsAll reports whether text contains every needle. An empty needle list matches.
func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, strings.ToLower(strings.TrimSpace(needle))) {
			return false
		}
	}
	return true
}

// containsAny reports whether text contains at least one needle. An empty list never matches.
func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
