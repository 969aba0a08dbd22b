// Package posting holds job postings collected from job platforms.
package posting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spigell/apply-pilot/internal/salary"
)

const (
	PostingURLField     = "URL"
	PostingCompanyField = "Company"
)

// Posting is a single job advertisement. It is not modified after loading.
type Posting struct {
	Title        string        `json:"title" yaml:"title"`
	Company      string        `json:"company" yaml:"company"`
	Location     string        `json:"location" yaml:"location"`
	Description  string        `json:"description" yaml:"description"`
	Requirements []string      `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Salary       *salary.Quote `json:"salary,omitempty" yaml:"salary,omitempty"`
	// SalaryText is the salary as rendered by the platform. It is parsed into
	// Salary on load when Salary is not set explicitly.
	SalaryText      string     `json:"salary_text,omitempty" yaml:"salary_text,omitempty"`
	URL             string     `json:"url" yaml:"url"`
	Source          string     `json:"source" yaml:"source"`
	JobType         string     `json:"job_type,omitempty" yaml:"job_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty" yaml:"experience_level,omitempty"`
	EducationLevel  string     `json:"education_level,omitempty" yaml:"education_level,omitempty"`
	Industry        string     `json:"industry,omitempty" yaml:"industry,omitempty"`
	PostedAt        *time.Time `json:"posted_at,omitempty" yaml:"posted_at,omitempty"`
}

type Postings struct {
	Items []*Posting
}

// IsValid reports whether the posting carries the minimum identifying data.
func (p *Posting) IsValid() bool {
	return strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.Company) != "" &&
		strings.TrimSpace(p.Location) != ""
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingURLField:
		return p.URL
	case PostingCompanyField:
		return p.Company
	default:
		return ""
	}
}

// LoadFile reads postings from a JSON or YAML file. The format is picked by extension.
func LoadFile(path string) (*Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []*Posting
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &items)
	default:
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("decode postings from %q: %w", path, err)
	}

	// null list entries are dropped; explicit salary bounds are kept ordered.
	kept := items[:0]
	for _, p := range items {
		if p == nil {
			continue
		}
		switch {
		case p.Salary == nil && p.SalaryText != "":
			p.Salary = salary.Extract(p.SalaryText)
		case p.Salary != nil && p.Salary.Min > p.Salary.Max:
			p.Salary.Min, p.Salary.Max = p.Salary.Max, p.Salary.Min
		}
		kept = append(kept, p)
	}

	return &Postings{Items: kept}, nil
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany groups a short summary of every posting by company name.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		entry := map[string]string{
			"title":    posting.Title,
			"url":      posting.URL,
			"location": posting.Location,
			"source":   posting.Source,
		}
		if posting.Salary != nil {
			entry["salary"] = posting.Salary.String()
		}
		report[posting.Company] = append(report[posting.Company], entry)
	}
	return report
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// Exclude removes every posting whose field equals one of targets (case-insensitive)
// and returns the URLs of removed postings. Order of the remaining items is kept.
func (p *Postings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	var excluded []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if _, ok := set[strings.ToLower(strings.TrimSpace(posting.GetStringField(name)))]; ok {
			excluded = append(excluded, posting.URL)
			continue
		}
		kept = append(kept, posting)
	}
	p.Items = kept

	return excluded
}

// Retain keeps only postings accepted by keep and returns the removed ones.
func (p *Postings) Retain(keep func(*Posting) bool) []*Posting {
	var dropped []*Posting
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if keep(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting)
	}
	p.Items = kept
	return dropped
}
