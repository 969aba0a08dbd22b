package posting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/apply-pilot/internal/salary"
)

func TestLoadFileParsesSalaryText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.json")
	data := `[
  {"title": "Go Developer", "company": "Acme", "location": "Remote", "url": "https://acme.test/1", "source": "indeed", "salary_text": "$50,000 - $75,000 a year"},
  {"title": "SRE", "company": "Globex", "location": "Berlin", "url": "https://globex.test/2", "source": "linkedin", "salary": {"min": 30, "max": 40, "period": "hour"}}
]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	postings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if postings.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d", postings.Len())
	}

	first := postings.Items[0].Salary
	if first == nil || first.Min != 50000 || first.Max != 75000 || first.Period != salary.Year {
		t.Fatalf("unexpected parsed salary: %+v", first)
	}

	second := postings.Items[1].Salary
	if second == nil || second.Period != salary.Hour {
		t.Fatalf("explicit salary must be kept: %+v", second)
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.yaml")
	data := `
- title: Backend Engineer
  company: Initech
  location: Austin, TX
  url: https://initech.test/3
  source: indeed
  posted_at: 2026-10-01T00:00:00Z
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	postings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if postings.Len() != 1 || postings.Items[0].PostedAt == nil {
		t.Fatalf("expected one posting with posted date, got %+v", postings.Items)
	}
}

func TestLoadFileSkipsNullsAndOrdersSalary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.json")
	data := `[
  null,
  {"title": "SRE", "company": "Globex", "location": "Berlin", "url": "https://globex.test/2", "salary": {"min": 90000, "max": 70000, "period": "year"}},
  null
]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	postings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if postings.Len() != 1 {
		t.Fatalf("expected null entries to be skipped, got %d postings", postings.Len())
	}

	quote := postings.Items[0].Salary
	if quote == nil || quote.Min != 70000 || quote.Max != 90000 {
		t.Fatalf("expected swapped salary bounds, got %+v", quote)
	}

	// Reports walk every item and would panic on a nil posting.
	if report := postings.ReportByCompany(); len(report["Globex"]) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestExcludeKeepsOrder(t *testing.T) {
	postings := &Postings{Items: []*Posting{
		{Title: "a", Company: "Acme", URL: "1"},
		{Title: "b", Company: "Globex", URL: "2"},
		{Title: "c", Company: "acme ", URL: "3"},
		{Title: "d", Company: "Initech", URL: "4"},
	}}

	excluded := postings.Exclude(PostingCompanyField, []string{"ACME"})
	if len(excluded) != 2 || excluded[0] != "1" || excluded[1] != "3" {
		t.Fatalf("unexpected excluded list: %v", excluded)
	}

	if postings.Len() != 2 || postings.Items[0].URL != "2" || postings.Items[1].URL != "4" {
		t.Fatalf("unexpected remaining postings: %+v", postings.Items)
	}
}

func TestReportByCompany(t *testing.T) {
	postings := &Postings{Items: []*Posting{
		{Title: "Go Developer", Company: "Acme", URL: "https://acme.test/1", Salary: &salary.Quote{Min: 100000, Max: 120000, Period: salary.Year}},
		{Title: "SRE", Company: "Acme", URL: "https://acme.test/2"},
	}}

	report := postings.ReportByCompany()
	entries := report["Acme"]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["salary"] != "$100,000 - $120,000/year" {
		t.Fatalf("unexpected salary entry: %q", entries[0]["salary"])
	}
	if _, ok := entries[1]["salary"]; ok {
		t.Fatalf("did not expect salary for posting without one")
	}
}

func TestIsValid(t *testing.T) {
	if (&Posting{Title: "x", Company: "y"}).IsValid() {
		t.Fatalf("posting without location must be invalid")
	}
	if !(&Posting{Title: "x", Company: "y", Location: "z"}).IsValid() {
		t.Fatalf("expected valid posting")
	}
}
