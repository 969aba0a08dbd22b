// Package salary turns human-readable salary strings into comparable yearly ranges.
package salary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Period is the time unit a quoted amount is paid in.
type Period string

const (
	Hour  Period = "hour"
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// multipliers convert one unit of a period into a yearly amount.
// Hourly assumes 40 hours over 52 weeks.
var multipliers = map[Period]float64{
	Hour:  2080,
	Week:  52,
	Month: 12,
	Year:  1,
}

var (
	amountRegex = regexp.MustCompile(`\$\d[\d,]*(?:\.\d{2})?`)
	qualifiers  = []string{"estimated", "salary"}
)

// Quote is a parsed salary figure in its original period. Min <= Max always holds.
type Quote struct {
	Raw    string  `json:"raw,omitempty" yaml:"raw,omitempty"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Period Period  `json:"period" yaml:"period"`
}

// AnnualRange is a quote converted to yearly amounts.
type AnnualRange struct {
	Min float64
	Max float64
}

// Extract parses a salary string. It returns nil when the text has no monetary amount.
func Extract(text string) *Quote {
	cleaned := strings.ToLower(text)
	for _, q := range qualifiers {
		cleaned = strings.ReplaceAll(cleaned, q, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	amounts := make([]float64, 0, 2)
	for _, token := range amountRegex.FindAllString(cleaned, -1) {
		token = strings.ReplaceAll(strings.TrimPrefix(token, "$"), ",", "")
		amount, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, amount)
	}

	if len(amounts) == 0 {
		return nil
	}

	q := &Quote{
		Raw:    text,
		Min:    amounts[0],
		Max:    amounts[0],
		Period: detectPeriod(cleaned),
	}
	// Sources sometimes render the upper bound first.
	for _, amount := range amounts[1:] {
		if amount < q.Min {
			q.Min = amount
		}
		if amount > q.Max {
			q.Max = amount
		}
	}

	return q
}

func detectPeriod(text string) Period {
	switch {
	case strings.Contains(text, "hour") || strings.Contains(text, "/hr"):
		return Hour
	case strings.Contains(text, "month"):
		return Month
	case strings.Contains(text, "week"):
		return Week
	default:
		return Year
	}
}

// Annualize converts a quote into a yearly range. A nil quote yields nil.
func Annualize(q *Quote) *AnnualRange {
	if q == nil {
		return nil
	}

	multiplier, ok := multipliers[q.Period]
	if !ok {
		multiplier = 1
	}

	return &AnnualRange{
		Min: q.Min * multiplier,
		Max: q.Max * multiplier,
	}
}

// Overlaps reports whether both ranges share at least one value.
func (r AnnualRange) Overlaps(min, max float64) bool {
	return r.Max >= min && r.Min <= max
}

func (r AnnualRange) String() string {
	return fmt.Sprintf("$%s - $%s", humanize.Commaf(r.Min), humanize.Commaf(r.Max))
}

func (q Quote) String() string {
	if q.Min == q.Max {
		return fmt.Sprintf("$%s/%s", humanize.Commaf(q.Min), q.Period)
	}
	return fmt.Sprintf("$%s - $%s/%s", humanize.Commaf(q.Min), humanize.Commaf(q.Max), q.Period)
}
