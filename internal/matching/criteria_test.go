package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCriteria(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"keywords":           []any{"go", " kubernetes "},
		"excluded-keywords":  "php, wordpress",
		"location":           "Austin, Remote",
		"salary-range":       []any{100000, 160000},
		"experience-level":   "senior",
		"industry":           "fintech",
		"required-skills":    []string{"go"},
		"education":          "bachelor",
		"posted-within-days": "14",
	}

	criteria, err := DecodeCriteria(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "kubernetes"}, criteria.Keywords)
	assert.Equal(t, []string{"php", "wordpress"}, criteria.ExcludedKeywords)
	assert.Equal(t, []string{"Austin", "Remote"}, criteria.Locations)
	require.NotNil(t, criteria.SalaryRange)
	assert.Equal(t, Range{Min: 100000, Max: 160000}, *criteria.SalaryRange)
	assert.Equal(t, "senior", criteria.ExperienceLevel)
	assert.Equal(t, []string{"fintech"}, criteria.Industries)
	assert.Equal(t, 14, criteria.PostedWithinDays)
}

func TestDecodeCriteriaSplitsKeywordsOnWhitespace(t *testing.T) {
	t.Parallel()

	criteria, err := DecodeCriteria(map[string]any{
		"keywords":          "python developer",
		"excluded-keywords": []any{"php  wordpress", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "developer"}, criteria.Keywords)
	assert.Equal(t, []string{"php", "wordpress"}, criteria.ExcludedKeywords)
}

func TestDecodeCriteriaSalaryMap(t *testing.T) {
	t.Parallel()

	criteria, err := DecodeCriteria(map[string]any{
		"salary-range": map[string]any{"min": 90000, "max": 120000},
	})
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 90000, Max: 120000}, *criteria.SalaryRange)
}

func TestDecodeCriteriaErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeCriteria(map[string]any{"unknown-predicate": true})
	assert.Error(t, err)

	_, err = DecodeCriteria(map[string]any{"salary-range": []any{1}})
	assert.Error(t, err)
}

func TestDecodeCriteriaEmpty(t *testing.T) {
	t.Parallel()

	criteria, err := DecodeCriteria(nil)
	require.NoError(t, err)
	assert.Equal(t, &Criteria{}, criteria)
}
