package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// dryRun returns a repository that builds SQL without a server and a pointer
// to the last statement it built.
func dryRun(t *testing.T) (*Repository, *string) {
	t.Helper()

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "apply:secret@tcp(127.0.0.1:3306)/apply_pilot?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var last string
	capture := func(tx *gorm.DB) { last = tx.Statement.SQL.String() }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))

	return New(db, zap.NewNop()), &last
}

func TestSave(t *testing.T) {
	t.Parallel()

	repo, last := dryRun(t)
	record := &ApplicationRecord{ID: "c0ffee00-0000-0000-0000-000000000000", RunID: "run-1", Status: StatusSuccess, URL: "https://jobs.test/1"}

	require.NoError(t, repo.Save(context.Background(), record))
	assert.False(t, record.AppliedAt.IsZero())
	assert.True(t, strings.HasPrefix(*last, "INSERT INTO `applications`"), *last)

	require.Error(t, repo.Save(context.Background(), nil))
}

func TestSaveKeepsAppliedAt(t *testing.T) {
	t.Parallel()

	repo, _ := dryRun(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := &ApplicationRecord{ID: "id", AppliedAt: at}

	require.NoError(t, repo.Save(context.Background(), record))
	assert.Equal(t, at, record.AppliedAt)
}

func TestAppliedURLsQuery(t *testing.T) {
	t.Parallel()

	repo, last := dryRun(t)
	urls, err := repo.AppliedURLs(context.Background())

	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.Contains(t, *last, "SELECT DISTINCT `url` FROM `applications`")
	assert.Contains(t, *last, "status = ?")
}

func TestStatsQuery(t *testing.T) {
	t.Parallel()

	repo, last := dryRun(t)

	_, err := repo.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, *last, "GROUP BY `status`")
	assert.NotContains(t, *last, "run_id")

	_, err = repo.Stats(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Contains(t, *last, "run_id = ?")
}
