// Package store persists application attempts so later runs skip postings
// that were already handled.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// StatusSuccess is the status of an application that was submitted.
const StatusSuccess = "success"

// ApplicationRecord is one application attempt.
type ApplicationRecord struct {
	ID        string    `gorm:"primaryKey;size:36;column:id"`
	RunID     string    `gorm:"size:36;index;column:run_id"`
	Status    string    `gorm:"size:16;index;column:status"`
	Platform  string    `gorm:"size:64;column:platform"`
	Company   string    `gorm:"size:255;column:company"`
	Position  string    `gorm:"size:255;column:position"`
	URL       string    `gorm:"size:768;index;column:url"`
	Error     string    `gorm:"type:text;column:error"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (ApplicationRecord) TableName() string {
	return "applications"
}

// Repository reads and writes application records.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to MySQL and migrates the applications table.
func Open(dsn string, logger *zap.Logger) (*Repository, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open application store: %w", err)
	}

	if err := db.AutoMigrate(&ApplicationRecord{}); err != nil {
		return nil, fmt.Errorf("migrate application store: %w", err)
	}

	return New(db, logger), nil
}

func New(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// Save inserts a record.
func (r *Repository) Save(ctx context.Context, record *ApplicationRecord) error {
	if record == nil {
		return errors.New("application record is nil")
	}
	if record.AppliedAt.IsZero() {
		record.AppliedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save application %s: %w", record.ID, err)
	}

	r.logger.Debug("application stored",
		zap.String("id", record.ID),
		zap.String("status", record.Status),
		zap.String("url", record.URL),
	)
	return nil
}

// AppliedURLs returns the distinct URLs of successful applications.
func (r *Repository) AppliedURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).
		Model(&ApplicationRecord{}).
		Where("status = ?", StatusSuccess).
		Distinct().
		Pluck("url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("list applied urls: %w", err)
	}
	return urls, nil
}

// StatusCount is the number of records with one status.
type StatusCount struct {
	Status string
	Total  int64
}

// Stats counts stored records per status, optionally limited to one run.
func (r *Repository) Stats(ctx context.Context, runID string) ([]StatusCount, error) {
	query := r.db.WithContext(ctx).
		Model(&ApplicationRecord{}).
		Select("status, count(*) as total")
	if runID != "" {
		query = query.Where("run_id = ?", runID)
	}

	var counts []StatusCount
	if err := query.Group("status").Order("status").Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	return counts, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
