// Package store persists submission history and the vendor registry in a
// local sqlite database. Records are append-only: one row per submission,
// never updated.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"listing-backend/internal/model"
)

// SubmissionRecord is one stored submission. Vendor was added after the
// first deployments; it carries a default rather than a migration.
type SubmissionRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Sender      string    `gorm:"not null" json:"sender"`
	Description string    `gorm:"not null" json:"description"`
	Vendor      string    `gorm:"default:DEFAULT" json:"vendor"`
	Images      []string  `gorm:"serializer:json" json:"images"`
	ReceivedAt  time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vendor is one known vendor, recorded on first sight.
type Vendor struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the sqlite database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: creating data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	if err := db.AutoMigrate(&SubmissionRecord{}, &Vendor{}); err != nil {
		return nil, fmt.Errorf("store: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSubmission appends one history record and returns its identifier.
func (s *Store) SaveSubmission(ctx context.Context, sub *model.Submission) (uuid.UUID, error) {
	rec := &SubmissionRecord{
		ID:          uuid.New(),
		Sender:      sub.Sender,
		Description: sub.Description,
		Vendor:      sub.Vendor,
		Images:      sub.ImageFilenames(),
		ReceivedAt:  sub.ReceivedAt,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return uuid.Nil, fmt.Errorf("store: saving submission: %w", err)
	}
	return rec.ID, nil
}

// ListSubmissions returns all stored submissions, most recent first.
func (s *Store) ListSubmissions(ctx context.Context) ([]SubmissionRecord, error) {
	var recs []SubmissionRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: listing submissions: %w", err)
	}
	return recs, nil
}

// EnsureVendor records a vendor on first sight. Returns true if the vendor
// was new.
func (s *Store) EnsureVendor(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Where(Vendor{Name: name}).
		FirstOrCreate(&Vendor{Name: name})
	if res.Error != nil {
		return false, fmt.Errorf("store: ensuring vendor: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListVendors returns all known vendors, most recent first.
func (s *Store) ListVendors(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("store: listing vendors: %w", err)
	}
	return vendors, nil
}
