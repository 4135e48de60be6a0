// Package postgres implements the remote store gateway on Postgres via GORM.
// Documents live in the students table with the progress mapping as a jsonb
// column, so a field update touches exactly one entry instead of rewriting
// the whole document.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/sweetshooter/study-progress-tracker/internal/adapters/gateway"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
)

// studentDoc is the students-table row shape.
type studentDoc struct {
	Name        string      `gorm:"primaryKey;column:name"`
	Progress    ProgressMap `gorm:"column:progress;type:jsonb"`
	LastUpdated string      `gorm:"column:last_updated"`
}

// TableName keeps the table aligned with the remote collection name.
func (studentDoc) TableName() string { return gateway.Collection }

// Store implements gateway.Gateway on a Postgres connection.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the students table.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrUnavailable, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&studentDoc{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", gateway.ErrUnavailable, err)
	}
	return &Store{db: db}, nil
}

// ListAll fetches every student document.
func (s *Store) ListAll(ctx context.Context) ([]progress.Record, error) {
	var rows []studentDoc
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list: %w", gateway.ErrUnavailable, err)
	}

	out := make([]progress.Record, 0, len(rows))
	for _, row := range rows {
		p := row.Progress
		if p == nil {
			p = ProgressMap{}
		}
		out = append(out, progress.Record{
			Name:        row.Name,
			Progress:    p,
			LastUpdated: row.LastUpdated,
		})
	}
	return out, nil
}

// Create writes the full document, overwriting an existing row with the same
// key. Login relies on the upsert to make record creation idempotent.
func (s *Store) Create(ctx context.Context, rec progress.Record) error {
	row := studentDoc{
		Name:        rec.Name,
		Progress:    ProgressMap(rec.Progress),
		LastUpdated: rec.LastUpdated,
	}
	err := s.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", gateway.ErrUnavailable, rec.Name, err)
	}
	return nil
}

// UpdateField patches one progress entry and the timestamp in place.
func (s *Store) UpdateField(ctx context.Context, name, subjectID string, value int, lastUpdated string) error {
	res := s.db.WithContext(ctx).Exec(
		`UPDATE students
		   SET progress = jsonb_set(COALESCE(progress, '{}'::jsonb), ARRAY[?], to_jsonb(?::int)),
		       last_updated = ?
		 WHERE name = ?`,
		subjectID, value, lastUpdated, name,
	)
	if res.Error != nil {
		return fmt.Errorf("%w: update %s.%s: %w", gateway.ErrUnavailable, name, subjectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", gateway.ErrNotFound, name)
	}
	return nil
}

// Delete removes the document at key name. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&studentDoc{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", gateway.ErrUnavailable, name, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return sqlDB.Close()
}
