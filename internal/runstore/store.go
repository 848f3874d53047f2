// Package runstore keeps a history of profiled runs in SQLite so variants
// can be compared across invocations.
package runstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when no run matches a query.
var ErrNotFound = errors.New("runstore: run not found")

// Store reads and writes runs.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at dsn and migrates
// the schema. Use "file::memory:" for a throwaway store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// One connection keeps in-memory databases alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}, &RunRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save persists run and its rows in one transaction.
func (s *Store) Save(ctx context.Context, run *Run) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns the run with id, rows included.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.withRows(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// Latest returns the most recent run of variant, rows included.
func (s *Store) Latest(ctx context.Context, variant string) (*Run, error) {
	var run Run
	err := s.withRows(ctx).
		Where("variant = ?", variant).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variant %s", ErrNotFound, variant)
		}
		return nil, fmt.Errorf("latest %s: %w", variant, err)
	}
	return &run, nil
}

// ListByVariant returns up to limit runs of variant, newest first, without
// rows. A limit of zero or less returns every run.
func (s *Store) ListByVariant(ctx context.Context, variant string, limit int) ([]Run, error) {
	q := s.db.WithContext(ctx).
		Where("variant = ?", variant).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", variant, err)
	}
	return runs, nil
}

// Variants returns the distinct variant names that have runs, sorted.
func (s *Store) Variants(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&Run{}).
		Distinct("variant").
		Order("variant ASC").
		Pluck("variant", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	return names, nil
}

func (s *Store) withRows(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Rows", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}
