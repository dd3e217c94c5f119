// Package history archives finished puzzles locally. It is optional
// bookkeeping outside the game protocol: with no DSN configured the nil
// store turns every call into a no-op.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Result is one completed puzzle.
type Result struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Mode      string    `gorm:"index"`
	NodeCount int
	Moves     int
	Optimal   int
	Rating    string
	PlayedAt  time.Time
	CreatedAt time.Time
}

// Open initializes the database connection and performs migrations.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Result{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Store wraps a gorm DB. A nil Store (or nil DB) disables archiving.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// RecordWin inserts one finished puzzle row.
func (s *Store) RecordWin(ctx context.Context, mode string, nodeCount, moves, optimal int, rating string) error {
	if s == nil {
		return nil
	}
	rec := Result{
		Mode:      mode,
		NodeCount: nodeCount,
		Moves:     moves,
		Optimal:   optimal,
		Rating:    rating,
		PlayedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the latest finished puzzles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	if s == nil {
		return nil, nil
	}
	var out []Result
	err := s.db.WithContext(ctx).Order("played_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Stats are aggregate counts across the archive.
type Stats struct {
	Played  int64 `json:"played"`
	Perfect int64 `json:"perfect"`
}

func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Result{}).Count(&stats.Played).Error; err != nil {
		return stats, err
	}
	err := s.db.WithContext(ctx).Model(&Result{}).Where("moves = optimal").Count(&stats.Perfect).Error
	return stats, err
}
