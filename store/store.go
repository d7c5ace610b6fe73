// Package store persists fills and performance snapshots to SQLite.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Fill is a persisted fill acknowledgment.
type Fill struct {
	ID       uint   `gorm:"primaryKey"`
	OrderID  string `gorm:"index"`
	Symbol   string `gorm:"index"`
	Side     string
	Price    float64
	Quantity float64
	Ts       time.Time
}

// PerfSnapshot is a persisted performance-ledger flush.
type PerfSnapshot struct {
	ID            uint `gorm:"primaryKey"`
	SpreadCapture string
	QuoteCount    int64
	FillCount     int64
	RoundTrips    int64
	Ts            time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite file at path, creating directories and
// running migrations as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Fill{}, &PerfSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveFill appends one fill record.
func (s *Store) SaveFill(f Fill) error {
	return s.db.Create(&f).Error
}

// SaveSnapshot appends one performance snapshot.
func (s *Store) SaveSnapshot(p PerfSnapshot) error {
	return s.db.Create(&p).Error
}

// RecentFills returns the newest fills for a symbol, newest first.
func (s *Store) RecentFills(symbol string, limit int) ([]Fill, error) {
	var fills []Fill
	err := s.db.Where("symbol = ?", symbol).Order("id desc").Limit(limit).Find(&fills).Error
	return fills, err
}

// LastSnapshot returns the most recent performance snapshot, nil when
// none has been written yet.
func (s *Store) LastSnapshot() (*PerfSnapshot, error) {
	var snap PerfSnapshot
	err := s.db.Order("id desc").First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
