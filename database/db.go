// Package database persists capture-run history to a local sqlite file.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbInstance *gorm.DB
	dbOnce     sync.Once
)

// GetDB returns the database instance (singleton)
func GetDB() (*gorm.DB, error) {
	var err error
	dbOnce.Do(func() {
		dbPath := getDatabasePath()

		dir := filepath.Dir(dbPath)
		if err = os.MkdirAll(dir, 0700); err != nil {
			return
		}

		dbInstance, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return
		}

		err = dbInstance.AutoMigrate(&CaptureRun{})
	})

	return dbInstance, err
}

// getDatabasePath returns the path to the database file
func getDatabasePath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".vericap", "vericap.db")
}

// CaptureRun records one orchestrator invocation
type CaptureRun struct {
	ID             string `gorm:"primaryKey"`
	Predicate      string `gorm:"index"`
	Format         string
	Status         string // verified, exhausted, failed
	Attempts       int
	WinningAttempt int
	FailedChecks   string // comma-separated strategy names from the last attempt
	OutputPath     string
	CreatedAt      int64 `gorm:"autoCreateTime"`
}

// BeforeCreate hook to generate UUID
func (r *CaptureRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	return nil
}

// SaveRun persists a capture run record
func SaveRun(run *CaptureRun) error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent capture runs, newest first
func ListRuns(limit int) ([]CaptureRun, error) {
	db, err := GetDB()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var runs []CaptureRun
	if err := db.Order("created_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// JoinChecks flattens failing strategy names for storage
func JoinChecks(checks []string) string {
	return strings.Join(checks, ",")
}
