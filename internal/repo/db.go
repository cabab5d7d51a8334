// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and development seed data.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, and
// registers the OpenTelemetry tracing plugin so queries show up as spans.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates every table the engine uses and fills the
// search column of submissions stored before it existed.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Form{},
		&domain.Submission{},
		&domain.Setting{},
		&domain.Idempotency{},
	); err != nil {
		return err
	}
	return backfillSearchText(db)
}

func backfillSearchText(db *gorm.DB) error {
	var batch []domain.Submission
	write := db.Session(&gorm.Session{NewDB: true})
	return db.Model(&domain.Submission{}).
		Select("id", "data").
		Where("search_text = '' AND data <> ''").
		FindInBatches(&batch, 500, func(*gorm.DB, int) error {
			for _, s := range batch {
				err := write.Model(&domain.Submission{}).Where("id = ?", s.ID).
					UpdateColumn("search_text", domain.FoldSearch(s.Data)).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}
