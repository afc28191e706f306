// Package storage is the durable row store behind the snapshot: one
// sqlite table per entity type plus the sync outbox. All access goes
// through Store; the reducer and sync layers never hold a connection.
package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kairos-track/kairos/internal/model"
)

// Store wraps the sqlite database holding entity rows and the outbox.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the database at path and migrates the schema.
//
// The connection is configured the way a single-writer client needs:
// WAL for concurrent reads, a busy timeout for lock contention, and a
// single open connection so sqlite never reports SQLITE_BUSY to us.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a throwaway in-memory database. Test use.
func OpenMemory() (*Store, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	// Every pooled connection to :memory: would be its own database;
	// pin the pool to one so the schema and the data share a connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Workspace{},
		&model.Tag{},
		&model.Client{},
		&model.Project{},
		&model.Task{},
		&model.TimeEntry{},
		&model.User{},
		&model.WorkspaceUser{},
		&model.ProjectUser{},
		&outboxRow{},
	)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
