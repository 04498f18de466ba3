package db

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to SQLite at dsn and migrates the schema. The default DSN
// is a shared-cache in-memory database, so the data still lives and dies
// with the process.
func Open(dsn string) (*gorm.DB, error) {
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// A single connection keeps an in-memory database alive and serializes
	// writes so seq order equals append order.
	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := d.AutoMigrate(&DeletionRequest{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return d, nil
}

// GormStore is a Store backed by a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already migrated connection.
func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) Append(ctx context.Context, req DeletionRequest) error {
	req.Seq = 0
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return fmt.Errorf("failed to create deletion request: %w", err)
	}
	return nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]DeletionRequest, error) {
	var requests []DeletionRequest
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list deletion requests: %w", err)
	}
	return requests, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
