package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialflow/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// blobRecord is the single row the collection is stored in. Mirroring the
// original key-value layout keeps the gorm backend interchangeable with the
// redis one.
type blobRecord struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

// TableName overrides gorm's pluralized default.
func (blobRecord) TableName() string { return "post_blobs" }

// GormPersistence stores the collection blob in a relational database:
// SQLite for a local-file deployment, PostgreSQL for shared ones.
type GormPersistence struct {
	db  *gorm.DB
	key string
}

// OpenSQLite opens (or creates) a local SQLite database file.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// OpenPostgres connects to PostgreSQL with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// NewGormPersistence migrates the blob table and returns a Persistence bound
// to the given database. An empty key falls back to BlobKey.
func NewGormPersistence(db *gorm.DB, key string) (*GormPersistence, error) {
	if key == "" {
		key = BlobKey
	}
	if err := db.AutoMigrate(&blobRecord{}); err != nil {
		return nil, fmt.Errorf("migrate post_blobs: %w", err)
	}
	return &GormPersistence{db: db, key: key}, nil
}

// Load implements Persistence. A missing row is an empty collection.
func (g *GormPersistence) Load(ctx context.Context) ([]models.Post, error) {
	var rec blobRecord
	err := g.db.WithContext(ctx).First(&rec, "key = ?", g.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load posts blob: %w", err)
	}

	var posts []models.Post
	if err := json.Unmarshal(rec.Value, &posts); err != nil {
		return nil, fmt.Errorf("decode posts blob: %w", err)
	}
	return posts, nil
}

// Save implements Persistence via an upsert on the fixed key.
func (g *GormPersistence) Save(ctx context.Context, posts []models.Post) error {
	blob, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode posts blob: %w", err)
	}

	rec := blobRecord{Key: g.key, Value: blob, UpdatedAt: time.Now().UTC()}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save posts blob: %w", err)
	}
	return nil
}
