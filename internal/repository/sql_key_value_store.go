package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLKeyValueStore persists keys in the kv_entries table
type SQLKeyValueStore struct {
	db *gorm.DB
}

// NewSQLKeyValueStore creates a new SQLKeyValueStore
func NewSQLKeyValueStore(db *gorm.DB) *SQLKeyValueStore {
	return &SQLKeyValueStore{db: db}
}

func (r *SQLKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry domain.KeyValueEntry
	err := r.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (r *SQLKeyValueStore) Set(ctx context.Context, key, value string) error {
	return r.SetMany(ctx, map[string]string{key: value})
}

// SetMany upserts all keys inside one transaction
func (r *SQLKeyValueStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			entry := domain.KeyValueEntry{Key: key, Value: value, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "entry_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
			}).Create(&entry).Error
			if err != nil {
				return fmt.Errorf("failed to write key %s: %w", key, err)
			}
		}
		return nil
	})
}

func (r *SQLKeyValueStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&domain.KeyValueEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
