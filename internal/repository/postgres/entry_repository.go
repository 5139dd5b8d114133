package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"namespaced-cache/internal/domain"
	"namespaced-cache/internal/repository"
)

// upsertColumns are overwritten when a key already exists
var upsertColumns = []string{"value", "expires_at", "updated_at"}

// entryRepository implements the EntryRepository interface for PostgreSQL
type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository creates a new PostgreSQL entry repository
func NewEntryRepository(db *gorm.DB) repository.EntryRepository {
	return &entryRepository{db: db}
}

// Migrate creates or updates the cache_entries table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Entry{})
}

// Upsert inserts an entry or replaces the value and expiry of an existing key
// Uses INSERT ... ON CONFLICT so concurrent writers never see a missing row
func (r *entryRepository) Upsert(ctx context.Context, entry *domain.Entry) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(entry)

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// UpsertMany writes all entries in one batch insert
func (r *entryRepository) UpsertMany(ctx context.Context, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(&entries)

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// Find retrieves a live entry by key
// Returns ErrEntryNotFound if the key doesn't exist or has expired
func (r *entryRepository) Find(ctx context.Context, key string, now time.Time) (*domain.Entry, error) {
	var entry domain.Entry

	result := live(r.db.WithContext(ctx), now).
		Where("key = ?", key).
		First(&entry)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &entry, nil
}

// FindMany retrieves the live entries among keys in one query
func (r *entryRepository) FindMany(ctx context.Context, keys []string, now time.Time) ([]*domain.Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var entries []*domain.Entry
	result := live(r.db.WithContext(ctx), now).
		Where("key IN ?", keys).
		Find(&entries)

	if result.Error != nil {
		return nil, domain.NewInternalError(result.Error)
	}

	return entries, nil
}

// Exists checks if a live entry exists without loading its value
func (r *entryRepository) Exists(ctx context.Context, key string, now time.Time) (bool, error) {
	var count int64

	result := live(r.db.WithContext(ctx).Model(&domain.Entry{}), now).
		Where("key = ?", key).
		Count(&count)

	if result.Error != nil {
		return false, domain.NewInternalError(result.Error)
	}

	return count > 0, nil
}

// Delete removes an entry; deleting an absent key is not an error
func (r *entryRepository) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&domain.Entry{})

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// DeleteExpired removes all entries that have passed their expiration time
// This should be called periodically by a cleanup job
func (r *entryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&domain.Entry{})

	if result.Error != nil {
		return 0, domain.NewInternalError(result.Error)
	}

	return result.RowsAffected, nil
}

// live restricts a query to entries that have not expired at now
func live(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("expires_at IS NULL OR expires_at > ?", now)
}
