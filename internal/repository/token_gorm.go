package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTokenStore keeps refresh-token records in PostgreSQL. There is no TTL
// index: expired rows are filtered on read and removed by PurgeExpired.
type GormTokenStore struct {
	db *gorm.DB
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db}
}

func (r *GormTokenStore) Insert(ctx context.Context, record *model.TokenRecord) error {
	return r.insert(r.db.WithContext(ctx), record)
}

func (r *GormTokenStore) insert(tx *gorm.DB, record *model.TokenRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	stamp(&record.CreatedAt, &record.UpdatedAt)
	return wrapGormError(tx.Create(newTokenRow(record)).Error)
}

// Rotate serializes rotations per user with a transaction-scoped advisory lock.
func (r *GormTokenStore) Rotate(ctx context.Context, record *model.TokenRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", record.UserID).Error; err != nil {
			return err
		}
		if _, err := r.invalidateAll(tx, record.UserID, record.Kind); err != nil {
			return err
		}
		return r.insert(tx, record)
	})
}

func (r *GormTokenStore) InvalidateAllValid(ctx context.Context, userID string, kind model.TokenKind) (int64, error) {
	return r.invalidateAll(r.db.WithContext(ctx), userID, kind)
}

func (r *GormTokenStore) invalidateAll(tx *gorm.DB, userID string, kind model.TokenKind) (int64, error) {
	res := tx.Model(&tokenRow{}).
		Where("user_id = ? AND type = ? AND is_valid = ?", userID, string(kind), true).
		Updates(map[string]any{"is_valid": false, "updated_at": time.Now().UTC()})
	return res.RowsAffected, wrapGormError(res.Error)
}

func (r *GormTokenStore) FindValid(ctx context.Context, token string, kind model.TokenKind, now time.Time) (*model.TokenRecord, error) {
	var row tokenRow
	err := r.db.WithContext(ctx).
		Where("token = ? AND type = ? AND is_valid = ? AND expires_at > ?", token, string(kind), true, now).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *GormTokenStore) InvalidateByToken(ctx context.Context, token string, kind model.TokenKind) error {
	err := r.db.WithContext(ctx).Model(&tokenRow{}).
		Where("token = ? AND type = ? AND is_valid = ?", token, string(kind), true).
		Updates(map[string]any{"is_valid": false, "updated_at": time.Now().UTC()}).Error
	return wrapGormError(err)
}

// PurgeExpired deletes rows whose expiry has passed.
func (r *GormTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&tokenRow{})
	return res.RowsAffected, res.Error
}
