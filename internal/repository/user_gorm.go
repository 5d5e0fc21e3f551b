package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func wrapGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (r *GormUserStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormUserStore) find(ctx context.Context, column, value string) (*model.User, error) {
	ctx = ctxutil.NewContextWithRequest(ctx, "repository", "FindUser")

	start := time.Now()
	var row userRow
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error
	logger.LogDatabase("select", row.TableName(), time.Since(start).Milliseconds())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get user").
			String("by", column).
			Err(err).
			Log()
		return nil, err
	}
	return row.toModel(), nil
}

func (r *GormUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(ctx, "email", email)
}

func (r *GormUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return r.find(ctx, "id", id)
}

func (r *GormUserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.NewString()
	stamp(&user.CreatedAt, &user.UpdatedAt)

	if err := r.db.WithContext(ctx).Create(newUserRow(user)).Error; err != nil {
		user.ID = ""
		return wrapGormError(err)
	}
	return nil
}

func (r *GormUserStore) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&count).Error
	return count > 0, wrapGormError(err)
}

func (r *GormUserStore) AddPushTarget(ctx context.Context, userID, target string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&row).Error; err != nil {
			return wrapGormError(err)
		}
		for _, t := range row.FcmTokens {
			if t == target {
				return nil
			}
		}
		row.FcmTokens = append(row.FcmTokens, target)
		return tx.Model(&row).Updates(map[string]any{
			"fcm_tokens": row.FcmTokens,
			"updated_at": time.Now().UTC(),
		}).Error
	})
}
