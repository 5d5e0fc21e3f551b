package repository

import (
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"gorm.io/datatypes"
)

type userRow struct {
	ID        string                      `gorm:"primaryKey;type:varchar(36)"`
	Email     string                      `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string                      `gorm:"type:varchar(255);not null"`
	Name      string                      `gorm:"type:varchar(100);not null"`
	Role      string                      `gorm:"type:varchar(20);not null;default:user"`
	IsActive  bool                        `gorm:"not null;default:true"`
	FcmTokens datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *model.User) *userRow {
	targets := u.PushTargets
	if targets == nil {
		targets = []string{}
	}
	return &userRow{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		FcmTokens: datatypes.NewJSONSlice(targets),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.Password,
		Name:         r.Name,
		Role:         model.Role(r.Role),
		IsActive:     r.IsActive,
		PushTargets:  []string(r.FcmTokens),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type tokenRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_tokens_user_type;not null"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	Type      string    `gorm:"type:varchar(20);index:idx_tokens_user_type;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	IsValid   bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (tokenRow) TableName() string { return "tokens" }

func newTokenRow(r *model.TokenRecord) *tokenRow {
	return &tokenRow{
		ID:        r.ID,
		UserID:    r.UserID,
		Token:     r.Token,
		Type:      string(r.Kind),
		ExpiresAt: r.ExpiresAt,
		IsValid:   r.Valid,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *tokenRow) toModel() *model.TokenRecord {
	return &model.TokenRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		Token:     r.Token,
		Kind:      model.TokenKind(r.Type),
		ExpiresAt: r.ExpiresAt,
		Valid:     r.IsValid,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GormModels lists the row types for database.AutoMigrate.
func GormModels() []any {
	return []any{&userRow{}, &tokenRow{}}
}
