package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User is a person who can sign in. Users created through Google have no
// password hash and can only sign in through their linked account.
type User struct {
	BaseModel
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  *string    `json:"-"`
	Name          *string    `json:"name" gorm:"size:120"`
	Image         *string    `json:"image"`
	EmailVerified *time.Time `json:"email_verified"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Accounts []Account `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HasPassword reports whether the user can sign in with credentials
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// DisplayName returns the user's name or an empty string
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// Account links a user to an identity at an external OAuth provider
type Account struct {
	BaseModel
	UserID            string `json:"user_id" gorm:"not null;index"`
	Provider          string `json:"provider" gorm:"not null;uniqueIndex:idx_provider_account"`
	ProviderAccountID string `json:"provider_account_id" gorm:"not null;uniqueIndex:idx_provider_account"`
}

// Setting is a singleton row holding server-generated secrets.
// Only one row should exist.
type Setting struct {
	BaseModel
	SessionSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars, generated on first start
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Account{}, &Setting{})
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
