package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gatehouse-dev/gatehouse/internal/assert"
	"github.com/gatehouse-dev/gatehouse/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrAccountNotLinked = errors.New("email belongs to an account signed up with another method")
)

const sessionSecretLength = 64

// NewUser holds the fields needed to create a user
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
}

// OAuthProfile is the identity returned by an external provider after a
// successful sign-in.
type OAuthProfile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	Image             string
}

// Store reads and writes users through gorm
type Store struct {
	db *gorm.DB
}

// New creates a store on top of an open database handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindUserByEmail looks up a user by exact email match
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUserByID looks up a user by ID
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := models.FindByID(s.db.WithContext(ctx), id, &user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CreateUser inserts a user. Email uniqueness is checked up front so callers
// get ErrEmailTaken rather than a driver-specific constraint error.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	user := &models.User{Email: in.Email}
	if in.Name != "" {
		user.Name = &in.Name
	}
	if in.PasswordHash != "" {
		user.PasswordHash = &in.PasswordHash
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateName sets the user's display name and returns the updated record
func (s *Store) UpdateName(ctx context.Context, id, name string) (*models.User, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindUserByID(ctx, id)
}

// SetPasswordHash replaces the user's password hash
func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertOAuthUser returns the user linked to the provider account, creating
// the user and the link on first sign-in. An existing user with the same email
// but no link is never linked automatically.
func (s *Store) UpsertOAuthUser(ctx context.Context, p OAuthProfile) (*models.User, error) {
	if p.Provider == "" || p.ProviderAccountID == "" || p.Email == "" {
		return nil, fmt.Errorf("incomplete oauth profile for provider %q", p.Provider)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.Where("provider = ? AND provider_account_id = ?", p.Provider, p.ProviderAccountID).
			First(&account).Error
		if err == nil {
			return models.FindByID(tx, account.UserID, &user)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", p.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAccountNotLinked
		}

		user = models.User{Email: p.Email}
		if name := strings.TrimSpace(p.Name); name != "" {
			user.Name = &name
		}
		if p.Image != "" {
			user.Image = &p.Image
		}
		if p.EmailVerified {
			now := time.Now().UTC()
			user.EmailVerified = &now
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		return tx.Create(&models.Account{
			UserID:            user.ID,
			Provider:          p.Provider,
			ProviderAccountID: p.ProviderAccountID,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotLinked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to upsert oauth user: %w", translate(err))
	}
	return &user, nil
}

// SessionSecret returns the persisted session-signing secret, generating and
// storing one on first use (64 hex characters = 32 bytes of randomness).
func (s *Store) SessionSecret(ctx context.Context) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting).Error
	if err == nil {
		assert.Length("session secret", setting.SessionSecret, sessionSecretLength)
		return setting.SessionSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}

	setting = models.Setting{SessionSecret: hex.EncodeToString(secretBytes)}
	assert.Length("session secret", setting.SessionSecret, sessionSecretLength)
	if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to persist session secret: %w", err)
	}
	return setting.SessionSecret, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
