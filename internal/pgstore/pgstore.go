// Package pgstore reads user records from an existing Postgres database laid
// out with Prisma's default naming: a "User" table with camelCase columns.
// It lets the credential sign-in serve users managed by another application.
// The store is read-only.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/gatehouse-dev/gatehouse/internal/auth"
	"github.com/gatehouse-dev/gatehouse/internal/models"
	"github.com/gatehouse-dev/gatehouse/internal/store"
)

const selectUser = `
	SELECT id, email, "hashedPassword", name, image, "emailVerified"
	FROM "User"
`

// Store wraps a PostgreSQL connection
type Store struct {
	db *sql.DB
}

var _ auth.UserDirectory = (*Store)(nil)

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping credential database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// FindUserByEmail looks up a user by exact email match
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, selectUser+`WHERE email = $1`, email)
}

// FindUserByID looks up a user by ID
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, selectUser+`WHERE id = $1`, id)
}

func (s *Store) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var (
		user          models.User
		passwordHash  sql.NullString
		name          sql.NullString
		image         sql.NullString
		emailVerified sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &passwordHash, &name, &image, &emailVerified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user.PasswordHash = nullable(passwordHash)
	user.Name = nullable(name)
	user.Image = nullable(image)
	if emailVerified.Valid {
		t := emailVerified.Time
		user.EmailVerified = &t
	}
	return &user, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
