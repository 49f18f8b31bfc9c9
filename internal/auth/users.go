// internal/auth/users.go
//
// Credential checks against the `users` table.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown email and wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is a row of `users` without the password hash.
type User struct {
	ID    string `db:"id"    json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name"  json:"name"`
	Role  string `db:"role"  json:"role"`
}

// Actor converts u into the request actor.
func (u User) Actor() Actor { return Actor{ID: u.ID, Role: u.Role} }

// Users looks up and authenticates admin-panel accounts.
type Users struct {
	db *sqlx.DB
}

func NewUsers(db *sqlx.DB) *Users { return &Users{db: db} }

// Authenticate returns the user for email when password matches its bcrypt
// hash.
func (s *Users) Authenticate(ctx context.Context, email, password string) (User, error) {
	var row struct {
		User
		Hash string `db:"password_hash"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT id, email, name, role, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return row.User, nil
}

// HashPassword returns a bcrypt hash suitable for users.password_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
