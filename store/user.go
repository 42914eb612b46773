package store

import "github.com/pkg/errors"

// Sentinel errors surfaced by user operations.
var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// User is a registered account. Timestamps are UTC RFC 3339 strings, and
// the password is stored as a salted PBKDF2 digest.
type User struct {
	ID           string
	Email        string
	Name         string
	Picture      string
	Role         string
	Department   string
	PasswordSalt string
	PasswordHash string
	CreatedAt    string
	LastLoginAt  string
	UpdatedAt    string
}

// FindUser filters user lookups; exactly one field is set per call.
type FindUser struct {
	ID    string
	Email string
}

// UpdateUserLogin refreshes login bookkeeping for one user.
type UpdateUserLogin struct {
	ID          string
	LastLoginAt string
	UpdatedAt   string
}
