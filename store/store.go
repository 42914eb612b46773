package store

import (
	"context"

	"github.com/studysense/studysense/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) UpdateUserLogin(ctx context.Context, update *UpdateUserLogin) error {
	return s.driver.UpdateUserLogin(ctx, update)
}
