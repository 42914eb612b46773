package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysense/studysense/internal/profile"
	"github.com/studysense/studysense/store"
	"github.com/studysense/studysense/store/db/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	prof := &profile.Profile{Driver: "sqlite", DSN: ":memory:"}
	driver, err := sqlite.NewDB(prof)
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	st := store.New(driver, prof)
	require.NoError(t, st.Migrate(context.Background()))

	return NewService(st, "test-secret", 60)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada Lovelace", "Ada@Example.com", "correct-horse", "student", "CS")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.NotEmpty(t, user.ID)

	logged, err := svc.Authenticate(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "not-an-email", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "A", "ada@example.com", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrNameTooShort)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "short", "", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "correct-horse", "", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ada", "ADA@example.com", "another-pass", "", "")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "correct-horse", "", "")
	require.NoError(t, err)

	token, expiresIn, err := svc.CreateAccessToken(user)
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	verified, err := svc.VerifyAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, user.Email, verified.Email)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.VerifyAccessToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(svc.store, "different-secret", 60)
	user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "correct-horse", "", "")
	require.NoError(t, err)
	token, _, err := other.CreateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "correct-horse", "", "")
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.CreateAccessToken(user)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
