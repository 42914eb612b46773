// Package auth implements account registration, password login, and JWT
// issuance. Passwords are stored as salted PBKDF2-SHA256 digests and
// tokens are HS256-signed.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/studysense/studysense/store"
)

const pbkdf2Iterations = 210000

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Errors the router maps onto HTTP statuses.
var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrNameTooShort       = errors.New("name must be at least 2 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired auth token")
)

// User is the public account view returned to clients.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// Service handles registration, login, and token verification.
type Service struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewService builds the auth service. expMinutes bounds token lifetime;
// a non-positive value defaults to 12 hours.
func NewService(st *store.Store, jwtSecret string, expMinutes int) *Service {
	if expMinutes <= 0 {
		expMinutes = 12 * 60
	}
	return &Service{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(expMinutes) * time.Minute,
		now:       time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func hashPassword(password string, salt []byte) (saltB64, hashB64 string) {
	digest := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, sha256.Size, sha256.New)
	return base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(digest)
}

func verifyPassword(password, saltB64, hashB64 string) bool {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, sha256.Size, sha256.New)
	return hmac.Equal(candidate, expected)
}

func toPublicUser(user *store.User) User {
	return User{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Picture:     user.Picture,
		Role:        user.Role,
		Department:  user.Department,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

func clip(value string, maxChars int) string {
	value = strings.TrimSpace(value)
	if len(value) > maxChars {
		return value[:maxChars]
	}
	return value
}

// Register creates a new account. A duplicate email surfaces as
// store.ErrEmailExists.
func (s *Service) Register(ctx context.Context, name, email, password, role, department string) (User, error) {
	normalizedEmail, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	normalizedName := strings.TrimSpace(name)
	if len(normalizedName) < 2 {
		return User{}, ErrNameTooShort
	}
	if len(password) < 8 {
		return User{}, ErrPasswordTooShort
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return User{}, errors.Wrap(err, "failed to generate salt")
	}
	saltB64, hashB64 := hashPassword(password, salt)

	nowISO := s.now().UTC().Format(time.RFC3339)
	created, err := s.store.CreateUser(ctx, &store.User{
		ID:           uuid.NewString(),
		Email:        normalizedEmail,
		Name:         normalizedName,
		Role:         clip(role, 80),
		Department:   clip(department, 120),
		PasswordSalt: saltB64,
		PasswordHash: hashB64,
		CreatedAt:    nowISO,
		LastLoginAt:  nowISO,
		UpdatedAt:    nowISO,
	})
	if err != nil {
		return User{}, err
	}
	return toPublicUser(created), nil
}

// Authenticate verifies email and password, refreshing the last-login
// timestamp on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	normalizedEmail, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}

	user, err := s.store.GetUser(ctx, &store.FindUser{Email: normalizedEmail})
	if errors.Is(err, store.ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !verifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}

	nowISO := s.now().UTC().Format(time.RFC3339)
	if err := s.store.UpdateUserLogin(ctx, &store.UpdateUserLogin{
		ID: user.ID, LastLoginAt: nowISO, UpdatedAt: nowISO,
	}); err != nil {
		return User{}, err
	}
	user.LastLoginAt = nowISO
	return toPublicUser(user), nil
}

// CreateAccessToken issues an HS256 token for the user and returns it
// with its lifetime in seconds.
func (s *Service) CreateAccessToken(user User) (string, int, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":     user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"picture": user.Picture,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to sign token")
	}
	return token, int(s.tokenTTL.Seconds()), nil
}

// VerifyAccessToken validates the token and resolves its account.
func (s *Service) VerifyAccessToken(ctx context.Context, tokenText string) (User, error) {
	parsed, err := jwt.Parse(tokenText, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return User{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, ErrInvalidToken
	}
	userID, _ := claims["sub"].(string)
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, &store.FindUser{ID: userID})
	if errors.Is(err, store.ErrUserNotFound) {
		return User{}, ErrInvalidToken
	}
	if err != nil {
		return User{}, err
	}
	return toPublicUser(user), nil
}
