package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// DefaultTokenTTL is how long a login token stays valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for a wrong username or password,
	// and for unknown or expired tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyField is returned when a username or password is blank.
	ErrEmptyField = errors.New("username and password are required")
	// ErrPasswordMismatch is returned when the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// User is a registered dashboard user.
type User struct {
	Username  string
	CreatedAt time.Time
}

// UserRepository registers and authenticates users.
type UserRepository struct {
	db   *sql.DB
	cost int
	ttl  time.Duration
	now  func() time.Time
}

// Users returns the user repository for this store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{db: s.db, cost: bcrypt.DefaultCost, ttl: DefaultTokenTTL, now: time.Now}
}

// Register creates a user. confirm must equal password.
func (r *UserRepository) Register(username, password, confirm string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyField
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	var exists int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Username: username, CreatedAt: r.now()}
	_, err = r.db.Exec(
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, string(hash), u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate reports whether password is correct for username.
func (r *UserRepository) Authenticate(username, password string) (bool, error) {
	var hash string
	err := r.db.QueryRow(
		`SELECT password_hash FROM users WHERE username = ?`,
		strings.TrimSpace(username),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates the user and issues a bearer token.
func (r *UserRepository) Login(username, password string) (string, error) {
	ok, err := r.Authenticate(username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	now := r.now()
	_, err = r.db.Exec(
		`INSERT INTO tokens (token, username, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, strings.TrimSpace(username), now, now.Add(r.ttl),
	)
	if err != nil {
		return "", err
	}

	return token, nil
}

// UserForToken returns the username a valid token was issued to.
func (r *UserRepository) UserForToken(token string) (string, error) {
	var (
		username  string
		expiresAt time.Time
	)
	err := r.db.QueryRow(
		`SELECT username, expires_at FROM tokens WHERE token = ?`,
		token,
	).Scan(&username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !r.now().Before(expiresAt) {
		return "", ErrInvalidCredentials
	}
	return username, nil
}

// Logout revokes token.
func (r *UserRepository) Logout(token string) error {
	_, err := r.db.Exec(`DELETE FROM tokens WHERE token = ?`, token)
	return err
}

// Get retrieves a user by name.
func (r *UserRepository) Get(username string) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(
		`SELECT username, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.Username, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
