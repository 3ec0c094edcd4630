package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pvdmeer/babbel/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors surfaced to the handlers.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnknownUser       = errors.New("unknown user")
	ErrBadCredential     = errors.New("invalid password")
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, password string) (models.User, error)
	Authenticate(username, password string) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByUsername retrieves a single user, including the password hash.
func (s *UserService) GetUserByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUnknownUser
		}
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new account, hashing the password. The username column is
// UNIQUE, so a concurrent registration that slips past the existence check
// still fails on insert; both paths report ErrDuplicateUsername.
func (s *UserService) Register(username, password string) (models.User, error) {
	if _, err := s.GetUserByUsername(username); err == nil {
		return models.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, ErrUnknownUser) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, password_hash) VALUES(?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Username, user.PasswordHash); err != nil {
		// Lost the race against a concurrent insert of the same name.
		if _, lookupErr := s.GetUserByUsername(username); lookupErr == nil {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrBadCredential
	}

	// Don't hand the password hash to callers.
	user.PasswordHash = ""
	return user, nil
}
