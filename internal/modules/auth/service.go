package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/biblia-chat/core/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	bcryptCost        = 10
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

var (
	ErrEmailRequired   = errors.New("Email and password are required.")
	ErrInvalidEmail    = errors.New("Invalid email format.")
	ErrPasswordTooWeak = errors.New("Password must be at least 6 characters long.")
	ErrEmailTaken      = errors.New("User with this email already exists.")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// validateCredentials mirrors the registration form's checks; it reports
// the first failure only.
func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooWeak
	}
	return nil
}

// Register validates the credentials, enforces email uniqueness and stores
// a bcrypt hash. No row is written when validation fails.
func (s *Service) Register(email, password, name string) (*models.UserModel, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{Email: email, Password: string(hash), Name: strings.TrimSpace(name)}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Authorize loads the user by email and compares the password hash. It
// returns (nil, nil) when the email is unknown, the account has no
// password hash (external-identity-only), or the password does not match;
// a non-nil error only signals a storage failure.
func (s *Service) Authorize(email, password string) (*models.UserModel, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil
	}

	var u models.UserModel
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if u.Password == "" {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, nil
	}
	return &u, nil
}
