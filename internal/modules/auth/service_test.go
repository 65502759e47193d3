package auth

import (
	"fmt"
	"testing"

	"github.com/biblia-chat/core/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.UserModel{}, &models.UserSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db)
}

func userCount(t *testing.T, svc *Service) int64 {
	t.Helper()
	var count int64
	if err := svc.db.Model(&models.UserModel{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	return count
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"missing email", "", "secret123", ErrEmailRequired},
		{"missing password", "a@b.co", "", ErrEmailRequired},
		{"malformed email", "not-an-email", "secret123", ErrInvalidEmail},
		{"email without dot", "a@b", "secret123", ErrInvalidEmail},
		{"short password", "a@b.co", "12345", ErrPasswordTooWeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			u, err := svc.Register(tt.email, tt.password, "")
			if err != tt.wantErr {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if u != nil {
				t.Error("no user should be returned")
			}
			if n := userCount(t, svc); n != 0 {
				t.Errorf("user rows = %d, want 0 (validation must not insert)", n)
			}
		})
	}
}

func TestRegisterStoresBcryptHash(t *testing.T) {
	svc := newTestService(t)
	u, err := svc.Register("reader@biblia.chat", "secret123", "Reader")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Password == "secret123" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Register("reader@biblia.chat", "secret123", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register("reader@biblia.chat", "other-pass", ""); err != ErrEmailTaken {
		t.Errorf("duplicate Register() error = %v, want ErrEmailTaken", err)
	}
	if n := userCount(t, svc); n != 1 {
		t.Errorf("user rows = %d, want 1", n)
	}
}

func TestAuthorize(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Register("reader@biblia.chat", "secret123", "Reader"); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Authorize("reader@biblia.chat", "secret123")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if u == nil || u.Email != "reader@biblia.chat" {
		t.Fatalf("user = %+v", u)
	}

	if u, _ := svc.Authorize("reader@biblia.chat", "wrong-pass"); u != nil {
		t.Error("wrong password should not authorize")
	}
	if u, _ := svc.Authorize("unknown@biblia.chat", "secret123"); u != nil {
		t.Error("unknown email should not authorize")
	}
}

func TestAuthorizeRejectsPasswordlessAccount(t *testing.T) {
	svc := newTestService(t)
	external := models.UserModel{Email: "oauth@biblia.chat"}
	if err := svc.db.Create(&external).Error; err != nil {
		t.Fatal(err)
	}

	u, err := svc.Authorize("oauth@biblia.chat", "anything")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if u != nil {
		t.Error("account without a password hash must not authorize")
	}
}
