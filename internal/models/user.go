package models

import "time"

// UserModel represents a registered reader account.
// Password is empty for accounts created through an external identity
// provider; such accounts cannot sign in with credentials.
type UserModel struct {
	Base
	Email         string     `json:"email"          gorm:"uniqueIndex;not null"`
	Password      string     `json:"-"`
	Name          string     `json:"name"`
	Image         string     `json:"image"`
	EmailVerified *time.Time `json:"email_verified"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }
