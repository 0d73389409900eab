package domain

import (
	"strings"
	"time"
)

// LocalSubjectPrefix marks accounts created with email and password. Every other
// provider subject belongs to an OAuth identity (Google/Firebase).
const LocalSubjectPrefix = "local_"

// MinPasswordLength is enforced on registration and password reset.
const MinPasswordLength = 8

// User is the credential record. Email and provider subject are both unique.
type User struct {
	UserID       uint      `json:"userId" gorm:"column:user_id;primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"column:email;size:255;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"column:name;size:255"`
	PhotoURL     *string   `json:"photoURL" gorm:"column:photo_url;size:512"`
	FirebaseUID  string    `json:"-" gorm:"column:firebase_uid;size:255;uniqueIndex;not null"`
	PasswordHash *string   `json:"-" gorm:"column:password_hash;size:255"`
	AppVersion   string    `json:"appVersion" gorm:"column:app_version;size:1;default:F"`
	CreatedAt    time.Time `json:"created" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated" gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// IsLocal reports whether the account signs in with a password rather than OAuth.
func (u *User) IsLocal() bool { return strings.HasPrefix(u.FirebaseUID, LocalSubjectPrefix) }

// LocalSubject builds the provider subject stored for password accounts.
func LocalSubject(email string) string { return LocalSubjectPrefix + email }

// NormalizeEmail lowercases and trims an email address for lookups and keys.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

type UpdateUserRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=255"`
}
