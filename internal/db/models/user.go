package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// ReservedUserID is the id of the first local account, the application
// administrator. It is never authenticated against or linked to the directory.
const ReservedUserID uint64 = 1

// AuthSource represents how a user account authenticates.
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceDirectory indicates the account was imported from Active Directory.
	AuthSourceDirectory AuthSource = "directory"
)

// User is a local user account of the host application.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is enabled and can log in.
	Active bool
	// DisabledReason explains why the account was disabled, empty while active.
	DisabledReason string `gorm:"size:255"`
	// Username is the unique login name, the sAMAccountName for directory accounts.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// DisplayName is the name shown in the application.
	DisplayName string `gorm:"size:255"`
	// UserPrincipalName is the directory UPN of an imported account.
	UserPrincipalName string `gorm:"size:255"`
	// ObjectGUID links the account to its directory object.
	ObjectGUID string `gorm:"size:36;index"`
	// DomainSID is the SID of the domain the account was imported from.
	DomainSID string `gorm:"size:184"`
	// AuthSource indicates how this user authenticates.
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
