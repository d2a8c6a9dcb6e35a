// Package store is the local user store: the accounts of the host
// application that directory identities are reconciled with.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dirsync/dirsync/internal/db/models"
	"github.com/dirsync/dirsync/internal/uniuri"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameEmpty is returned when creating a user without a name.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrUnknownMarker is returned for a marker that is not a linkage column.
	ErrUnknownMarker = errors.New("unknown marker")
)

// Marker names a column linking a local user to directory state.
type Marker string

const (
	// MarkerObjectGUID links a user to a directory object GUID.
	MarkerObjectGUID Marker = "object_guid"
	// MarkerDomainSID records the SID of the domain a user was imported from.
	MarkerDomainSID Marker = "domain_sid"
	// MarkerUserPrincipalName records the directory UPN.
	MarkerUserPrincipalName Marker = "user_principal_name"
)

func (m Marker) valid() bool {
	switch m {
	case MarkerObjectGUID, MarkerDomainSID, MarkerUserPrincipalName:
		return true
	default:
		return false
	}
}

// Identity is the state a directory import writes to a local user.
type Identity struct {
	Username          string
	Email             string
	FirstName         string
	LastName          string
	DisplayName       string
	UserPrincipalName string
	ObjectGUID        string
	DomainSID         string
	// Meta holds attribute values by meta key. Only the listed keys are written.
	Meta map[string]string
}

// Store persists local users with gorm.
type Store struct {
	db *gorm.DB
}

// New creates a store on top of db.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the tables used by the store.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.UserMeta{}, &models.Setting{})
}

// Get loads a user by id.
func (s *Store) Get(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}

	return &user, nil
}

// FindByUsername loads a user by login name. A missing user is (nil, nil).
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User

	err := s.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", username, err)
	}

	if len(users) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error here
	}

	return &users[0], nil
}

// FindUsersByMarker returns the users whose marker equals value.
func (s *Store) FindUsersByMarker(ctx context.Context, marker Marker, value string) ([]models.User, error) {
	if !marker.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarker, marker)
	}

	var users []models.User

	err := s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: string(marker)}, Value: value}).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query users by %s: %w", marker, err)
	}

	return users, nil
}

// LinkedUsers returns every user linked to a directory object.
func (s *Store) LinkedUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	err := s.db.WithContext(ctx).
		Where("object_guid <> ''").
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query linked users: %w", err)
	}

	return users, nil
}

// CreateUser inserts a directory imported user and returns its id.
// The account receives a random password so it cannot log in locally.
func (s *Store) CreateUser(ctx context.Context, identity Identity) (uint64, error) {
	if identity.Username == "" {
		return 0, ErrUsernameEmpty
	}

	user := models.User{
		Active:     true,
		Password:   models.HashPassword(uniuri.NewLen(uniuri.UUIDLen)),
		AuthSource: models.AuthSourceDirectory,
	}
	applyIdentity(&user, identity)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", identity.Username, err)
		}

		return setMeta(tx, user.ID, identity.Meta)
	})
	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// UpdateUser overwrites the directory sourced fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, id uint64, identity Identity) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		err := tx.First(&user, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", id, err)
		}

		applyIdentity(&user, identity)

		if err = tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to update user %d: %w", id, err)
		}

		return setMeta(tx, id, identity.Meta)
	})
}

// applyIdentity copies non-empty identity fields onto user. The GUID and
// domain markers are always written.
func applyIdentity(user *models.User, identity Identity) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&user.Username, identity.Username)
	set(&user.Email, identity.Email)
	set(&user.FirstName, identity.FirstName)
	set(&user.LastName, identity.LastName)
	set(&user.DisplayName, identity.DisplayName)
	set(&user.UserPrincipalName, identity.UserPrincipalName)

	user.ObjectGUID = identity.ObjectGUID
	user.DomainSID = identity.DomainSID
}

// SetEnabled enables or disables a user. reason is stored for disabled users.
func (s *Store) SetEnabled(ctx context.Context, id uint64, enabled bool, reason string) error {
	if enabled {
		reason = ""
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		err := tx.Select("id").First(&user, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load user %d: %w", id, err)
		}

		err = tx.Model(&user).
			Updates(map[string]any{"active": enabled, "disabled_reason": reason}).Error
		if err != nil {
			return fmt.Errorf("failed to set user %d enabled=%t: %w", id, enabled, err)
		}

		return nil
	})
}

// Meta returns the values stored under the given meta keys. Missing keys are absent from the map.
func (s *Store) Meta(ctx context.Context, id uint64, keys []string) (map[string]string, error) {
	var rows []models.UserMeta

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND meta_key IN ?", id, keys).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read meta of user %d: %w", id, err)
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.MetaKey] = r.Value
	}

	return out, nil
}

// SetMeta upserts meta values of a user.
func (s *Store) SetMeta(ctx context.Context, id uint64, values map[string]string) error {
	return setMeta(s.db.WithContext(ctx), id, values)
}

func setMeta(tx *gorm.DB, id uint64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	rows := make([]models.UserMeta, 0, len(values))
	for k, v := range values {
		rows = append(rows, models.UserMeta{UserID: id, MetaKey: k, Value: v})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to write meta of user %d: %w", id, err)
	}

	return nil
}
