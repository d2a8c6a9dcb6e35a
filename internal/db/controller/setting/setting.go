// Package setting persists named configuration values in the database.
package setting

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"

	// KeyCustomAttributes holds the admin-defined attribute definitions as JSON.
	KeyCustomAttributes = "custom_attributes"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when a setting name is empty.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var s models.Setting

	if err := db.Where(nameQueryPattern, name).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, err
	}

	return &s, nil
}

// Set creates or replaces a setting.
func Set(db *gorm.DB, name string, value []byte) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Name: name, Value: value}).Error
}

// Delete removes a setting by name.
func Delete(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// LoadCustomAttributes reads the admin-defined attribute definitions.
// No stored definitions is not an error.
func LoadCustomAttributes(db *gorm.DB) ([]attribute.Custom, error) {
	s, err := Get(db, KeyCustomAttributes)
	if errors.Is(err, ErrSettingNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var custom []attribute.Custom
	if err = json.Unmarshal(s.Value, &custom); err != nil {
		return nil, fmt.Errorf("invalid %s setting: %w", KeyCustomAttributes, err)
	}

	return custom, nil
}

// SaveCustomAttributes stores the admin-defined attribute definitions.
func SaveCustomAttributes(db *gorm.DB, custom []attribute.Custom) error {
	data, err := json.Marshal(custom)
	if err != nil {
		return err
	}

	return Set(db, KeyCustomAttributes, data)
}
