// Package models contains database model definitions.
package models

// Setting is a named, JSON encoded configuration value stored in the database.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique"`
	Value []byte
}
