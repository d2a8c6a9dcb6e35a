package config

import (
	"time"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode    bool       `toml:"devMode"` // enable dev mode for development
	Title      string     `toml:"title"`
	DB         DB         `toml:"db"`
	Log        logger.Log `toml:"log"`
	Directory  Directory  `toml:"directory"`
	Auth       Auth       `toml:"auth"`
	Sync       Sync       `toml:"sync"`
	Attributes Attributes `toml:"attributes"`
}

// Directory holds the connection settings of the directory.
type Directory struct {
	BaseDN          string   `toml:"baseDN"          validate:"required"`
	Servers         []string `toml:"servers"         validate:"required,min=1,dive,required"`
	Port            int      `toml:"port"            validate:"gte=0,lte=65535"`
	Encryption      string   `toml:"encryption"      validate:"omitempty,oneof=none starttls ldaps"`
	Timeout         int      `toml:"timeout"         validate:"gte=0"` // seconds
	AllowSelfSigned bool     `toml:"allowSelfSigned"`
	// ServiceUser binds for sync runs, as user@suffix or DOMAIN\user.
	ServiceUser     string `toml:"serviceUser"`
	ServicePassword string `toml:"servicePassword"` //nolint:gosec // configuration value
	// DomainSID is the SID of the domain users are imported from.
	DomainSID string `toml:"domainSID"`
}

// Params converts the settings into directory connection parameters.
func (d Directory) Params() (directory.Params, error) {
	enc, err := directory.ParseEncryption(d.Encryption)
	if err != nil {
		return directory.Params{}, err
	}

	return directory.Params{
		BaseDN:          d.BaseDN,
		Servers:         d.Servers,
		Port:            d.Port,
		Encryption:      enc,
		Timeout:         time.Duration(d.Timeout) * time.Second,
		AllowSelfSigned: d.AllowSelfSigned,
	}, nil
}

// Auth holds the login settings.
type Auth struct {
	Enabled bool `toml:"enabled"`
	// Suffixes are the UPN suffixes tried for logins without a known suffix, in order.
	Suffixes []string `toml:"suffixes"`
	// Excluded logins never authenticate against the directory.
	Excluded []string `toml:"excluded"`
	// FailureBlock is how many seconds a failed login stays blocked.
	FailureBlock int `toml:"failureBlock" validate:"gte=0"`
}

// Sync holds the settings of both synchronization directions.
type Sync struct {
	ImportEnabled  bool   `toml:"importEnabled"`
	ExportEnabled  bool   `toml:"exportEnabled"`
	Groups         string `toml:"groups"` // ";" separated, "id:<n>" for primary groups
	ImportDisabled bool   `toml:"importDisabled"`
	AutoDeactivate bool   `toml:"autoDeactivate"`
	MinRunTime     int    `toml:"minRunTime" validate:"gte=0"` // seconds
}

// Attributes holds the attribute conversion settings.
type Attributes struct {
	// GMTOffset in hours applied to time and timestamp attributes.
	GMTOffset float64            `toml:"gmtOffset" validate:"gte=-12,lte=14"`
	Custom    []attribute.Custom `toml:"custom"    validate:"dive"`
}
