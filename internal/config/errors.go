package config

import (
	"errors"
)

var (
	// ErrServiceAccountRequired error if a sync direction is enabled without a service account.
	ErrServiceAccountRequired = errors.New("toml config directory.serviceUser and directory.servicePassword are required for sync")

	// ErrDomainSIDRequired error if the import is enabled without a domain SID.
	ErrDomainSIDRequired = errors.New("toml config directory.domainSID is required for import")
)
