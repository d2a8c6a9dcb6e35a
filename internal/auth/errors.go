package auth

import "errors"

var (
	// ErrRejected is returned for every failed login. It does not tell which check failed.
	ErrRejected = errors.New("authentication failed")

	// ErrLogoutInProgress is returned when a login is attempted on a context marked by WithLogout.
	// It is not a failure and is never cached.
	ErrLogoutInProgress = errors.New("logout in progress")

	// ErrDisabled is returned by New when directory authentication is disabled via configuration.
	ErrDisabled = errors.New("directory authentication is disabled")
)
