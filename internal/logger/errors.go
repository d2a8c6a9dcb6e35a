package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when [log] appName is missing.
	ErrAppNameIsEmpty = errors.New("log.appName is required, it is logged as the app field")

	// ErrServiceNameIsEmpty is returned when [log] serviceName is missing.
	ErrServiceNameIsEmpty = errors.New("log.serviceName is required, it labels dirsync_log_statements_total")

	// ErrLogPathIsEmpty is returned when file logging is enabled without [log.file] path.
	ErrLogPathIsEmpty = errors.New("log.file.path is required when file logging is enabled")
)

// ErrorHandler reports events zerolog could not write to stderr, as the
// writers themselves may be the broken part.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "dirsync: dropped log event: %v\n", err)
}
