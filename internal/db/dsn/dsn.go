// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/dirsync/dirsync/internal/config"
)

// ErrUnknownEngine is returned for a GormEngine that has no DSN format.
var ErrUnknownEngine = errors.New("unknown database engine")

// Create builds the Data Source Name for the configured engine.
// MySQL uses the go-sql-driver format, PostgreSQL a connection URL and
// SQLite the database file name.
func Create(db config.DB) (string, error) {
	switch db.GormEngine {
	case config.EngineMySQL:
		out := fmt.Sprintf("%s:%s@tcp(%s)/%s",
			db.User,
			db.Password,
			net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
			db.Name,
		)
		if db.Extras != "" {
			out += "?" + db.Extras
		}

		return out, nil
	case config.EnginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
			Path:     "/" + db.Name,
			RawQuery: db.Extras,
		}

		return u.String(), nil
	case config.EngineSQLite:
		return db.Name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, db.GormEngine)
	}
}
