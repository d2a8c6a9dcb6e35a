// Package daemon wires configuration, database, directory client and the
// synchronization and authentication engines together.
package daemon

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/auth"
	"github.com/dirsync/dirsync/internal/config"
	"github.com/dirsync/dirsync/internal/db/controller/setting"
	"github.com/dirsync/dirsync/internal/db/dsn"
	"github.com/dirsync/dirsync/internal/db/store"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/hook"
	"github.com/dirsync/dirsync/internal/logger/adapter/stdlogger"
	"github.com/dirsync/dirsync/internal/lookup"
	"github.com/dirsync/dirsync/internal/sync"
)

// ErrConfigNil is returned by New without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon holds the wired components of one process.
type Daemon struct {
	cfg      config.Config
	db       *gorm.DB
	store    *store.Store
	lookup   *lookup.Service
	client   directory.Client
	hooks    *hook.Registry
	failures auth.FailureCache
}

// New opens and migrates the database and builds the engines' collaborators.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, connectionURI, err := open(cfg.DB)
	if err != nil {
		return nil, err
	}

	st, err := store.New(db)
	if err != nil {
		return nil, err
	}

	if err = st.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err = seed(db); err != nil {
		return nil, err
	}

	stored, err := setting.LoadCustomAttributes(db)
	if err != nil {
		return nil, err
	}

	// stored definitions come last and replace file definitions of the same name
	custom := append(append([]attribute.Custom{}, cfg.Attributes.Custom...), stored...)

	hooks := hook.New()

	ldap.Logger(stdlogger.New("ldap", zerolog.DebugLevel))

	return &Daemon{
		cfg:      *cfg,
		db:       db,
		store:    st,
		lookup:   lookup.New(attribute.NewSchema(custom), attribute.NewConverter(cfg.Attributes.GMTOffset), hooks),
		client:   directory.NewLDAPClient(cfg.DevMode),
		hooks:    hooks,
		failures: failureCache(cfg.DB.GormEngine, connectionURI),
	}, nil
}

// open connects gorm with the driver of the configured engine.
func open(cfg config.DB) (*gorm.DB, string, error) {
	connectionURI, err := dsn.Create(cfg)
	if err != nil {
		return nil, "", err
	}

	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(connectionURI)
	case config.EnginePostgres:
		dialector = gormpostgres.Open(connectionURI)
	default:
		dialector = sqlite.Open(connectionURI)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect database: %w", err)
	}

	log.Debug().Str("engine", cfg.GormEngine).Str("name", cfg.Name).Msg("database connected")

	return db, connectionURI, nil
}

// failureCache shares the login failure markers through the database when it is a server.
func failureCache(engine, connectionURI string) auth.FailureCache {
	switch engine {
	case config.EngineMySQL:
		return auth.NewMySQLCache(connectionURI)
	case config.EnginePostgres:
		return auth.NewPostgresCache(connectionURI)
	default:
		return auth.NewMemoryCache()
	}
}

// Hooks returns the extension point registry shared by all engines.
func (d *Daemon) Hooks() *hook.Registry {
	return d.hooks
}

// Store returns the local user store.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// SyncConfig builds the configuration snapshot of a sync run.
func (d *Daemon) SyncConfig() (sync.Config, error) {
	params, err := d.cfg.Directory.Params()
	if err != nil {
		return sync.Config{}, err
	}

	return sync.Config{
		ImportEnabled:   d.cfg.Sync.ImportEnabled,
		ExportEnabled:   d.cfg.Sync.ExportEnabled,
		Params:          params,
		ServiceUser:     d.cfg.Directory.ServiceUser,
		ServicePassword: d.cfg.Directory.ServicePassword,
		DomainSID:       d.cfg.Directory.DomainSID,
		Groups:          d.cfg.Sync.Groups,
		ImportDisabled:  d.cfg.Sync.ImportDisabled,
		AutoDeactivate:  d.cfg.Sync.AutoDeactivate,
		MinRunTime:      time.Duration(d.cfg.Sync.MinRunTime) * time.Second,
	}, nil
}

// Importer returns the directory to local engine.
func (d *Daemon) Importer() (*sync.Importer, error) {
	cfg, err := d.SyncConfig()
	if err != nil {
		return nil, err
	}

	return sync.NewImporter(cfg, d.client, d.store, d.lookup, d.hooks), nil
}

// Exporter returns the local to directory engine.
func (d *Daemon) Exporter() (*sync.Exporter, error) {
	cfg, err := d.SyncConfig()
	if err != nil {
		return nil, err
	}

	return sync.NewExporter(cfg, d.client, d.store, d.lookup.Schema(), d.hooks), nil
}

// Authenticator returns the login engine.
func (d *Daemon) Authenticator() (*auth.Authenticator, error) {
	params, err := d.cfg.Directory.Params()
	if err != nil {
		return nil, err
	}

	return auth.New(auth.Config{
		Enabled:      d.cfg.Auth.Enabled,
		Params:       params,
		Suffixes:     d.cfg.Auth.Suffixes,
		Excluded:     d.cfg.Auth.Excluded,
		FailureBlock: time.Duration(d.cfg.Auth.FailureBlock) * time.Second,
	}, d.client, d.store, d.lookup, d.failures)
}
