package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/principal"
)

// Config holds directory authentication configuration.
type Config struct {
	// Enabled indicates if directory authentication is enabled.
	Enabled bool
	// Params describes how to reach the directory.
	Params directory.Params
	// Suffixes are the UPN suffixes logins may authenticate with, tried in order.
	Suffixes []string
	// Excluded lists logins that never authenticate against the directory.
	Excluded []string
	// FailureBlock is how long a failed login is rejected without a bind. Zero disables the cache.
	FailureBlock time.Duration
}

// Users finds local accounts by login name.
type Users interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver resolves the directory attributes of a principal.
type Resolver interface {
	Resolve(ctx context.Context, session directory.Session, q principal.Query) (attribute.DirectoryAttributes, error)
}

type logoutKey struct{}

// WithLogout marks ctx as belonging to a logout. Logins attempted with it
// return ErrLogoutInProgress.
func WithLogout(ctx context.Context) context.Context {
	return context.WithValue(ctx, logoutKey{}, true)
}

func loggingOut(ctx context.Context) bool {
	v, _ := ctx.Value(logoutKey{}).(bool)
	return v
}

// Authenticator authenticates logins by binding against the directory.
type Authenticator struct {
	cfg      Config
	client   directory.Client
	users    Users
	resolver Resolver
	failures FailureCache
}

// New creates an authenticator. failures may be nil to disable failure caching.
func New(cfg Config, client directory.Client, users Users, resolver Resolver, failures FailureCache) (*Authenticator, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	return &Authenticator{
		cfg:      cfg,
		client:   client,
		users:    users,
		resolver: resolver,
		failures: failures,
	}, nil
}

// Authenticate checks login and password against the directory and returns
// the canonical credentials of the authenticated identity.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (principal.Credentials, error) {
	if loggingOut(ctx) {
		return principal.Credentials{}, ErrLogoutInProgress
	}

	creds := principal.Parse(strings.TrimSpace(login)).WithPassword(password)

	creds, ok := a.precheck(ctx, creds)
	if !ok {
		return principal.Credentials{}, ErrRejected
	}

	if a.blocked(creds.Login) {
		log.Info().Str("login", creds.Login).Msg("login rejected, recent failure cached")
		return principal.Credentials{}, ErrRejected
	}

	session, err := a.client.Connect(ctx, a.cfg.Params)
	if err != nil {
		log.Error().Err(err).Str("login", creds.Login).Msg("failed to connect to directory")
		return principal.Credentials{}, ErrRejected
	}

	defer func() {
		if errClose := session.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close directory session")
		}
	}()

	creds, ok, err = a.bind(ctx, session, creds)
	if err != nil {
		log.Error().Err(err).Str("login", creds.Login).Msg("directory bind failed")
		return principal.Credentials{}, ErrRejected
	}

	if !ok {
		a.fail(creds.Login)
		return principal.Credentials{}, ErrRejected
	}

	attrs, err := a.resolver.Resolve(ctx, session, creds.ToQuery())
	if err != nil {
		log.Error().Err(err).Str("login", creds.Login).Msg("failed to resolve authenticated principal")
		return principal.Credentials{}, ErrRejected
	}

	if attrs.IsEmpty() {
		log.Warn().Str("login", creds.Login).Str("server", session.Server()).
			Msg("bind succeeded but principal could not be resolved, check the base dn")
		a.fail(creds.Login)

		return principal.Credentials{}, ErrRejected
	}

	creds = creds.
		WithSAMAccountName(attrs.String(directory.AttrSAMAccountName)).
		WithObjectGUID(attrs.String(directory.AttrObjectGUID)).
		WithUserPrincipalName(attrs.String(directory.AttrUserPrincipalName))

	log.Info().Str("login", creds.Login).Str("guid", creds.ObjectGUID).Msg("directory authentication succeeded")

	return creds, nil
}

// precheck rejects logins that must never reach the directory and links
// the credentials to an existing local account.
func (a *Authenticator) precheck(ctx context.Context, creds principal.Credentials) (principal.Credentials, bool) {
	if creds.UPNUsername == "" {
		log.Debug().Msg("empty login rejected")
		return creds, false
	}

	for _, excluded := range a.cfg.Excluded {
		if strings.EqualFold(excluded, creds.Login) ||
			strings.EqualFold(excluded, creds.UPNUsername) ||
			strings.EqualFold(excluded, creds.UserPrincipalName()) {
			log.Info().Str("login", creds.Login).Msg("login is excluded from directory authentication")
			return creds, false
		}
	}

	user, err := a.users.FindByUsername(ctx, creds.SAMAccountName)
	if err != nil {
		log.Error().Err(err).Str("login", creds.Login).Msg("failed to look up local account")
		return creds, false
	}

	if user == nil {
		return creds, true
	}

	if user.ID == models.ReservedUserID {
		log.Warn().Str("login", creds.Login).Msg("reserved administrator account cannot authenticate against the directory")
		return creds, false
	}

	return creds.WithLocalUserID(user.ID), true
}

// Candidates returns the UPN suffixes to bind with, in order. An empty
// string stands for the bare principal.
func (a *Authenticator) Candidates(creds principal.Credentials) []string {
	if creds.UPNSuffix != "" {
		i := slices.IndexFunc(a.cfg.Suffixes, func(s string) bool {
			return strings.EqualFold(strings.TrimLeft(s, "@"), creds.UPNSuffix)
		})
		if i >= 0 {
			return []string{a.cfg.Suffixes[i]}
		}

		log.Debug().Str("suffix", creds.UPNSuffix).Msg("ignoring unknown upn suffix")
	}

	if len(a.cfg.Suffixes) == 0 {
		return []string{""}
	}

	return slices.Clone(a.cfg.Suffixes)
}

// bind tries each candidate suffix once and stops at the first success.
// Only a rejected password moves on to the next candidate: any other bind
// error ends the trial with that error, since no login is retried.
func (a *Authenticator) bind(
	ctx context.Context,
	session directory.Session,
	creds principal.Credentials,
) (principal.Credentials, bool, error) {
	for _, suffix := range a.Candidates(creds) {
		ok, err := session.Authenticate(ctx, creds.UPNUsername, strings.TrimLeft(suffix, "@"), creds.Password)
		if err != nil {
			return creds, false, fmt.Errorf("bind with suffix %q: %w", suffix, err)
		}

		if ok {
			return creds.WithSuffix(suffix), true, nil
		}
	}

	log.Info().Str("login", creds.Login).Msg("no candidate suffix authenticated")

	return creds, false, nil
}

func (a *Authenticator) blocked(login string) bool {
	if a.failures == nil || a.cfg.FailureBlock <= 0 {
		return false
	}

	val, err := a.failures.Get(failureKey(login))
	if err != nil {
		log.Warn().Err(err).Msg("failed to read failure cache")
		return false
	}

	return val != nil
}

func (a *Authenticator) fail(login string) {
	if a.failures == nil || a.cfg.FailureBlock <= 0 {
		return
	}

	if err := a.failures.Set(failureKey(login), []byte("1"), a.cfg.FailureBlock); err != nil {
		log.Warn().Err(err).Msg("failed to write failure cache")
	}
}
