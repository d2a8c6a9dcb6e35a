package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/principal"
)

var (
	// ErrNoServiceAccount is returned when no service account is configured.
	ErrNoServiceAccount = errors.New("service account is not configured")
	// ErrServiceBind is returned when the directory rejects the service account.
	ErrServiceBind = errors.New("service account bind failed")
)

// open connects to the directory and binds as the service account.
func open(ctx context.Context, client directory.Client, cfg Config) (directory.Session, error) {
	if cfg.ServiceUser == "" || cfg.ServicePassword == "" {
		return nil, ErrNoServiceAccount
	}

	session, err := client.Connect(ctx, cfg.Params)
	if err != nil {
		return nil, err
	}

	creds := principal.Parse(cfg.ServiceUser)

	// the directory takes DOMAIN\user as a bind name as is
	username, suffix := creds.UPNUsername, creds.UPNSuffix
	if creds.Form == principal.FormNetBIOS {
		username, suffix = creds.Login, ""
	}

	ok, err := session.Authenticate(ctx, username, suffix, cfg.ServicePassword)
	if err == nil && !ok {
		err = ErrServiceBind
	}

	if err != nil {
		closeSession(session)
		return nil, fmt.Errorf("bind as %s on %s: %w", cfg.ServiceUser, session.Server(), err)
	}

	return session, nil
}

func closeSession(session directory.Session) {
	if err := session.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close directory session")
	}
}

// withBudget grants the run at least minRunTime. A parent deadline that is
// closer is dropped, cancellation of the parent is kept otherwise.
func withBudget(ctx context.Context, minRunTime time.Duration) (context.Context, context.CancelFunc) {
	if minRunTime <= 0 {
		return context.WithCancel(ctx)
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) >= minRunTime {
		return context.WithCancel(ctx)
	}

	log.Info().Dur("minRunTime", minRunTime).Time("deadline", deadline).Msg("extending run time budget")

	return context.WithTimeout(context.WithoutCancel(ctx), minRunTime)
}
