package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/hook"
	"github.com/dirsync/dirsync/internal/principal"
)

var (
	// ErrNotLinked is returned when the user to export has no directory object.
	ErrNotLinked = errors.New("user is not linked to a directory object")
	// ErrNothingToWrite is returned when a user has no syncable attribute values.
	ErrNothingToWrite = errors.New("no syncable attributes")
)

// Exporter writes syncable attributes of local users back to the directory.
type Exporter struct {
	cfg    Config
	client directory.Client
	store  Store
	schema attribute.Schema
	hooks  *hook.Registry
}

// NewExporter creates an exporter. A nil registry means no hooks.
func NewExporter(cfg Config, client directory.Client, st Store, schema attribute.Schema, hooks *hook.Registry) *Exporter {
	if hooks == nil {
		hooks = hook.New()
	}

	return &Exporter{cfg: cfg, client: client, store: st, schema: schema, hooks: hooks}
}

// Run writes every linked user back, or only the user with userID when it is not zero.
// It returns false when the export is disabled or the directory cannot be reached.
func (e *Exporter) Run(ctx context.Context, userID uint64) (Report, bool) {
	var report Report

	if !e.cfg.ExportEnabled {
		log.Warn().Msg("directory export is disabled")
		return report, false
	}

	ctx, cancel := withBudget(ctx, e.cfg.MinRunTime)
	defer cancel()

	start := time.Now()

	users, err := e.users(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint64("user", userID).Msg("directory export aborted")
		return report, false
	}

	session, err := open(ctx, e.client, e.cfg)
	if err != nil {
		log.Error().Err(err).Msg("directory export aborted")
		return report, false
	}
	defer closeSession(session)

	for _, u := range users {
		o := e.exportSafe(ctx, session, u)
		observe(directionExport, o)
		report.Add(o)
	}

	report.Elapsed = time.Since(start)
	observeRun(directionExport, report.Elapsed)

	log.Info().
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("elapsed", report.Elapsed).
		Msg("directory export finished")

	return report, true
}

func (e *Exporter) users(ctx context.Context, userID uint64) ([]models.User, error) {
	if userID == 0 {
		return e.store.LinkedUsers(ctx)
	}

	user, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.ObjectGUID == "" {
		return nil, ErrNotLinked
	}

	return []models.User{*user}, nil
}

func (e *Exporter) exportSafe(ctx context.Context, session directory.Session, user models.User) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("guid", user.ObjectGUID).Msg("identity export panicked")

			o = OutcomeFailed
		}
	}()

	o, err := e.exportOne(ctx, session, user)
	if errors.Is(err, ErrNothingToWrite) {
		log.Warn().Str("guid", user.ObjectGUID).Str("user", user.Username).Msg("no syncable attributes, skipping")
		return OutcomeSkipped
	}

	if err != nil {
		log.Error().Err(err).Str("guid", user.ObjectGUID).Str("user", user.Username).Msg("identity export failed")
		return OutcomeFailed
	}

	return o
}

func (e *Exporter) exportOne(ctx context.Context, session directory.Session, user models.User) (Outcome, error) {
	if user.ID == models.ReservedUserID || user.DomainSID == RemovedDomainSID {
		return OutcomeSkipped, nil
	}

	creds := principal.Parse(user.Username).
		WithUserPrincipalName(user.UserPrincipalName).
		WithObjectGUID(user.ObjectGUID).
		WithLocalUserID(user.ID)

	verdict := e.hooks.Synchronizable.Apply(hook.Verdict{Credentials: creds, Synchronizable: true})
	if !verdict.Synchronizable {
		log.Debug().Str("guid", user.ObjectGUID).Msg("user is not synchronizable")
		return OutcomeSkipped, nil
	}

	values, err := e.values(ctx, user.ID)
	if err != nil {
		return OutcomeFailed, err
	}

	if err = session.WriteAttributes(ctx, user.ObjectGUID, values); err != nil {
		return OutcomeFailed, fmt.Errorf("write attributes: %w", err)
	}

	return OutcomeUpdated, nil
}

// values collects the stored values of the syncable attributes. An attribute
// whose first value is empty is written as an empty list, which clears it.
func (e *Exporter) values(ctx context.Context, userID uint64) (map[string][]string, error) {
	syncable := e.schema.Syncable()

	keys := make([]string, 0, len(syncable))
	for _, d := range syncable {
		keys = append(keys, d.MetaKey)
	}

	meta, err := e.store.Meta(ctx, userID, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(syncable))

	for _, d := range syncable {
		v, ok := meta[d.MetaKey]
		if !ok {
			continue
		}

		values := []string{v}
		if d.Kind == attribute.KindList {
			values = strings.Split(v, "\n")
		}

		if values[0] == "" {
			values = []string{}
		}

		out[d.Name] = values
	}

	if len(out) == 0 {
		return nil, ErrNothingToWrite
	}

	return out, nil
}
