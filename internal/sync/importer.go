package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
	"github.com/dirsync/dirsync/internal/db/store"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/hook"
	"github.com/dirsync/dirsync/internal/lookup"
	"github.com/dirsync/dirsync/internal/principal"
	"github.com/dirsync/dirsync/internal/sid"
)

// metaSmartCardRequired records whether the directory requires a smart card for the user.
const metaSmartCardRequired = attribute.MetaPrefix + "smartcard_required"

var (
	// ErrDomainMismatch is returned when the service account belongs to another domain.
	ErrDomainMismatch = errors.New("service account is not in the configured domain")
	// ErrNoDomainSID is returned when no domain SID is configured.
	ErrNoDomainSID = errors.New("domain sid is not configured")
)

// Store is the local user store the engines reconcile with.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindUsersByMarker(ctx context.Context, marker store.Marker, value string) ([]models.User, error)
	LinkedUsers(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id uint64) (*models.User, error)
	CreateUser(ctx context.Context, identity store.Identity) (uint64, error)
	UpdateUser(ctx context.Context, id uint64, identity store.Identity) error
	SetEnabled(ctx context.Context, id uint64, enabled bool, reason string) error
	Meta(ctx context.Context, id uint64, keys []string) (map[string]string, error)
}

// Importer synchronizes directory group members into the local store.
type Importer struct {
	cfg    Config
	client directory.Client
	store  Store
	lookup *lookup.Service
	hooks  *hook.Registry
}

// NewImporter creates an importer. A nil registry means no hooks.
func NewImporter(cfg Config, client directory.Client, st Store, svc *lookup.Service, hooks *hook.Registry) *Importer {
	if hooks == nil {
		hooks = hook.New()
	}

	return &Importer{cfg: cfg, client: client, store: st, lookup: svc, hooks: hooks}
}

// Run imports every member of the configured groups. It returns false
// without touching the local store when the import is disabled or the
// service account cannot be verified.
func (i *Importer) Run(ctx context.Context) (Report, bool) {
	var report Report

	if !i.cfg.ImportEnabled {
		log.Warn().Msg("directory import is disabled")
		return report, false
	}

	ctx, cancel := withBudget(ctx, i.cfg.MinRunTime)
	defer cancel()

	start := time.Now()

	session, err := open(ctx, i.client, i.cfg)
	if err != nil {
		log.Error().Err(err).Msg("directory import aborted")
		return report, false
	}
	defer closeSession(session)

	if err = i.verifyDomain(ctx, session); err != nil {
		log.Error().Err(err).Str("domainSid", i.cfg.DomainSID).Msg("directory import aborted")
		return report, false
	}

	candidates, err := i.candidates(ctx, session)
	if err != nil {
		log.Error().Err(err).Msg("directory import aborted")
		return report, false
	}

	guids := make([]string, 0, len(candidates))
	for guid := range candidates {
		guids = append(guids, guid)
	}

	slices.Sort(guids)

	log.Info().Int("identities", len(guids)).Str("server", session.Server()).Msg("directory import started")

	for _, guid := range guids {
		o := i.importSafe(ctx, session, candidates[guid])
		observe(directionImport, o)
		report.Add(o)
	}

	report.Elapsed = time.Since(start)
	observeRun(directionImport, report.Elapsed)

	log.Info().
		Int("added", report.Added).
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("elapsed", report.Elapsed).
		Msg("directory import finished")

	return report, true
}

// verifyDomain checks that the service account belongs to the configured domain.
func (i *Importer) verifyDomain(ctx context.Context, session directory.Session) error {
	if strings.TrimSpace(i.cfg.DomainSID) == "" {
		return ErrNoDomainSID
	}

	attrs, err := i.lookup.Resolve(ctx, session, principal.Parse(i.cfg.ServiceUser).ToQuery())
	if err != nil {
		return fmt.Errorf("resolve service account: %w", err)
	}

	values := attrs.Raw().Values(directory.AttrObjectSID)
	if len(values) == 0 {
		return fmt.Errorf("%w: service account has no objectSid", ErrDomainMismatch)
	}

	accountSID, err := sid.FromValue(values[0])
	if err != nil {
		return fmt.Errorf("service account objectSid: %w", err)
	}

	if !accountSID.InDomain(i.cfg.DomainSID) {
		return fmt.Errorf("%w: %s", ErrDomainMismatch, accountSID)
	}

	return nil
}

// candidates merges the linked local users with the members of the
// configured groups that belong to the configured domain. Existing links win.
func (i *Importer) candidates(ctx context.Context, session directory.Session) (hook.Candidates, error) {
	out := make(hook.Candidates)

	linked, err := i.store.LinkedUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range linked {
		if u.ID == models.ReservedUserID {
			continue
		}

		out[u.ObjectGUID] = principal.Parse(u.Username).
			WithUserPrincipalName(u.UserPrincipalName).
			WithSAMAccountName(u.Username).
			WithObjectGUID(u.ObjectGUID).
			WithLocalUserID(u.ID)
	}

	for _, group := range splitGroups(i.cfg.Groups) {
		members, errMembers := session.GroupMembers(ctx, group)
		if errMembers != nil {
			log.Error().Err(errMembers).Str("group", group).Msg("failed to enumerate group")
			continue
		}

		for _, m := range members {
			if !i.inDomain(m) {
				continue
			}

			if m.GUID == "" {
				log.Warn().Str("dn", m.DN).Msg("skipping group member without objectGUID")
				continue
			}

			if _, ok := out[m.GUID]; ok {
				continue
			}

			login := m.SAMAccountName
			if login == "" {
				login = m.UserPrincipalName
			}

			out[m.GUID] = principal.Parse(login).
				WithUserPrincipalName(m.UserPrincipalName).
				WithSAMAccountName(m.SAMAccountName).
				WithObjectGUID(m.GUID)
		}
	}

	return i.hooks.SyncableUsers.Apply(out), nil
}

// inDomain reports whether a group member was issued by the configured domain.
// Account names alone are ambiguous across the domains of a forest.
func (i *Importer) inDomain(m directory.Member) bool {
	memberSID, err := sid.Parse(m.SID)
	if err != nil {
		log.Warn().Err(err).Str("dn", m.DN).Msg("skipping group member without valid objectSid")
		return false
	}

	if !memberSID.InDomain(i.cfg.DomainSID) {
		log.Debug().Str("dn", m.DN).Str("sid", m.SID).Msg("skipping group member of foreign domain")
		return false
	}

	return true
}

func splitGroups(groups string) []string {
	var out []string

	for g := range strings.SplitSeq(groups, ";") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}

	return out
}

// importSafe imports one identity and turns errors and panics into OutcomeFailed.
func (i *Importer) importSafe(ctx context.Context, session directory.Session, creds principal.Credentials) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("guid", creds.ObjectGUID).Str("login", creds.Login).
				Msg("identity import panicked")

			o = OutcomeFailed
		}
	}()

	o, err := i.importOne(ctx, session, creds)
	if err != nil {
		log.Error().Err(err).Str("guid", creds.ObjectGUID).Str("login", creds.Login).Msg("identity import failed")
		return OutcomeFailed
	}

	return o
}

func (i *Importer) importOne(ctx context.Context, session directory.Session, creds principal.Credentials) (Outcome, error) {
	attrs, err := i.lookup.Resolve(ctx, session, creds.ToQuery())
	if err != nil {
		return OutcomeFailed, err
	}

	creds, err = i.link(ctx, creds)
	if err != nil {
		return OutcomeFailed, err
	}

	if attrs.IsEmpty() {
		return i.removed(ctx, creds)
	}

	uac := attrs.Int(directory.AttrUserAccountControl)
	disabled := attribute.IsAccountDisabled(uac)

	if !attribute.IsNormalAccount(uac) {
		log.Info().Str("guid", creds.ObjectGUID).Int64("uac", uac).Msg("skipping non-normal account")
		return OutcomeSkipped, nil
	}

	if disabled && !i.cfg.ImportDisabled {
		log.Info().Str("guid", creds.ObjectGUID).Msg("skipping account disabled in directory")
		return OutcomeSkipped, nil
	}

	identity := i.identity(creds, attrs)
	identity.Meta[metaSmartCardRequired] = strconv.FormatBool(attribute.IsSmartCardRequired(uac))

	creds, o, err := i.mutate(ctx, creds, attrs, identity)
	if err != nil {
		return OutcomeFailed, err
	}

	switch {
	case !disabled:
		err = i.store.SetEnabled(ctx, creds.LocalUserID, true, "")
	case i.cfg.AutoDeactivate:
		err = i.store.SetEnabled(ctx, creds.LocalUserID, false, ReasonDisabled)
	}

	if err != nil {
		return OutcomeFailed, err
	}

	return o, nil
}

// link finds the local user of an identity that is not linked yet: first by
// GUID, then an unlinked local account with the same name.
func (i *Importer) link(ctx context.Context, creds principal.Credentials) (principal.Credentials, error) {
	if creds.LocalUserID != 0 {
		return creds, nil
	}

	users, err := i.store.FindUsersByMarker(ctx, store.MarkerObjectGUID, creds.ObjectGUID)
	if err != nil {
		return creds, err
	}

	if len(users) > 0 {
		return creds.WithLocalUserID(users[0].ID), nil
	}

	user, err := i.store.FindByUsername(ctx, creds.SAMAccountName)
	if err != nil || user == nil {
		return creds, err
	}

	if user.ID == models.ReservedUserID {
		return creds, fmt.Errorf("%s would link the reserved administrator account", creds.SAMAccountName)
	}

	if user.ObjectGUID != "" {
		return creds, fmt.Errorf("local user %s is linked to another directory object", user.Username)
	}

	return creds.WithLocalUserID(user.ID), nil
}

// removed records that the directory object of an identity is gone and
// disables its local user.
func (i *Importer) removed(ctx context.Context, creds principal.Credentials) (Outcome, error) {
	log.Warn().Str("guid", creds.ObjectGUID).Str("login", creds.Login).Msg("directory object no longer exists")

	identity := store.Identity{
		Username:   creds.SAMAccountName,
		ObjectGUID: creds.ObjectGUID,
		DomainSID:  RemovedDomainSID,
	}

	creds, o, err := i.mutate(ctx, creds, attribute.DirectoryAttributes{}, identity)
	if err != nil {
		return OutcomeFailed, err
	}

	if err = i.store.SetEnabled(ctx, creds.LocalUserID, false, ReasonRemoved); err != nil {
		return OutcomeFailed, err
	}

	return o, nil
}

// mutate creates or updates exactly one local user and fires the mutation hooks.
func (i *Importer) mutate(
	ctx context.Context,
	creds principal.Credentials,
	attrs attribute.DirectoryAttributes,
	identity store.Identity,
) (principal.Credentials, Outcome, error) {
	create := creds.LocalUserID == 0
	i.hooks.BeforeMutation.Notify(hook.Mutation{Credentials: creds, Attributes: attrs, Create: create})

	var (
		o   = OutcomeUpdated
		err error
	)

	if create {
		var id uint64

		id, err = i.store.CreateUser(ctx, identity)
		if err == nil {
			creds = creds.WithLocalUserID(id)
			o = OutcomeCreated
		}
	} else {
		err = i.store.UpdateUser(ctx, creds.LocalUserID, identity)
	}

	i.hooks.AfterMutation.Notify(hook.Mutation{Credentials: creds, Attributes: attrs, Create: create, Err: err})

	if err != nil {
		return creds, OutcomeFailed, err
	}

	log.Debug().Str("guid", creds.ObjectGUID).Uint64("user", creds.LocalUserID).Str("outcome", o.String()).
		Msg("local user written")

	return creds, o, nil
}

// identity builds the local user state from directory attributes.
func (i *Importer) identity(creds principal.Credentials, attrs attribute.DirectoryAttributes) store.Identity {
	username := attrs.String(directory.AttrSAMAccountName)
	if username == "" {
		username = creds.SAMAccountName
	}

	identity := store.Identity{
		Username:          username,
		Email:             attrs.String("mail"),
		FirstName:         attrs.String("givenName"),
		LastName:          attrs.String("sn"),
		DisplayName:       attrs.String("displayName"),
		UserPrincipalName: attrs.String(directory.AttrUserPrincipalName),
		ObjectGUID:        creds.ObjectGUID,
		DomainSID:         i.cfg.DomainSID,
		Meta:              make(map[string]string),
	}

	for _, d := range i.lookup.Schema().Definitions() {
		v := attrs.FilteredValue(d.Name, nil)
		switch {
		case v != nil:
			identity.Meta[d.MetaKey] = FormatMeta(v)
		case d.OverwriteWithEmpty:
			identity.Meta[d.MetaKey] = ""
		}
	}

	return identity
}

// FormatMeta renders a typed attribute value for the local store. Lists are newline-joined.
func FormatMeta(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, "\n")
	default:
		return fmt.Sprint(t)
	}
}
