package sync

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/hook"
)

func TestImportIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, ok := f.importer().Run(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 1, report.Skipped, "disabled bob is skipped")
	assert.Equal(t, 0, report.Failed)

	alice := f.userByGUID(t, aliceGUID)
	require.NotNil(t, alice)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, "Alice", alice.FirstName)
	assert.Equal(t, "alice@corp.example", alice.Email)
	assert.Equal(t, domainSID, alice.DomainSID)
	assert.True(t, alice.Active)

	meta, err := f.store.Meta(ctx, alice.ID, []string{"dirsync_department", metaSmartCardRequired})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", meta["dirsync_department"])
	assert.Equal(t, "false", meta[metaSmartCardRequired])

	report, ok = f.importer().Run(ctx)
	require.True(t, ok)
	assert.Equal(t, 0, report.Added, "second run must not create users")
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, alice.ID, f.userByGUID(t, aliceGUID).ID)
}

func TestImportExcludesForeignDomain(t *testing.T) {
	f := newFixture(t)

	report, ok := f.importer().Run(context.Background())
	require.True(t, ok)

	assert.Equal(t, 2, report.Total())
	assert.Nil(t, f.userByGUID(t, carolGUID))

	for _, key := range f.dir.Lookups {
		assert.NotEqual(t, carolGUID, key.Value)
	}
}

func TestImportDisabledAccounts(t *testing.T) {
	testCases := []struct {
		name           string
		autoDeactivate bool
		wantActive     bool
		wantReason     string
	}{
		{name: "auto deactivate", autoDeactivate: true, wantActive: false, wantReason: ReasonDisabled},
		{name: "leave local state", autoDeactivate: false, wantActive: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.cfg.ImportDisabled = true
			f.cfg.AutoDeactivate = tc.autoDeactivate

			report, ok := f.importer().Run(context.Background())
			require.True(t, ok)
			assert.Equal(t, 2, report.Added)

			bob := f.userByGUID(t, bobGUID)
			require.NotNil(t, bob)
			assert.Equal(t, tc.wantActive, bob.Active)
			assert.Equal(t, tc.wantReason, bob.DisabledReason)
		})
	}
}

func TestImportReenablesAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.importer().Run(ctx)
	require.True(t, ok)

	alice := f.userByGUID(t, aliceGUID)
	require.NoError(t, f.store.SetEnabled(ctx, alice.ID, false, "manual"))

	_, ok = f.importer().Run(ctx)
	require.True(t, ok)

	alice = f.userByGUID(t, aliceGUID)
	assert.True(t, alice.Active)
	assert.Empty(t, alice.DisabledReason)
}

func TestImportRemovedIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.importer().Run(ctx)
	require.True(t, ok)

	f.dir.Remove(aliceGUID)
	f.dir.SetMembers("Staff")

	report, ok := f.importer().Run(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, report.Updated)

	alice := f.userByGUID(t, aliceGUID)
	require.NotNil(t, alice)
	assert.False(t, alice.Active)
	assert.Equal(t, ReasonRemoved, alice.DisabledReason)
	assert.Equal(t, RemovedDomainSID, alice.DomainSID)
}

func TestImportLinksExistingLocalAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.store.CreateUser(ctx, storeIdentity("alice"))
	require.NoError(t, err)

	report, ok := f.importer().Run(ctx)
	require.True(t, ok)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Updated)

	alice := f.userByGUID(t, aliceGUID)
	require.NotNil(t, alice)
	assert.Equal(t, id, alice.ID)
}

func TestImportIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.dir.SetMembers("Staff",
		addAccount(f.dir, "dave", daveGUID, domainSID+"-1104", "512", nil),
		addAccount(f.dir, "erin", "0e000000-0000-0000-0000-00000000000e", domainSID+"-1105", "512", nil),
		addAccount(f.dir, "frank", "0f000000-0000-0000-0000-00000000000f", domainSID+"-1106", "512", nil),
		addAccount(f.dir, "alice", aliceGUID, domainSID+"-1101", "512", nil),
	)
	f.dir.LookupErr[daveGUID] = errors.New("connection reset")

	hooks := hook.New()
	hooks.BeforeMutation.Register(func(m hook.Mutation) {
		if m.Credentials.SAMAccountName == "erin" {
			panic("hook failure")
		}
	})

	report, ok := NewImporter(f.cfg, f.dir, f.store, f.svc, hooks).Run(context.Background())
	require.True(t, ok)

	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 2, report.Added)
	assert.NotNil(t, f.userByGUID(t, aliceGUID))
	assert.NotNil(t, f.userByGUID(t, "0f000000-0000-0000-0000-00000000000f"))
}

func TestImportGuard(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(f *fixture)
	}{
		{name: "disabled", modify: func(f *fixture) { f.cfg.ImportEnabled = false }},
		{name: "no service account", modify: func(f *fixture) { f.cfg.ServicePassword = "" }},
		{name: "wrong service password", modify: func(f *fixture) { f.cfg.ServicePassword = "wrong" }},
		{name: "unreachable", modify: func(f *fixture) { f.dir.ConnectErr = errors.New("dial tcp: refused") }},
		{name: "foreign domain", modify: func(f *fixture) { f.cfg.DomainSID = foreignSID }},
		{name: "no domain", modify: func(f *fixture) { f.cfg.DomainSID = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.modify(f)

			report, ok := f.importer().Run(context.Background())
			require.False(t, ok)
			assert.Zero(t, report.Total())

			linked, err := f.store.LinkedUsers(context.Background())
			require.NoError(t, err)
			assert.Empty(t, linked)
		})
	}
}

func TestImportHooks(t *testing.T) {
	f := newFixture(t)
	f.cfg.ImportDisabled = true

	var mutations []hook.Mutation

	hooks := hook.New()
	hooks.SyncableUsers.Register(func(c hook.Candidates) hook.Candidates {
		delete(c, bobGUID)
		return c
	})
	hooks.AfterMutation.Register(func(m hook.Mutation) {
		mutations = append(mutations, m)
	})

	report, ok := NewImporter(f.cfg, f.dir, f.store, f.svc, hooks).Run(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, report.Total())

	require.Len(t, mutations, 1)
	assert.True(t, mutations[0].Create)
	assert.NoError(t, mutations[0].Err)
	assert.Equal(t, aliceGUID, mutations[0].Credentials.ObjectGUID)
	assert.NotZero(t, mutations[0].Credentials.LocalUserID)
	assert.Equal(t, "Alice", mutations[0].Attributes.String("givenName"))
}

func TestImportPrimaryGroup(t *testing.T) {
	f := newFixture(t)
	f.cfg.Groups = " Staff ; id:513 ;"
	f.dir.SetMembers("id:513", addAccount(f.dir, "dave", daveGUID, domainSID+"-1104", "512", nil))

	report, ok := f.importer().Run(context.Background())
	require.True(t, ok)
	assert.Equal(t, 2, report.Added)
	assert.NotNil(t, f.userByGUID(t, daveGUID))
}

func TestImportAccountControl(t *testing.T) {
	const (
		trustGUID = "0e000000-0000-0000-0000-00000000000e"
		cardGUID  = "0f000000-0000-0000-0000-00000000000f"
	)

	f := newFixture(t)
	ctx := context.Background()

	trust := strconv.FormatInt(attribute.UACNormalAccount|attribute.UACInterdomainTrustAccount, 10)
	card := strconv.FormatInt(attribute.UACNormalAccount|attribute.UACSmartCardRequired, 10)

	f.dir.SetMembers("Staff",
		addAccount(f.dir, "trust", trustGUID, domainSID+"-1105", trust, nil),
		addAccount(f.dir, "card", cardGUID, domainSID+"-1106", card, nil),
	)

	report, ok := f.importer().Run(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Skipped, "trust account is skipped")
	assert.Equal(t, 0, report.Failed)

	assert.Nil(t, f.userByGUID(t, trustGUID))

	user, err := f.store.FindByUsername(ctx, "trust")
	require.NoError(t, err)
	assert.Nil(t, user, "no local user for a trust account")

	cardUser := f.userByGUID(t, cardGUID)
	require.NotNil(t, cardUser)
	assert.True(t, cardUser.Active)

	meta, err := f.store.Meta(ctx, cardUser.ID, []string{"dirsync_smartcard_required"})
	require.NoError(t, err)
	assert.Equal(t, "true", meta["dirsync_smartcard_required"])
}

func TestSplitGroups(t *testing.T) {
	assert.Equal(t, []string{"A", "id:513", "B C"}, splitGroups("A; id:513 ;;B C;"))
	assert.Empty(t, splitGroups(""))
}

func TestFormatMeta(t *testing.T) {
	assert.Equal(t, "x", FormatMeta("x"))
	assert.Equal(t, "42", FormatMeta(int64(42)))
	assert.Equal(t, "true", FormatMeta(true))
	assert.Equal(t, "a\nb", FormatMeta([]string{"a", "b"}))
}

func TestWithBudget(t *testing.T) {
	parent, cancelParent := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancelParent()

	ctx, cancel := withBudget(parent, time.Hour)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), 30*time.Minute)

	ctx, cancel = withBudget(context.Background(), time.Hour)
	defer cancel()

	_, ok = ctx.Deadline()
	assert.False(t, ok, "no deadline is imposed without a parent deadline")
}

func TestOutcome(t *testing.T) {
	var r Report

	for _, o := range []Outcome{OutcomeCreated, OutcomeUpdated, OutcomeUpdated, OutcomeFailed, OutcomeSkipped} {
		r.Add(o)
	}

	assert.Equal(t, Report{Added: 1, Updated: 2, Failed: 1, Skipped: 1}, r)
	assert.Equal(t, 5, r.Total())
	assert.Equal(t, "created", OutcomeCreated.String())
}
