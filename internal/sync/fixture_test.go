package sync

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/db/models"
	"github.com/dirsync/dirsync/internal/db/store"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/directory/directorytest"
	"github.com/dirsync/dirsync/internal/lookup"
)

const (
	domainSID  = "S-1-5-21-1-2-3"
	foreignSID = "S-1-5-21-9-9-9"

	svcGUID   = "00000000-0000-0000-0000-000000000001"
	aliceGUID = "0a000000-0000-0000-0000-00000000000a"
	bobGUID   = "0b000000-0000-0000-0000-00000000000b"
	carolGUID = "0c000000-0000-0000-0000-00000000000c"
	daveGUID  = "0d000000-0000-0000-0000-00000000000d"
)

type fixture struct {
	dir   *directorytest.Directory
	store *store.Store
	svc   *lookup.Service
	cfg   Config
}

func newStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Every connection to :memory: opens a fresh database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := store.New(db)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())

	// the first account is the reserved administrator
	_, err = s.CreateUser(context.Background(), store.Identity{Username: "admin"})
	require.NoError(t, err)

	return s
}

func addAccount(dir *directorytest.Directory, sam, guid, objectSID, uac string, extra map[string][]string) directory.Member {
	upn := sam + "@corp.example"
	attrs := map[string][]string{
		"objectGUID":         {guid},
		"objectSid":          {objectSID},
		"sAMAccountName":     {sam},
		"userPrincipalName":  {upn},
		"userAccountControl": {uac},
		"mail":               {upn},
	}

	for k, v := range extra {
		attrs[k] = v
	}

	dn := "CN=" + sam + ",OU=Staff,DC=corp,DC=example"
	dir.Add(directorytest.Entry{DN: dn, Password: sam + "-pass", Attributes: attrs})

	return directory.Member{DN: dn, GUID: guid, SID: objectSID, SAMAccountName: sam, UserPrincipalName: upn}
}

// newFixture builds a directory with a service account and the Staff group:
// alice (enabled), bob (disabled) and carol (foreign domain).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := directorytest.New()
	addAccount(dir, "svc", svcGUID, domainSID+"-1000", "512", nil)

	dir.SetMembers("Staff",
		addAccount(dir, "alice", aliceGUID, domainSID+"-1101", "512", map[string][]string{
			"givenName":  {"Alice"},
			"department": {"Engineering"},
		}),
		addAccount(dir, "bob", bobGUID, domainSID+"-1102", "514", nil),
		addAccount(dir, "carol", carolGUID, foreignSID+"-1103", "512", nil),
	)

	return &fixture{
		dir:   dir,
		store: newStore(t),
		svc:   lookup.New(attribute.NewSchema(nil), attribute.NewConverter(0), nil),
		cfg: Config{
			ImportEnabled:   true,
			ExportEnabled:   true,
			ServiceUser:     "svc@corp.example",
			ServicePassword: "svc-pass",
			DomainSID:       domainSID,
			Groups:          "Staff",
		},
	}
}

func (f *fixture) importer() *Importer {
	return NewImporter(f.cfg, f.dir, f.store, f.svc, nil)
}

func (f *fixture) userByGUID(t *testing.T, guid string) *models.User {
	t.Helper()

	users, err := f.store.FindUsersByMarker(context.Background(), store.MarkerObjectGUID, guid)
	require.NoError(t, err)

	if len(users) == 0 {
		return nil
	}

	require.Len(t, users, 1)

	return &users[0]
}

func storeIdentity(username string) store.Identity {
	return store.Identity{Username: username}
}
