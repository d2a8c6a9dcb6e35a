package principal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		login      string
		form       Form
		netbios    string
		username   string
		suffix     string
		upn        string
		samAccount string
	}{
		{login: `DOMAIN\bob`, form: FormNetBIOS, netbios: "DOMAIN", username: "bob", upn: "bob", samAccount: "bob"},
		{login: `corp\alice`, form: FormNetBIOS, netbios: "CORP", username: "alice", upn: "alice", samAccount: "alice"},
		{login: `corp\alice@corp.example`, form: FormNetBIOS, netbios: "CORP", username: "alice@corp.example", upn: "alice@corp.example", samAccount: "alice@corp.example"},
		{login: "bob@corp.example", form: FormUPN, username: "bob", suffix: "corp.example", upn: "bob@corp.example", samAccount: "bob"},
		{login: "bob@@corp.example", form: FormUPN, username: "bob", suffix: "corp.example", upn: "bob@corp.example", samAccount: "bob"},
		{login: "bob@", form: FormUPN, username: "bob", upn: "bob", samAccount: "bob"},
		{login: "bob", form: FormPlain, username: "bob", upn: "bob", samAccount: "bob"},
		{login: "", form: FormPlain, username: "", upn: "", samAccount: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.login, func(t *testing.T) {
			c := Parse(tc.login)

			assert.Equal(t, tc.login, c.Login)
			assert.Equal(t, tc.form, c.Form)
			assert.Equal(t, tc.netbios, c.NetBIOSName)
			assert.Equal(t, tc.username, c.UPNUsername)
			assert.Equal(t, tc.suffix, c.UPNSuffix)
			assert.Equal(t, tc.upn, c.UserPrincipalName())
			assert.Equal(t, tc.samAccount, c.SAMAccountName)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	for _, login := range []string{`A\b`, "a@b", "ab", `a@b\c`} {
		assert.Equal(t, Parse(login), Parse(login))
	}
}

func TestWithTransitionsDoNotAlias(t *testing.T) {
	base := Parse("bob@corp.example").WithOption("source", "login")
	changed := base.WithOption("source", "sync").
		WithSuffix("@other.example").
		WithObjectGUID("guid").
		WithLocalUserID(7).
		WithSAMAccountName("bob2")

	assert.Equal(t, "login", base.Option("source"))
	assert.Equal(t, "sync", changed.Option("source"))
	assert.Equal(t, "bob@corp.example", base.UserPrincipalName())
	assert.Equal(t, "bob@other.example", changed.UserPrincipalName())
	assert.Empty(t, base.ObjectGUID)
	assert.Equal(t, uint64(7), changed.LocalUserID)
	assert.Equal(t, "bob2", changed.SAMAccountName)
	assert.Equal(t, "bob", changed.WithSAMAccountName("").SAMAccountName)
}

func TestWithUserPrincipalName(t *testing.T) {
	c := Parse(`CORP\bob`).WithUserPrincipalName("robert@corp.example")
	assert.Equal(t, "robert", c.UPNUsername)
	assert.Equal(t, "corp.example", c.UPNSuffix)
	assert.Equal(t, "CORP", c.NetBIOSName)

	assert.Equal(t, c, c.WithUserPrincipalName(""))
}

func TestToQuery(t *testing.T) {
	q := Parse("bob@corp.example").ToQuery()
	assert.False(t, q.IsGUID())
	assert.Equal(t, "bob@corp.example", q.UserPrincipalName)
	assert.Equal(t, "bob", q.SAMAccountName)

	q = Parse("bob").WithObjectGUID("01020304-0506-0708-090a-0b0c0d0e0f10").ToQuery()
	assert.True(t, q.IsGUID())
}
