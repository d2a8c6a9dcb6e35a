// Package principal turns raw login strings into structured credentials.
package principal

import (
	"maps"
	"strings"
)

// Form is the syntax a login string was given in.
type Form int

const (
	// FormPlain is a bare account name.
	FormPlain Form = iota
	// FormNetBIOS is DOMAIN\user.
	FormNetBIOS
	// FormUPN is user@suffix.
	FormUPN
)

func (f Form) String() string {
	switch f {
	case FormNetBIOS:
		return "netbios"
	case FormUPN:
		return "upn"
	default:
		return "plain"
	}
}

// Credentials is the identity in flight during one login attempt or for one
// synchronized account. It is a value: the With* methods return modified copies.
type Credentials struct {
	Login          string // as entered
	Form           Form
	NetBIOSName    string
	UPNUsername    string
	UPNSuffix      string
	SAMAccountName string
	Password       string //nolint:gosec // in-flight only, never persisted
	ObjectGUID     string
	KerberosRealm  string
	LocalUserID    uint64
	Options        map[string]string
}

// Parse splits a login into its components. It never fails.
//
// DOMAIN\user takes precedence over user@suffix, anything else is used as
// the user name as is. SAMAccountName starts out as the user name.
func Parse(login string) Credentials {
	c := Credentials{Login: login, Form: FormPlain, UPNUsername: login}

	if i := strings.Index(login, `\`); i >= 0 {
		c.Form = FormNetBIOS
		c.NetBIOSName = strings.ToUpper(login[:i])
		c.UPNUsername = login[i+1:]
	} else if i = strings.Index(login, "@"); i >= 0 {
		c.Form = FormUPN
		c.UPNUsername = login[:i]
		c.UPNSuffix = strings.TrimLeft(login[i+1:], "@")
	}

	c.SAMAccountName = c.UPNUsername

	return c
}

// UserPrincipalName returns user@suffix, or the bare user name without a suffix.
func (c Credentials) UserPrincipalName() string {
	if c.UPNSuffix == "" {
		return c.UPNUsername
	}

	return c.UPNUsername + "@" + c.UPNSuffix
}

// WithPassword returns a copy carrying password.
func (c Credentials) WithPassword(password string) Credentials {
	c.Password = password
	return c
}

// WithSuffix returns a copy with the UPN suffix replaced.
func (c Credentials) WithSuffix(suffix string) Credentials {
	c.UPNSuffix = strings.TrimLeft(suffix, "@")
	return c
}

// WithUserPrincipalName returns a copy whose user name and suffix are taken from upn.
// An empty upn leaves the credentials unchanged.
func (c Credentials) WithUserPrincipalName(upn string) Credentials {
	if upn == "" {
		return c
	}

	if i := strings.LastIndex(upn, "@"); i >= 0 {
		c.UPNUsername = upn[:i]
		c.UPNSuffix = upn[i+1:]
	} else {
		c.UPNUsername = upn
		c.UPNSuffix = ""
	}

	return c
}

// WithSAMAccountName returns a copy with the canonical sAMAccountName.
// An empty name leaves the credentials unchanged.
func (c Credentials) WithSAMAccountName(sam string) Credentials {
	if sam != "" {
		c.SAMAccountName = sam
	}

	return c
}

// WithObjectGUID returns a copy linked to the directory object GUID.
func (c Credentials) WithObjectGUID(guid string) Credentials {
	c.ObjectGUID = guid
	return c
}

// WithLocalUserID returns a copy linked to a local user.
func (c Credentials) WithLocalUserID(id uint64) Credentials {
	c.LocalUserID = id
	return c
}

// WithOption returns a copy with an option set. The option map is copied.
func (c Credentials) WithOption(key, value string) Credentials {
	opts := make(map[string]string, len(c.Options)+1)
	maps.Copy(opts, c.Options)
	opts[key] = value
	c.Options = opts

	return c
}

// Option returns an option value.
func (c Credentials) Option(key string) string {
	return c.Options[key]
}

// Query is a principal query against the directory.
type Query struct {
	GUID              string
	UserPrincipalName string
	SAMAccountName    string
}

// IsGUID reports whether the query should be answered by a GUID lookup first.
func (q Query) IsGUID() bool {
	return q.GUID != ""
}

// ToQuery returns the directory query for these credentials.
func (c Credentials) ToQuery() Query {
	return Query{
		GUID:              c.ObjectGUID,
		UserPrincipalName: c.UserPrincipalName(),
		SAMAccountName:    c.SAMAccountName,
	}
}
