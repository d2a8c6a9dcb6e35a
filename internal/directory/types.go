package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNoServers is returned by Connect when Params lists no server.
	ErrNoServers = errors.New("no directory server configured")
	// ErrUnreachable is returned by Connect when no configured server accepted a connection.
	ErrUnreachable = errors.New("no directory server reachable")
	// ErrInvalidGUID is returned when a GUID string or byte slice cannot be decoded.
	ErrInvalidGUID = errors.New("invalid object GUID")
	// ErrAmbiguous is returned when a lookup matches more than one entry.
	ErrAmbiguous = errors.New("lookup matched more than one entry")
	// ErrGroupNotFound is returned when a named group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrUnknownEncryption is returned by ParseEncryption for unsupported modes.
	ErrUnknownEncryption = errors.New("unknown encryption mode")
)

// Encryption selects how the connection to the directory is secured.
type Encryption string

const (
	// EncryptionNone uses plain LDAP.
	EncryptionNone Encryption = "none"
	// EncryptionStartTLS upgrades a plain LDAP connection with StartTLS.
	EncryptionStartTLS Encryption = "starttls"
	// EncryptionLDAPS connects with LDAP over TLS.
	EncryptionLDAPS Encryption = "ldaps"
)

// ParseEncryption maps a configuration value onto an Encryption mode.
// The empty string means EncryptionNone.
func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EncryptionNone, nil
	case "starttls", "start-tls", "tls":
		return EncryptionStartTLS, nil
	case "ldaps", "ssl":
		return EncryptionLDAPS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncryption, s)
	}
}

// Params are the connection parameters of a directory session.
type Params struct {
	BaseDN          string
	Servers         []string // tried in order until one accepts a connection
	Port            int
	Encryption      Encryption
	Timeout         time.Duration // bind / network timeout
	AllowSelfSigned bool
}

// Key identifies the principal a Lookup searches for.
type Key struct {
	Attribute string
	Value     string
}

const (
	// AttrObjectGUID is the objectGUID attribute name.
	AttrObjectGUID = "objectGUID"
	// AttrObjectSID is the objectSid attribute name.
	AttrObjectSID = "objectSid"
	// AttrUserPrincipalName is the userPrincipalName attribute name.
	AttrUserPrincipalName = "userPrincipalName"
	// AttrSAMAccountName is the sAMAccountName attribute name.
	AttrSAMAccountName = "sAMAccountName"
	// AttrUserAccountControl is the userAccountControl attribute name.
	AttrUserAccountControl = "userAccountControl"
	// AttrPrimaryGroupID is the primaryGroupID attribute name.
	AttrPrimaryGroupID = "primaryGroupID"
)

// ByGUID returns a lookup key for an object GUID in canonical string form.
func ByGUID(guid string) Key { return Key{Attribute: AttrObjectGUID, Value: guid} }

// ByUserPrincipalName returns a lookup key for a userPrincipalName.
func ByUserPrincipalName(upn string) Key { return Key{Attribute: AttrUserPrincipalName, Value: upn} }

// BySAMAccountName returns a lookup key for a sAMAccountName.
func BySAMAccountName(sam string) Key { return Key{Attribute: AttrSAMAccountName, Value: sam} }

// Record is a raw directory entry. Attribute names are matched case-insensitively.
// The zero Record is empty and stands for "not found".
type Record struct {
	DN     string
	values map[string][][]byte
	names  map[string]string
}

// NewRecord builds a Record from raw attribute values.
func NewRecord(dn string, attrs map[string][][]byte) Record {
	r := Record{
		DN:     dn,
		values: make(map[string][][]byte, len(attrs)),
		names:  make(map[string]string, len(attrs)),
	}

	for name, vals := range attrs {
		key := strings.ToLower(name)
		r.values[key] = vals
		r.names[key] = name
	}

	return r
}

// NewStringRecord builds a Record from string values. Handy for tests and fakes.
func NewStringRecord(dn string, attrs map[string][]string) Record {
	raw := make(map[string][][]byte, len(attrs))

	for name, vals := range attrs {
		bs := make([][]byte, len(vals))
		for i, v := range vals {
			bs[i] = []byte(v)
		}

		raw[name] = bs
	}

	return NewRecord(dn, raw)
}

// IsEmpty reports whether the record holds no attributes.
func (r Record) IsEmpty() bool {
	return len(r.values) == 0
}

// Has reports whether the attribute is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[strings.ToLower(name)]
	return ok
}

// Values returns the raw values of an attribute.
func (r Record) Values(name string) [][]byte {
	return r.values[strings.ToLower(name)]
}

// Strings returns the values of an attribute as strings.
func (r Record) Strings(name string) []string {
	raw := r.Values(name)
	out := make([]string, len(raw))

	for i, v := range raw {
		out[i] = string(v)
	}

	return out
}

// Value returns the first value of an attribute, or "" if absent.
func (r Record) Value(name string) string {
	raw := r.Values(name)
	if len(raw) == 0 {
		return ""
	}

	return string(raw[0])
}

// Names returns the attribute names in sorted order, as returned by the server.
func (r Record) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// Member is a directory account found while enumerating a group.
type Member struct {
	DN                string
	GUID              string
	SID               string
	SAMAccountName    string
	UserPrincipalName string
}

// Client opens directory sessions.
type Client interface {
	Connect(ctx context.Context, params Params) (Session, error)
}

// Session is one connection to the directory.
type Session interface {
	// Authenticate binds as username@suffix (or username when suffix is empty).
	// A rejected bind is reported as (false, nil); transport failures as an error.
	Authenticate(ctx context.Context, username, suffix, password string) (bool, error)
	// Lookup returns the entry matching key with the requested attributes.
	// A missing entry is an empty Record and a nil error.
	Lookup(ctx context.Context, key Key, attributes []string) (Record, error)
	// GroupMembers lists the user accounts of a group. A group given as
	// "id:<n>" selects the accounts whose primaryGroupID is n.
	GroupMembers(ctx context.Context, group string) ([]Member, error)
	// WriteAttributes replaces the given attributes on the object with the GUID.
	// An empty value slice clears the attribute.
	WriteAttributes(ctx context.Context, guid string, attributes map[string][]string) error
	// Server returns the address of the server the session is connected to.
	Server() string
	Close() error
}
