// Package directorytest provides an in-memory directory for tests.
package directorytest

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"github.com/dirsync/dirsync/internal/directory"
)

// ErrWriteRejected is returned by WriteAttributes for GUIDs listed in RejectWrites.
var ErrWriteRejected = errors.New("write rejected")

// Entry is one account in the fake directory.
type Entry struct {
	DN         string
	Password   string
	Attributes map[string][]string
}

// Directory is an in-memory directory.Client. It records every call so tests
// can assert on the traffic a component produced.
type Directory struct {
	mu sync.Mutex

	entries []Entry
	members map[string][]directory.Member

	// ConnectErr, when set, fails every Connect.
	ConnectErr error
	// BindErr fails binds whose bind name is listed.
	BindErr map[string]error
	// LookupErr fails lookups whose key value is listed.
	LookupErr map[string]error
	// RejectWrites fails writes for the listed GUIDs.
	RejectWrites map[string]bool

	Connects int
	Binds    []string
	Lookups  []directory.Key
	Writes   map[string]map[string][]string
}

// New returns an empty fake directory.
func New() *Directory {
	return &Directory{
		members:      make(map[string][]directory.Member),
		BindErr:      make(map[string]error),
		LookupErr:    make(map[string]error),
		RejectWrites: make(map[string]bool),
		Writes:       make(map[string]map[string][]string),
	}
}

// Add stores an entry.
func (d *Directory) Add(e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = append(d.entries, e)
}

// Remove deletes every entry carrying the GUID.
func (d *Directory) Remove(guid string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.entries[:0]
	for _, e := range d.entries {
		if !strings.EqualFold(first(e.Attributes, directory.AttrObjectGUID), guid) {
			kept = append(kept, e)
		}
	}

	d.entries = kept
}

// SetMembers defines the members returned for a group.
func (d *Directory) SetMembers(group string, members ...directory.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.members[strings.ToLower(group)] = members
}

// Connect implements directory.Client.
func (d *Directory) Connect(_ context.Context, _ directory.Params) (directory.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Connects++
	if d.ConnectErr != nil {
		return nil, d.ConnectErr
	}

	return &session{d: d}, nil
}

func first(attrs map[string][]string, name string) string {
	for k, v := range attrs {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}

	return ""
}

type session struct {
	d *Directory
}

func (s *session) Server() string { return "fake" }

func (s *session) Close() error { return nil }

func (s *session) Authenticate(_ context.Context, username, suffix, password string) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	bindName := username
	if suffix != "" {
		bindName = username + "@" + suffix
	}

	s.d.Binds = append(s.d.Binds, bindName)

	if err, ok := s.d.BindErr[strings.ToLower(bindName)]; ok {
		return false, err
	}

	if password == "" {
		return false, nil
	}

	for _, e := range s.d.entries {
		upn := first(e.Attributes, directory.AttrUserPrincipalName)
		sam := first(e.Attributes, directory.AttrSAMAccountName)

		if (strings.EqualFold(upn, bindName) || (suffix == "" && strings.EqualFold(sam, username))) &&
			e.Password == password {
			return true, nil
		}
	}

	return false, nil
}

func (s *session) Lookup(_ context.Context, key directory.Key, _ []string) (directory.Record, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	s.d.Lookups = append(s.d.Lookups, key)

	if err, ok := s.d.LookupErr[key.Value]; ok {
		return directory.Record{}, err
	}

	for _, e := range s.d.entries {
		if key.Value != "" && strings.EqualFold(first(e.Attributes, key.Attribute), key.Value) {
			return directory.NewStringRecord(e.DN, e.Attributes), nil
		}
	}

	return directory.Record{}, nil
}

func (s *session) GroupMembers(_ context.Context, group string) ([]directory.Member, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	members, ok := s.d.members[strings.ToLower(strings.TrimSpace(group))]
	if !ok {
		return nil, directory.ErrGroupNotFound
	}

	return members, nil
}

func (s *session) WriteAttributes(_ context.Context, guid string, attributes map[string][]string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	if s.d.RejectWrites[guid] {
		return ErrWriteRejected
	}

	s.d.Writes[guid] = maps.Clone(attributes)

	return nil
}
