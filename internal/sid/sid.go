// Package sid parses and formats Windows security identifiers (SIDs).
//
// Active Directory returns objectSid as a binary blob. Decode converts it to
// the textual S-1-5-21-... form, Parse reads the textual form, and
// DomainPrefix drops the trailing relative identifier so two accounts can be
// compared for membership in the same domain.
package sid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/go-objectsid"
)

const (
	// headerLength is revision (1) + sub-authority count (1) + authority (6).
	headerLength = 8
	// subAuthorityLength is the size of one sub-authority in bytes.
	subAuthorityLength = 4
	// maxSubAuthorities is the largest sub-authority count a SID may carry.
	maxSubAuthorities = 15
)

var (
	// ErrEmpty is returned when an empty string or byte slice is parsed.
	ErrEmpty = errors.New("sid: empty input")
	// ErrMalformed is returned when the input is not a well-formed SID.
	ErrMalformed = errors.New("sid: malformed security identifier")
)

// SID is an immutable parsed security identifier.
type SID struct {
	revision       uint8
	authority      uint64
	subAuthorities []uint32
}

// Parse reads a SID in its textual form, e.g. "S-1-5-21-1004336348-1177238915-682003330-512".
func Parse(s string) (SID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SID{}, ErrEmpty
	}

	parts := strings.Split(s, "-")
	if len(parts) < 3 || !strings.EqualFold(parts[0], "S") {
		return SID{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	revision, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return SID{}, fmt.Errorf("%w: revision %q", ErrMalformed, parts[1])
	}

	authority, err := strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		return SID{}, fmt.Errorf("%w: authority %q", ErrMalformed, parts[2])
	}

	subs := parts[3:]
	if len(subs) > maxSubAuthorities {
		return SID{}, fmt.Errorf("%w: %d sub-authorities", ErrMalformed, len(subs))
	}

	out := SID{
		revision:       uint8(revision),
		authority:      authority,
		subAuthorities: make([]uint32, len(subs)),
	}

	for i, sub := range subs {
		v, errParse := strconv.ParseUint(sub, 10, 32)
		if errParse != nil {
			return SID{}, fmt.Errorf("%w: sub-authority %q", ErrMalformed, sub)
		}

		out.subAuthorities[i] = uint32(v)
	}

	return out, nil
}

// Decode converts the binary objectSid representation into a SID.
func Decode(b []byte) (SID, error) {
	if len(b) == 0 {
		return SID{}, ErrEmpty
	}

	if len(b) < headerLength {
		return SID{}, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}

	count := int(b[1])
	if count > maxSubAuthorities || len(b) != headerLength+count*subAuthorityLength {
		return SID{}, fmt.Errorf("%w: %d bytes for %d sub-authorities", ErrMalformed, len(b), count)
	}

	return Parse(objectsid.Decode(b).String())
}

// FromValue accepts either the binary or the textual form. Values starting
// with "S-" are parsed as text, everything else is decoded as binary.
func FromValue(b []byte) (SID, error) {
	if len(b) > 2 && (b[0] == 'S' || b[0] == 's') && b[1] == '-' {
		return Parse(string(b))
	}

	return Decode(b)
}

// IsZero reports whether s is the zero value.
func (s SID) IsZero() bool {
	return s.revision == 0 && s.authority == 0 && len(s.subAuthorities) == 0
}

// String formats the SID as S-R-A-S1-S2-...
func (s SID) String() string {
	if s.IsZero() {
		return ""
	}

	var b strings.Builder

	b.WriteString("S-")
	b.WriteString(strconv.FormatUint(uint64(s.revision), 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(s.authority, 10))

	for _, sub := range s.subAuthorities {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(sub), 10))
	}

	return b.String()
}

// DomainPrefix returns the SID of the issuing domain, i.e. the SID without
// its relative identifier.
func (s SID) DomainPrefix() string {
	if len(s.subAuthorities) == 0 {
		return s.String()
	}

	domain := SID{
		revision:       s.revision,
		authority:      s.authority,
		subAuthorities: s.subAuthorities[:len(s.subAuthorities)-1],
	}

	return domain.String()
}

// InDomain reports whether s was issued by the domain identified by domainSID.
// An empty domainSID never matches.
func (s SID) InDomain(domainSID string) bool {
	domainSID = strings.TrimSpace(domainSID)
	if domainSID == "" || s.IsZero() {
		return false
	}

	return strings.EqualFold(s.DomainPrefix(), domainSID)
}
