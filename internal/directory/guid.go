package directory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const guidBytesLength = 16

// swapGUIDEndianness converts between the mixed-endian layout Active
// Directory uses for objectGUID and RFC 4122 byte order. The operation is
// its own inverse.
func swapGUIDEndianness(in []byte) []byte {
	out := make([]byte, guidBytesLength)
	copy(out, in)

	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	out[4], out[5] = in[5], in[4]
	out[6], out[7] = in[7], in[6]

	return out
}

// GUIDFromBytes converts a binary objectGUID into its canonical lower-case string form.
func GUIDFromBytes(b []byte) (string, error) {
	if len(b) != guidBytesLength {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidGUID, guidBytesLength, len(b))
	}

	u, err := uuid.FromBytes(swapGUIDEndianness(b))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidGUID, err)
	}

	return u.String(), nil
}

// GUIDToBytes converts a GUID string (hyphenated, braced or compact) into the binary objectGUID layout.
func GUIDToBytes(guid string) ([]byte, error) {
	u, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGUID, guid)
	}

	return swapGUIDEndianness(u[:]), nil
}

// NormalizeGUID returns the canonical lower-case hyphenated form of a GUID string.
func NormalizeGUID(guid string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidGUID, guid)
	}

	return u.String(), nil
}

// guidFilterValue renders a GUID as an escaped byte sequence usable inside an LDAP filter.
func guidFilterValue(guid string) (string, error) {
	raw, err := GUIDToBytes(guid)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range raw {
		fmt.Fprintf(&b, "\\%02x", c)
	}

	return b.String(), nil
}
