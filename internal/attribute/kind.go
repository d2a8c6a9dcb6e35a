// Package attribute holds the typed attribute schema shared by both
// synchronization directions and the conversion of raw directory values
// into typed Go values.
package attribute

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for an unrecognised type name.
var ErrUnknownKind = errors.New("unknown attribute type")

// Kind is the closed set of attribute value types.
type Kind uint8

const (
	// KindString is a single UTF-8 string.
	KindString Kind = iota
	// KindInteger is a signed integer.
	KindInteger
	// KindBool is an LDAP boolean (TRUE/FALSE).
	KindBool
	// KindTime is an ASN.1 GeneralizedTime, converted to Unix seconds.
	KindTime
	// KindTimestamp is a Windows FILETIME, converted to Unix seconds.
	KindTimestamp
	// KindOctet is binary data, converted to base64.
	KindOctet
	// KindCN is a distinguished name reduced to its first CN component.
	KindCN
	// KindList is a multi-valued attribute.
	KindList
)

var kindNames = [...]string{
	KindString:    "string",
	KindInteger:   "integer",
	KindBool:      "bool",
	KindTime:      "time",
	KindTimestamp: "timestamp",
	KindOctet:     "octet",
	KindCN:        "cn",
	KindList:      "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a configured type name onto a Kind. An empty name is KindString.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return KindString, nil
	}

	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}

	return KindString, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
