package attribute

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
)

const (
	// windowsEpochDelta is the number of seconds between 1601-01-01 and 1970-01-01.
	windowsEpochDelta = 11644473600
	// ticksPerSecond is the number of 100ns FILETIME intervals per second.
	ticksPerSecond = 10_000_000
	secondsPerHour = 3600
)

// ErrNoValue is returned when an attribute has no value to convert.
var ErrNoValue = errors.New("attribute has no value")

// Converter coerces raw directory values into typed Go values.
//
// Result types per kind: string, int64, bool, int64 (Unix seconds) for time
// and timestamp, base64 string for octet, string for cn and []string for list.
type Converter struct {
	// GMTOffset in hours is added to UTC times.
	GMTOffset float64
}

// NewConverter returns a Converter that shifts UTC times by offsetHours.
func NewConverter(offsetHours float64) Converter {
	return Converter{GMTOffset: offsetHours}
}

type convertFunc func(c Converter, values [][]byte) (any, error)

var converters = [...]convertFunc{
	KindString:    convertString,
	KindInteger:   convertInteger,
	KindBool:      convertBool,
	KindTime:      convertTime,
	KindTimestamp: convertTimestamp,
	KindOctet:     convertOctet,
	KindCN:        convertCN,
	KindList:      convertList,
}

// Convert coerces values according to kind.
func (c Converter) Convert(kind Kind, values [][]byte) (any, error) {
	if int(kind) >= len(converters) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if len(values) == 0 {
		return nil, ErrNoValue
	}

	return converters[kind](c, values)
}

func (c Converter) offsetSeconds() int64 {
	return int64(c.GMTOffset * secondsPerHour)
}

func first(values [][]byte) string {
	return string(values[0])
}

func convertString(_ Converter, values [][]byte) (any, error) {
	return first(values), nil
}

func convertInteger(_ Converter, values [][]byte) (any, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(first(values)), 10, 64)
	if err != nil {
		return int64(0), fmt.Errorf("invalid integer %q: %w", first(values), err)
	}

	return v, nil
}

func convertBool(_ Converter, values [][]byte) (any, error) {
	v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(first(values))))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q: %w", first(values), err)
	}

	return v, nil
}

func convertTime(c Converter, values [][]byte) (any, error) {
	raw := strings.TrimSpace(first(values))

	t, err := ber.ParseGeneralizedTime([]byte(raw))
	if err != nil {
		return int64(0), fmt.Errorf("invalid generalized time %q: %w", raw, err)
	}

	seconds := t.Unix()
	if strings.HasSuffix(strings.ToUpper(raw), "Z") {
		seconds += c.offsetSeconds()
	}

	return seconds, nil
}

func convertTimestamp(c Converter, values [][]byte) (any, error) {
	ticks, err := strconv.ParseInt(strings.TrimSpace(first(values)), 10, 64)
	if err != nil {
		return int64(0), fmt.Errorf("invalid timestamp %q: %w", first(values), err)
	}

	return FormatTimestamp(ticks) + c.offsetSeconds(), nil
}

func convertOctet(_ Converter, values [][]byte) (any, error) {
	return base64.StdEncoding.EncodeToString(values[0]), nil
}

func convertCN(_ Converter, values [][]byte) (any, error) {
	return ExtractCN(first(values)), nil
}

func convertList(_ Converter, values [][]byte) (any, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}

	return strings.Split(strings.Join(parts, "\n"), "\n"), nil
}

// FormatTimestamp converts a Windows FILETIME (100ns ticks since 1601) into Unix seconds.
func FormatTimestamp(ticks int64) int64 {
	return ticks/ticksPerSecond - windowsEpochDelta
}

// ExtractCN returns the value of the first CN attribute of a distinguished
// name with escapes decoded. An unparsable DN or one without CN yields "".
func ExtractCN(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return ""
	}

	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "CN") {
				return attr.Value
			}
		}
	}

	return ""
}
