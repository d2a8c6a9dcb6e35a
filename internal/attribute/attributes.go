package attribute

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/directory"
)

// DirectoryAttributes pairs a raw directory record with its typed projection.
// It is immutable once built.
type DirectoryAttributes struct {
	raw      directory.Record
	filtered map[string]any
}

// Parse converts every attribute of raw that the schema knows into its typed value.
// Values that fail to convert are logged and left out.
func Parse(raw directory.Record, schema Schema, conv Converter) DirectoryAttributes {
	out := DirectoryAttributes{
		raw:      raw,
		filtered: make(map[string]any),
	}

	for _, d := range schema.Definitions() {
		values := raw.Values(d.Name)
		if len(values) == 0 {
			continue
		}

		if IsBinary(d.Name) {
			values = canonicalizeBinary(values)
		}

		v, err := conv.Convert(d.Kind, values)
		if err != nil {
			if !errors.Is(err, ErrNoValue) {
				log.Warn().Err(err).Str("attribute", d.Name).Str("dn", raw.DN).Msg("could not convert attribute")
			}

			continue
		}

		out.filtered[strings.ToLower(d.Name)] = v
	}

	return out
}

// canonicalizeBinary turns binary GUIDs into their string form. Values that
// already are GUID strings are normalised.
func canonicalizeBinary(values [][]byte) [][]byte {
	out := make([][]byte, 0, len(values))

	for _, v := range values {
		if s, err := directory.GUIDFromBytes(v); err == nil {
			out = append(out, []byte(s))
			continue
		}

		if s, err := directory.NormalizeGUID(string(v)); err == nil {
			out = append(out, []byte(s))
			continue
		}

		log.Warn().Int("length", len(v)).Msg("dropping undecodable binary value")
	}

	return out
}

// Raw returns the underlying directory record.
func (a DirectoryAttributes) Raw() directory.Record {
	return a.raw
}

// IsEmpty reports whether the directory returned nothing.
func (a DirectoryAttributes) IsEmpty() bool {
	return a.raw.IsEmpty()
}

// FilteredValue returns the typed value of an attribute, or def if absent.
func (a DirectoryAttributes) FilteredValue(name string, def any) any {
	if v, ok := a.filtered[strings.ToLower(name)]; ok {
		return v
	}

	return def
}

// String returns a string typed attribute, or "".
func (a DirectoryAttributes) String(name string) string {
	s, _ := a.FilteredValue(name, "").(string)
	return s
}

// Int returns an integer, time or timestamp typed attribute, or 0.
func (a DirectoryAttributes) Int(name string) int64 {
	i, _ := a.FilteredValue(name, int64(0)).(int64)
	return i
}

