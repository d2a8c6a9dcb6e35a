package attribute

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// MetaPrefix prefixes the local-store meta key of every default attribute.
const MetaPrefix = "dirsync_"

// Definition describes one directory attribute and how it maps onto the local store.
type Definition struct {
	Name               string // directory attribute name, e.g. "givenName"
	Kind               Kind
	MetaKey            string // key under which the value is stored locally
	Description        string
	Syncable           bool // written back to the directory
	Viewable           bool // shown on the user's profile
	OverwriteWithEmpty bool // an empty directory value clears the local value
}

// Custom is an admin-defined attribute as it appears in configuration.
type Custom struct {
	Name               string `json:"name"               toml:"name"               validate:"required"`
	Type               string `json:"type"               toml:"type"`
	MetaKey            string `json:"metaKey"            toml:"metaKey"`
	Description        string `json:"description"        toml:"description"`
	Syncable           bool   `json:"syncable"           toml:"syncable"`
	Viewable           bool   `json:"viewable"           toml:"viewable"`
	OverwriteWithEmpty bool   `json:"overwriteWithEmpty" toml:"overwriteWithEmpty"`
}

// binaryAttributes receive a binary to canonical string transform before type coercion.
var binaryAttributes = map[string]bool{
	"objectguid": true,
}

// IsBinary reports whether the attribute is stored as binary and needs canonicalisation.
func IsBinary(name string) bool {
	return binaryAttributes[strings.ToLower(name)]
}

func def(name string, kind Kind, description string, syncable, viewable bool) Definition {
	return Definition{
		Name:        name,
		Kind:        kind,
		MetaKey:     MetaPrefix + strings.ToLower(name),
		Description: description,
		Syncable:    syncable,
		Viewable:    viewable,
	}
}

// Defaults returns the built-in attribute definitions.
func Defaults() []Definition {
	return []Definition{
		def("objectGUID", KindString, "Object GUID", false, false),
		def("objectSid", KindOctet, "Security identifier", false, false),
		def("sAMAccountName", KindString, "Account name", false, true),
		def("userPrincipalName", KindString, "User principal name", false, true),
		def("userAccountControl", KindInteger, "Account control flags", false, false),
		def("cn", KindString, "Common name", false, false),
		def("givenName", KindString, "First name", true, true),
		def("sn", KindString, "Last name", true, true),
		def("displayName", KindString, "Display name", true, true),
		def("description", KindString, "Description", true, true),
		def("mail", KindString, "E-mail", false, true),
		def("telephoneNumber", KindString, "Telephone number", true, true),
		def("mobile", KindString, "Mobile number", true, true),
		def("title", KindString, "Job title", true, true),
		def("department", KindString, "Department", true, true),
		def("company", KindString, "Company", true, true),
		def("physicalDeliveryOfficeName", KindString, "Office", true, true),
		def("streetAddress", KindString, "Street", true, true),
		def("l", KindString, "City", true, true),
		def("postalCode", KindString, "Postal code", true, true),
		def("co", KindString, "Country", true, true),
		def("wWWHomePage", KindString, "Web page", true, true),
		def("manager", KindCN, "Manager", false, true),
		def("memberOf", KindList, "Group memberships", false, false),
		def("otherTelephone", KindList, "Other telephone numbers", true, true),
		def("whenCreated", KindTime, "Created", false, false),
		def("whenChanged", KindTime, "Changed", false, false),
		def("lastLogonTimestamp", KindTimestamp, "Last logon", false, true),
		def("pwdLastSet", KindTimestamp, "Password last set", false, false),
		def("accountExpires", KindTimestamp, "Account expires", false, false),
	}
}

// Schema is the effective attribute set: the defaults united with custom definitions.
type Schema struct {
	defs  map[string]Definition
	order []string
}

// NewSchema builds the schema. A custom definition replaces a default of the same name.
// Custom definitions with an unknown type fall back to KindString.
func NewSchema(custom []Custom) Schema {
	s := Schema{defs: make(map[string]Definition)}

	for _, d := range Defaults() {
		s.add(d)
	}

	for _, c := range custom {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			log.Warn().Msg("ignoring custom attribute without name")
			continue
		}

		kind, err := ParseKind(c.Type)
		if err != nil {
			log.Warn().Err(err).Str("attribute", name).Msg("falling back to string type")
		}

		metaKey := strings.TrimSpace(c.MetaKey)
		if metaKey == "" {
			metaKey = MetaPrefix + strings.ToLower(name)
		}

		s.add(Definition{
			Name:               name,
			Kind:               kind,
			MetaKey:            metaKey,
			Description:        c.Description,
			Syncable:           c.Syncable,
			Viewable:           c.Viewable,
			OverwriteWithEmpty: c.OverwriteWithEmpty,
		})
	}

	return s
}

func (s *Schema) add(d Definition) {
	key := strings.ToLower(d.Name)
	if _, exists := s.defs[key]; !exists {
		s.order = append(s.order, key)
	}

	s.defs[key] = d
}

// Lookup returns the definition for a directory attribute name.
func (s Schema) Lookup(name string) (Definition, bool) {
	d, ok := s.defs[strings.ToLower(name)]
	return d, ok
}

// Definitions returns all definitions in declaration order.
func (s Schema) Definitions() []Definition {
	out := make([]Definition, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.defs[key])
	}

	return out
}

// Names returns the directory attribute names to request in a lookup.
func (s Schema) Names() []string {
	out := make([]string, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.defs[key].Name)
	}

	return out
}

// Syncable returns the definitions written back to the directory, sorted by name.
func (s Schema) Syncable() []Definition {
	var out []Definition

	for _, key := range s.order {
		if s.defs[key].Syncable {
			out = append(out, s.defs[key])
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}
