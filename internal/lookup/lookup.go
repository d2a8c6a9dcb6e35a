// Package lookup resolves the typed directory attributes of a principal.
package lookup

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dirsync/dirsync/internal/attribute"
	"github.com/dirsync/dirsync/internal/directory"
	"github.com/dirsync/dirsync/internal/hook"
	"github.com/dirsync/dirsync/internal/principal"
)

// Service is the attribute service.
type Service struct {
	schema    attribute.Schema
	converter attribute.Converter
	hooks     *hook.Registry
}

// New creates an attribute service. A nil registry means no hooks.
func New(schema attribute.Schema, converter attribute.Converter, hooks *hook.Registry) *Service {
	if hooks == nil {
		hooks = hook.New()
	}

	return &Service{schema: schema, converter: converter, hooks: hooks}
}

// Schema returns the attribute schema the service converts with.
func (s *Service) Schema() attribute.Schema {
	return s.schema
}

// AttributeNames returns the attribute names requested with every lookup.
func (s *Service) AttributeNames() []string {
	return s.hooks.AttributeNames.Apply(s.schema.Names())
}

// Resolve looks the principal up by GUID (GUID queries only), then by
// userPrincipalName, then by sAMAccountName, and returns the first non-empty
// result. When every attempt comes back empty the empty result is returned
// without an error; callers check IsEmpty.
func (s *Service) Resolve(ctx context.Context, session directory.Session, q principal.Query) (attribute.DirectoryAttributes, error) {
	names := s.AttributeNames()

	var keys []directory.Key
	if q.IsGUID() {
		keys = append(keys, directory.ByGUID(q.GUID))
	}

	keys = append(keys,
		directory.ByUserPrincipalName(q.UserPrincipalName),
		directory.BySAMAccountName(q.SAMAccountName),
	)

	var record directory.Record

	for _, key := range keys {
		if key.Value == "" {
			continue
		}

		var err error

		record, err = session.Lookup(ctx, key, names)
		if err != nil {
			return attribute.DirectoryAttributes{}, err
		}

		if !record.IsEmpty() {
			log.Debug().Str("by", key.Attribute).Str("value", key.Value).Msg("resolved directory attributes")
			break
		}
	}

	return attribute.Parse(record, s.schema, s.converter), nil
}
