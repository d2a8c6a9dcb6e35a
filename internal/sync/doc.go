// Package sync reconciles directory accounts with the local user store.
//
// The Importer pulls the members of the configured directory groups into the
// local store: it creates or updates one local user per directory object
// GUID and propagates the account state. The Exporter pushes the syncable
// attributes of linked local users back to the directory.
//
// Both engines run synchronously over a single directory session that is
// bound as the configured service account, and report their results as a
// Report. Failures of single identities are counted and logged, never
// returned.
package sync
