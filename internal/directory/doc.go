// Package directory is the boundary to the Active Directory server.
//
// Client and Session describe the operations the synchronization core needs
// from a directory: binding as a user, looking up a principal's attributes,
// enumerating group members and writing attributes back. LDAPClient
// implements them on top of github.com/go-ldap/ldap/v3; the wire protocol,
// TLS negotiation and server failover live here and nowhere else.
//
// A Session is single-writer state (bound credentials, chosen server) and
// must not be shared between goroutines. Each login attempt and each
// synchronization run opens its own.
package directory
