// Package auth authenticates logins against the directory.
//
// A login is parsed into principal.Credentials and checked locally first:
// empty logins, excluded names and the reserved administrator account are
// rejected without touching the network. The remaining logins are bound
// against the directory once per candidate UPN suffix:
//   - a configured suffix given in the login is the only candidate
//   - an unknown suffix is ignored and every configured suffix is tried
//   - without a suffix every configured suffix is tried, or the bare name
//     when none are configured
//
// The first successful bind wins. The identity is then resolved through the
// lookup service and its canonical sAMAccountName, objectGUID and
// userPrincipalName are copied onto the returned credentials. A bind that
// cannot be resolved is rejected.
//
// Every rejection surfaces as ErrRejected. Failed attempts are remembered in
// a FailureCache for a configurable period, during which the login is
// rejected without a bind.
//
// Example usage:
//
//	a, err := auth.New(cfg, directory.NewLDAPClient(false), users, lookupService, auth.NewMemoryCache())
//	creds, err := a.Authenticate(ctx, `CORP\jdoe`, password)
package auth
