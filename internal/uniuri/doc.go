// Package uniuri generates cryptographically secure random strings, used as
// throw-away passwords for accounts that authenticate against the directory.
package uniuri
