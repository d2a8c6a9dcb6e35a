// Package main provides the entry point of dirsync.
// dirsync imports Active Directory group members into a gorm backed local
// user store, exports admin-chosen local attributes back to the directory
// and authenticates local logins with a directory bind. Each engine runs
// as a subcommand; see app for the command set.
package main
