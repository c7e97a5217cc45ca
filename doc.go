// Package main provides the entry point of dirauth, an authentication service
// that verifies users against LDAP directories, local argon2id passwords and
// trusted SSO proxy headers. Directory and SSO identities are reconciled onto
// local users stored with gorm, and logins are answered with signed tokens
// through a fiber JSON API.
package main
