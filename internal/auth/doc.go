// Package auth turns credentials into local users and signed tokens.
//
// Password logins are routed by the directory auth mode:
//   - internal: local argon2id password records only
//   - internal_ldap: local records first, then the directory
//   - ldap_only: the directory only
//
// Identities proven by the directory or by a trusted reverse proxy (SSO headers)
// are reconciled onto local users keyed by canonical email. Reconciliation
// provisions unknown users, refreshes profile data and group metadata on every
// login and keeps the admin role in step with group membership according to
// the directory configuration.
//
// Users with an enabled TOTP second factor receive a short lived challenge
// token from password logins instead of a full token. SSO logins skip the
// second factor.
package auth
