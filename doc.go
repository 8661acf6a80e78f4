// Package auth implements a minimal email/password authentication API:
// user registration, credential verification, and bearer token issuance
// backed by a bun user store.
package auth
