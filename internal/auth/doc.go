// Package auth is the authorization gate of pharmgate. A Manager owns the
// single signed-in Session and checks it before every admin operation.
//
// Rejections are ordered so that no store round-trip is wasted: the session
// is checked first, then the input, then the store is consulted. Failed
// sign-ins always return common.ErrAuthenticationFailed, whatever the cause.
package auth
