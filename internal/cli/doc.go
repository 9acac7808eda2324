// Package cli provides the interactive pharmgate console.
//
// It wires configuration, the connection manager, the identity store and the
// auth manager behind a small REPL. On start it restores the remembered
// connection profile (the password is decrypted through the vault) and
// connects in the background with a bounded wait.
//
// The operator's role always comes from signing in with 'login'; it is never
// derived from the database account used to connect.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See runREPL for the command list.
package cli
