// Package dbmanager owns the connection to the PostgreSQL store.
//
// A Manager moves through Disconnected → Connecting → Connected and back to
// Disconnected on Disconnect or a failed liveness probe. Liveness is a
// "SELECT 1" bounded by Options.ProbeTimeout.
//
// Provisioning (CreateDatabase, CreateReadOnlyRole) uses short-lived admin
// connections separate from the live one, validates every identifier before
// it is interpolated into DDL and admits one operation at a time: a second
// concurrent call fails with common.ErrProvisioningInProgress.
//
// The *Async variants run the same operations on a goroutine and deliver the
// result on a buffered channel that receives exactly one value.
package dbmanager
