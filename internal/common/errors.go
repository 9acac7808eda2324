// Package common defines sentinel errors and small helpers shared by the
// pharmgate packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Input errors, surfaced to the caller and never logged as faults.
	ErrValidation        = errors.New("validation error")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")

	// Access errors. ErrSelfDelete is an authorization error as well.
	ErrAuthorization        = errors.New("not authorized")
	ErrSelfDelete           = &wrapped{msg: "cannot delete the signed-in account", base: ErrAuthorization}
	ErrAuthenticationFailed = errors.New("invalid username or password")

	// Store / infrastructure errors.
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrProvisioningInProgress = errors.New("provisioning already in progress")

	// Secret vault errors.
	ErrDecryption = errors.New("secret cannot be decrypted")
)

// wrapped is a sentinel that also matches its base sentinel with errors.Is.
type wrapped struct {
	msg  string
	base error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.base }
