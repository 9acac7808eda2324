package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/pharmgate/internal/common"
)

var errTimeout = errors.New("timed out waiting for the database")

// describe turns an error into the line shown to the operator.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrSelfDelete):
		return "You cannot delete the account you are signed in with."
	case errors.Is(err, common.ErrAuthorization):
		return "Not allowed: " + err.Error()
	case errors.Is(err, common.ErrAuthenticationFailed):
		return "Invalid username or password."
	case errors.Is(err, common.ErrInvalidIdentifier):
		return "Invalid name: use letters, digits and '_', not starting with a digit (max 63)."
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return "Already exists: " + err.Error()
	case errors.Is(err, common.ErrNotFound):
		return "Not found."
	case errors.Is(err, common.ErrProvisioningInProgress):
		return "Another provisioning operation is running, try again later."
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, errTimeout):
		return "Database is not available: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}
	return "Error: " + err.Error()
}
