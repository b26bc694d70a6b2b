package app

import (
	"errors"

	"ffquiz-service/internal/domain"
)

var knownErrors = []error{
	domain.ErrQuizNotFound,
	domain.ErrSessionNotFound,
	domain.ErrProfileNotFound,
	domain.ErrTierNotFound,
	domain.ErrNoSelection,
	domain.ErrInvalidOption,
	domain.ErrSessionFinished,
	domain.ErrSessionInProgress,
	domain.ErrAuthenticationRequired,
	domain.ErrGameIDRegistered,
	domain.ErrEmailRegistered,
	domain.ErrInvalidCredentials,
	domain.ErrRegionMismatch,
	domain.ErrUnknownRegion,
	domain.ErrInvalidInput,
	domain.ErrAlreadyCompleted,
	domain.ErrInsufficientBalance,
	domain.ErrVerificationFailed,
	domain.ErrStoreUnavailable,
}

// storeError converts anything that is not already a domain error into a
// StoreUnavailableError tagged with op.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return &domain.StoreUnavailableError{Op: op, Err: err}
}
