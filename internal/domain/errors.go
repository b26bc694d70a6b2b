package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz is not part of the loaded catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when the user has no active quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrProfileNotFound is returned when no profile exists for the user or lookup key.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrTierNotFound indicates a redemption tier index outside the tier table.
	ErrTierNotFound = errors.New("redemption tier not found")
	// ErrNoSelection is returned when advancing before an answer has been selected.
	ErrNoSelection = errors.New("no answer selected")
	// ErrInvalidOption indicates an option index outside [0,4).
	ErrInvalidOption = errors.New("invalid answer option")
	// ErrSessionFinished is returned when answering a quiz that is already finished.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrSessionInProgress is returned when settling a quiz that is not finished yet.
	ErrSessionInProgress = errors.New("quiz session still in progress")
	// ErrAuthenticationRequired is returned when an operation needs a signed-in user.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrGameIDRegistered is returned on signup with a game id that already has a profile.
	ErrGameIDRegistered = errors.New("game id already registered")
	// ErrEmailRegistered is returned on signup with an email that already has a profile.
	ErrEmailRegistered = errors.New("email already registered")
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRegionMismatch is returned when logging in with a region other than the registered one.
	ErrRegionMismatch = errors.New("region does not match registered account")
	// ErrUnknownRegion is returned for region codes outside the supported list.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrInvalidInput is returned for missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	ErrAlreadyCompleted    = errors.New("quiz already completed")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	ErrVerificationFailed  = errors.New("external verification failed")
	ErrStoreUnavailable    = errors.New("profile store unavailable")
)

// AlreadyCompletedError carries the attempt recorded by an earlier settlement.
type AlreadyCompletedError struct {
	Attempt CompletedAttempt
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("quiz %s already completed with score %d/%d", e.Attempt.QuizID, e.Attempt.Score, e.Attempt.TotalQuestions)
}

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// InsufficientBalanceError reports the balance that fell short of a tier cost.
type InsufficientBalanceError struct {
	Balance  int
	Required int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient coins: have %d, need %d", e.Balance, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// ExternalVerificationError is surfaced verbatim to the user.
type ExternalVerificationError struct {
	Reason string
	Err    error
}

func (e *ExternalVerificationError) Error() string { return e.Reason }

func (e *ExternalVerificationError) Unwrap() error { return e.Err }

func (e *ExternalVerificationError) Is(target error) bool { return target == ErrVerificationFailed }

// StoreUnavailableError wraps a backing-store failure for operation Op.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: profile store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }
