package models

import "errors"

// Operation failure modes surfaced to the UI boundary. All are recoverable;
// none should terminate the process.
var (
	// ErrDuplicateUsername registration attempted with a username already in use
	ErrDuplicateUsername = errors.New("username is already registered")

	// ErrUnknownUser the named account does not exist
	ErrUnknownUser = errors.New("unknown user")

	// ErrWrongPassword the supplied password failed verification
	ErrWrongPassword = errors.New("wrong password")

	// ErrCorruptCredential a stored credential token is malformed
	ErrCorruptCredential = errors.New("stored credential token is malformed")

	// ErrPersistence reading or writing a persisted document failed
	ErrPersistence = errors.New("persistence failure")

	// ErrPolicyViolation a password failed the strength, length, or charset gate
	ErrPolicyViolation = errors.New("password violates the password policy")

	// ErrUnknownRecord a vault operation referenced a record ID not in the vault
	ErrUnknownRecord = errors.New("unknown vault record")
)
