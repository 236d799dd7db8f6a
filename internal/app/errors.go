package app

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation indicates a required submission field is missing.
	ErrValidation = errors.New("required field missing")
	// ErrInvalidStatus indicates an unknown process status value.
	ErrInvalidStatus = errors.New("unknown process status")
	// ErrInvalidCredentials indicates an admin email/password mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAdminPending indicates the admin account awaits approval.
	ErrAdminPending = errors.New("admin approval pending")
	// ErrAdminExists indicates the email is already registered.
	ErrAdminExists = errors.New("email already registered")
)
