package store

import "errors"

// Error taxonomy surfaced by store operations. Handlers map these onto HTTP
// status codes; everything else is treated as an internal error.
var (
	// ErrDuplicateEmail is returned by Signup when the email is already
	// registered. Matching is a case-sensitive exact comparison.
	ErrDuplicateEmail = errors.New("user already exists")

	// ErrInvalidCredentials is returned by Login when no account matches
	// the supplied email and password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountBlocked is returned by Login when the matched account has
	// been blocked by an administrator.
	ErrAccountBlocked = errors.New("account has been blocked by the administrator")

	// ErrUserNotFound is returned by operations that must surface a missing
	// user (UpdateProfile, AdminResetPassword). Plain lookups return empty
	// results instead.
	ErrUserNotFound = errors.New("user not found")
)
