package domain

import "errors"

// ErrUserNotFound indicates the identity does not exist in the directory.
// The dispatcher treats it as recipient-absent, not as a failure.
var ErrUserNotFound = errors.New("user not found")
