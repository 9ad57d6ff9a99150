package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUsernameTaken      = errors.New("auth: username already exists")
	ErrInvalidUser        = errors.New("auth: invalid user")
	ErrSessionNotFound    = errors.New("auth: session not found or expired")
	ErrSelfDelete         = errors.New("auth: users cannot delete their own account")
)
