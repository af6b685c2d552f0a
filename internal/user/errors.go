package user

import "github.com/authgate/authgate/internal/apperr"

var (
	// ErrUserNotFound is returned for unknown or deleted users.
	ErrUserNotFound = apperr.NotFound("user not found")

	// ErrUserNameExists is returned when another live user has the username.
	ErrUserNameExists = apperr.Conflict("username already exists")

	// ErrUnknownRole is returned when a role reference names no live role.
	ErrUnknownRole = apperr.Validation("role does not exist")
)
