package auth

import "github.com/authgate/authgate/internal/apperr"

var (
	// ErrInvalidToken is returned for any token that fails validation:
	// bad signature, unexpected algorithm, expired, wrong issuer or malformed.
	ErrInvalidToken = apperr.New(apperr.KindUnauthenticated, "invalid or expired token")

	// ErrMissingToken is returned when a protected request carries no token.
	ErrMissingToken = apperr.New(apperr.KindUnauthenticated, "authentication required")

	// ErrInvalidCredentials is the single login failure. It does not reveal
	// whether the username exists.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid username or password")

	// ErrUserNotFound is returned when a user cannot be found or was deleted.
	ErrUserNotFound = apperr.New(apperr.KindUnauthenticated, "user not found")

	// ErrUserAccountDisabled is returned when a disabled user presents a valid token.
	ErrUserAccountDisabled = apperr.New(apperr.KindUnauthenticated, "user account is disabled")

	// ErrForbidden is returned when the principal lacks the required authority.
	ErrForbidden = apperr.New(apperr.KindForbidden, "access denied")

	// ErrInvalidOldPassword is returned when the provided old password does not match.
	ErrInvalidOldPassword = apperr.Validation("old password is incorrect")

	// ErrPasswordMismatch is returned when new and confirm password differ.
	ErrPasswordMismatch = apperr.Validation("new password and confirmation do not match")

	// ErrUserNameExists is returned when registering a username that is taken.
	ErrUserNameExists = apperr.Conflict("username already exists")

	// ErrSecretTooShort is returned by NewTokenCodec for keys below 32 bytes.
	ErrSecretTooShort = apperr.New(apperr.KindInternal, "token secret must be at least 32 bytes")
)
