package role

import "github.com/authgate/authgate/internal/apperr"

var (
	// ErrRoleNotFound is returned for unknown or deleted roles.
	ErrRoleNotFound = apperr.NotFound("role not found")

	// ErrCodeExists is returned when another live role uses the code.
	ErrCodeExists = apperr.Conflict("role code already exists")

	// ErrNameExists is returned when another live role uses the name.
	ErrNameExists = apperr.Conflict("role name already exists")

	// ErrRoleExists is returned when a concurrent write took the code or name first.
	ErrRoleExists = apperr.Conflict("role code or name already exists")

	// ErrUnknownPermission is returned when a link would point to a missing or deleted permission.
	ErrUnknownPermission = apperr.Validation("permission does not exist")
)
