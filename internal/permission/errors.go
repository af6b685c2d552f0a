package permission

import "github.com/authgate/authgate/internal/apperr"

var (
	// ErrPermissionNotFound is returned for unknown or deleted permissions.
	ErrPermissionNotFound = apperr.NotFound("permission not found")

	// ErrParentNotFound is returned when parentId references no live permission.
	ErrParentNotFound = apperr.Validation("parent permission does not exist")

	// ErrParentCycle is returned when a permission would become its own ancestor.
	ErrParentCycle = apperr.Validation("a permission cannot be moved below itself or its descendants")

	// ErrCodeExists is returned when another live permission uses the code.
	ErrCodeExists = apperr.Conflict("permission code already exists")

	// ErrInvalidType is returned for a type other than menu or button.
	ErrInvalidType = apperr.Validation("permission type must be menu or button")
)
