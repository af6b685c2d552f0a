package handler

const (
	// APIPrefix is the path every handler group is mounted below.
	APIPrefix = "/api"

	// RootPath is the root of a route group.
	RootPath = "/"

	// IDPath is the path of a single entity.
	IDPath = "/:id"

	// ErrNilDepsFatalLogMsg is used if a handler is initialised with missing dependencies.
	ErrNilDepsFatalLogMsg = "cfg, db, auth service or gate is nil"
)
