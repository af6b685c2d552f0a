package gate

import (
	"path"

	"github.com/gofiber/fiber/v2"
)

// Route is one row of the declarative route table.
type Route struct {
	Method string
	Path   string
	// Authority required to call the route. Empty admits any authenticated principal.
	Authority string
	// Public routes join the allow-list and skip authentication.
	Public  bool
	Handler fiber.Handler
}

// Mount registers routes below prefix on router. prefix must be the full
// path of router so public rows land on the allow-list with their real path.
func (g *Gate) Mount(router fiber.Router, prefix string, routes []Route) {
	for _, r := range routes {
		handlers := make([]fiber.Handler, 0, 2) //nolint:mnd

		switch {
		case r.Public:
			g.Permit(path.Join(prefix, r.Path))
		case r.Authority != "":
			handlers = append(handlers, g.Require(r.Authority))
		default:
			handlers = append(handlers, g.RequireAuthenticated)
		}

		handlers = append(handlers, r.Handler)

		router.Add(r.Method, r.Path, handlers...)
	}
}
