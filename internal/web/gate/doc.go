// Package gate is the request authorization gate.
//
// Every request below the mount point passes through Authenticate:
//
//	Unauthenticated -> TokenPresent -> Validated -> Resolved -> Authorized | Denied
//
// Public paths skip the gate. Any other request needs a valid token whose
// subject resolves to a live, enabled user; the resolved principal is then
// attached to the request context. Required authorities are declared per
// route in a table of Route values and checked by Require before the
// handler runs.
package gate
