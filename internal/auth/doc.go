// Package auth implements token based authentication.
//
// # Token Codec
//
// TokenCodec issues and validates HS256 signed JWTs. Claims bind the
// username (sub), the user id (uid), the authority list at issue time (auth),
// the issuer and an expiry. The clock is always passed in explicitly so that
// expiry can be tested without sleeping. There is no revocation list: a token
// stays valid for its whole lifetime.
//
// # Principal
//
// A Principal is the resolved identity of one request. It is rebuilt from the
// database on every request by Resolver, so role and permission changes take
// effect without issuing a new token. The authority set is the union of
// permission codes and "ROLE_" + role code for every assigned role.
//
// Principals travel through the request context:
//
//	ctx = auth.WithPrincipal(ctx, p)
//	p, ok := auth.PrincipalFrom(ctx)
//
// # Service
//
// Service implements login, the current user endpoints, password change and
// optional self registration. Login reports one generic error for unknown
// users, wrong passwords and disabled accounts.
package auth
