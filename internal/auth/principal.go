package auth

import (
	"context"
	"sort"

	"github.com/authgate/authgate/internal/db/models"
)

// Principal is the authenticated identity of one request.
// The authority set is fixed at construction.
type Principal struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Enabled      bool   `json:"enabled"`

	authorities map[string]struct{}
}

// NewPrincipal builds a principal from a user, its roles and the permissions
// reachable through them. Duplicate authorities collapse.
func NewPrincipal(u *models.User, roles []models.Role, perms []models.Permission) *Principal {
	set := make(map[string]struct{}, len(roles)+len(perms))

	for _, p := range perms {
		set[p.Code] = struct{}{}
	}

	for _, r := range roles {
		set[RoleAuthority(r.Code)] = struct{}{}
	}

	return &Principal{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.Password,
		Email:        u.Email,
		FullName:     u.FullName,
		Enabled:      u.Enabled,
		authorities:  set,
	}
}

// HasAuthority reports whether the principal holds authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}

	_, ok := p.authorities[authority]

	return ok
}

// Authorities returns the sorted authority set.
func (p *Principal) Authorities() []string {
	out := make([]string, 0, len(p.authorities))
	for a := range p.authorities {
		out = append(out, a)
	}

	sort.Strings(out)

	return out
}

type principalKey struct{}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached by the gate, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)

	return p, ok && p != nil
}
