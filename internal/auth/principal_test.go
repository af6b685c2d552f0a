package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/db/models"
)

func TestNewPrincipalCollapsesDuplicates(t *testing.T) {
	u := &models.User{ID: 1, Username: "alice", Password: "hash", Enabled: true}
	roles := []models.Role{{Code: "EDITOR"}, {Code: "EDITOR"}}
	perms := []models.Permission{{Code: "content:edit"}, {Code: "content:edit"}, {Code: "content:view"}}

	p := NewPrincipal(u, roles, perms)

	assert.Equal(t, []string{"ROLE_EDITOR", "content:edit", "content:view"}, p.Authorities())
}

func TestPrincipalJSONHidesPassword(t *testing.T) {
	p := NewPrincipal(&models.User{ID: 1, Username: "alice", Password: "secret-hash"}, nil, nil)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
	assert.Contains(t, string(b), `"username":"alice"`)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	p := NewPrincipal(&models.User{ID: 3, Username: "carol"}, nil, nil)
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Same(t, p, got)

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasAuthority("anything"))
}
