package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authgate/authgate/internal/apperr"
	"github.com/authgate/authgate/internal/db/models"
)

func TestLoginEditor(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	res, err := f.service.Login(context.Background(), "alice", "s3cret!", now)
	require.NoError(t, err)

	assert.Equal(t, "alice", res.User.Username)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, "EDITOR", res.User.Roles[0].Code)
	assert.Equal(t, []string{"content:view", "content:edit"}, Codes(res.Permissions))

	claims, err := f.service.Codec().Validate(res.Token, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ROLE_EDITOR", "content:edit", "content:view"}, claims.Authorities)
	assert.NotContains(t, claims.Authorities, "content:publish")

	_, err = f.service.Codec().Validate(res.Token, now.Add(time.Hour+time.Second))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, errUnknown := f.service.Login(ctx, "nobody", "s3cret!", time.Now())
	_, errWrong := f.service.Login(ctx, "alice", "wrong", time.Now())

	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(errWrong))
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	f := newFixture(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.alice.ID).Update("password", string(legacy)).Error)

	_, err = f.service.Login(context.Background(), "alice", "s3cret!", time.Now())
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.alice.ID).Error)
	assert.False(t, stored.NeedsRehash())
	assert.True(t, stored.VerifyPassword("s3cret!"))

	_, err = f.service.Login(context.Background(), "alice", "s3cret!", time.Now())
	require.NoError(t, err)
}

func TestLoginDisabledUser(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.alice.ID).Update("enabled", false).Error)

	_, err := f.service.Login(context.Background(), "alice", "s3cret!", time.Now())
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		next    string
		confirm string
		wantErr error
	}{
		{"old password wrong", "nope", "n3w-pass", "n3w-pass", ErrInvalidOldPassword},
		{"confirmation differs", "s3cret!", "n3w-pass", "other", ErrPasswordMismatch},
		{"success", "s3cret!", "n3w-pass", "n3w-pass", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			p, err := f.service.Resolver().ResolveByUsername(ctx, "alice")
			require.NoError(t, err)

			err = f.service.ChangePassword(ctx, p, tt.old, tt.next, tt.confirm)

			var stored models.User
			require.NoError(t, f.db.First(&stored, f.alice.ID).Error)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				assert.True(t, stored.VerifyPassword("s3cret!"))

				return
			}

			require.NoError(t, err)
			assert.True(t, stored.VerifyPassword("n3w-pass"))
			assert.False(t, stored.VerifyPassword("s3cret!"))

			_, err = f.service.Login(ctx, "alice", "n3w-pass", time.Now())
			require.NoError(t, err)
		})
	}
}

func TestUpdateCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.service.Resolver().ResolveByUsername(ctx, "alice")
	require.NoError(t, err)

	u, err := f.service.UpdateCurrentUser(ctx, p, "new@example.com", "Alice Liddell")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.alice.ID).Error)
	assert.Equal(t, "Alice Liddell", stored.FullName)
	assert.Equal(t, "alice", stored.Username)
	assert.True(t, stored.VerifyPassword("s3cret!"))
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.service.Resolver().ResolveByUsername(ctx, "alice")
	require.NoError(t, err)

	cu, err := f.service.CurrentUser(ctx, p)
	require.NoError(t, err)
	assert.Same(t, p, cu.User)
	assert.Len(t, cu.Permissions, 2)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.service.Register(ctx, Registration{Username: "bob", Password: "b0bpass", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.True(t, u.Enabled)
	assert.NotEqual(t, "b0bpass", u.Password)

	_, err = f.service.Register(ctx, Registration{Username: "alice", Password: "whatever"})
	require.ErrorIs(t, err, ErrUserNameExists)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	res, err := f.service.Login(ctx, "bob", "b0bpass", time.Now())
	require.NoError(t, err)
	assert.Empty(t, res.Permissions)
}
