package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/apperr"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()

	c, err := NewTokenCodec(testSecret, time.Hour, "authgate")
	require.NoError(t, err)

	return c
}

func TestNewTokenCodec(t *testing.T) {
	_, err := NewTokenCodec("short", time.Hour, "authgate")
	require.ErrorIs(t, err, ErrSecretTooShort)

	_, err = NewTokenCodec(testSecret, 0, "authgate")
	require.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	c := newTestCodec(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	token, err := c.Issue(7, "alice", []string{"ROLE_EDITOR", "content:edit"}, now)
	require.NoError(t, err)

	claims, err := c.Validate(token, now.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, []string{"ROLE_EDITOR", "content:edit"}, claims.Authorities)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsExpired(t *testing.T) {
	c := newTestCodec(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	token, err := c.Issue(1, "alice", nil, now)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		ok   bool
	}{
		{"one second before expiry", now.Add(time.Hour - time.Second), true},
		{"exactly at expiry", now.Add(time.Hour), false},
		{"after expiry", now.Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Validate(token, tt.at)
			if tt.ok {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
		})
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	c := newTestCodec(t)
	now := time.Now()

	token, err := c.Issue(1, "alice", []string{"content:view"}, now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	t.Run("signature byte altered", func(t *testing.T) {
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}

		_, err := c.Validate(parts[0]+"."+parts[1]+"."+string(sig), now)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("claims swapped", func(t *testing.T) {
		other, err := c.Issue(1, "mallory", []string{"ROLE_ADMIN"}, now)
		require.NoError(t, err)

		forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

		_, err = c.Validate(forged, now)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		o, err := NewTokenCodec(strings.Repeat("x", 32), time.Hour, "authgate")
		require.NoError(t, err)

		_, err = o.Validate(token, now)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := c.Validate("not-a-token", now)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateRejectsOtherAlgorithmsAndIssuers(t *testing.T) {
	c := newTestCodec(t)
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "authgate",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Validate(none, now)
	require.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Validate(hs512, now)
	require.ErrorIs(t, err, ErrInvalidToken)

	claims.Issuer = "someone-else"
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Validate(foreign, now)
	require.ErrorIs(t, err, ErrInvalidToken)

	claims.Issuer = "authgate"
	claims.ExpiresAt = nil
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Validate(noExp, now)
	require.ErrorIs(t, err, ErrInvalidToken)
}
