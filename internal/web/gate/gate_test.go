package gate_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/apperr"
	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/db/models"
	"github.com/authgate/authgate/internal/web/gate"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

type fakeResolver struct {
	principals map[string]*auth.Principal
	block      bool
}

func (f *fakeResolver) ResolveByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	p, ok := f.principals[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}

	return p, nil
}

func alice(enabled bool) *auth.Principal {
	return auth.NewPrincipal(
		&models.User{ID: 7, Username: "alice", Enabled: enabled},
		[]models.Role{{Code: "EDITOR"}},
		[]models.Permission{{Code: "content:edit"}, {Code: "content:view"}},
	)
}

type env struct {
	app      *fiber.App
	gate     *gate.Gate
	codec    *auth.TokenCodec
	resolver *fakeResolver
}

func newEnv(t *testing.T, cfg config.Auth, opts ...gate.Option) *env {
	t.Helper()

	codec, err := auth.NewTokenCodec(testSecret, time.Hour, "authgate")
	require.NoError(t, err)

	resolver := &fakeResolver{principals: map[string]*auth.Principal{"alice": alice(true)}}

	opts = append([]gate.Option{gate.WithClock(func() time.Time { return testNow })}, opts...)
	g := gate.New(cfg, codec, resolver, opts...)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperr.KindOf(err).Status()).SendString(apperr.Message(err))
		},
	})

	ok := func(c *fiber.Ctx) error {
		if p := gate.Principal(c); p != nil {
			return c.SendString(p.Username)
		}

		return c.SendString("anonymous")
	}

	api := app.Group("/api", g.Authenticate)
	g.Mount(api, "/api", []gate.Route{
		{Method: fiber.MethodPost, Path: "/auth/login", Public: true, Handler: ok},
		{Method: fiber.MethodGet, Path: "/content", Authority: "content:view", Handler: ok},
		{Method: fiber.MethodPost, Path: "/content/publish", Authority: "content:publish", Handler: ok},
		{Method: fiber.MethodGet, Path: "/editors", Authority: auth.RoleAuthority("EDITOR"), Handler: ok},
		{Method: fiber.MethodGet, Path: "/me", Handler: ok},
	})
	api.Get("/public/docs/intro", ok)

	return &env{app: app, gate: g, codec: codec, resolver: resolver}
}

func (e *env) token(t *testing.T, username string, at time.Time) string {
	t.Helper()

	tok, err := e.codec.Issue(7, username, nil, at)
	require.NoError(t, err)

	return tok
}

func (e *env) do(t *testing.T, method, target, header string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t, config.Auth{PublicPaths: []string{"/api/public/**"}, RequestTimeout: time.Second})
	valid := "Bearer " + e.token(t, "alice", testNow)

	tests := []struct {
		name       string
		method     string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{
			name: "missing token", method: http.MethodGet, target: "/api/content",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "garbage token", method: http.MethodGet, target: "/api/content", header: "Bearer not-a-jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token without bearer prefix", method: http.MethodGet, target: "/api/content",
			header: e.token(t, "alice", testNow), wantStatus: http.StatusOK, wantBody: "alice",
		},
		{
			name: "granted permission", method: http.MethodGet, target: "/api/content", header: valid,
			wantStatus: http.StatusOK, wantBody: "alice",
		},
		{
			name: "ungranted permission", method: http.MethodPost, target: "/api/content/publish", header: valid,
			wantStatus: http.StatusForbidden,
		},
		{
			name: "role authority", method: http.MethodGet, target: "/api/editors", header: valid,
			wantStatus: http.StatusOK, wantBody: "alice",
		},
		{
			name: "authenticated only", method: http.MethodGet, target: "/api/me", header: valid,
			wantStatus: http.StatusOK, wantBody: "alice",
		},
		{
			name: "public route from table", method: http.MethodPost, target: "/api/auth/login",
			wantStatus: http.StatusOK, wantBody: "anonymous",
		},
		{
			name: "public subtree from config", method: http.MethodGet, target: "/api/public/docs/intro",
			wantStatus: http.StatusOK, wantBody: "anonymous",
		},
		{
			name: "unknown user", method: http.MethodGet, target: "/api/me",
			header: "Bearer " + e.token(t, "mallory", testNow), wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token", method: http.MethodGet, target: "/api/me",
			header: "Bearer " + e.token(t, "alice", testNow.Add(-2*time.Hour)), wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := e.do(t, tt.method, tt.target, tt.header)

			assert.Equal(t, tt.wantStatus, status, body)

			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func TestAuthenticateBearerSchemeIsCaseInsensitive(t *testing.T) {
	e := newEnv(t, config.Auth{})
	tok := e.token(t, "alice", testNow)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		status, body := e.do(t, http.MethodGet, "/api/me", scheme+tok)
		assert.Equal(t, http.StatusOK, status, scheme)
		assert.Equal(t, "alice", body, scheme)
	}
}

func TestAuthenticateRejectsTokenOfReplacedAccount(t *testing.T) {
	e := newEnv(t, config.Auth{})

	// the token names alice but carries the id of an account that no longer holds the name
	stale, err := e.codec.Issue(3, "alice", nil, testNow)
	require.NoError(t, err)

	status, body := e.do(t, http.MethodGet, "/api/me", "Bearer "+stale)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.ErrInvalidToken.Msg, body)
}

func TestAuthenticateRejectsDisabledUser(t *testing.T) {
	e := newEnv(t, config.Auth{})
	e.resolver.principals["alice"] = alice(false)

	status, body := e.do(t, http.MethodGet, "/api/me", "Bearer "+e.token(t, "alice", testNow))

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.ErrUserAccountDisabled.Msg, body)
}

func TestAuthenticateStorageTimeout(t *testing.T) {
	e := newEnv(t, config.Auth{RequestTimeout: 20 * time.Millisecond})
	e.resolver.block = true

	status, _ := e.do(t, http.MethodGet, "/api/me", "Bearer "+e.token(t, "alice", testNow))

	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAuthenticateCustomHeader(t *testing.T) {
	e := newEnv(t, config.Auth{TokenHeader: "X-Auth-Token"})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("X-Auth-Token", e.token(t, "alice", testNow))

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ := e.do(t, http.MethodGet, "/api/me", "Bearer "+e.token(t, "alice", testNow))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWithClockDrivesExpiry(t *testing.T) {
	later := testNow.Add(time.Hour)
	e := newEnv(t, config.Auth{}, gate.WithClock(func() time.Time { return later }))

	status, _ := e.do(t, http.MethodGet, "/api/me", "Bearer "+e.token(t, "alice", testNow))
	assert.Equal(t, http.StatusUnauthorized, status, "exp equal to now is expired")

	status, _ = e.do(t, http.MethodGet, "/api/me", "Bearer "+e.token(t, "alice", testNow.Add(time.Minute)))
	assert.Equal(t, http.StatusOK, status)
}

func TestIsPublic(t *testing.T) {
	g := gate.New(config.Auth{PublicPaths: []string{"/api/auth/login", "/api/public/**", "/**"}}, nil, nil)

	tests := []struct {
		path string
		want bool
	}{
		{path: "/api/auth/login", want: true},
		{path: "/api/auth/login/", want: true},
		{path: "/api/auth/loginx", want: false},
		{path: "/api/public", want: true},
		{path: "/api/public/a/b", want: true},
		{path: "/api/publicity", want: false},
		{path: "/api/users", want: false},
		{path: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsPublic(tt.path))
		})
	}
}

func TestRequireWithoutPrincipal(t *testing.T) {
	g := gate.New(config.Auth{}, nil, nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperr.KindOf(err).Status())
		},
	})
	app.Get("/x", g.Require("anything"), func(c *fiber.Ctx) error { return c.SendString("reached") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
