package fiber_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/db/models"
	adapter "github.com/authgate/authgate/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP       string `json:"IP"`
	Status   int    `json:"status"`
	URI      string `json:"URI"`
	Method   string `json:"method"`
	Host     string `json:"host"`
	Username string `json:"username"`
	Error    string `json:"error"`
}

func newApp(buf *bytes.Buffer, cfg adapter.Config) *fiber.App {
	cfg.Output = buf

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusTeapot).SendString(err.Error())
		},
	})

	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendString("alive")
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		p := auth.NewPrincipal(&models.User{ID: 7, Username: "alice"}, nil, nil)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))

		return c.SendString("alice")
	})
	app.Get("/fail", func(*fiber.Ctx) error {
		return errors.New("boom")
	})

	return app
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		cfg        adapter.Config
		wantLogged bool
		want       accessLine
	}{
		{
			name:       "plain request",
			target:     "/",
			wantLogged: true,
			want:       accessLine{Status: 200, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "query string kept",
			target:     "/?test=123",
			wantLogged: true,
			want:       accessLine{Status: 200, URI: "/?test=123", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "unknown route",
			target:     "/no_path",
			wantLogged: true,
			want: accessLine{
				Status: fiber.StatusTeapot, URI: "/no_path", Method: fiber.MethodGet, Host: "example.com",
				Error: "Cannot GET /no_path",
			},
		},
		{
			name:       "principal username",
			target:     "/me",
			wantLogged: true,
			want:       accessLine{Status: 200, URI: "/me", Method: fiber.MethodGet, Host: "example.com", Username: "alice"},
		},
		{
			name:       "chain error rendered by error handler",
			target:     "/fail",
			wantLogged: true,
			want:       accessLine{Status: fiber.StatusTeapot, URI: "/fail", Method: fiber.MethodGet, Host: "example.com", Error: "boom"},
		},
		{
			name:   "checkalive skipped",
			target: "/checkalive",
			cfg: func() adapter.Config {
				c := adapter.Config{CheckAliveURI: "/checkalive"}
				c.Config.DisableCheckAlive = true

				return c
			}(),
		},
		{
			name:   "next skips middleware",
			target: "/",
			cfg:    adapter.Config{Next: func(*fiber.Ctx) bool { return true }},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			app := newApp(&buf, tt.cfg)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.target, nil))
			require.NoError(t, err)
			_ = resp.Body.Close()

			out := strings.TrimSpace(buf.String())

			if !tt.wantLogged {
				assert.Empty(t, out)
				return
			}

			require.NotEmpty(t, out)

			var line accessLine
			require.NoError(t, json.Unmarshal([]byte(out), &line))

			assert.Equal(t, tt.want.Status, line.Status)
			assert.Equal(t, tt.want.URI, line.URI)
			assert.Equal(t, tt.want.Method, line.Method)
			assert.Equal(t, tt.want.Host, line.Host)
			assert.Equal(t, tt.want.Username, line.Username)
			assert.Equal(t, tt.want.Error, line.Error)
			assert.Equal(t, tt.want.Status, resp.StatusCode)
		})
	}
}
