package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/apperr"
	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
)

// LocalsPrincipal is the fiber.Locals key of the resolved principal.
const LocalsPrincipal = "principal"

const bearerPrefix = "Bearer "

// Decision outcomes reported to prometheus.
const (
	OutcomePublic          = "public"
	OutcomeAuthorized      = "authorized"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeUnavailable     = "unavailable"
	OutcomeError           = "error"
)

var (
	decisions     *prometheus.CounterVec //nolint:gochecknoglobals
	decisionsOnce sync.Once              //nolint:gochecknoglobals
)

func decisionCounter() *prometheus.CounterVec {
	decisionsOnce.Do(func() {
		decisions = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "authgate",
				Name:      "gate_decisions_total",
				Help:      "Number of gate decisions, differentiated by outcome.",
			},
			[]string{"outcome"},
		)
	})

	return decisions
}

// TokenValidator validates a raw token at a given instant.
type TokenValidator interface {
	Validate(token string, now time.Time) (*auth.Claims, error)
}

// PrincipalResolver loads the principal of a username.
type PrincipalResolver interface {
	ResolveByUsername(ctx context.Context, username string) (*auth.Principal, error)
}

// Gate authenticates requests and enforces route authorities.
type Gate struct {
	tokens   TokenValidator
	resolver PrincipalResolver
	header   string
	timeout  time.Duration
	public   []string
	now      func() time.Time
	counter  *prometheus.CounterVec
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces time.Now, used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// New creates a gate. cfg supplies the token header, the request timeout
// and the initial public allow-list.
func New(cfg config.Auth, tokens TokenValidator, resolver PrincipalResolver, opts ...Option) *Gate {
	g := &Gate{
		tokens:   tokens,
		resolver: resolver,
		header:   cfg.TokenHeader,
		timeout:  cfg.RequestTimeout,
		now:      time.Now,
		counter:  decisionCounter(),
	}

	if g.header == "" {
		g.header = fiber.HeaderAuthorization
	}

	for _, p := range cfg.PublicPaths {
		g.Permit(p)
	}

	for _, o := range opts {
		o(g)
	}

	return g
}

// Permit adds a public path. A trailing "/**" matches the path and everything below it.
// Permit is not safe to call while requests are served.
func (g *Gate) Permit(pattern string) {
	if pattern == "/**" {
		log.Warn().Msg("refusing to make every path public")
		return
	}

	g.public = append(g.public, pattern)
}

// IsPublic reports whether path is on the allow-list.
func (g *Gate) IsPublic(path string) bool {
	path = normalize(path)

	for _, p := range g.public {
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}

			continue
		}

		if path == normalize(p) {
			return true
		}
	}

	return false
}

// bearerToken strips an optional Bearer scheme, matched case-insensitively.
func bearerToken(header string) string {
	token := strings.TrimSpace(header)

	if len(token) >= len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = token[len(bearerPrefix):]
	}

	return strings.TrimSpace(token)
}

func normalize(path string) string {
	if len(path) > 1 {
		return strings.TrimRight(path, "/")
	}

	return path
}

// Authenticate is the fiber middleware running the gate state machine.
func (g *Gate) Authenticate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if g.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	c.SetUserContext(ctx)

	if g.IsPublic(c.Path()) {
		g.counter.WithLabelValues(OutcomePublic).Inc()
		return c.Next()
	}

	token := bearerToken(c.Get(g.header))

	if token == "" {
		return g.deny(c, OutcomeUnauthenticated, auth.ErrMissingToken)
	}

	claims, err := g.tokens.Validate(token, g.now())
	if err != nil {
		return g.deny(c, OutcomeUnauthenticated, err)
	}

	principal, err := g.resolver.ResolveByUsername(ctx, claims.Subject)
	if err != nil {
		switch kind := apperr.KindOf(err); {
		case errors.Is(err, auth.ErrUserNotFound):
			return g.deny(c, OutcomeUnauthenticated, auth.ErrInvalidToken)
		case kind == apperr.KindUnavailable:
			return g.deny(c, OutcomeUnavailable, apperr.Wrap(apperr.KindUnavailable, err, "service temporarily unavailable, please retry"))
		default:
			return g.deny(c, OutcomeError, err)
		}
	}

	// usernames are reused after a soft delete, the id is not
	if principal.ID != claims.UserID {
		return g.deny(c, OutcomeUnauthenticated, auth.ErrInvalidToken)
	}

	if !principal.Enabled {
		return g.deny(c, OutcomeUnauthenticated, auth.ErrUserAccountDisabled)
	}

	c.SetUserContext(auth.WithPrincipal(ctx, principal))
	c.Locals(LocalsPrincipal, principal)

	return c.Next()
}

// Require returns a handler admitting only principals holding authority.
func (g *Gate) Require(authority string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := auth.PrincipalFrom(c.UserContext())
		if !ok {
			return g.deny(c, OutcomeUnauthenticated, auth.ErrMissingToken)
		}

		if !p.HasAuthority(authority) {
			log.Warn().Uint64("user_id", p.ID).Str("authority", authority).
				Str("path", c.Path()).Msg("user lacks required authority")

			return g.deny(c, OutcomeForbidden, auth.ErrForbidden)
		}

		g.counter.WithLabelValues(OutcomeAuthorized).Inc()

		return c.Next()
	}
}

// RequireAuthenticated admits any resolved principal.
func (g *Gate) RequireAuthenticated(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFrom(c.UserContext()); !ok {
		return g.deny(c, OutcomeUnauthenticated, auth.ErrMissingToken)
	}

	g.counter.WithLabelValues(OutcomeAuthorized).Inc()

	return c.Next()
}

func (g *Gate) deny(c *fiber.Ctx, outcome string, err error) error {
	g.counter.WithLabelValues(outcome).Inc()

	log.Debug().Err(err).Str("outcome", outcome).Str("path", c.Path()).Msg("gate denied request")

	return err
}

// Principal returns the principal of the request or nil on public routes.
func Principal(c *fiber.Ctx) *auth.Principal {
	p, _ := auth.PrincipalFrom(c.UserContext())

	return p
}
