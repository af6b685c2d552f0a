// Package auth provides the login, registration and current user handlers.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	authsvc "github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/web/gate"
	"github.com/authgate/authgate/internal/web/handler"
)

// Path is the base path of the auth handlers below the api prefix.
const Path = "/auth"

// Service serves /api/auth.
type Service struct {
	deps handler.Deps
	now  func() time.Time
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest is the body of PUT /api/auth/me.
type ProfileRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	FullName string `json:"fullName" validate:"max=100"`
}

// PasswordRequest is the body of PUT /api/auth/password.
type PasswordRequest struct {
	OldPassword     string `json:"oldPassword"     validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Init registers the routes below api.
func (s *Service) Init(api fiber.Router, deps handler.Deps) error {
	if !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return nil
	}

	s.deps = deps

	if s.now == nil {
		s.now = time.Now
	}

	deps.Gate.Mount(api.Group(Path), handler.APIPrefix+Path, s.Routes())

	return nil
}

// Routes returns the route table. Registration is listed only when enabled.
func (s *Service) Routes() []gate.Route {
	routes := []gate.Route{
		{Method: fiber.MethodPost, Path: "/login", Public: true, Handler: s.Login},
		{Method: fiber.MethodGet, Path: "/me", Handler: s.Me},
		{Method: fiber.MethodPut, Path: "/me", Handler: s.UpdateMe},
		{Method: fiber.MethodPut, Path: "/password", Handler: s.ChangePassword},
	}

	if s.deps.Cfg != nil && s.deps.Cfg.Auth.AllowRegistration {
		routes = append(routes, gate.Route{Method: fiber.MethodPost, Path: "/register", Public: true, Handler: s.Register})
	}

	return routes
}

// Login verifies credentials and issues a token.
func (s *Service) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := handler.ParseBody(c, &req); err != nil {
		return err
	}

	result, err := s.deps.Auth.Login(c.UserContext(), req.Username, req.Password, s.now())
	if err != nil {
		return err
	}

	return handler.OK(c, result)
}

// Register creates an account for an anonymous caller.
func (s *Service) Register(c *fiber.Ctx) error {
	var req authsvc.Registration
	if err := handler.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := s.deps.Auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	log.Info().Str("username", user.Username).Uint64("user_id", user.ID).Msg("user registered")

	return c.Status(fiber.StatusCreated).JSON(handler.Response{Success: true, Data: user})
}

// Me returns the caller with its permissions.
func (s *Service) Me(c *fiber.Ctx) error {
	current, err := s.deps.Auth.CurrentUser(c.UserContext(), gate.Principal(c))
	if err != nil {
		return err
	}

	return handler.OK(c, current)
}

// UpdateMe changes email and full name of the caller.
func (s *Service) UpdateMe(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := handler.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := s.deps.Auth.UpdateCurrentUser(c.UserContext(), gate.Principal(c), req.Email, req.FullName)
	if err != nil {
		return err
	}

	return handler.OK(c, user)
}

// ChangePassword replaces the caller's password.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var req PasswordRequest
	if err := handler.ParseBody(c, &req); err != nil {
		return err
	}

	p := gate.Principal(c)

	if err := s.deps.Auth.ChangePassword(c.UserContext(), p, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	log.Info().Uint64("user_id", p.ID).Msg("password changed")

	return handler.OK(c, nil)
}
