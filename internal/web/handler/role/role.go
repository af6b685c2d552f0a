// Package role provides the role handlers.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	rolesvc "github.com/authgate/authgate/internal/role"
	"github.com/authgate/authgate/internal/web/gate"
	"github.com/authgate/authgate/internal/web/handler"
)

// Path is the base path of the role handlers below the api prefix.
const Path = "/roles"

// Service serves /api/roles.
type Service struct {
	deps  handler.Deps
	roles *rolesvc.Service
}

// Init registers the routes below api.
func (s *Service) Init(api fiber.Router, deps handler.Deps) error {
	if !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return nil
	}

	s.deps = deps
	s.roles = rolesvc.NewService(deps.DB)

	deps.Gate.Mount(api.Group(Path), handler.APIPrefix+Path, s.Routes())

	return nil
}

// Routes returns the route table. /all precedes /:id.
func (s *Service) Routes() []gate.Route {
	return []gate.Route{
		{Method: fiber.MethodGet, Path: handler.RootPath, Authority: auth.PermRoleList, Handler: s.Page},
		{Method: fiber.MethodGet, Path: "/all", Handler: s.All},
		{Method: fiber.MethodGet, Path: handler.IDPath, Authority: auth.PermRoleQuery, Handler: s.Detail},
		{Method: fiber.MethodPost, Path: handler.RootPath, Authority: auth.PermRoleAdd, Handler: s.Create},
		{Method: fiber.MethodPut, Path: handler.IDPath, Authority: auth.PermRoleEdit, Handler: s.Update},
		{Method: fiber.MethodDelete, Path: handler.IDPath, Authority: auth.PermRoleDelete, Handler: s.Delete},
	}
}

// Page lists roles, optionally filtered by name.
func (s *Service) Page(c *fiber.Ctx) error {
	req, err := handler.PageRequest(c)
	if err != nil {
		return err
	}

	page, err := s.roles.Page(c.UserContext(), req, c.Query("name"))
	if err != nil {
		return err
	}

	return handler.OK(c, page)
}

// All lists every role.
func (s *Service) All(c *fiber.Ctx) error {
	roles, err := s.roles.All(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, roles)
}

// Detail returns a role with its permissions.
func (s *Service) Detail(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	r, err := s.roles.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, r)
}

// Create adds a role with its initial permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	var in rolesvc.Input
	if err := handler.ParseBody(c, &in); err != nil {
		return err
	}

	r, err := s.roles.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handler.Response{Success: true, Data: r})
}

// Update changes a role and reconciles its permissions.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in rolesvc.Input
	if err = handler.ParseBody(c, &in); err != nil {
		return err
	}

	r, err := s.roles.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	log.Info().Uint64("role_id", r.ID).Msg("role updated")

	return handler.OK(c, r)
}

// Delete removes a role and its links.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	if err = s.roles.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return handler.OK(c, nil)
}
