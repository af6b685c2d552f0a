// Package user provides the user management handlers.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	usersvc "github.com/authgate/authgate/internal/user"
	"github.com/authgate/authgate/internal/web/gate"
	"github.com/authgate/authgate/internal/web/handler"
)

// Path is the base path of the user handlers below the api prefix.
const Path = "/users"

// Service serves /api/users.
type Service struct {
	deps  handler.Deps
	users *usersvc.Service
}

// Init registers the routes below api.
func (s *Service) Init(api fiber.Router, deps handler.Deps) error {
	if !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return nil
	}

	s.deps = deps
	s.users = usersvc.NewService(deps.DB)

	deps.Gate.Mount(api.Group(Path), handler.APIPrefix+Path, s.Routes())

	return nil
}

// Routes returns the route table.
func (s *Service) Routes() []gate.Route {
	return []gate.Route{
		{Method: fiber.MethodGet, Path: handler.RootPath, Authority: auth.PermUserList, Handler: s.Page},
		{Method: fiber.MethodGet, Path: handler.IDPath, Authority: auth.PermUserQuery, Handler: s.Detail},
		{Method: fiber.MethodPost, Path: handler.RootPath, Authority: auth.PermUserAdd, Handler: s.Create},
		{Method: fiber.MethodPut, Path: handler.IDPath, Authority: auth.PermUserEdit, Handler: s.Update},
		{Method: fiber.MethodDelete, Path: handler.IDPath, Authority: auth.PermUserDelete, Handler: s.Delete},
	}
}

// Page lists users with their roles, optionally filtered by username.
func (s *Service) Page(c *fiber.Ctx) error {
	req, err := handler.PageRequest(c)
	if err != nil {
		return err
	}

	page, err := s.users.Page(c.UserContext(), req, c.Query("username"))
	if err != nil {
		return err
	}

	return handler.OK(c, page)
}

// Detail returns a user with its roles.
func (s *Service) Detail(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	u, err := s.users.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, u)
}

// Create adds a user.
func (s *Service) Create(c *fiber.Ctx) error {
	var in usersvc.CreateInput
	if err := handler.ParseBody(c, &in); err != nil {
		return err
	}

	u, err := s.users.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handler.Response{Success: true, Data: u})
}

// Update changes a user. A roles list replaces the user's roles.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in usersvc.UpdateInput
	if err = handler.ParseBody(c, &in); err != nil {
		return err
	}

	u, err := s.users.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", u.ID).Msg("user updated")

	return handler.OK(c, u)
}

// Delete soft deletes a user and removes its role links.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	if err = s.users.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return handler.OK(c, nil)
}
