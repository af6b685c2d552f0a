// Package permission provides the permission tree, menu and CRUD handlers.
package permission

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/auth"
	permsvc "github.com/authgate/authgate/internal/permission"
	"github.com/authgate/authgate/internal/web/gate"
	"github.com/authgate/authgate/internal/web/handler"
)

// Path is the base path of the permission handlers below the api prefix.
const Path = "/permissions"

// Service serves /api/permissions.
type Service struct {
	deps        handler.Deps
	permissions *permsvc.Service
}

// Init registers the routes below api.
func (s *Service) Init(api fiber.Router, deps handler.Deps) error {
	if !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return nil
	}

	s.deps = deps
	s.permissions = permsvc.NewService(deps.DB)

	deps.Gate.Mount(api.Group(Path), handler.APIPrefix+Path, s.Routes())

	return nil
}

// Routes returns the route table.
func (s *Service) Routes() []gate.Route {
	return []gate.Route{
		{Method: fiber.MethodGet, Path: "/tree", Authority: auth.PermPermissionList, Handler: s.Tree},
		{Method: fiber.MethodGet, Path: "/menus", Handler: s.Menus},
		{Method: fiber.MethodGet, Path: "/buttons", Handler: s.Buttons},
		{Method: fiber.MethodGet, Path: "/user/menus", Handler: s.UserMenus},
		{Method: fiber.MethodGet, Path: "/user/buttons", Handler: s.UserButtons},
		{Method: fiber.MethodPost, Path: handler.RootPath, Authority: auth.PermPermissionAdd, Handler: s.Create},
		{Method: fiber.MethodPut, Path: handler.IDPath, Authority: auth.PermPermissionEdit, Handler: s.Update},
		{Method: fiber.MethodDelete, Path: handler.IDPath, Authority: auth.PermPermissionDelete, Handler: s.Delete},
	}
}

// Tree returns the permission forest.
func (s *Service) Tree(c *fiber.Ctx) error {
	forest, err := s.permissions.Tree(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, forest)
}

// Menus returns every menu permission ordered by sort.
func (s *Service) Menus(c *fiber.Ctx) error {
	menus, err := s.permissions.Menus(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, menus)
}

// Buttons returns every button permission.
func (s *Service) Buttons(c *fiber.Ctx) error {
	buttons, err := s.permissions.Buttons(c.UserContext())
	if err != nil {
		return err
	}

	return handler.OK(c, buttons)
}

// UserMenus returns the menus granted to the caller or, with userId, to another user.
func (s *Service) UserMenus(c *fiber.Ctx) error {
	userID, err := targetUser(c)
	if err != nil {
		return err
	}

	menus, err := s.permissions.UserMenus(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return handler.OK(c, menus)
}

// UserButtons returns the buttons granted to the caller or, with userId, to another user.
func (s *Service) UserButtons(c *fiber.Ctx) error {
	userID, err := targetUser(c)
	if err != nil {
		return err
	}

	buttons, err := s.permissions.UserButtons(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return handler.OK(c, buttons)
}

// targetUser resolves the userId query parameter. Looking at another user
// needs system:user:query.
func targetUser(c *fiber.Ctx) (uint64, error) {
	p := gate.Principal(c)

	userID, err := handler.QueryID(c, "userId")
	if err != nil {
		return 0, err
	}

	if userID == 0 || userID == p.ID {
		return p.ID, nil
	}

	if !p.HasAuthority(auth.PermUserQuery) {
		return 0, auth.ErrForbidden
	}

	return userID, nil
}

// Create adds a permission.
func (s *Service) Create(c *fiber.Ctx) error {
	var in permsvc.Input
	if err := handler.ParseBody(c, &in); err != nil {
		return err
	}

	p, err := s.permissions.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handler.Response{Success: true, Data: p})
}

// Update changes a permission.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	var in permsvc.Input
	if err = handler.ParseBody(c, &in); err != nil {
		return err
	}

	p, err := s.permissions.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	log.Info().Uint64("permission_id", p.ID).Msg("permission updated")

	return handler.OK(c, p)
}

// Delete soft deletes a permission with all its descendants.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return err
	}

	ids, err := s.permissions.DeleteWithChildren(c.UserContext(), id)
	if err != nil {
		return err
	}

	return handler.OK(c, ids)
}
