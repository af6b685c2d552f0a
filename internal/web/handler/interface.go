// Package handler holds what the HTTP handlers share: the handler
// interface, the response envelope, request validation and parameter parsing.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/web/gate"
)

// Deps are the collaborators a handler is initialised with.
type Deps struct {
	Cfg  *config.Config
	DB   *gorm.DB
	Auth *auth.Service
	Gate *gate.Gate
}

// Valid reports whether every dependency is set.
func (d Deps) Valid() bool {
	return d.Cfg != nil && d.DB != nil && d.Auth != nil && d.Gate != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(api fiber.Router, deps Deps) error
	Routes() []gate.Route
}
