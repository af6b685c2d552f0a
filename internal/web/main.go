// Package web assembles the fiber application: middleware, the gate and the handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	accesslog "github.com/authgate/authgate/internal/logger/adapter/fiber"
	"github.com/authgate/authgate/internal/web/gate"
	"github.com/authgate/authgate/internal/web/handler"
	authhandler "github.com/authgate/authgate/internal/web/handler/auth"
	permissionhandler "github.com/authgate/authgate/internal/web/handler/permission"
	rolehandler "github.com/authgate/authgate/internal/web/handler/role"
	userhandler "github.com/authgate/authgate/internal/web/handler/user"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	gate         *gate.Gate
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Drain()

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Drain marks the service as not alive, so checkalive returns 503, and waits
// Webserver.ShutDownTime seconds for load balancers to notice. In dev mode
// it returns at once.
func (s *Service) Drain() {
	s.alive.Store(false)

	if s.fastShutDown {
		return
	}

	log.Info().Msgf(
		"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
		s.cfg.Webserver.ShutDownTime,
	)

	time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
}

// Alive reports whether checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// Gate returns the request authorization gate.
func (s *Service) Gate() *gate.Gate {
	return s.gate
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, authService *auth.Service) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if authService == nil {
		panic("auth service cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			DisableStartupMessage: !cfg.DevMode,
			ErrorHandler:          ErrorHandler,
		},
	)

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: cfg.Webserver.CheckAliveURI,
	}))

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
		gate:         gate.New(cfg.Auth, authService.Codec(), authService.Resolver()),
	}
	service.alive.Store(true)

	if cfg.Webserver.CheckAliveURI != "" {
		app.Get(cfg.Webserver.CheckAliveURI, service.checkAlive)
	}

	if cfg.Webserver.MetricsURI != "" {
		app.Get(cfg.Webserver.MetricsURI, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := app.Group(handler.APIPrefix, service.gate.Authenticate)

	deps := handler.Deps{Cfg: cfg, DB: db, Auth: authService, Gate: service.gate}

	// init handlers (they register their own routes with the gate)
	handlers := []handler.Service{
		&authhandler.Service{},
		&permissionhandler.Service{},
		&rolehandler.Service{},
		&userhandler.Service{},
	}

	for _, h := range handlers {
		if err := h.Init(api, deps); err != nil {
			log.Fatal().Err(err).Msg("failed to init handler")
		}
	}

	return service
}

// cleanPath collapses repeated slashes and dot segments before routing.
func cleanPath(c *fiber.Ctx) error {
	if p := c.Path(); len(p) > 1 {
		c.Path(path.Clean(p))
	}

	return c.Next()
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return handler.Fail(c, fiber.StatusServiceUnavailable, "shutting down")
	}

	return handler.OK(c, "alive")
}
