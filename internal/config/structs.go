package config

import (
	"time"

	"github.com/authgate/authgate/internal/logger"
)

// Auth holds token and gate settings.
type Auth struct {
	TokenSecret    string        // HMAC key used to sign tokens, at least 32 bytes
	TokenTTL       time.Duration // lifetime of an issued token
	TokenIssuer    string        // iss claim written and required on validation
	TokenHeader    string        // request header carrying the token
	PublicPaths    []string      // allow-list; a trailing /** matches the whole subtree
	RequestTimeout time.Duration // upper bound for the storage work of one request

	AllowRegistration bool   // expose POST /api/auth/register
	AdminPassword     string // initial password of the seeded admin user
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	CheckAliveURI  string // liveness endpoint, answered 503 while draining
	MetricsURI     string // prometheus endpoint, empty disables it
}
