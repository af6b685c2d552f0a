package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrTokenSecretTooShort error if config auth.tokenSecret is shorter than MinTokenSecretLength.
	ErrTokenSecretTooShort = errors.New("toml config auth.tokenSecret must be at least 32 bytes")

	// ErrTokenTTLNotPositive error if config auth.tokenTTL is zero or negative.
	ErrTokenTTLNotPositive = errors.New("toml config auth.tokenTTL must be positive")

	// ErrUnknownGormEngine error if config db.gormEngine is not one of mysql, postgres or sqlite.
	ErrUnknownGormEngine = errors.New("toml config db.gormEngine must be mysql, postgres or sqlite")
)
