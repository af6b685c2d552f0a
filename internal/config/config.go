// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes single-key environment overrides, e.g. AUTHGATE_AUTH_TOKENSECRET.
	EnvPrefix = "AUTHGATE"

	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = "AUTHGATE_CONFIG_JSON"

	// MinTokenSecretLength is the minimal HMAC key size accepted.
	MinTokenSecretLength = 32

	redacted = "********"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "authgate")
	v.SetDefault("db.gormEngine", GormEngineSQLite)
	v.SetDefault("db.name", "authgate.db")
	v.SetDefault("webserver.shutDownTime", 5)
	v.SetDefault("webserver.checkAliveURI", "/checkalive")
	v.SetDefault("webserver.metricsURI", "/metrics")
	v.SetDefault("auth.tokenTTL", "2h")
	v.SetDefault("auth.tokenIssuer", "authgate")
	v.SetDefault("auth.tokenHeader", "Authorization")
	v.SetDefault("auth.requestTimeout", "5s")
	v.SetDefault("auth.publicPaths", []string{"/api/auth/login", "/api/public/**"})
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfigJSON config as JSON String with secrets masked.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	out := *c
	out.Auth.PublicPaths = append([]string(nil), c.Auth.PublicPaths...)

	if out.Auth.TokenSecret != "" {
		out.Auth.TokenSecret = redacted
	}

	if out.Auth.AdminPassword != "" {
		out.Auth.AdminPassword = redacted
	}

	if out.DB.Password != "" {
		out.DB.Password = redacted
	}

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(out); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without
// and fills in the few defaults that depend on other values.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if len(c.Auth.TokenSecret) < MinTokenSecretLength {
		return errors.Wrap(ErrTokenSecretTooShort, invalidErrMessage)
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.Wrap(ErrTokenTTLNotPositive, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case GormEngineMySQL, GormEnginePostgres, GormEngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = "Authorization"
	}

	if c.Auth.RequestTimeout <= 0 {
		c.Auth.RequestTimeout = 5 * time.Second //nolint:mnd
	}

	return nil
}
