package config

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	StoreConfig
	SecurityConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Stores
	Security
}

// New reads configuration from the environment, overlaid on the optional TOML
// file named by CONFIG_FILE. Environment variables always win.
func New() (Config, error) {
	src, err := loadFile(GetEnv(configFileVar, ""))
	if err != nil {
		return nil, errors.E(errors.ErrConfiguration, "config.New", "config_file", err)
	}
	return newConfig(src), nil
}

func newConfig(src source) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{src: src},
		OAuth:    OAuth{src: src},
		Stores:   Stores{src: src},
		Security: Security{src: src},
	}
}

// Validate enforces the values the process cannot start without.
func (c mainConfig) Validate() error {
	var missing []string
	if c.GetClientID() == "" {
		missing = append(missing, clientIDVar)
	}
	if c.GetClientSecret() == "" {
		missing = append(missing, clientSecretVar)
	}
	if c.GetRedirectURL() == "" {
		missing = append(missing, redirectURLVar)
	}
	if len(missing) > 0 {
		return errors.E(errors.ErrConfiguration, "config.Validate", "missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
