package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	configFileVar = "CONFIG_FILE"
)

// source holds values read from the config file, keyed by env var name.
type source map[string]string

func (s source) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value := s[name]; value != "" {
		return value
	}
	return defaultValue
}

type EnvVars struct {
	src source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "3000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "Accounts Dashboard")
}

// GetBaseURL returns the externally visible base URL (e.g., "https://dash.example.com").
// An https base URL marks the session cookie Secure.
func (e EnvVars) GetBaseURL() string {
	return e.src.get(baseURLVar, "http://localhost:3000")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envVar, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
