package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envVar        = "ENV"
	appNameVar    = "APP_NAME"
	logLevelVar   = "LOG_LEVEL"
	configFileVar = "AUTH_CONFIG_FILE"
	baseURLVar    = "AUTH_BASE_URL"
	timeoutVar    = "AUTH_TIMEOUT"
	portEnvVar    = "PORT"
)

const (
	EnvDevelopment = "DEV"
	EnvStaging     = "STAGING"
	EnvProduction  = "PROD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Forma Auth")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, EnvDevelopment))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDuration reads a time.Duration ("10s", "1m") from envVar.
// Unparseable values fall back to the default.
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func portString(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}
