package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	DevServerConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetLogLevel() string
}

type APIConfig interface {
	GetBaseURL() string
	GetTimeout() time.Duration
}

type StoreConfig interface {
	GetStoreType() StoreType
	GetStorePath() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type DevServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetResetTokenExpiry() time.Duration
}

type mainConfig struct {
	EnvVars
	API
	Store
	DevServer
}

// New returns a Config backed by environment variables and the built-in
// environment table.
func New() Config {
	return mainConfig{API: API{environments: defaultEnvironments()}}
}

// Load is New with the environment table overridden by the YAML file at path.
// An empty path falls back to AUTH_CONFIG_FILE, and no file at all is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = GetEnv(configFileVar, "")
	}
	envs := defaultEnvironments()
	if path != "" {
		fileEnvs, err := readEnvironmentsFile(path)
		if err != nil {
			return nil, err
		}
		for name, env := range fileEnvs {
			envs[name] = mergeEnvironment(envs[name], env)
		}
	}
	return mainConfig{API: API{environments: envs}}, nil
}
