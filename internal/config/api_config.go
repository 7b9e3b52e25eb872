package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultTimeout = 10 * time.Second

// Environment is the API endpoint for one deployment stage.
type Environment struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

type environmentsFile struct {
	Environments map[string]Environment `yaml:"environments"`
}

func defaultEnvironments() map[string]Environment {
	return map[string]Environment{
		EnvDevelopment: {BaseURL: "http://localhost:3000/api", Timeout: defaultTimeout},
		EnvStaging:     {BaseURL: "https://staging-api.formaapp.com/api", Timeout: defaultTimeout},
		EnvProduction:  {BaseURL: "https://api.formaapp.com/api", Timeout: defaultTimeout},
	}
}

func readEnvironmentsFile(path string) (map[string]Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[config] read environments file")
	}
	var f environmentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "[config] parse %s", path)
	}
	envs := make(map[string]Environment, len(f.Environments))
	for name, env := range f.Environments {
		envs[strings.ToUpper(name)] = env
	}
	return envs, nil
}

func mergeEnvironment(base, override Environment) Environment {
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if base.Timeout <= 0 {
		base.Timeout = defaultTimeout
	}
	return base
}

type API struct {
	environments map[string]Environment
}

var _ APIConfig = API{}

func (a API) current() Environment {
	if env, ok := a.environments[EnvVars{}.GetEnv()]; ok {
		return env
	}
	return a.environments[EnvDevelopment]
}

// GetBaseURL returns the API root for the current environment, e.g.
// "http://localhost:3000/api". AUTH_BASE_URL overrides the table.
func (a API) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, a.current().BaseURL), "/")
}

// GetTimeout is applied uniformly to every outbound call.
func (a API) GetTimeout() time.Duration {
	timeout := a.current().Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return GetDuration(timeoutVar, timeout)
}
