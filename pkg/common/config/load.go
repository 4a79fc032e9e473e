package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/imdario/mergo"
)

var validate = validator.New()

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	// merge per-network client settings over the global defaults
	for name, network := range cfg.Networks {
		if err := mergo.Merge(&network.Client, cfg.Defaults); err != nil {
			return cfg, err
		}
		if network.PollInterval == 0 {
			network.PollInterval = 10 * time.Second
		}
		cfg.Networks[name] = network
	}

	if err := cfg.finalizeProviders(); err != nil {
		return cfg, err
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// finalizeProviders fills API keys and expands ${VAR} references in provider
// URLs and headers before validation sees them.
func (c *Config) finalizeProviders() error {
	for networkName, network := range c.Networks {
		providers := make([]Provider, len(network.Providers))
		for i, p := range network.Providers {
			if p.Headers == nil {
				p.Headers = map[string]string{}
			}

			key := p.ApiKey
			if key == "" && p.ApiKeyEnv != "" {
				key = os.Getenv(p.ApiKeyEnv)
			}

			p.URL = substituteKey(p.URL, key)
			p.URL = substituteEnvVars(p.URL)
			for k, v := range p.Headers {
				p.Headers[k] = substituteEnvVars(v)
			}

			u, err := url.Parse(p.URL)
			if err != nil || u.Scheme == "" {
				return fmt.Errorf("%s: invalid provider url: %q", networkName, p.URL)
			}

			providers[i] = p
		}
		network.Providers = providers
		c.Networks[networkName] = network
	}
	return nil
}

func substituteKey(s, key string) string {
	if s == "" || key == "" {
		return s
	}
	return strings.ReplaceAll(s, "${API_KEY}", key)
}

func substituteEnvVars(s string) string {
	if s == "" {
		return s
	}
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			break
		}
		end += start
		varName := s[start+2 : end]
		envValue := os.Getenv(varName)
		s = strings.ReplaceAll(s, "${"+varName+"}", envValue)
	}
	return s
}
