package config

import (
	"time"
)

type Config struct {
	Environment string                   `yaml:"environment" validate:"required,oneof=production development"`
	Networks    map[string]NetworkConfig `yaml:"networks"    validate:"required,min=1,dive"`
	Defaults    ClientConfig             `yaml:"defaults"`
	Store       StoreConfig              `yaml:"store"`
	NATS        NATSConfig               `yaml:"nats"`
	Metrics     MetricsConfig            `yaml:"metrics"`
}

// NetworkConfig describes one logical network and its redundant providers.
type NetworkConfig struct {
	Providers []Provider   `yaml:"providers" validate:"required,min=1,dive"`
	Client    ClientConfig `yaml:"client"`
	// PollInterval between chain-head refreshes.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Provider is one configured RPC endpoint.
type Provider struct {
	Label string `yaml:"label" validate:"required"`
	URL   string `yaml:"url"   validate:"required,url"`
	// Capabilities is a comma-separated token list, e.g. "archive,traces".
	Capabilities string            `yaml:"capabilities"`
	ApiKey       string            `yaml:"api_key"`
	ApiKeyEnv    string            `yaml:"api_key_env"`
	Headers      map[string]string `yaml:"headers,omitempty"`
}

type ClientConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	RPS            int           `yaml:"rps"`
	Burst          int           `yaml:"burst"`
}

type StoreConfig struct {
	Directory string `yaml:"directory"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}
