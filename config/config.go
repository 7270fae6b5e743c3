// Package config loads service configuration from an optional YAML file
// and HEALTHSCAN_-prefixed environment variables, with sane defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables consumed by the service.
const envPrefix = "HEALTHSCAN_"

// Config holds the full service configuration.
type Config struct {
	Server  Server  `koanf:"server"`
	Fetcher Fetcher `koanf:"fetcher"`
	Advisor Advisor `koanf:"advisor"`
	Store   Store   `koanf:"store"`
}

// Server configures the HTTP listener.
type Server struct {
	// Listen is the address the HTTP server binds to
	Listen string `koanf:"listen"`
	// ReadTimeout bounds reading an inbound request
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing a response
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// ShutdownGracePeriod bounds graceful shutdown on SIGTERM
	ShutdownGracePeriod time.Duration `koanf:"shutdown_grace_period"`
	// MaxBodySize caps inbound request body bytes
	MaxBodySize int64 `koanf:"max_body_size"`
	// AnalyzeTimeout bounds one analysis request end to end
	AnalyzeTimeout time.Duration `koanf:"analyze_timeout"`
	// Debug enables debug log output; set from the CLI flag
	Debug bool `koanf:"debug"`
	// Pretty enables human readable log output; set from the CLI flag
	Pretty bool `koanf:"pretty"`
}

// Fetcher configures the outbound page fetch.
type Fetcher struct {
	// Timeout bounds a single page fetch
	Timeout time.Duration `koanf:"timeout"`
	// UserAgent is sent to target sites
	UserAgent string `koanf:"user_agent"`
	// MaxBodySize caps fetched page bytes
	MaxBodySize int64 `koanf:"max_body_size"`
	// Retry enables one retry with backoff on transient fetch failures
	Retry bool `koanf:"retry"`
}

// Advisor configures the AI strategic advisor. An empty APIKey is a
// valid configuration and selects degraded mode, not an error.
type Advisor struct {
	// Provider selects the backend: noop, gemini or openai
	Provider string `koanf:"provider"`
	// APIKey is the provider credential
	APIKey string `koanf:"api_key"`
	// Model overrides the provider default model
	Model string `koanf:"model"`
	// Timeout bounds a single provider call
	Timeout time.Duration `koanf:"timeout"`
}

// Store configures snapshot persistence.
type Store struct {
	// Path is the SQLite database location
	Path string `koanf:"path"`
	// Strict makes a persistence failure fail the whole analysis request
	Strict bool `koanf:"strict"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		Server: Server{
			Listen:              ":8080",
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        60 * time.Second,
			ShutdownGracePeriod: 30 * time.Second,
			MaxBodySize:         100 * 1024,
			AnalyzeTimeout:      60 * time.Second,
		},
		Fetcher: Fetcher{
			Timeout:     15 * time.Second,
			UserAgent:   "healthscan/1.0",
			MaxBodySize: 2 * 1024 * 1024,
			Retry:       true,
		},
		Advisor: Advisor{
			Provider: "noop",
			Timeout:  30 * time.Second,
		},
		Store: Store{
			Path: "data/healthscan.db",
		},
	}
}

// Load reads configuration from the YAML file at path (when it exists)
// and from HEALTHSCAN_-prefixed environment variables, layered over the
// defaults. A nil or empty path skips the file layer.
func Load(path *string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()

	if path != nil && *path != "" {
		if _, err := os.Stat(*path); err == nil {
			if err := k.Load(file.Provider(*path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", *path, err)
			}
		}
	}

	// HEALTHSCAN_ADVISOR_API_KEY -> advisor.api_key requires mapping only
	// the section separator; key names keep their underscores
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnmarshal, err)
	}

	return &cfg, nil
}

// sectionNames are the top-level config sections used to split env keys.
var sectionNames = []string{"server", "fetcher", "advisor", "store"}

// envKeyMapper maps HEALTHSCAN_SECTION_KEY_NAME to section.key_name.
func envKeyMapper(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	for _, section := range sectionNames {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}

	return key
}
