// Package config provides configuration loading for devflow.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then DEVFLOW_* environment variables. See Load.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete devflow configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Cache     CacheConfig     `koanf:"cache"`
	Git       GitConfig       `koanf:"git"`
	GitHub    GitHubConfig    `koanf:"github"`
	HTTP      HTTPConfig      `koanf:"http"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig identifies the MCP server to clients.
type ServerConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// CacheConfig holds per-key TTLs for collector results.
type CacheConfig struct {
	ProjectTTL Duration `koanf:"project_ttl"`
	GitTTL     Duration `koanf:"git_ttl"`
	QualityTTL Duration `koanf:"quality_ttl"`
	// Watch invalidates git entries on .git/HEAD and index changes.
	Watch bool `koanf:"watch"`
}

// GitConfig controls git collection.
type GitConfig struct {
	BaseBranch     string   `koanf:"base_branch"`
	CommandTimeout Duration `koanf:"command_timeout"`
}

// GitHubConfig controls pull request lookups.
//
// With UseAPI false (the default) the gh CLI is used and Token is ignored.
type GitHubConfig struct {
	Token      Secret  `koanf:"token"`
	UseAPI     bool    `koanf:"use_api"`
	BaseURL    string  `koanf:"base_url"`
	RateLimit  float64 `koanf:"rate_limit"`
	RateBurst  int     `koanf:"rate_burst"`
	MaxRetries int     `koanf:"max_retries"`
}

// HTTPConfig configures the optional status API.
type HTTPConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds the file/env logging settings.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	OTEL     bool   `koanf:"otel"`
	Sampling bool   `koanf:"sampling"`
}

// TelemetryConfig holds the file/env OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Protocol       string   `koanf:"protocol"`
	Insecure       bool     `koanf:"insecure"`
	TLSSkipVerify  bool     `koanf:"tls_skip_verify"`
	ServiceName    string   `koanf:"service_name"`
	SampleRate     float64  `koanf:"sample_rate"`
	ExportInterval Duration `koanf:"export_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "devflow",
			Version: "2.1.0",
		},
		Cache: CacheConfig{
			ProjectTTL: Duration(60 * time.Second),
			GitTTL:     Duration(5 * time.Second),
			QualityTTL: Duration(10 * time.Second),
			Watch:      true,
		},
		Git: GitConfig{
			BaseBranch:     "origin/master",
			CommandTimeout: Duration(30 * time.Second),
		},
		GitHub: GitHubConfig{
			BaseURL:    "https://api.github.com/",
			RateLimit:  5,
			RateBurst:  10,
			MaxRetries: 3,
		},
		HTTP: HTTPConfig{
			Host:            "127.0.0.1",
			Port:            9191,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Sampling: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Endpoint:       "localhost:4317",
			Protocol:       "grpc",
			Insecure:       true,
			ServiceName:    "devflow",
			SampleRate:     1.0,
			ExportInterval: Duration(15 * time.Second),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Name == "" {
		errs = append(errs, errors.New("server.name is required"))
	}
	for name, ttl := range map[string]Duration{
		"cache.project_ttl": c.Cache.ProjectTTL,
		"cache.git_ttl":     c.Cache.GitTTL,
		"cache.quality_ttl": c.Cache.QualityTTL,
	} {
		if ttl.Duration() < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Git.BaseBranch == "" {
		errs = append(errs, errors.New("git.base_branch is required"))
	}
	if c.Git.CommandTimeout.Duration() <= 0 {
		errs = append(errs, errors.New("git.command_timeout must be positive"))
	}
	if c.GitHub.UseAPI && !c.GitHub.Token.IsSet() {
		errs = append(errs, errors.New("github.token is required when github.use_api is true"))
	}
	if c.GitHub.RateLimit <= 0 {
		errs = append(errs, errors.New("github.rate_limit must be positive"))
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be 1-65535, got %d", c.HTTP.Port))
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http/protobuf":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol must be grpc or http/protobuf, got %q", c.Telemetry.Protocol))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.Telemetry.SampleRate))
	}

	return errors.Join(errs...)
}
