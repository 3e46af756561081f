// Package config provides configuration loading and defaults for the exa-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a required setting that is missing at startup.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: required field %q is not set", e.Field)
}

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups resource filters applied before tool execution.
type SafetyConfig struct {
	Tenants ResourceFilter `yaml:"tenants"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	LogPath   string `yaml:"log_path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// ServerConfig holds network and authentication settings for the MCP endpoint.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// ExascalerConfig holds connection details and credentials for the EXAScaler
// management API. TLSVerify is a pointer so that an absent key keeps the
// default (verification enabled) while an explicit "false" disables it.
type ExascalerConfig struct {
	URL       string `yaml:"url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TLSVerify *bool  `yaml:"tls_verify"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// VerifyTLS reports whether TLS certificate verification is enabled.
// Verification defaults to on when the setting is absent.
func (c ExascalerConfig) VerifyTLS() bool {
	if c.TLSVerify == nil {
		return true
	}
	return *c.TLSVerify
}

// WatchConfig controls the command state-machine polling loop.
type WatchConfig struct {
	// PollIntervalSeconds is the delay between status polls.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	// MaxWaitSeconds bounds the total wait for a command to reach a
	// terminal state. Zero means no bound.
	MaxWaitSeconds int `yaml:"max_wait_seconds"`
}

// Config is the top-level configuration structure for the exa-mcp server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Exascaler ExascalerConfig `yaml:"exascaler"`
	Watch     WatchConfig     `yaml:"watch"`
	Safety    SafetyConfig    `yaml:"safety"`
	Audit     AuditConfig     `yaml:"audit"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// It returns a pointer to the populated Config and any error encountered.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Exascaler: ExascalerConfig{
			Timeout: 30,
		},
		Watch: WatchConfig{
			PollIntervalSeconds: 3,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
	}
}

// Validate checks that every required EXAScaler connection field is present.
// The first missing field is reported as a ConfigurationError naming it.
func (c *Config) Validate() error {
	switch {
	case c.Exascaler.URL == "":
		return &ConfigurationError{Field: "exascaler.url"}
	case c.Exascaler.Username == "":
		return &ConfigurationError{Field: "exascaler.username"}
	case c.Exascaler.Password == "":
		return &ConfigurationError{Field: "exascaler.password"}
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - EXA_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - EXA_URL overrides cfg.Exascaler.URL
//   - EXA_USERNAME overrides cfg.Exascaler.Username
//   - EXA_PASSWORD overrides cfg.Exascaler.Password
//   - EXA_TLSVERIFY overrides cfg.Exascaler.TLSVerify ("true"/"1" enable)
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("EXA_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if url := os.Getenv("EXA_URL"); url != "" {
		cfg.Exascaler.URL = url
	}
	if user := os.Getenv("EXA_USERNAME"); user != "" {
		cfg.Exascaler.Username = user
	}
	if pass := os.Getenv("EXA_PASSWORD"); pass != "" {
		cfg.Exascaler.Password = pass
	}
	if verify := os.Getenv("EXA_TLSVERIFY"); verify != "" {
		v := parseBool(verify)
		cfg.Exascaler.TLSVerify = &v
	}
}

// parseBool treats "true" and "1" (case-insensitive) as true, everything
// else as false.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1":
		return true
	}
	return false
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
