package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempFile creates a temporary file with the given content and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

const validYAML = `
server:
  port: 9090
  auth_token: test-secret-token
exascaler:
  url: https://exa.example.com
  username: admin
  password: hunter2
  tls_verify: false
  timeout: 10
watch:
  poll_interval_seconds: 5
  max_wait_seconds: 600
safety:
  tenants:
    allowlist: ["tenant-*"]
    denylist: ["tenant-prod"]
audit:
  enabled: true
  log_path: /tmp/audit.log
`

func Test_LoadConfig_Cases(t *testing.T) {
	tests := []struct {
		name        string
		setupPath   func(t *testing.T) string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config loads all fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "valid.yaml", validYAML)
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.AuthToken != "test-secret-token" {
					t.Errorf("Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "test-secret-token")
				}
				if cfg.Exascaler.URL != "https://exa.example.com" {
					t.Errorf("Exascaler.URL = %q, want %q", cfg.Exascaler.URL, "https://exa.example.com")
				}
				if cfg.Exascaler.Username != "admin" {
					t.Errorf("Exascaler.Username = %q, want %q", cfg.Exascaler.Username, "admin")
				}
				if cfg.Exascaler.VerifyTLS() {
					t.Error("VerifyTLS() = true, want false (explicitly disabled)")
				}
				if cfg.Exascaler.Timeout != 10 {
					t.Errorf("Exascaler.Timeout = %d, want 10", cfg.Exascaler.Timeout)
				}
				if cfg.Watch.PollIntervalSeconds != 5 {
					t.Errorf("Watch.PollIntervalSeconds = %d, want 5", cfg.Watch.PollIntervalSeconds)
				}
				if cfg.Watch.MaxWaitSeconds != 600 {
					t.Errorf("Watch.MaxWaitSeconds = %d, want 600", cfg.Watch.MaxWaitSeconds)
				}
				if len(cfg.Safety.Tenants.Allowlist) != 1 || cfg.Safety.Tenants.Allowlist[0] != "tenant-*" {
					t.Errorf("Safety.Tenants.Allowlist = %v, want [tenant-*]", cfg.Safety.Tenants.Allowlist)
				}
				if !cfg.Audit.Enabled {
					t.Error("Audit.Enabled = false, want true")
				}
			},
		},
		{
			name: "missing file returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "does-not-exist.yaml")
			},
			wantErr:     true,
			errContains: "failed to read config file",
		},
		{
			name: "malformed yaml returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "bad.yaml", "server: [not: valid")
			},
			wantErr:     true,
			errContains: "failed to unmarshal config",
		},
		{
			name: "absent tls_verify defaults to verification on",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "min.yaml", "exascaler:\n  url: https://exa\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if !cfg.Exascaler.VerifyTLS() {
					t.Error("VerifyTLS() = false, want true by default")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.setupPath(t))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errContains)
				}
				if cfg != nil {
					t.Error("expected nil config on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func Test_Validate_Cases(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Exascaler.URL = "https://exa.example.com"
		cfg.Exascaler.Username = "admin"
		cfg.Exascaler.Password = "hunter2"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{
			name:   "complete config passes",
			mutate: func(cfg *Config) {},
		},
		{
			name:      "missing url",
			mutate:    func(cfg *Config) { cfg.Exascaler.URL = "" },
			wantField: "exascaler.url",
		},
		{
			name:      "missing username",
			mutate:    func(cfg *Config) { cfg.Exascaler.Username = "" },
			wantField: "exascaler.username",
		},
		{
			name:      "missing password",
			mutate:    func(cfg *Config) { cfg.Exascaler.Password = "" },
			wantField: "exascaler.password",
		},
		{
			name: "missing url reported before missing password",
			mutate: func(cfg *Config) {
				cfg.Exascaler.URL = ""
				cfg.Exascaler.Password = ""
			},
			wantField: "exascaler.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigurationError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error = %q, want it to name field %q", err.Error(), tt.wantField)
			}
		})
	}
}

func Test_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("EXA_MCP_AUTH_TOKEN", "env-token")
	t.Setenv("EXA_URL", "https://env.example.com")
	t.Setenv("EXA_USERNAME", "env-user")
	t.Setenv("EXA_PASSWORD", "env-pass")
	t.Setenv("EXA_TLSVERIFY", "false")

	cfg := DefaultConfig()
	cfg.Exascaler.URL = "https://file.example.com"
	ApplyEnvOverrides(cfg)

	if cfg.Server.AuthToken != "env-token" {
		t.Errorf("AuthToken = %q, want %q", cfg.Server.AuthToken, "env-token")
	}
	if cfg.Exascaler.URL != "https://env.example.com" {
		t.Errorf("URL = %q, want env override", cfg.Exascaler.URL)
	}
	if cfg.Exascaler.Username != "env-user" {
		t.Errorf("Username = %q, want %q", cfg.Exascaler.Username, "env-user")
	}
	if cfg.Exascaler.Password != "env-pass" {
		t.Errorf("Password = %q, want %q", cfg.Exascaler.Password, "env-pass")
	}
	if cfg.Exascaler.VerifyTLS() {
		t.Error("VerifyTLS() = true, want false from EXA_TLSVERIFY=false")
	}
}

func Test_ApplyEnvOverrides_EmptyEnvKeepsConfig(t *testing.T) {
	t.Setenv("EXA_URL", "")
	t.Setenv("EXA_TLSVERIFY", "")

	cfg := DefaultConfig()
	cfg.Exascaler.URL = "https://file.example.com"
	ApplyEnvOverrides(cfg)

	if cfg.Exascaler.URL != "https://file.example.com" {
		t.Errorf("URL = %q, want file value preserved", cfg.Exascaler.URL)
	}
	if !cfg.Exascaler.VerifyTLS() {
		t.Error("VerifyTLS() = false, want default true when env is unset")
	}
}

func Test_parseBool_Cases(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseBool(tt.input); got != tt.want {
				t.Errorf("parseBool(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func Test_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Exascaler.Timeout != 30 {
		t.Errorf("Exascaler.Timeout = %d, want 30", cfg.Exascaler.Timeout)
	}
	if cfg.Watch.PollIntervalSeconds != 3 {
		t.Errorf("Watch.PollIntervalSeconds = %d, want 3", cfg.Watch.PollIntervalSeconds)
	}
	if cfg.Watch.MaxWaitSeconds != 0 {
		t.Errorf("Watch.MaxWaitSeconds = %d, want 0 (unbounded)", cfg.Watch.MaxWaitSeconds)
	}
	if !cfg.Exascaler.VerifyTLS() {
		t.Error("VerifyTLS() = false, want true by default")
	}

	// Each call returns a distinct instance.
	other := DefaultConfig()
	other.Server.Port = 1
	if cfg.Server.Port == 1 {
		t.Error("DefaultConfig instances share state")
	}
}

func Test_EnsureAuthToken(t *testing.T) {
	t.Run("existing token preserved", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.AuthToken = "keep-me"
		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "keep-me" {
			t.Errorf("token = %q, want %q", token, "keep-me")
		}
	})

	t.Run("empty token generated", func(t *testing.T) {
		cfg := DefaultConfig()
		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("token length = %d, want 32 hex chars", len(token))
		}
		if cfg.Server.AuthToken != token {
			t.Error("generated token was not installed on the config")
		}
	})
}
