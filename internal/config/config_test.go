package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("default port: got %q, want %q", cfg.Port, "8080")
	}
	if cfg.Environment != "dev" {
		t.Errorf("default environment: got %q, want %q", cfg.Environment, "dev")
	}
	if cfg.TablePrefix != "dev_" {
		t.Errorf("default table prefix: got %q, want %q", cfg.TablePrefix, "dev_")
	}
	if !cfg.Debug {
		t.Error("debug should default to true in dev")
	}
}

func TestTablePrefixPerEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		prefix string
	}{
		{name: "prod", env: "prod", prefix: "prod_"},
		{name: "test", env: "test", prefix: "test_"},
		{name: "dev", env: "dev", prefix: "dev_"},
		{name: "unknown falls back to dev", env: "staging", prefix: "dev_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			cfg := Load()
			if cfg.TablePrefix != tt.prefix {
				t.Errorf("table prefix: got %q, want %q", cfg.TablePrefix, tt.prefix)
			}
		})
	}
}

func TestTablePrefixOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "custom_")

	cfg := Load()
	if cfg.TablePrefix != "custom_" {
		t.Errorf("table prefix override: got %q, want %q", cfg.TablePrefix, "custom_")
	}
}

func TestDebugDisabledInProd(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")

	cfg := Load()
	if cfg.Debug {
		t.Error("debug should default to false in prod")
	}
}
