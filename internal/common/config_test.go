package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.Server.Port)
	}
	if config.Pipeline.MaxSessions != 100 {
		t.Errorf("Expected default max sessions 100, got %d", config.Pipeline.MaxSessions)
	}
	if config.Pipeline.StageTimeoutDuration() != 2*time.Minute {
		t.Errorf("Expected default stage timeout 2m, got %v", config.Pipeline.StageTimeoutDuration())
	}
	if config.Pipeline.SessionTTLDuration() != 30*time.Minute {
		t.Errorf("Expected default session ttl 30m, got %v", config.Pipeline.SessionTTLDuration())
	}
	if config.LLM.DefaultProvider != LLMProviderNone {
		t.Errorf("Expected default provider none, got %s", config.LLM.DefaultProvider)
	}
}

func TestLoadFromFiles_Override(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	if err := os.WriteFile(base, []byte("[server]\nport = 9000\nhost = \"0.0.0.0\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write base config: %v", err)
	}

	override := filepath.Join(dir, "override.toml")
	if err := os.WriteFile(override, []byte("[server]\nport = 9100\n\n[pipeline]\nmax_sessions = 5\nstep_delay = \"0s\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write override config: %v", err)
	}

	config, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 9100 {
		t.Errorf("Expected later file to win port, got %d", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host from base file, got %s", config.Server.Host)
	}
	if config.Pipeline.MaxSessions != 5 {
		t.Errorf("Expected max sessions 5, got %d", config.Pipeline.MaxSessions)
	}
	if config.Pipeline.StepDelayDuration() != 0 {
		t.Errorf("Expected zero step delay, got %v", config.Pipeline.StepDelayDuration())
	}
}

func TestLoadFromFiles_EnvOverride(t *testing.T) {
	t.Setenv("APPFORGE_SERVER_PORT", "9999")
	t.Setenv("APPFORGE_AUTH_JWT_SECRET", "env-secret")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 9999 {
		t.Errorf("Expected env override port 9999, got %d", config.Server.Port)
	}
	if config.Auth.JWTSecret != "env-secret" {
		t.Errorf("Expected env jwt secret, got %q", config.Auth.JWTSecret)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	if _, err := LoadFromFiles("/nonexistent/appforge.toml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 7070, "127.0.0.1")
	if config.Server.Port != 7070 || config.Server.Host != "127.0.0.1" {
		t.Errorf("Flag overrides not applied: %d %s", config.Server.Port, config.Server.Host)
	}

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 7070 || config.Server.Host != "127.0.0.1" {
		t.Errorf("Zero flags should not override: %d %s", config.Server.Port, config.Server.Host)
	}
}
