package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Auth        AuthConfig      `toml:"auth"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// WebSocketConfig contains configuration for the realtime creation channel
type WebSocketConfig struct {
	// Throttle intervals for high-frequency events. Map of event type to
	// duration string, e.g. {"progress_update": "250ms"}. Empty = no throttling.
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// AuthConfig contains bearer-token authentication configuration
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`   // HMAC signing secret for bearer tokens
	TokenExpiry string `toml:"token_expiry"` // Token lifetime as duration string (default: "24h")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for analysis operations
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key
	Model       string  `toml:"model"`      // Model for analysis operations
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderNone disables LLM-backed analysis (heuristic fallback)
	LLMProviderNone LLMProvider = "none"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini", "claude" or "none"
}

// PipelineConfig bounds the real-time creation orchestrator
type PipelineConfig struct {
	MaxSessions   int    `toml:"max_sessions"`   // Cap on concurrent creation sessions (default: 100)
	StageTimeout  string `toml:"stage_timeout"`  // Per-stage timeout as duration string (default: "2m")
	SessionTTL    string `toml:"session_ttl"`    // Stale-session expiry (default: "30m")
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for the stale-session sweep
	StepDelay     string `toml:"step_delay"`     // Simulated work interval per milestone (default: "400ms"; tests set "0")
}

// StageTimeoutDuration parses the per-stage timeout, falling back to default
func (p *PipelineConfig) StageTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(p.StageTimeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// SessionTTLDuration parses the session ttl, falling back to default
func (p *PipelineConfig) SessionTTLDuration() time.Duration {
	if d, err := time.ParseDuration(p.SessionTTL); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

// StepDelayDuration parses the simulated work interval. "0" is valid and
// disables the delay entirely (used by tests).
func (p *PipelineConfig) StepDelayDuration() time.Duration {
	if d, err := time.ParseDuration(p.StepDelay); err == nil && d >= 0 {
		return d
	}
	return 400 * time.Millisecond
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in appforge.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		WebSocket: WebSocketConfig{
			// Empty = push every progress_update; set an interval to throttle
			// high-frequency updates for slow clients.
			ThrottleIntervals: map[string]string{},
		},
		Auth: AuthConfig{
			JWTSecret:   "", // User must provide a secret in config or APPFORGE_AUTH_JWT_SECRET
			TokenExpiry: "24h",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderNone, // Heuristic analysis unless a provider is configured
		},
		Pipeline: PipelineConfig{
			MaxSessions:   100,
			StageTimeout:  "2m",
			SessionTTL:    "30m",
			SweepSchedule: "0 */5 * * * *", // Every 5 minutes (cron format with seconds)
			StepDelay:     "400ms",
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies APPFORGE_* environment variables on top of the
// file configuration
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("APPFORGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("APPFORGE_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("APPFORGE_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("APPFORGE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("APPFORGE_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("APPFORGE_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("APPFORGE_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("APPFORGE_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(v)
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
