package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Execution mode constants
const (
	// ExecutionModeJudge0 dispatches jobs to the remote Judge0 engine
	ExecutionModeJudge0 = "judge0"
	// ExecutionModeLocal compiles and runs submissions in local subprocesses
	ExecutionModeLocal = "local"
)

// Config represents the server configuration.
//
// Values resolve in three layers: defaults, then an optional JSON file,
// then environment variables.
type Config struct {
	Addr          string `json:"addr" env:"SYNCODE_ADDR"`
	LogLevel      string `json:"log_level" env:"SYNCODE_LOG_LEVEL"` // debug, info, warn, error, none
	LogPath       string `json:"log_path" env:"SYNCODE_LOG_PATH"`
	ExecutionMode string `json:"execution_mode" env:"SYNCODE_EXECUTION_MODE"` // judge0 or local

	// Judge0 settings (remote execution)
	Judge0Host   string `json:"judge0_host" env:"JUDGE0_HOST"`
	Judge0APIKey string `json:"-" env:"RAPID_API_KEY"`

	// Local execution settings
	LocalRunTimeoutSeconds int `json:"local_run_timeout_seconds" env:"SYNCODE_LOCAL_RUN_TIMEOUT"`

	// Access gate settings
	AccessRequestTTLSeconds int `json:"access_request_ttl_seconds" env:"SYNCODE_ACCESS_TTL"`

	// AI chat helper
	AnthropicAPIKey string `json:"-" env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `json:"anthropic_model" env:"SYNCODE_ANTHROPIC_MODEL"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:                    ":5000",
		LogLevel:                "info",
		ExecutionMode:           ExecutionModeJudge0,
		Judge0Host:              "judge0-ce.p.rapidapi.com",
		LocalRunTimeoutSeconds:  10,
		AccessRequestTTLSeconds: 60,
	}
}

// Load builds the configuration from defaults, an optional JSON file and
// environment variables. A missing file at path is not an error; a present
// but unreadable one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ExecutionMode {
	case ExecutionModeJudge0, ExecutionModeLocal:
	default:
		return fmt.Errorf("unknown execution mode %q", c.ExecutionMode)
	}
	if c.LocalRunTimeoutSeconds <= 0 {
		return fmt.Errorf("local run timeout must be positive, got %d", c.LocalRunTimeoutSeconds)
	}
	if c.AccessRequestTTLSeconds <= 0 {
		return fmt.Errorf("access request TTL must be positive, got %d", c.AccessRequestTTLSeconds)
	}
	return nil
}
