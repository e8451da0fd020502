// Package config loads and validates physiosim configuration from
// environment variables, after reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Stream server settings.
	Host string
	Port int

	// Logging.
	LogLevel  string // "info", "debug" or "trace"
	LogFormat string // "text" or "json"

	// Sessions.
	ScenarioDir string // extra YAML scenarios; built-ins are always available
	Format      string // "json" or "protobuf"
	BufferSize  int    // per-subscriber event buffer
	Plugin      string // path to a WASM sample transform

	// NATS publishing; disabled when NATSURL is empty.
	NATSURL     string
	NATSSubject string

	// Control API; disabled when ControlPort is 0.
	ControlPort    int
	ControlToken   string
	ControlGzip    bool
	ControlJournal string // receipt journal file; empty writes to stdout

	ShutdownTimeout time.Duration
}

// Load reads .env (if present) and the PHYSIOSIM_* environment, then
// validates the result. Every malformed variable is reported.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Host:           envStr("PHYSIOSIM_HOST", "127.0.0.1"),
		LogLevel:       envStr("PHYSIOSIM_LOG_LEVEL", "info"),
		LogFormat:      envStr("PHYSIOSIM_LOG_FORMAT", "text"),
		ScenarioDir:    envStr("PHYSIOSIM_SCENARIO_DIR", ""),
		Format:         envStr("PHYSIOSIM_FORMAT", "json"),
		Plugin:         envStr("PHYSIOSIM_PLUGIN", ""),
		NATSURL:        envStr("PHYSIOSIM_NATS_URL", ""),
		NATSSubject:    envStr("PHYSIOSIM_NATS_SUBJECT", "physiosim.samples"),
		ControlToken:   envStr("PHYSIOSIM_CONTROL_TOKEN", ""),
		ControlJournal: envStr("PHYSIOSIM_CONTROL_JOURNAL", ""),
	}

	var err error
	if cfg.Port, err = envInt("PHYSIOSIM_PORT", 8787); err != nil {
		errs = append(errs, err)
	}
	if cfg.BufferSize, err = envInt("PHYSIOSIM_BUFFER_SIZE", 256); err != nil {
		errs = append(errs, err)
	}
	if cfg.ControlPort, err = envInt("PHYSIOSIM_CONTROL_PORT", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.ControlGzip, err = envBool("PHYSIOSIM_CONTROL_GZIP", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = envDuration("PHYSIOSIM_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: PHYSIOSIM_PORT must be between 0 and 65535")
	}
	if c.ControlPort < 0 || c.ControlPort > 65535 {
		return fmt.Errorf("config: PHYSIOSIM_CONTROL_PORT must be between 0 and 65535")
	}
	if c.ControlPort != 0 && c.ControlToken == "" {
		return fmt.Errorf("config: PHYSIOSIM_CONTROL_TOKEN is required when the control API is enabled")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("config: PHYSIOSIM_BUFFER_SIZE must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: PHYSIOSIM_LOG_FORMAT must be 'text' or 'json'")
	}
	switch strings.ToLower(c.Format) {
	case "json", "protobuf", "proto":
	default:
		return fmt.Errorf("config: PHYSIOSIM_FORMAT must be 'json' or 'protobuf'")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
