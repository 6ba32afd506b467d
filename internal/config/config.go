// Package config loads the CLI configuration: defaults, then the user's
// yaml file under ~/.vendorgate, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/evertrade/vendorgate/internal/errors"
)

// Config holds everything the CLI needs to talk to the identity service
// and keep a session around.
type Config struct {
	// APIURL is the base URL of the identity service
	APIURL string `yaml:"api_url" env:"VENDORGATE_API_URL"`

	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout" env:"VENDORGATE_TIMEOUT"`

	// StoreBackend selects the durable client store: "file" or "sqlite"
	StoreBackend string `yaml:"store_backend" env:"VENDORGATE_STORE_BACKEND"`

	// StorePath overrides the store location; empty means the default
	// path under the config directory
	StorePath string `yaml:"store_path" env:"VENDORGATE_STORE_PATH"`

	// StorePassphrase, when set, seals stored values with a derived key.
	// Env-only on purpose: a passphrase does not belong in a config file.
	StorePassphrase string `yaml:"-" env:"VENDORGATE_STORE_PASSPHRASE"`

	// VerifyAttempts bounds the post-login whoami loop
	VerifyAttempts int `yaml:"verify_attempts" env:"VENDORGATE_VERIFY_ATTEMPTS"`

	// VerifyDelay is the wait between verification attempts
	VerifyDelay time.Duration `yaml:"verify_delay" env:"VENDORGATE_VERIFY_DELAY"`

	// RecheckDelay is the guest-divergence debounce interval
	RecheckDelay time.Duration `yaml:"recheck_delay" env:"VENDORGATE_RECHECK_DELAY"`

	// WatchInterval is how often `sync --watch` re-verifies
	WatchInterval time.Duration `yaml:"watch_interval" env:"VENDORGATE_WATCH_INTERVAL"`

	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level" env:"VENDORGATE_LOG_LEVEL"`

	// LogFormat is the log output format (text, json)
	LogFormat string `yaml:"log_format" env:"VENDORGATE_LOG_FORMAT"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIURL:         "http://localhost:8000",
		Timeout:        30 * time.Second,
		StoreBackend:   "file",
		VerifyAttempts: 3,
		VerifyDelay:    700 * time.Millisecond,
		RecheckDelay:   1500 * time.Millisecond,
		WatchInterval:  60 * time.Second,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Dir returns the user config directory (~/.vendorgate)
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vendorgate"
	}
	return filepath.Join(home, ".vendorgate")
}

// Load resolves the configuration: defaults, then the yaml file at path
// (skipped when absent; the default path when path is empty), then
// environment variables, highest precedence last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults are a complete config; the file is optional.
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeConfigReadFailed, "cannot read config file", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeConfigInvalid, "config file is not valid yaml", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeConfigInvalid, "bad environment override", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.APIURL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "api_url must not be empty")
	}

	switch c.StoreBackend {
	case "file", "sqlite":
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown store backend %q (want file or sqlite)", c.StoreBackend))
	}

	if c.VerifyAttempts < 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "verify_attempts must be at least 1")
	}

	return nil
}

// ResolvedStorePath returns the durable store location for this config
func (c Config) ResolvedStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	if c.StoreBackend == "sqlite" {
		return filepath.Join(Dir(), "session.db")
	}
	return filepath.Join(Dir(), "session.json")
}
