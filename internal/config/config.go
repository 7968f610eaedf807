package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultGatewayURL is the fallback gateway used when neither the config
// file, the environment, nor the remote config document supplies one.
const DefaultGatewayURL = "https://8vceo9xnpj.execute-api.eu-north-1.amazonaws.com"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockdash client.
type Config struct {
	Gateway Gateway `yaml:"gateway"`
	Auth    Auth    `yaml:"auth"`
	Storage Storage `yaml:"storage"`
	Cache   Cache   `yaml:"cache"`
	Logging Logging `yaml:"logging"`
	Export  Export  `yaml:"export"`
}

// Gateway holds endpoints for the backend gateway.
type Gateway struct {
	URL       string `yaml:"url"`
	ConfigURL string `yaml:"config_url"` // remote config document, optional
}

// Auth holds identity-provider material. The token is issued externally
// (Cognito); the client only decodes its claims.
type Auth struct {
	Token       string `yaml:"token"`
	SessionPath string `yaml:"session_path"`
}

// Storage holds paths for local persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Cache controls the "what to buy" analysis cache TTL.
type Cache struct {
	Minutes int `yaml:"minutes"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Export holds parameters for the headless tick-export command.
type Export struct {
	Window          string `yaml:"window"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	MaxAttempts     int    `yaml:"max_attempts"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDASH_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("STOCKDASH_CONFIG_URL"); v != "" {
		cfg.Gateway.ConfigURL = v
	}
	if v := os.Getenv("STOCKDASH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("STOCKDASH_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("STOCKDASH_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("STOCKDASH_CACHE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Minutes = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDefaults fills zero-valued fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = DefaultGatewayURL
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/stockdash.db"
	}
	if cfg.Auth.SessionPath == "" {
		cfg.Auth.SessionPath = "data/session"
	}
	// Cache TTL is clamped to the selectable 1..5 minute range.
	if cfg.Cache.Minutes < 1 || cfg.Cache.Minutes > 5 {
		cfg.Cache.Minutes = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Export.Window == "" {
		cfg.Export.Window = "month"
	}
	if cfg.Export.RateLimitPerMin == 0 {
		cfg.Export.RateLimitPerMin = 120
	}
	if cfg.Export.MaxAttempts == 0 {
		cfg.Export.MaxAttempts = 3
	}
}
