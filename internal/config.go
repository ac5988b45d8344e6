package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client settings. Precedence, lowest first: defaults, config file,
// .env file, environment, command-line flags (applied by cmd).
type Config struct {
	APIURL            string        `yaml:"api_url" env:"JOBTRACK_API_URL"`
	DataDir           string        `yaml:"data_dir" env:"JOBTRACK_DATA_DIR"`
	Timeout           time.Duration `yaml:"timeout" env:"JOBTRACK_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"JOBTRACK_REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"JOBTRACK_BURST"`
	// Ephemeral keeps credentials in memory only
	Ephemeral bool `yaml:"ephemeral" env:"JOBTRACK_EPHEMERAL"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	dataDir := ".jobtrack"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".jobtrack")
	}
	return Config{
		APIURL:            DefaultAPIURL,
		DataDir:           dataDir,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
	}
}

// DefaultConfigPath returns ~/.config/jobtrack/config.yaml
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jobtrack", "config.yaml")
}

// DatabasePath is where credentials are persisted
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "jobtrack.db")
}

// LoadConfig builds a Config from defaults, the YAML file at path (optional
// when it does not exist), a .env file in the working directory and the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s, using defaults", path)
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Failed to load .env: %v", err)
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: api_url is required")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	if c.DataDir == "" && !c.Ephemeral {
		return errors.New("config: data_dir is required unless ephemeral")
	}
	return nil
}

// MarshalYAML writes the timeout in duration notation, the form LoadConfig reads back
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		APIURL            string  `yaml:"api_url"`
		DataDir           string  `yaml:"data_dir"`
		Timeout           string  `yaml:"timeout"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		Ephemeral         bool    `yaml:"ephemeral"`
	}{
		APIURL:            c.APIURL,
		DataDir:           c.DataDir,
		Timeout:           c.Timeout.String(),
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Ephemeral:         c.Ephemeral,
	}, nil
}

// SaveConfig writes cfg as YAML to path
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
