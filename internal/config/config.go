package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Database    string     `yaml:"database"`
	LogLevel    string     `yaml:"log_level"`
	Theme       string     `yaml:"theme"`
	SearchLimit int        `yaml:"search_limit"`
	Defaults    []string   `yaml:"defaults"`
	Tick        TickConfig `yaml:"tick"`
}

// TickConfig holds the cron specs (seconds field enabled) driving live mode.
type TickConfig struct {
	// Clock refreshes the "current time" readout.
	Clock string `yaml:"clock"`
	// Resync moves every card to the current instant.
	Resync string `yaml:"resync"`
}

// Environment variables that override file values.
const (
	EnvDatabase = "WORLDCLOCK_DATABASE"
	EnvLogLevel = "WORLDCLOCK_LOG_LEVEL"
	EnvTheme    = "WORLDCLOCK_THEME"
)

// DefaultConfigDir returns the default configuration directory (~/.worldclock).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".worldclock"), nil
}

// DefaultConfigPath returns the path to the default config file.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDBPath returns the path to the default database file.
func DefaultDBPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "worldclock.db"), nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dbPath, _ := DefaultDBPath()
	return Config{
		Database:    dbPath,
		LogLevel:    "info",
		Theme:       "auto",
		SearchLimit: 20,
		Defaults:    []string{"Beijing", "New York", "London"},
		Tick: TickConfig{
			Clock:  "@every 1s",
			Resync: "@every 1m",
		},
	}
}

// Normalize fills zero values left by partial config files.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	switch c.Theme {
	case "dark", "light", "auto":
	default:
		c.Theme = def.Theme
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = def.SearchLimit
	}
	if len(c.Defaults) == 0 {
		c.Defaults = def.Defaults
	}
	if c.Tick.Clock == "" {
		c.Tick.Clock = def.Tick.Clock
	}
	if c.Tick.Resync == "" {
		c.Tick.Resync = def.Tick.Resync
	}
}

// Load reads a config file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the config to disk, creating directories as needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return write(path, data)
}

// SaveWithComments writes the config to disk with guidance comments.
// Used by `init` to generate a self-documenting config file.
func SaveWithComments(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return write(path, addConfigComments(data))
}

func write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// addConfigComments inserts # comments into marshaled YAML for user guidance.
func addConfigComments(data []byte) []byte {
	var result []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		indent := line[:len(line)-len(trimmed)]

		switch {
		case strings.HasPrefix(trimmed, "log_level:") && !strings.Contains(line, "#"):
			result = append(result, line+" # info or quiet")
		case strings.HasPrefix(trimmed, "theme:") && !strings.Contains(line, "#"):
			result = append(result, line+" # dark, light or auto")
		case trimmed == "defaults:":
			result = append(result,
				indent+"# Cards shown when nothing has been saved, front to back.",
				indent+"# Display names or IANA zone ids.",
				line,
			)
		case trimmed == "tick:":
			result = append(result,
				indent+"# Live mode cadences as cron specs with a seconds field:",
				indent+"#   clock:  \"@every 1s\"     # current-time readout",
				indent+"#   resync: \"0 * * * * *\"  # move all cards to now",
				line,
			)
		default:
			result = append(result, line)
		}
	}
	return []byte(strings.Join(result, "\n"))
}

// LoadOrCreate loads the config from path, or creates it with defaults.
func LoadOrCreate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			def := DefaultConfig()
			if saveErr := Save(path, &def); saveErr != nil {
				return nil, fmt.Errorf("create default config: %w", saveErr)
			}
			return &def, nil
		}
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if present) into the environment and applies the
// WORLDCLOCK_* overrides to cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		cfg.Theme = v
	}
	cfg.Normalize()
	return nil
}
