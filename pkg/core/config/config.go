package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Solver  SolverConfig  `toml:"solver"`
	Render  RenderConfig  `toml:"render"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
	Keypad  KeypadConfig  `toml:"keypad"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	LogFile     string `toml:"log_file"`
}

// SolverConfig selects and tunes the symbolic backend
type SolverConfig struct {
	// Backend is "python" (local SymPy subprocess) or "http" (remote dgl serve)
	Backend        string   `toml:"backend"`
	Interpreter    string   `toml:"interpreter"`
	Timeout        Duration `toml:"timeout"`
	AttemptTimeout Duration `toml:"attempt_timeout"`
	URL            string   `toml:"url"`
}

// RenderConfig holds preview renderer settings
type RenderConfig struct {
	FontPath  string   `toml:"font_path"`
	FontSize  float64  `toml:"font_size"`
	Padding   int      `toml:"padding"`
	CacheTTL  Duration `toml:"cache_ttl"`
	CacheSize int      `toml:"cache_size"`
}

// HistoryConfig holds solve history settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `toml:"port"`
	Host           string   `toml:"host"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	MaxRequestSize int64    `toml:"max_request_size"`
}

// KeypadConfig points to an optional keypad layout override
type KeypadConfig struct {
	Layout string `toml:"layout"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied. History is
// enabled by default.
func Default() *Config {
	cfg := &Config{History: HistoryConfig{Enabled: true}}
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Config{History: HistoryConfig{Enabled: true}}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from the DGL_CONFIG environment variable
// or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("DGL_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/dglrechner/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("no config file found, set DGL_CONFIG or create configs/config.toml")
	}

	return Load(path)
}

// ApplyEnvOverrides applies DGL_* environment variables on top of the file
// values. Unparsable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DGL_LOG_LEVEL"); v != "" {
		c.General.LogLevel = v
	}
	if v := os.Getenv("DGL_SOLVER_BACKEND"); v != "" {
		c.Solver.Backend = v
	}
	if v := os.Getenv("DGL_SOLVER_URL"); v != "" {
		c.Solver.URL = v
	}
	if v := os.Getenv("DGL_PYTHON"); v != "" {
		c.Solver.Interpreter = v
	}
	if v := os.Getenv("DGL_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("DGL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "dglrechner"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Solver
	if c.Solver.Backend == "" {
		c.Solver.Backend = "python"
	}
	if c.Solver.Interpreter == "" {
		c.Solver.Interpreter = "python3"
	}
	if c.Solver.Timeout.Duration == 0 {
		c.Solver.Timeout.Duration = 60 * time.Second
	}
	if c.Solver.AttemptTimeout.Duration == 0 {
		c.Solver.AttemptTimeout.Duration = 8 * time.Second
	}
	if c.Solver.URL == "" {
		c.Solver.URL = "http://localhost:8080"
	}

	// Render
	if c.Render.FontSize == 0 {
		c.Render.FontSize = 24
	}
	if c.Render.Padding == 0 {
		c.Render.Padding = 16
	}
	if c.Render.CacheTTL.Duration == 0 {
		c.Render.CacheTTL.Duration = 10 * time.Minute
	}
	if c.Render.CacheSize == 0 {
		c.Render.CacheSize = 256
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "history.db")
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}
	if c.Server.MaxRequestSize == 0 {
		c.Server.MaxRequestSize = 1 << 20
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.History.Path = os.ExpandEnv(c.History.Path)
	c.Render.FontPath = os.ExpandEnv(c.Render.FontPath)
	c.Keypad.Layout = os.ExpandEnv(c.Keypad.Layout)
	c.Solver.Interpreter = os.ExpandEnv(c.Solver.Interpreter)
}

// ServerAddress returns the listen address of the HTTP API
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
