package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{8 * time.Second}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "8s" {
		t.Errorf("MarshalText() = %v, want 8s", string(result))
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.General.Name != "dglrechner" {
		t.Errorf("General.Name = %v, want dglrechner", cfg.General.Name)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("General.LogLevel = %v, want info", cfg.General.LogLevel)
	}
	if cfg.Solver.Backend != "python" {
		t.Errorf("Solver.Backend = %v, want python", cfg.Solver.Backend)
	}
	if cfg.Solver.Interpreter != "python3" {
		t.Errorf("Solver.Interpreter = %v, want python3", cfg.Solver.Interpreter)
	}
	if cfg.Solver.AttemptTimeout.Duration != 8*time.Second {
		t.Errorf("Solver.AttemptTimeout = %v, want 8s", cfg.Solver.AttemptTimeout.Duration)
	}
	if cfg.Render.CacheSize != 256 {
		t.Errorf("Render.CacheSize = %v, want 256", cfg.Render.CacheSize)
	}
	if cfg.History.Path != filepath.Join("./data", "history.db") {
		t.Errorf("History.Path = %v", cfg.History.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxRequestSize != 1<<20 {
		t.Errorf("Server.MaxRequestSize = %v", cfg.Server.MaxRequestSize)
	}
}

func TestDefault_HistoryEnabled(t *testing.T) {
	cfg := Default()
	if !cfg.History.Enabled {
		t.Error("History should be enabled by default")
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("ServerAddress() = %v", cfg.ServerAddress())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[general]
name = "Testrechner"
data_dir = "/tmp/dgl"

[solver]
backend = "http"
url = "http://solver:9000"
timeout = "15s"

[server]
port = 9999
host = "127.0.0.1"

[history]
enabled = false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Name != "Testrechner" {
		t.Errorf("General.Name = %v, want Testrechner", cfg.General.Name)
	}
	if cfg.Solver.Backend != "http" || cfg.Solver.URL != "http://solver:9000" {
		t.Errorf("Solver = %+v", cfg.Solver)
	}
	if cfg.Solver.Timeout.Duration != 15*time.Second {
		t.Errorf("Solver.Timeout = %v, want 15s", cfg.Solver.Timeout.Duration)
	}
	if cfg.ServerAddress() != "127.0.0.1:9999" {
		t.Errorf("ServerAddress() = %v", cfg.ServerAddress())
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled should be false")
	}
	if cfg.History.Path != "/tmp/dgl/history.db" {
		t.Errorf("History.Path = %v, want /tmp/dgl/history.db", cfg.History.Path)
	}

	// defaults for missing values
	if cfg.Solver.AttemptTimeout.Duration != 8*time.Second {
		t.Errorf("Solver.AttemptTimeout = %v, want 8s (default)", cfg.Solver.AttemptTimeout.Duration)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	os.WriteFile(path, []byte("[solver\nbackend ="), 0644)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected parse error")
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("DGL_TEST_FONTS", "/usr/share/fonts")

	cfg := &Config{Render: RenderConfig{FontPath: "$DGL_TEST_FONTS/DejaVuSans.ttf"}}
	cfg.expandEnvVars()

	if cfg.Render.FontPath != "/usr/share/fonts/DejaVuSans.ttf" {
		t.Errorf("FontPath = %v", cfg.Render.FontPath)
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("DGL_SOLVER_BACKEND", "http")
	t.Setenv("DGL_PORT", "7000")
	t.Setenv("DGL_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Solver.Backend != "http" {
		t.Errorf("Solver.Backend = %v, want http", cfg.Solver.Backend)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %v, want 7000", cfg.Server.Port)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("General.LogLevel = %v, want debug", cfg.General.LogLevel)
	}

	t.Setenv("DGL_PORT", "not-a-number")
	cfg.ApplyEnvOverrides()
	if cfg.Server.Port != 7000 {
		t.Errorf("invalid DGL_PORT should be ignored, got %v", cfg.Server.Port)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("DGL_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	originalWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(originalWd)

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("LoadFromEnv() expected error when no config found")
	}
}

func TestLoadFromEnv_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dgl.toml")
	os.WriteFile(path, []byte("[server]\nport = 8181\n"), 0644)
	t.Setenv("DGL_CONFIG", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %v, want 8181", cfg.Server.Port)
	}
}
