package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultToolPreferences(t *testing.T) {
	cfg := DefaultToolPreferences()

	if cfg.Session.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Session.HistorySize)
	}
	if !cfg.Display.ColorOutput {
		t.Error("Expected ColorOutput=true")
	}
	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}
	if cfg.Trace.MaxEntries != 100000 {
		t.Errorf("Expected MaxEntries=100000, got %d", cfg.Trace.MaxEntries)
	}
	if cfg.Statistics.Format != "json" {
		t.Errorf("Expected Format=json, got %s", cfg.Statistics.Format)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "hlasm-ls.toml" {
		t.Errorf("Expected path to end with hlasm-ls.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "hlasm-ls.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "hlasm-ls" && path != "hlasm-ls.toml" {
			t.Errorf("Expected path in hlasm-ls directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoadToolPreferences(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_prefs.toml")

	cfg := DefaultToolPreferences()
	cfg.Session.HistorySize = 500
	cfg.Display.ColorOutput = false
	cfg.Trace.OutputFile = "custom.log"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save preferences: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Preferences file was not created")
	}

	loaded, err := LoadToolPreferencesFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load preferences: %v", err)
	}

	if loaded.Session.HistorySize != 500 {
		t.Errorf("Expected HistorySize=500, got %d", loaded.Session.HistorySize)
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Trace.OutputFile != "custom.log" {
		t.Errorf("Expected OutputFile=custom.log, got %s", loaded.Trace.OutputFile)
	}
}

func TestLoadNonExistentToolPreferences(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadToolPreferencesFrom(configPath)
	if err != nil {
		t.Fatalf("LoadToolPreferencesFrom should not error on non-existent file: %v", err)
	}

	if cfg.Session.HistorySize != 1000 {
		t.Error("Expected default preferences when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[session]
history_size = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadToolPreferencesFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "hlasm-ls.toml")

	cfg := DefaultToolPreferences()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save preferences: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Preferences file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
