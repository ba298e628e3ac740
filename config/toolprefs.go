// Package config models the two real-world workspace configuration
// documents HLASM tooling reads (processor groups, program mapping —
// spec.md §6), the assembler-options subset they embed, and a local
// developer-preferences file for this tool itself. The workspace
// documents are plain `encoding/json` structs (see DESIGN.md for why no
// third-party JSON library is used there); ToolPreferences below keeps
// the teacher's TOML-backed local-config machinery, since local tool
// preferences are a genuinely different concern from workspace config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// ToolPreferences holds this tool's own local developer preferences —
// distinct from the workspace's ProcessorGroups/ProgramMapping documents,
// which describe the analyzed program, not the tool inspecting it.
type ToolPreferences struct {
	// Session settings
	Session struct {
		HistorySize    int  `toml:"history_size"`
		ReopenLastFile bool `toml:"reopen_last_file"`
	} `toml:"session"`

	// Display settings
	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		SourceContext int    `toml:"source_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Trace settings: where/how a processing-manager step trace is dumped
	// when requested (§4.H main loop per-kind metrics).
	Trace struct {
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings: where/how provider/processor counters are
	// dumped when requested.
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv, html
	} `toml:"statistics"`
}

// DefaultToolPreferences returns preferences with default values.
func DefaultToolPreferences() *ToolPreferences {
	cfg := &ToolPreferences{}

	cfg.Session.HistorySize = 1000
	cfg.Session.ReopenLastFile = true

	cfg.Display.ColorOutput = true
	cfg.Display.SourceContext = 5
	cfg.Display.NumberFormat = "hex"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.MaxEntries = 100000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"

	return cfg
}

// GetConfigPath returns the platform-specific preferences file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "hlasm-ls")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "hlasm-ls.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "hlasm-ls")

	default:
		return "hlasm-ls.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "hlasm-ls.toml"
	}

	return filepath.Join(configDir, "hlasm-ls.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "hlasm-ls", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "hlasm-ls", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// LoadToolPreferences loads preferences from the default file.
func LoadToolPreferences() (*ToolPreferences, error) {
	return LoadToolPreferencesFrom(GetConfigPath())
}

// LoadToolPreferencesFrom loads preferences from the specified file.
func LoadToolPreferencesFrom(path string) (*ToolPreferences, error) {
	cfg := DefaultToolPreferences()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse preferences file: %w", err)
	}

	return cfg, nil
}

// Save saves preferences to the default file.
func (c *ToolPreferences) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves preferences to the specified file.
func (c *ToolPreferences) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user preferences file path
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close preferences file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	return nil
}
