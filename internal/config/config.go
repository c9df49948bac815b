package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable Vibe settings.
type Config struct {
	Model              string   `json:"model"`
	BaseURL            string   `json:"base_url"` // OpenAI-compatible endpoint
	IgnorePatterns     []string `json:"ignore_patterns"`
	HistoryWindow      int      `json:"history_window"`       // conversation turns kept
	CommandTimeoutSecs int      `json:"command_timeout_secs"` // per shell command
	MaxFileBytes       int      `json:"max_file_bytes"`       // per-file context cap
	BackupDir          string   `json:"backup_dir"`           // relative to project root
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Model:              "google/gemini-2.5-flash",
		BaseURL:            "https://openrouter.ai/api/v1",
		IgnorePatterns:     []string{},
		HistoryWindow:      15,
		CommandTimeoutSecs: 300,
		MaxFileBytes:       64 * 1024,
		BackupDir:          filepath.Join(".vibe", "backups"),
	}
}

// LoadGlobal reads ~/.config/vibe/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "vibe", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .vibeconfig in the project directory.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ".vibeconfig"), false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.Model != "" {
			result.Model = layer.Model
		}
		if layer.BaseURL != "" {
			result.BaseURL = layer.BaseURL
		}
		if len(layer.IgnorePatterns) > 0 {
			result.IgnorePatterns = layer.IgnorePatterns
		}
		if layer.HistoryWindow > 0 {
			result.HistoryWindow = layer.HistoryWindow
		}
		if layer.CommandTimeoutSecs > 0 {
			result.CommandTimeoutSecs = layer.CommandTimeoutSecs
		}
		if layer.MaxFileBytes > 0 {
			result.MaxFileBytes = layer.MaxFileBytes
		}
		if layer.BackupDir != "" {
			result.BackupDir = layer.BackupDir
		}
	}

	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
