package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func TestConfigMergePrecedence(t *testing.T) {
	// Generator for a non-empty string field value.
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	// Generator for a Config with each field either unset or set.
	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasModel") {
			cfg.Model = nonEmptyString.Draw(t, "model")
		}
		if rapid.Bool().Draw(t, "hasBaseURL") {
			cfg.BaseURL = nonEmptyString.Draw(t, "baseURL")
		}
		if rapid.Bool().Draw(t, "hasBackupDir") {
			cfg.BackupDir = nonEmptyString.Draw(t, "backupDir")
		}
		if rapid.Bool().Draw(t, "hasHistoryWindow") {
			cfg.HistoryWindow = rapid.IntRange(1, 100).Draw(t, "historyWindow")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "Model", global.Model, project.Model, defaults.Model, merged.Model)
		checkStringField(t, "BaseURL", global.BaseURL, project.BaseURL, defaults.BaseURL, merged.BaseURL)
		checkStringField(t, "BackupDir", global.BackupDir, project.BackupDir, defaults.BackupDir, merged.BackupDir)

		switch {
		case project.HistoryWindow > 0:
			if merged.HistoryWindow != project.HistoryWindow {
				t.Fatalf("HistoryWindow: expected project value %d, got %d", project.HistoryWindow, merged.HistoryWindow)
			}
		case global.HistoryWindow > 0:
			if merged.HistoryWindow != global.HistoryWindow {
				t.Fatalf("HistoryWindow: expected global value %d, got %d", global.HistoryWindow, merged.HistoryWindow)
			}
		default:
			if merged.HistoryWindow != defaults.HistoryWindow {
				t.Fatalf("HistoryWindow: expected default %d, got %d", defaults.HistoryWindow, merged.HistoryWindow)
			}
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set — expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.Model == "" {
		t.Error("Model default must be set")
	}
	if d.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("BaseURL: got %q", d.BaseURL)
	}
	if d.HistoryWindow != 15 {
		t.Errorf("HistoryWindow: want 15, got %d", d.HistoryWindow)
	}
	if d.CommandTimeoutSecs != 300 {
		t.Errorf("CommandTimeoutSecs: want 300, got %d", d.CommandTimeoutSecs)
	}
	if d.IgnorePatterns == nil || len(d.IgnorePatterns) != 0 {
		t.Errorf("IgnorePatterns: want empty slice, got %v", d.IgnorePatterns)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.Model != defaults.Model {
		t.Errorf("Model: want %q, got %q", defaults.Model, cfg.Model)
	}
	if cfg.HistoryWindow != defaults.HistoryWindow {
		t.Errorf("HistoryWindow: want %d, got %d", defaults.HistoryWindow, cfg.HistoryWindow)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectReadsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".vibeconfig"), []byte(`{"model":"org/custom"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil || cfg.Model != "org/custom" {
		t.Errorf("project config not loaded: %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "vibe")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}
