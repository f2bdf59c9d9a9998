package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestConfig points XDG_CONFIG_HOME at a temp dir and writes content as
// the config file.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	if content == "" {
		return tempDir
	}
	dir := filepath.Join(tempDir, "focusboard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return tempDir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.StorageName != "focusboard-storage" {
		t.Errorf("StorageName = %q, want focusboard-storage", cfg.StorageName)
	}
	if cfg.Sync.Backend != BackendSQLite {
		t.Errorf("Sync.Backend = %q, want sqlite", cfg.Sync.Backend)
	}
	if cfg.Sync.Enabled {
		t.Error("sync should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	writeTestConfig(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Theme.Primary != "#7C3AED" {
		t.Errorf("Theme.Primary = %q, want #7C3AED", cfg.Theme.Primary)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	writeTestConfig(t, `
data_dir: /custom/data
storage_name: work-board
theme:
  primary: "#FF0000"
sync:
  backend: http
  url: http://sync.local:8080
  user_id: alice
  strategy: remote-wins
  timeout: 3s
keys:
  sync: "ctrl+s"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want /custom/data", cfg.DataDir)
	}
	if cfg.StorageName != "work-board" {
		t.Errorf("StorageName = %q, want work-board", cfg.StorageName)
	}
	if cfg.Theme.Primary != "#FF0000" {
		t.Errorf("Theme.Primary = %q, want #FF0000", cfg.Theme.Primary)
	}
	// Untouched values keep their defaults.
	if cfg.Theme.Muted != "#6B7280" {
		t.Errorf("Theme.Muted = %q, want #6B7280", cfg.Theme.Muted)
	}
	if cfg.Sync.Backend != BackendHTTP || cfg.Sync.URL != "http://sync.local:8080" {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if cfg.Sync.Strategy != "remote-wins" {
		t.Errorf("Sync.Strategy = %q", cfg.Sync.Strategy)
	}
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", cfg.Timeout())
	}
	if cfg.ProbeInterval() != 30*time.Second {
		t.Errorf("ProbeInterval() = %v, want 30s", cfg.ProbeInterval())
	}
	if cfg.Keys.Sync != "ctrl+s" {
		t.Errorf("Keys.Sync = %q", cfg.Keys.Sync)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	writeTestConfig(t, "sync: [unterminated")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for malformed YAML")
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	override := &Config{
		DataDir: "/override/path",
		Theme:   ThemeConfig{Primary: "#CUSTOM"},
		Sync:    SyncConfig{UserID: "bob"},
	}

	base.mergeNonEmpty(override)

	if base.DataDir != "/override/path" {
		t.Errorf("DataDir = %q, want /override/path", base.DataDir)
	}
	if base.Theme.Primary != "#CUSTOM" {
		t.Errorf("Theme.Primary = %q, want #CUSTOM", base.Theme.Primary)
	}
	if base.Theme.Accent != "#10B981" {
		t.Errorf("Theme.Accent = %q, want #10B981", base.Theme.Accent)
	}
	if base.Sync.UserID != "bob" || base.Sync.Backend != BackendSQLite {
		t.Errorf("Sync = %+v", base.Sync)
	}
	// Booleans are not merged without presence information.
	if !base.Sync.AutoSync {
		t.Error("AutoSync clobbered by zero value")
	}
}

func TestLoad_MissingBoolKeysDoesNotClobberDefaults(t *testing.T) {
	writeTestConfig(t, `
theme:
  primary: "#FF0000"
sync:
  enabled: true
  user_id: alice
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Sync.Enabled {
		t.Errorf("Sync.Enabled = %v, want true", cfg.Sync.Enabled)
	}
	if !cfg.UX.ConfirmDeletions {
		t.Errorf("UX.ConfirmDeletions = %v, want true", cfg.UX.ConfirmDeletions)
	}
	if !cfg.UX.ShowCompleted {
		t.Errorf("UX.ShowCompleted = %v, want true", cfg.UX.ShowCompleted)
	}
	if !cfg.Sync.AutoSync {
		t.Errorf("Sync.AutoSync = %v, want true", cfg.Sync.AutoSync)
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	writeTestConfig(t, `
ux:
  confirm_deletions: false
sync:
  enabled: true
  user_id: alice
  auto_sync: false
  git_push: true
notifications:
  enabled: true
  reminder_time: "08:30"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.UX.ConfirmDeletions {
		t.Errorf("UX.ConfirmDeletions = %v, want false", cfg.UX.ConfirmDeletions)
	}
	if cfg.Sync.AutoSync {
		t.Errorf("Sync.AutoSync = %v, want false", cfg.Sync.AutoSync)
	}
	if !cfg.Sync.GitPush {
		t.Errorf("Sync.GitPush = %v, want true", cfg.Sync.GitPush)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.ReminderTime != "08:30" {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Sync.Backend = "ftp" }, "sync.backend"},
		{"enabled without user", func(c *Config) { c.Sync.Enabled = true }, "sync.user_id"},
		{"http without url", func(c *Config) {
			c.Sync.Enabled = true
			c.Sync.UserID = "alice"
			c.Sync.Backend = BackendHTTP
		}, "sync.url"},
		{"bad timeout", func(c *Config) { c.Sync.Timeout = "soon" }, "sync.timeout"},
		{"negative interval", func(c *Config) { c.Sync.ProbeInterval = "-5s" }, "sync.probe_interval"},
		{"bad reminder", func(c *Config) { c.Notifications.ReminderTime = "8am" }, "reminder_time"},
		{"git enabled", func(c *Config) {
			c.Sync.Enabled = true
			c.Sync.UserID = "alice"
			c.Sync.Backend = BackendGit
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetDataDir(t *testing.T) {
	tests := []struct {
		name    string
		dataDir string
		want    string
	}{
		{"empty uses default", "", ""},
		{"absolute path", "/custom/path", "/custom/path"},
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		tests = append(tests,
			struct {
				name    string
				dataDir string
				want    string
			}{"tilde expands home", "~", home},
			struct {
				name    string
				dataDir string
				want    string
			}{"tilde path expands home", "~/mydata", filepath.Join(home, "mydata")},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DataDir: tt.dataDir}
			got := cfg.GetDataDir()

			if tt.dataDir == "" {
				if filepath.Base(got) != ".focusboard" {
					t.Errorf("GetDataDir() = %q, want to end with .focusboard", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("GetDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.SQLitePath(); got != filepath.Join("/data", "snapshots.db") {
		t.Errorf("SQLitePath() = %q", got)
	}
	if got := cfg.GitDir(); got != filepath.Join("/data", "sync") {
		t.Errorf("GitDir() = %q", got)
	}

	cfg.Sync.SQLitePath = "/elsewhere/remote.db"
	cfg.Sync.GitDir = "/elsewhere/repo"
	if got := cfg.SQLitePath(); got != "/elsewhere/remote.db" {
		t.Errorf("SQLitePath() override = %q", got)
	}
	if got := cfg.GitDir(); got != "/elsewhere/repo" {
		t.Errorf("GitDir() override = %q", got)
	}
}

func TestSave(t *testing.T) {
	tempDir := writeTestConfig(t, "")

	cfg := Default()
	cfg.DataDir = "/saved/path"
	cfg.Theme.Primary = "#SAVED"
	cfg.Sync.UserID = "carol"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tempDir, "focusboard", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DataDir != "/saved/path" {
		t.Errorf("loaded DataDir = %q, want /saved/path", loaded.DataDir)
	}
	if loaded.Theme.Primary != "#SAVED" {
		t.Errorf("loaded Theme.Primary = %q, want #SAVED", loaded.Theme.Primary)
	}
	if loaded.Sync.UserID != "carol" {
		t.Errorf("loaded Sync.UserID = %q, want carol", loaded.Sync.UserID)
	}
	if !loaded.Sync.AutoSync {
		t.Error("loaded Sync.AutoSync = false, want true")
	}
}
