// Package config loads focusboard configuration from XDG-compliant paths
// (typically ~/.config/focusboard/config.yaml) and merges it onto defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"focusboard/internal/fsutil"
	"focusboard/internal/persist"

	"gopkg.in/yaml.v3"
)

// Sync backends.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
	BackendGit    = "git"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.focusboard)
	DataDir string `yaml:"data_dir,omitempty"`

	// StorageName is the key of the persisted state record
	StorageName string `yaml:"storage_name,omitempty"`

	Theme         ThemeConfig        `yaml:"theme,omitempty"`
	Keys          KeysConfig         `yaml:"keys,omitempty"`
	UX            UXConfig           `yaml:"ux,omitempty"`
	Sync          SyncConfig         `yaml:"sync,omitempty"`
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
}

// NotificationConfig defines desktop notification settings.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`

	// ReminderTime is the daily focus reminder (HH:MM). Empty disables it.
	ReminderTime string `yaml:"reminder_time,omitempty"`

	Sound bool `yaml:"sound,omitempty"`
}

// SyncConfig selects and tunes the snapshot remote.
type SyncConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`

	// Backend is one of sqlite, http or git.
	Backend string `yaml:"backend,omitempty"`

	// UserID identifies whose snapshot is pushed and pulled.
	UserID string `yaml:"user_id,omitempty"`

	// Strategy is local-wins, remote-wins, newest-wins or ask-user.
	Strategy string `yaml:"strategy,omitempty"`

	SQLitePath string `yaml:"sqlite_path,omitempty"` // default: <data_dir>/snapshots.db
	URL        string `yaml:"url,omitempty"`
	GitDir     string `yaml:"git_dir,omitempty"` // default: <data_dir>/sync
	GitPush    bool   `yaml:"git_push,omitempty"`

	// ProbeAddr is dialed to decide whether the network is up. Empty means
	// always online.
	ProbeAddr     string `yaml:"probe_addr,omitempty"`
	ProbeInterval string `yaml:"probe_interval,omitempty"` // default: 30s

	AutoSync      bool   `yaml:"auto_sync,omitempty"`
	PullOnStartup bool   `yaml:"pull_on_startup,omitempty"`
	Timeout       string `yaml:"timeout,omitempty"` // default: 10s
}

// ThemeConfig defines color settings (hex, e.g. "#FF5733").
type ThemeConfig struct {
	Primary string `yaml:"primary,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
	Muted   string `yaml:"muted,omitempty"`
	Warning string `yaml:"warning,omitempty"`
	Text    string `yaml:"text,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "q,ctrl+c", "tab", "j,down"
type KeysConfig struct {
	Quit     string `yaml:"quit,omitempty"`      // default: "q,ctrl+c"
	Help     string `yaml:"help,omitempty"`      // default: "?"
	NextPane string `yaml:"next_pane,omitempty"` // default: "tab"
	Undo     string `yaml:"undo,omitempty"`      // default: "u,ctrl+z"
	Redo     string `yaml:"redo,omitempty"`      // default: "ctrl+y"

	Up     string `yaml:"up,omitempty"`     // default: "k,up"
	Down   string `yaml:"down,omitempty"`   // default: "j,down"
	Top    string `yaml:"top,omitempty"`    // default: "g,home"
	Bottom string `yaml:"bottom,omitempty"` // default: "G,end"

	AddTodo    string `yaml:"add_todo,omitempty"`    // default: "a"
	ToggleTodo string `yaml:"toggle_todo,omitempty"` // default: "d,enter,space"
	TodayTag   string `yaml:"today_tag,omitempty"`   // default: "t"
	DeleteTodo string `yaml:"delete_todo,omitempty"` // default: "x"
	Sync       string `yaml:"sync,omitempty"`        // default: "s"
	Focus      string `yaml:"focus,omitempty"`       // default: "f"

	Confirm string `yaml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty"`  // default: "esc"
}

// UXConfig defines user experience settings.
type UXConfig struct {
	ConfirmDeletions bool `yaml:"confirm_deletions,omitempty"` // default: true

	// NarrowLayoutThreshold is the terminal width below which panes stack
	NarrowLayoutThreshold int `yaml:"narrow_layout_threshold,omitempty"` // default: 80

	// ShowCompleted keeps completed todos in the list
	ShowCompleted bool `yaml:"show_completed,omitempty"` // default: true
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:     defaultDataDir(),
		StorageName: persist.DefaultName,
		Theme: ThemeConfig{
			Primary: "#7C3AED", // Violet
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
			Warning: "#F59E0B", // Amber
		},
		UX: UXConfig{
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
			ShowCompleted:         true,
		},
		Sync: SyncConfig{
			Backend:       BackendSQLite,
			Strategy:      "newest-wins",
			ProbeInterval: "30s",
			AutoSync:      true,
			Timeout:       "10s",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focusboard"
	}
	return filepath.Join(home, ".focusboard")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focusboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "focusboard")
}

// Path returns the config file location, or "" when no home is known.
func Path() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from disk, merging with defaults.
// If no config file exists, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	path := Path()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.merge(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return err
	}
	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; without it only non-empty values merge
	c.mergeFromYAML(&userCfg, &doc)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// mergeNonEmpty applies non-empty strings and positive ints from other.
// Booleans need presence-aware merging and are left alone.
func (c *Config) mergeNonEmpty(other *Config) {
	setString(&c.DataDir, other.DataDir)
	setString(&c.StorageName, other.StorageName)

	setString(&c.Theme.Primary, other.Theme.Primary)
	setString(&c.Theme.Accent, other.Theme.Accent)
	setString(&c.Theme.Muted, other.Theme.Muted)
	setString(&c.Theme.Warning, other.Theme.Warning)
	setString(&c.Theme.Text, other.Theme.Text)

	k, ko := &c.Keys, other.Keys
	setString(&k.Quit, ko.Quit)
	setString(&k.Help, ko.Help)
	setString(&k.NextPane, ko.NextPane)
	setString(&k.Undo, ko.Undo)
	setString(&k.Redo, ko.Redo)
	setString(&k.Up, ko.Up)
	setString(&k.Down, ko.Down)
	setString(&k.Top, ko.Top)
	setString(&k.Bottom, ko.Bottom)
	setString(&k.AddTodo, ko.AddTodo)
	setString(&k.ToggleTodo, ko.ToggleTodo)
	setString(&k.TodayTag, ko.TodayTag)
	setString(&k.DeleteTodo, ko.DeleteTodo)
	setString(&k.Sync, ko.Sync)
	setString(&k.Focus, ko.Focus)
	setString(&k.Confirm, ko.Confirm)
	setString(&k.Cancel, ko.Cancel)

	if other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}

	s := &c.Sync
	setString(&s.Backend, other.Sync.Backend)
	setString(&s.UserID, other.Sync.UserID)
	setString(&s.Strategy, other.Sync.Strategy)
	setString(&s.SQLitePath, other.Sync.SQLitePath)
	setString(&s.URL, other.Sync.URL)
	setString(&s.GitDir, other.Sync.GitDir)
	setString(&s.ProbeAddr, other.Sync.ProbeAddr)
	setString(&s.ProbeInterval, other.Sync.ProbeInterval)
	setString(&s.Timeout, other.Sync.Timeout)

	setString(&c.Notifications.ReminderTime, other.Notifications.ReminderTime)
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	bools := []struct {
		path []string
		dst  *bool
		src  bool
	}{
		{[]string{"ux", "confirm_deletions"}, &c.UX.ConfirmDeletions, other.UX.ConfirmDeletions},
		{[]string{"ux", "show_completed"}, &c.UX.ShowCompleted, other.UX.ShowCompleted},
		{[]string{"sync", "enabled"}, &c.Sync.Enabled, other.Sync.Enabled},
		{[]string{"sync", "git_push"}, &c.Sync.GitPush, other.Sync.GitPush},
		{[]string{"sync", "auto_sync"}, &c.Sync.AutoSync, other.Sync.AutoSync},
		{[]string{"sync", "pull_on_startup"}, &c.Sync.PullOnStartup, other.Sync.PullOnStartup},
		{[]string{"notifications", "enabled"}, &c.Notifications.Enabled, other.Notifications.Enabled},
		{[]string{"notifications", "sound"}, &c.Notifications.Sound, other.Notifications.Sound},
	}
	for _, b := range bools {
		if yamlHasPath(doc, b.path...) {
			*b.dst = b.src
		}
	}

	// An explicit empty probe address turns probing off.
	if yamlHasPath(doc, "sync", "probe_addr") {
		c.Sync.ProbeAddr = other.Sync.ProbeAddr
	}
	if yamlHasPath(doc, "notifications", "reminder_time") {
		c.Notifications.ReminderTime = other.Notifications.ReminderTime
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch c.Sync.Backend {
	case BackendSQLite, BackendGit:
	case BackendHTTP:
		if c.Sync.Enabled && strings.TrimSpace(c.Sync.URL) == "" {
			return fmt.Errorf("sync.url is required for the %s backend", BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown sync.backend %q", c.Sync.Backend)
	}
	if c.Sync.Enabled && strings.TrimSpace(c.Sync.UserID) == "" {
		return fmt.Errorf("sync.user_id is required when sync is enabled")
	}
	for name, v := range map[string]string{
		"sync.probe_interval": c.Sync.ProbeInterval,
		"sync.timeout":        c.Sync.Timeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if rt := c.Notifications.ReminderTime; rt != "" {
		if _, err := time.Parse("15:04", rt); err != nil {
			return fmt.Errorf("notifications.reminder_time: want HH:MM, got %q", rt)
		}
	}
	return nil
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return expandHome(c.DataDir)
}

func expandHome(p string) string {
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// SQLitePath returns the SQLite snapshot database location.
func (c *Config) SQLitePath() string {
	if c.Sync.SQLitePath != "" {
		return expandHome(c.Sync.SQLitePath)
	}
	return filepath.Join(c.GetDataDir(), "snapshots.db")
}

// GitDir returns the git snapshot repository location.
func (c *Config) GitDir() string {
	if c.Sync.GitDir != "" {
		return expandHome(c.Sync.GitDir)
	}
	return filepath.Join(c.GetDataDir(), "sync")
}

// ProbeInterval returns the network probe period (30s when unset or invalid).
func (c *Config) ProbeInterval() time.Duration {
	return parseDuration(c.Sync.ProbeInterval, 30*time.Second)
}

// Timeout returns the remote I/O timeout (10s when unset or invalid).
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.Sync.Timeout, 10*time.Second)
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
