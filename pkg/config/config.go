// Package config loads and saves the Preferences file (§4.2 "Preferences
// file"): a small, human-editable JSON document read at startup, whose
// schema is exactly the Confirmation Gate's preference fields plus the
// ambient settings (journal location, debug logging) the CLI needs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alantheprice/angela/pkg/confirm"
	"github.com/alantheprice/angela/pkg/utils"
)

// Config is the on-disk preferences schema.
type Config struct {
	AutoExecute       confirm.AutoExecute `json:"auto_execute"`
	ConfirmAllActions bool                `json:"confirm_all_actions,omitempty"`
	TrustedCommands   []string            `json:"trusted_commands,omitempty"`
	UntrustedCommands []string            `json:"untrusted_commands,omitempty"`
	JournalDir        string              `json:"journal_dir,omitempty"`
	BackupDir         string              `json:"backup_dir,omitempty"`
	Debug             bool                `json:"debug,omitempty"`
}

// Default returns the documented §4.2 defaults: SAFE and LOW auto-execute,
// no trust overrides, journal under the config root.
func Default() *Config {
	return &Config{
		AutoExecute: confirm.DefaultAutoExecute(),
		JournalDir:  filepath.Join(utils.ConfigDir(), "journal"),
		BackupDir:   filepath.Join(utils.ConfigDir(), "backups"),
	}
}

// Path returns the preferences file location, honoring ANGELA_CONFIG the
// same way utils.ConfigDir does.
func Path() string {
	return filepath.Join(utils.ConfigDir(), "preferences.json")
}

// LoadOrInit reads the preferences file at Path, creating it with defaults
// if absent.
func LoadOrInit() (*Config, error) {
	path := Path()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("initialize preferences: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to Path, creating the config directory if needed.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preferences %s: %w", path, err)
	}
	return nil
}

// Preferences converts the on-disk schema into the Confirmation Gate's
// runtime Preferences, turning the trust lists into lookup sets.
func (c *Config) Preferences() confirm.Preferences {
	trusted := make(map[string]bool, len(c.TrustedCommands))
	for _, cmd := range c.TrustedCommands {
		trusted[cmd] = true
	}
	untrusted := make(map[string]bool, len(c.UntrustedCommands))
	for _, cmd := range c.UntrustedCommands {
		untrusted[cmd] = true
	}
	return confirm.Preferences{
		AutoExecute:       c.AutoExecute,
		ConfirmAllActions: c.ConfirmAllActions,
		TrustedCommands:   trusted,
		UntrustedCommands: untrusted,
	}
}
