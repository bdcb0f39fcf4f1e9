// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for accord bots.
//
// Configuration is loaded from a single YAML file specified by:
//   - ACCORD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// The token field supports ${VAR} and ${VAR:-default} expansion so
// credentials can live in the environment instead of the file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/accordlib/accord/lib/ref"
)

// DefaultGatewayURL is the Discord gateway endpoint dialed when the
// config does not override it.
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// DefaultAPIBaseURL is the Discord REST endpoint used when the config
// does not override it.
const DefaultAPIBaseURL = "https://discord.com/api/v10"

// Config is the master configuration for an accord bot.
type Config struct {
	// Token is the bot token. Supports ${VAR} expansion
	// (e.g., "${DISCORD_TOKEN}").
	Token string `yaml:"token"`

	// ApplicationID is the bot's application ID as a decimal string.
	ApplicationID string `yaml:"application_id"`

	// APIBaseURL overrides the REST endpoint. Empty means the Discord
	// production API; tests point it at a local server.
	APIBaseURL string `yaml:"api_base_url"`

	// GatewayURL overrides the gateway endpoint.
	GatewayURL string `yaml:"gateway_url"`

	// TestGuildIDs lists guilds that global-by-default commands are
	// registered to instead, for fast iteration during development
	// (global command rollout is slow on the platform side).
	TestGuildIDs []string `yaml:"test_guild_ids"`

	// Sync configures application command synchronization.
	Sync SyncConfig `yaml:"sync"`
}

// SyncConfig holds the command synchronization policy knobs.
type SyncConfig struct {
	// Enabled turns automatic command synchronization on. When false,
	// the library never issues command overwrite calls.
	Enabled bool `yaml:"enabled"`

	// AllowDeletion permits the synchronizer to remove remote commands
	// that have no local counterpart. When false, such commands are
	// left in place — a safety valve against destructive syncs.
	AllowDeletion bool `yaml:"allow_deletion"`

	// Debug promotes the computed diff from debug to info logging.
	Debug bool `yaml:"debug"`

	// Debounce is how long a runtime-triggered sync waits before
	// running, so several near-simultaneous registrations (extensions
	// loading in sequence) coalesce into one pass.
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the development-default configuration.
func Default() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		GatewayURL: DefaultGatewayURL,
		Sync: SyncConfig{
			Enabled:       true,
			AllowDeletion: true,
			Debounce:      2 * time.Second,
		},
	}
}

// Load reads the config file named by the ACCORD_CONFIG environment
// variable.
func Load() (*Config, error) {
	configPath := os.Getenv("ACCORD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ACCORD_CONFIG environment variable not set; " +
			"set it to the path of your accord.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile reads and validates the config file at path, applying
// defaults for unset fields and expanding ${VAR} references in the
// token.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.Token = expandVars(cfg.Token)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if _, err := c.Application(); err != nil {
		return err
	}
	if _, err := c.TestGuilds(); err != nil {
		return err
	}
	if c.Sync.Debounce < 0 {
		return fmt.Errorf("sync.debounce must not be negative")
	}
	return nil
}

// Application parses the configured application ID.
func (c *Config) Application() (ref.ApplicationID, error) {
	if c.ApplicationID == "" {
		return ref.ApplicationID{}, fmt.Errorf("application_id is required")
	}
	return ref.ParseApplicationID(c.ApplicationID)
}

// TestGuilds parses the configured test guild IDs, preserving order.
func (c *Config) TestGuilds() ([]ref.GuildID, error) {
	guilds := make([]ref.GuildID, 0, len(c.TestGuildIDs))
	for _, raw := range c.TestGuildIDs {
		id, err := ref.ParseGuildID(raw)
		if err != nil {
			return nil, fmt.Errorf("test_guild_ids: %w", err)
		}
		guilds = append(guilds, id)
	}
	return guilds, nil
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
