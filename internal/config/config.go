package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for gravbot. It is built once at startup
// and passed by pointer into every component; nothing re-reads the
// environment after Load returns.
type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Notes    NotesConfig    `json:"notes"`
	Replay   ReplayConfig   `json:"replay"`
	Commands CommandsConfig `json:"commands"`
	Log      LogConfig      `json:"log"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type DiscordConfig struct {
	Token            string `json:"token"`
	NotesChannelID   string `json:"notesChannelId"`
	CommandChannelID string `json:"commandChannelId"`
}

type NotesConfig struct {
	// CLIPath points at the notes executable. Relative paths are resolved
	// against the working directory at startup.
	CLIPath        string `json:"cliPath"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ReplayConfig struct {
	// Enabled controls the startup back-fill of the notes channel.
	Enabled bool `json:"enabled"`
	// PaceMillis is the delay between backlog messages, to stay under the
	// gateway's rate limits.
	PaceMillis int `json:"paceMillis"`
}

type CommandsConfig struct {
	// AllowlistPath optionally points at a YAML file of permitted verbs for
	// the command channel. Empty means any verb is forwarded as-is.
	AllowlistPath string `json:"allowlistPath,omitempty"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file,omitempty"` // optional, tee'd with stderr
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// DefaultConfigDir returns the default config directory (~/.gravbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gravbot"
	}
	return filepath.Join(home, ".gravbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and expands a config file without validating it. The config
// subcommands use it so values can be inspected and edited on a config that
// is not yet complete enough to run.
func LoadFile(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	// Defaults carry ${VAR} placeholders too for env-driven deploys;
	// expand them, then treat anything still unresolved as
	// unset so Validate reports it instead of passing "${DISCORD_TOKEN}"
	// through as a token.
	cfg.Discord.Token = stripUnresolved(ExpandEnvVars(cfg.Discord.Token))
	cfg.Discord.NotesChannelID = stripUnresolved(ExpandEnvVars(cfg.Discord.NotesChannelID))
	cfg.Discord.CommandChannelID = stripUnresolved(ExpandEnvVars(cfg.Discord.CommandChannelID))
	cfg.Notes.CLIPath = stripUnresolved(ExpandEnvVars(cfg.Notes.CLIPath))

	cfg.Notes.CLIPath = ExpandPath(cfg.Notes.CLIPath)
	cfg.Commands.AllowlistPath = ExpandPath(cfg.Commands.AllowlistPath)
	cfg.Log.File = ExpandPath(cfg.Log.File)

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values. A missing token or
// channel id is fatal: the bot cannot route a single message without them.
func Validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Discord.Token) == "" {
		errs = append(errs, "discord.token is required")
	}
	if strings.TrimSpace(cfg.Discord.NotesChannelID) == "" {
		errs = append(errs, "discord.notesChannelId is required")
	}
	if strings.TrimSpace(cfg.Discord.CommandChannelID) == "" {
		errs = append(errs, "discord.commandChannelId is required")
	}
	if cfg.Discord.NotesChannelID != "" &&
		cfg.Discord.NotesChannelID == cfg.Discord.CommandChannelID {
		errs = append(errs, "discord.notesChannelId and discord.commandChannelId must differ")
	}
	if strings.TrimSpace(cfg.Notes.CLIPath) == "" {
		errs = append(errs, "notes.cliPath is required")
	}
	if cfg.Notes.TimeoutSeconds < 1 {
		errs = append(errs, "notes.timeoutSeconds must be >= 1")
	}
	if cfg.Replay.PaceMillis < 0 {
		errs = append(errs, "replay.paceMillis must be >= 0")
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func stripUnresolved(s string) string {
	if envVarPattern.MatchString(s) {
		return ""
	}
	return s
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
