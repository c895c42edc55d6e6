// gravbot watches two Discord channels, forwards notes-channel messages to
// the notes CLI, runs command-channel text as CLI verbs, and deletes the
// originals once the CLI accepts them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"gravbot/internal/channel"
	"gravbot/internal/config"
	"gravbot/internal/executor"
	"gravbot/internal/metrics"
	"gravbot/internal/relay"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "gravbot",
		Short: "gravbot: Discord channel to notes relay",
		Long:  "gravbot captures messages from a notes channel into the notes CLI, accepts CLI verbs in a command channel, and back-fills channel history at startup.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.gravbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set DISCORD_TOKEN, NOTES_CHANNEL_ID, COMMAND_CHANNEL_ID and NOTES_CLI_PATH, or edit the config file")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (history sync + live relay)",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	allow, err := config.LoadAllowlist(cfg.Commands.AllowlistPath)
	if err != nil {
		return fmt.Errorf("load allowlist: %w", err)
	}
	if allow != nil {
		logger.Info("command verb allowlist active", "path", cfg.Commands.AllowlistPath)
	}

	// The CLI is resolved before connecting: without it no message can be
	// processed, so a missing binary fails the whole startup.
	runner, err := executor.New(executor.Config{
		CLIPath:        cfg.Notes.CLIPath,
		TimeoutSeconds: cfg.Notes.TimeoutSeconds,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	logger.Info("notes CLI resolved", "path", runner.CLIPath())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := metrics.NewCollector()

	discord := channel.New(channel.Config{
		Token:            cfg.Discord.Token,
		NotesChannelID:   cfg.Discord.NotesChannelID,
		CommandChannelID: cfg.Discord.CommandChannelID,
		ReplayEnabled:    cfg.Replay.Enabled,
		Logger:           logger,
	})

	router := relay.NewRouter(relay.RouterConfig{
		NotesChannelID:   cfg.Discord.NotesChannelID,
		CommandChannelID: cfg.Discord.CommandChannelID,
		ReplayPaceMillis: cfg.Replay.PaceMillis,
		Allowlist:        allow,
		Runner:           runner,
		Gateway:          discord,
		Logger:           logger,
		Stats:            stats,
	})
	discord.SetRouter(router)

	logger.Info("starting gravbot", "version", version)
	err = discord.Start(ctx)

	if cfg.Metrics.Enabled {
		fmt.Fprint(os.Stderr, stats.Render())
	}
	logger.Info("bot shutdown complete")
	return err
}

// setupLogger rebuilds the process logger from config: level from
// log.level, output tee'd to a log file when one is configured.
func setupLogger(cfg config.LogConfig) (func(), error) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	closer := func() {}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file %s: %w", cfg.File, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return closer, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false, "err", err)
				return nil
			}
			logger.Info("config", "path", cfgPath, "loaded", true)
			logger.Info("channels",
				"notes", cfg.Discord.NotesChannelID,
				"command", cfg.Discord.CommandChannelID,
			)
			if _, err := executor.New(executor.Config{
				CLIPath:        cfg.Notes.CLIPath,
				TimeoutSeconds: cfg.Notes.TimeoutSeconds,
				Logger:         logger,
			}); err != nil {
				logger.Error("notes CLI", "found", false, "err", err)
			} else {
				logger.Info("notes CLI", "found", true, "path", cfg.Notes.CLIPath)
			}
			logger.Info("replay", "enabled", cfg.Replay.Enabled, "pace_ms", cfg.Replay.PaceMillis)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. discord.notesChannelId)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. replay.enabled false)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.LoadFile(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
