package config

func Defaults() *Config {
	return &Config{
		Discord: DiscordConfig{
			Token:            "${DISCORD_TOKEN}",
			NotesChannelID:   "${NOTES_CHANNEL_ID}",
			CommandChannelID: "${COMMAND_CHANNEL_ID}",
		},
		Notes: NotesConfig{
			CLIPath:        "${NOTES_CLI_PATH:-../notes}",
			TimeoutSeconds: 30,
		},
		Replay: ReplayConfig{
			Enabled:    true,
			PaceMillis: 100,
		},
		Log: LogConfig{
			Level: "info",
			File:  "~/.gravbot/gravbot.log",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
