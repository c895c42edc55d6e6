package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Discord.Token = "token-123"
	cfg.Discord.NotesChannelID = "111"
	cfg.Discord.CommandChannelID = "222"
	cfg.Notes.CLIPath = "/usr/local/bin/notes"
	return cfg
}

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestValidate_MissingChannelIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.NotesChannelID = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing notes channel id")
	}

	cfg = validConfig()
	cfg.Discord.CommandChannelID = "  "
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing command channel id")
	}
}

func TestValidate_SameChannelTwice(t *testing.T) {
	cfg := validConfig()
	cfg.Discord.CommandChannelID = cfg.Discord.NotesChannelID
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for identical channel ids")
	}
}

func TestValidate_TimeoutBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Notes.TimeoutSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for timeoutSeconds=0")
	}
}

// --- Env expansion ---

func TestExpandEnvVars_Set(t *testing.T) {
	t.Setenv("GRAVBOT_TEST_TOKEN", "secret")
	got := ExpandEnvVars(`{"token": "${GRAVBOT_TEST_TOKEN}"}`)
	if !strings.Contains(got, "secret") {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	os.Unsetenv("GRAVBOT_TEST_UNSET")
	got := ExpandEnvVars("${GRAVBOT_TEST_UNSET:-fallback}")
	if got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestExpandEnvVars_UnsetNoDefaultKeepsPlaceholder(t *testing.T) {
	os.Unsetenv("GRAVBOT_TEST_UNSET")
	got := ExpandEnvVars("${GRAVBOT_TEST_UNSET}")
	if got != "${GRAVBOT_TEST_UNSET}" {
		t.Errorf("got %q, want placeholder kept", got)
	}
}

// --- Load ---

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `{
		"discord": {"token": "tok", "notesChannelId": "111", "commandChannelId": "222"},
		"notes": {"cliPath": "/opt/notes/notes"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "tok" {
		t.Errorf("token = %q", cfg.Discord.Token)
	}
	if cfg.Notes.TimeoutSeconds != 30 {
		t.Errorf("timeout default not applied: %d", cfg.Notes.TimeoutSeconds)
	}
	if !cfg.Replay.Enabled || cfg.Replay.PaceMillis != 100 {
		t.Errorf("replay defaults not applied: %+v", cfg.Replay)
	}
}

func TestLoad_EnvExpansionInFile(t *testing.T) {
	t.Setenv("GRAVBOT_TEST_TOKEN", "from-env")
	path := writeConfig(t, `{
		"discord": {"token": "${GRAVBOT_TEST_TOKEN}", "notesChannelId": "111", "commandChannelId": "222"},
		"notes": {"cliPath": "/opt/notes/notes"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.Discord.Token)
	}
}

func TestLoad_UnresolvedPlaceholderIsFatal(t *testing.T) {
	os.Unsetenv("GRAVBOT_TEST_UNSET")
	path := writeConfig(t, `{
		"discord": {"token": "${GRAVBOT_TEST_UNSET}", "notesChannelId": "111", "commandChannelId": "222"},
		"notes": {"cliPath": "/opt/notes/notes"}
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unresolved token placeholder")
	}
}

func TestLoadFile_SkipsValidation(t *testing.T) {
	path := writeConfig(t, `{
		"replay": {"enabled": false}
	}`)

	os.Unsetenv("DISCORD_TOKEN")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Replay.Enabled {
		t.Error("replay.enabled not applied")
	}
	if cfg.Discord.Token != "" {
		t.Errorf("token = %q, want empty on incomplete config", cfg.Discord.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// --- Accessors ---

func TestGetByPath(t *testing.T) {
	cfg := validConfig()
	val, err := GetByPath(cfg, "discord.notesChannelId")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if val != "111" {
		t.Errorf("got %v", val)
	}

	if _, err := GetByPath(cfg, "discord.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := validConfig()
	if err := SetByPath(cfg, "replay.enabled", "false"); err != nil {
		t.Fatalf("SetByPath: %v", err)
	}
	if cfg.Replay.Enabled {
		t.Error("replay.enabled not updated")
	}

	if err := SetByPath(cfg, "replay.paceMillis", "250"); err != nil {
		t.Fatalf("SetByPath: %v", err)
	}
	if cfg.Replay.PaceMillis != 250 {
		t.Errorf("paceMillis = %d", cfg.Replay.PaceMillis)
	}
}

func TestSanitize_MasksToken(t *testing.T) {
	cfg := validConfig()
	out := Sanitize(cfg)
	if out.Discord.Token == cfg.Discord.Token {
		t.Error("token not masked")
	}
	if cfg.Discord.Token != "token-123" {
		t.Error("original config mutated")
	}
}
