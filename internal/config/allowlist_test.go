package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAllowlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verbs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAllowlist_EmptyPathMeansNoFiltering(t *testing.T) {
	allow, err := LoadAllowlist("")
	if err != nil {
		t.Fatalf("LoadAllowlist: %v", err)
	}
	if allow != nil {
		t.Fatal("expected nil allowlist for empty path")
	}
	if !allow.Permits("anything at all") {
		t.Error("nil allowlist must permit everything")
	}
}

func TestLoadAllowlist_Permits(t *testing.T) {
	allow, err := LoadAllowlist(writeAllowlist(t, "verbs:\n  - grep\n  - init\n"))
	if err != nil {
		t.Fatalf("LoadAllowlist: %v", err)
	}

	if !allow.Permits("grep") {
		t.Error("listed verb denied")
	}
	if !allow.Permits("grep milk -sour") {
		t.Error("verb with arguments denied; should match on first word")
	}
	if allow.Permits("add") {
		t.Error("unlisted verb permitted")
	}
}

func TestLoadAllowlist_NoVerbsIsError(t *testing.T) {
	if _, err := LoadAllowlist(writeAllowlist(t, "verbs: []\n")); err == nil {
		t.Fatal("expected error for empty verbs list")
	}
}

func TestLoadAllowlist_BadYAMLIsError(t *testing.T) {
	if _, err := LoadAllowlist(writeAllowlist(t, "verbs: {broken\n")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadAllowlist_MissingFileIsError(t *testing.T) {
	if _, err := LoadAllowlist(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
