package relay

import (
	"os"
	"path/filepath"
	"testing"

	"gravbot/internal/config"
	"gravbot/internal/domain"
)

const testBotID = "bot-1"

func testMessage(content string) domain.Message {
	return domain.Message{
		ID:        "msg-1",
		ChannelID: "ch-notes",
		Author:    "alice",
		AuthorID:  "user-1",
		Content:   content,
	}
}

func TestClassify_BotAuthorAlwaysIgnored(t *testing.T) {
	c := NewClassifier(testBotID, nil)

	msg := testMessage("remember the milk")
	msg.AuthorID = testBotID

	for _, role := range []domain.ChannelRole{domain.RoleNotes, domain.RoleCommand, domain.RoleUnrouted} {
		cls := c.Classify(msg, role)
		if cls.Action != domain.ActionIgnore {
			t.Errorf("role %s: bot-authored message classified as %s, want ignore", role, cls.Action)
		}
	}
}

func TestClassify_BlankContentIgnored(t *testing.T) {
	c := NewClassifier(testBotID, nil)

	for _, content := range []string{"", "   ", "\t", "\n \n"} {
		for _, role := range []domain.ChannelRole{domain.RoleNotes, domain.RoleCommand} {
			cls := c.Classify(testMessage(content), role)
			if cls.Action != domain.ActionIgnore {
				t.Errorf("content %q role %s: got %s, want ignore", content, role, cls.Action)
			}
		}
	}
}

func TestClassify_NotesChannelAddsNote(t *testing.T) {
	c := NewClassifier(testBotID, nil)

	cls := c.Classify(testMessage("buy milk"), domain.RoleNotes)
	if cls.Action != domain.ActionAddNote {
		t.Fatalf("got %s, want add_note", cls.Action)
	}
	if cls.Verb != "add" {
		t.Errorf("verb = %q, want %q", cls.Verb, "add")
	}
	if cls.Payload != "buy milk" {
		t.Errorf("payload = %q, want original content", cls.Payload)
	}
}

func TestClassify_CommandChannelForwardsVerbatim(t *testing.T) {
	c := NewClassifier(testBotID, nil)

	cls := c.Classify(testMessage("grep milk"), domain.RoleCommand)
	if cls.Action != domain.ActionRunCommand {
		t.Fatalf("got %s, want run_command", cls.Action)
	}
	if cls.Verb != "grep milk" {
		t.Errorf("verb = %q, want full message text", cls.Verb)
	}
	if cls.Payload != "" {
		t.Errorf("payload = %q, want empty", cls.Payload)
	}
}

func TestClassify_UnroutedIgnored(t *testing.T) {
	c := NewClassifier(testBotID, nil)

	cls := c.Classify(testMessage("anything"), domain.RoleUnrouted)
	if cls.Action != domain.ActionIgnore {
		t.Errorf("got %s, want ignore", cls.Action)
	}
}

func TestClassify_AllowlistGatesCommandChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verbs.yaml")
	if err := os.WriteFile(path, []byte("verbs:\n  - grep\n  - init\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	allow, err := config.LoadAllowlist(path)
	if err != nil {
		t.Fatalf("load allowlist: %v", err)
	}

	c := NewClassifier(testBotID, allow)

	if cls := c.Classify(testMessage("grep milk"), domain.RoleCommand); cls.Action != domain.ActionRunCommand {
		t.Errorf("allowed verb blocked: got %s", cls.Action)
	}
	if cls := c.Classify(testMessage("rm -rf"), domain.RoleCommand); cls.Action != domain.ActionIgnore {
		t.Errorf("blocked verb passed: got %s", cls.Action)
	}

	// The allow-list never touches the notes channel.
	if cls := c.Classify(testMessage("rm -rf"), domain.RoleNotes); cls.Action != domain.ActionAddNote {
		t.Errorf("notes channel affected by allowlist: got %s", cls.Action)
	}
}
