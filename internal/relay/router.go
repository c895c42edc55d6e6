package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gravbot/internal/config"
	"gravbot/internal/domain"
	"gravbot/internal/metrics"
)

// Runner executes one notes CLI invocation.
type Runner interface {
	Execute(ctx context.Context, verb, payload string) domain.Outcome
}

// Router is the per-message dispatch path: resolve the channel role once,
// classify, execute, and delete the original iff the CLI accepted it.
//
// The chat library delivers events on its own goroutines; the mutex
// serializes them so classify/execute/delete for one message finishes
// before the next begins.
type Router struct {
	notesChannelID   string
	commandChannelID string
	replayPace       int // milliseconds between backlog messages

	runner  Runner
	gateway domain.Gateway
	logger  *slog.Logger
	stats   *metrics.Collector

	mu         sync.Mutex
	classifier *Classifier
	allow      *config.Allowlist
	botName    string
}

type RouterConfig struct {
	NotesChannelID   string
	CommandChannelID string
	ReplayPaceMillis int
	Allowlist        *config.Allowlist
	Runner           Runner
	Gateway          domain.Gateway
	Logger           *slog.Logger
	Stats            *metrics.Collector
}

func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stats := cfg.Stats
	if stats == nil {
		stats = metrics.NewCollector()
	}
	return &Router{
		notesChannelID:   cfg.NotesChannelID,
		commandChannelID: cfg.CommandChannelID,
		replayPace:       cfg.ReplayPaceMillis,
		runner:           cfg.Runner,
		gateway:          cfg.Gateway,
		logger:           logger,
		stats:            stats,
		classifier:       NewClassifier("", cfg.Allowlist),
		allow:            cfg.Allowlist,
	}
}

// HandleReady records the bot's own identity so its replies are never
// routed back through the pipeline. Called once the gateway reports the
// session is live, before any message event.
func (r *Router) HandleReady(botID, botName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifier = NewClassifier(botID, r.allow)
	r.botName = botName
	r.logger.Info("bot ready",
		"user", botName,
		"id", botID,
		"notes_channel", r.notesChannelID,
		"command_channel", r.commandChannelID,
	)
}

// ResolveRole maps a channel identifier onto the closed role set.
func (r *Router) ResolveRole(channelID string) domain.ChannelRole {
	switch channelID {
	case r.notesChannelID:
		return domain.RoleNotes
	case r.commandChannelID:
		return domain.RoleCommand
	default:
		return domain.RoleUnrouted
	}
}

// HandleMessage is the single entry point for live message events.
func (r *Router) HandleMessage(ctx context.Context, msg domain.Message) {
	role := r.ResolveRole(msg.ChannelID)
	if role == domain.RoleUnrouted {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.MessagesSeen.Inc()

	if r.handleBuiltin(ctx, msg, role) {
		return
	}

	cls := r.classifier.Classify(msg, role)
	if cls.Action == domain.ActionIgnore {
		r.logger.Debug("message ignored", "channel", role.String(), "author", msg.Author)
		return
	}

	r.logger.Info("processing message",
		"channel", role.String(),
		"action", cls.Action.String(),
		"author", msg.Author,
		"content", summarize(msg.Content),
	)

	outcome := r.runner.Execute(ctx, cls.Verb, cls.Payload)
	if !outcome.Success {
		// Message stays in place as the audit trail of unprocessed input.
		r.stats.ExecFailures.Inc()
		r.logger.Error("notes CLI failed, message not deleted",
			"channel", role.String(),
			"verb", cls.Verb,
			"exit_code", outcome.ExitCode,
			"err", outcome.Err,
		)
		return
	}

	r.stats.MessagesForwarded.Inc()
	if r.deleteMessage(ctx, msg) {
		r.stats.MessagesDeleted.Inc()
	}
}

// deleteMessage removes the source message after a successful forward. Every
// failure mode is recoverable on its own: a vanished message is a benign
// race, a permission error is logged, anything else is logged and swallowed.
// Nothing here crashes the router or re-queues the message.
func (r *Router) deleteMessage(ctx context.Context, msg domain.Message) bool {
	err := r.gateway.DeleteMessage(ctx, msg.ChannelID, msg.ID)
	switch {
	case err == nil:
		r.logger.Info("message captured and deleted", "author", msg.Author)
		return true
	case errors.Is(err, domain.ErrNotFound):
		r.logger.Warn("message was already deleted", "message_id", msg.ID)
		return true
	case errors.Is(err, domain.ErrForbidden):
		r.logger.Error("no permission to delete messages in channel", "channel_id", msg.ChannelID)
		return false
	default:
		r.logger.Error("delete failed", "message_id", msg.ID, "err", err)
		return false
	}
}

// handleBuiltin intercepts the bot's chat commands before classification.
// Returns true when the message was a command and the pipeline should stop.
func (r *Router) handleBuiltin(ctx context.Context, msg domain.Message, role domain.ChannelRole) bool {
	if r.classifier.botID != "" && msg.AuthorID == r.classifier.botID {
		return false // bot's own replies fall through to the Ignore rule
	}

	switch strings.TrimSpace(msg.Content) {
	case "!ping":
		r.reply(ctx, msg.ChannelID, "Pong! Bot is running.")
		return true
	case "!status":
		if role != domain.RoleCommand {
			r.reply(ctx, msg.ChannelID, "This command only works in the command channel.")
			return true
		}
		r.reply(ctx, msg.ChannelID, r.statusText())
		return true
	default:
		return false
	}
}

func (r *Router) statusText() string {
	return fmt.Sprintf(
		"**gravbot status**\nNotes channel: <#%s>\nCommand channel: <#%s>\nForwarded: %d\nDeleted: %d\nFailures: %d",
		r.notesChannelID,
		r.commandChannelID,
		r.stats.MessagesForwarded.Value(),
		r.stats.MessagesDeleted.Value(),
		r.stats.ExecFailures.Value(),
	)
}

func (r *Router) reply(ctx context.Context, channelID, text string) {
	if err := r.gateway.Send(ctx, channelID, text); err != nil {
		r.logger.Error("reply failed", "channel_id", channelID, "err", err)
	}
}

// summarize truncates content for log lines.
func summarize(s string) string {
	const max = 100
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
