package relay

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"gravbot/internal/domain"
)

// Replay runs the channel's entire backlog, oldest first, through the same
// classify/execute/delete path as live messages. Only the notes channel is
// ever replayed; replaying historical text as commands would be unsafe.
//
// The limiter is a deliberate throttle to stay under the chat gateway's
// rate limits, not an incidental sleep.
func (r *Router) Replay(ctx context.Context, channelID string) domain.ReplaySummary {
	var summary domain.ReplaySummary

	if r.ResolveRole(channelID) != domain.RoleNotes {
		r.logger.Warn("replay requested for non-notes channel, skipping", "channel_id", channelID)
		return summary
	}

	backlog, err := r.gateway.ChannelHistory(ctx, channelID)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			r.logger.Error("no permission to read channel history, replay aborted", "channel_id", channelID)
		} else {
			r.logger.Error("history fetch failed, replay aborted", "channel_id", channelID, "err", err)
		}
		return summary
	}

	if len(backlog) == 0 {
		r.logger.Info("history sync: backlog empty")
		return summary
	}

	r.logger.Info("history sync started", "backlog", len(backlog))

	pace := time.Duration(r.replayPace) * time.Millisecond
	limiter := rate.NewLimiter(rate.Every(pace), 1)

	for _, msg := range backlog {
		if err := limiter.Wait(ctx); err != nil {
			r.logger.Warn("history sync interrupted", "err", err)
			break
		}
		r.replayOne(ctx, msg, &summary)
	}

	r.stats.ReplayProcessed.Add(int64(summary.Processed))
	r.stats.ReplayDeleted.Add(int64(summary.Deleted))
	r.logger.Info("history sync complete",
		"processed", summary.Processed,
		"deleted", summary.Deleted,
	)
	return summary
}

// replayOne handles a single backlog message under the router lock, so
// replay interleaves with live events instead of blocking them. A failure
// here never aborts the rest of the backlog.
func (r *Router) replayOne(ctx context.Context, msg domain.Message, summary *domain.ReplaySummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cls := r.classifier.Classify(msg, domain.RoleNotes)
	if cls.Action == domain.ActionIgnore {
		return
	}

	outcome := r.runner.Execute(ctx, cls.Verb, cls.Payload)
	if !outcome.Success {
		r.stats.ExecFailures.Inc()
		r.logger.Error("history sync: notes CLI failed, message kept",
			"author", msg.Author,
			"exit_code", outcome.ExitCode,
			"err", outcome.Err,
		)
		return
	}

	r.stats.MessagesForwarded.Inc()
	summary.Processed++
	summary.Deleted++
	if r.deleteMessage(ctx, msg) {
		r.stats.MessagesDeleted.Inc()
	}
}
