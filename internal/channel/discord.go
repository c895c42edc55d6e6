// Package channel adapts the Discord gateway to the relay. All
// discordgo-specific types stay inside this package; the relay sees only
// domain.Message and the Gateway interface.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"gravbot/internal/domain"
	"gravbot/internal/relay"
)

const discordMaxMsgLen = 2000

// historyPageSize is Discord's maximum page size for channel history.
const historyPageSize = 100

// Discord connects a bot session and feeds events into the router.
type Discord struct {
	token            string
	notesChannelID   string
	commandChannelID string
	replayEnabled    bool
	session          *discordgo.Session
	router           *relay.Router
	logger           *slog.Logger
}

type Config struct {
	Token            string
	NotesChannelID   string
	CommandChannelID string
	ReplayEnabled    bool
	Logger           *slog.Logger
}

func New(cfg Config) *Discord {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		token:            cfg.Token,
		notesChannelID:   cfg.NotesChannelID,
		commandChannelID: cfg.CommandChannelID,
		replayEnabled:    cfg.ReplayEnabled,
		logger:           logger,
	}
}

// SetRouter wires the router in before Start. The adapter and router
// reference each other: events flow in through the router, deletions and
// replies flow back out through the Gateway interface this adapter
// implements.
func (d *Discord) SetRouter(r *relay.Router) { d.router = r }

// Start connects to Discord and blocks until ctx is cancelled.
func (d *Discord) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	d.session = session

	session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		d.router.HandleReady(s.State.User.ID, s.State.User.Username)
		d.verifyChannel(ctx, "notes", d.notesChannelID)
		d.verifyChannel(ctx, "command", d.commandChannelID)
		if d.replayEnabled {
			go d.router.Replay(ctx, d.notesChannelID)
		}
	})

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if ctx.Err() != nil || m.Author == nil {
			return
		}
		d.router.HandleMessage(ctx, inboundMessage(m.Message))
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	d.logger.Info("discord bot connected", "user", session.State.User.Username)

	<-ctx.Done()
	d.logger.Info("discord bot disconnecting")
	return session.Close()
}

// verifyChannel confirms the bot can see a configured channel. A failure
// is loud but not fatal: the id may point at a channel the bot is invited
// to later.
func (d *Discord) verifyChannel(ctx context.Context, role, channelID string) {
	ch, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		d.logger.Error("cannot access configured channel",
			"role", role,
			"channel_id", channelID,
			"err", mapRESTError(err),
		)
		return
	}
	d.logger.Info("channel verified", "role", role, "name", ch.Name, "channel_id", channelID)
}

func inboundMessage(m *discordgo.Message) domain.Message {
	author := ""
	authorID := ""
	if m.Author != nil {
		author = m.Author.Username
		authorID = m.Author.ID
		if m.Member != nil && m.Member.Nick != "" {
			author = m.Member.Nick
		}
	}
	return domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author:    author,
		AuthorID:  authorID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// DeleteMessage implements domain.Gateway.
func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return mapRESTError(err)
	}
	return nil
}

// ChannelHistory implements domain.Gateway. It pages through the channel's
// entire backlog and returns it oldest-first, ready for replay.
func (d *Discord) ChannelHistory(ctx context.Context, channelID string) ([]domain.Message, error) {
	var all []domain.Message
	beforeID := ""

	for {
		page, err := d.session.ChannelMessages(channelID, historyPageSize, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapRESTError(err)
		}
		if len(page) == 0 {
			break
		}

		// Pages arrive newest-first.
		for _, m := range page {
			all = append(all, inboundMessage(m))
		}
		beforeID = page[len(page)-1].ID

		if len(page) < historyPageSize {
			break
		}
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// Send implements domain.Gateway, splitting long replies at Discord's
// message length limit.
func (d *Discord) Send(ctx context.Context, channelID, content string) error {
	for _, chunk := range splitMessage(content, discordMaxMsgLen) {
		if _, err := d.session.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return mapRESTError(err)
		}
	}
	return nil
}

// mapRESTError translates Discord REST failures into the domain's error
// categories so the router never sees discordgo types.
func mapRESTError(err error) error {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return err
	}

	if rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, rerr.Message.Message)
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %s", domain.ErrForbidden, rerr.Message.Message)
		}
	}

	if rerr.Response != nil {
		switch rerr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
		}
	}

	return err
}

// splitMessage splits a message into chunks that fit within the max length,
// trying to split on newlines when possible.
func splitMessage(msg string, maxLen int) []string {
	if len(msg) <= maxLen {
		return []string{msg}
	}

	var chunks []string
	for len(msg) > 0 {
		if len(msg) <= maxLen {
			chunks = append(chunks, msg)
			break
		}

		cut := maxLen
		if idx := strings.LastIndex(msg[:maxLen], "\n"); idx > maxLen/2 {
			cut = idx + 1
		}

		chunks = append(chunks, msg[:cut])
		msg = msg[cut:]
	}
	return chunks
}
