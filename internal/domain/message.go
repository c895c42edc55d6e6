package domain

import "time"

// Message is one inbound chat message, live or historical. The relay keeps
// no copy past the end of its pipeline; durability belongs to the notes
// CLI's own storage.
type Message struct {
	ID        string
	ChannelID string
	Author    string // display name, for logging
	AuthorID  string
	Content   string
	Timestamp time.Time // ordering during replay only
}
