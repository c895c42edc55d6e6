package notes

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Block is one stored note. Content is addressed by hash so the same note
// is never stored twice.
type Block struct {
	ID          int
	Content     string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewBlock(content string) *Block {
	now := time.Now()
	trimmed := strings.TrimSpace(content)
	return &Block{
		Content:     trimmed,
		ContentHash: ContentHash(trimmed),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
