// Package notes is the storage backend of the bundled notes CLI: a single
// SQLite file of content-addressed note blocks.
package notes

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrDuplicate is returned when a block with identical content already
// exists.
var ErrDuplicate = errors.New("note with identical content already exists")

// Store wraps the notes database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite writes are serialized anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocks (
		id           INTEGER PRIMARY KEY,
		content      TEXT NOT NULL,
		content_hash TEXT UNIQUE NOT NULL,
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateBlock inserts a new block and fills in its assigned ID. Inserting
// content that hashes to an existing block returns ErrDuplicate.
func (s *Store) CreateBlock(block *Block) error {
	existing, err := s.GetBlockByHash(block.ContentHash)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicate
	}

	result, err := s.db.Exec(
		`INSERT INTO blocks (content, content_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		block.Content, block.ContentHash, block.CreatedAt, block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	block.ID = int(id)
	s.logger.Debug("block created", "id", block.ID, "hash", block.ContentHash[:12])
	return nil
}

// GetBlockByHash returns the block with the given content hash, or nil.
func (s *Store) GetBlockByHash(hash string) (*Block, error) {
	row := s.db.QueryRow(
		`SELECT id, content, content_hash, created_at, updated_at FROM blocks WHERE content_hash = ?`,
		hash,
	)

	var block Block
	err := row.Scan(&block.ID, &block.Content, &block.ContentHash, &block.CreatedAt, &block.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan block: %w", err)
	}
	return &block, nil
}

// AllBlocks returns every block, most recently updated first.
func (s *Store) AllBlocks() ([]*Block, error) {
	return s.queryBlocks(
		`SELECT id, content, content_hash, created_at, updated_at FROM blocks ORDER BY updated_at DESC`,
	)
}

// SearchBlocks returns blocks matching any include keyword and none of the
// exclude keywords, most recently updated first.
func (s *Store) SearchBlocks(includeKeywords, excludeKeywords []string) ([]*Block, error) {
	if len(includeKeywords) == 0 && len(excludeKeywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}

	var whereParts []string
	var args []any

	if len(includeKeywords) > 0 {
		var includeParts []string
		for _, keyword := range includeKeywords {
			includeParts = append(includeParts, "content LIKE ?")
			args = append(args, "%"+keyword+"%")
		}
		whereParts = append(whereParts, "("+strings.Join(includeParts, " OR ")+")")
	} else {
		whereParts = append(whereParts, "1=1")
	}

	for _, keyword := range excludeKeywords {
		whereParts = append(whereParts, "content NOT LIKE ?")
		args = append(args, "%"+keyword+"%")
	}

	query := `SELECT id, content, content_hash, created_at, updated_at FROM blocks WHERE ` +
		strings.Join(whereParts, " AND ") + ` ORDER BY updated_at DESC`

	return s.queryBlocks(query, args...)
}

// Count returns the number of stored blocks.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM blocks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocks: %w", err)
	}
	return n, nil
}

func (s *Store) queryBlocks(query string, args ...any) ([]*Block, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*Block
	for rows.Next() {
		var block Block
		err := rows.Scan(&block.ID, &block.Content, &block.ContentHash, &block.CreatedAt, &block.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, &block)
	}
	return blocks, rows.Err()
}
