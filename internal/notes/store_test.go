package notes

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewStore(filepath.Join(t.TempDir(), "notes.db"), logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateBlock(t *testing.T) {
	store := testStore(t)

	block := NewBlock("  buy milk  ")
	if err := store.CreateBlock(block); err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}
	if block.ID == 0 {
		t.Error("block ID not assigned")
	}
	if block.Content != "buy milk" {
		t.Errorf("content not trimmed: %q", block.Content)
	}

	got, err := store.GetBlockByHash(block.ContentHash)
	if err != nil {
		t.Fatalf("GetBlockByHash: %v", err)
	}
	if got == nil || got.Content != "buy milk" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateBlock_Duplicate(t *testing.T) {
	store := testStore(t)

	if err := store.CreateBlock(NewBlock("same note")); err != nil {
		t.Fatal(err)
	}
	err := store.CreateBlock(NewBlock("same note"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGetBlockByHash_Missing(t *testing.T) {
	store := testStore(t)

	got, err := store.GetBlockByHash(ContentHash("never stored"))
	if err != nil {
		t.Fatalf("GetBlockByHash: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestSearchBlocks(t *testing.T) {
	store := testStore(t)

	for _, content := range []string{
		"grocery list: milk and eggs",
		"project idea: bot for notes",
		"milk the deadline for all it is worth",
	} {
		if err := store.CreateBlock(NewBlock(content)); err != nil {
			t.Fatal(err)
		}
	}

	// Union of include keywords.
	blocks, err := store.SearchBlocks([]string{"milk", "project"}, nil)
	if err != nil {
		t.Fatalf("SearchBlocks: %v", err)
	}
	if len(blocks) != 3 {
		t.Errorf("union matched %d blocks, want 3", len(blocks))
	}

	// Exclusion narrows.
	blocks, err = store.SearchBlocks([]string{"milk"}, []string{"grocery"})
	if err != nil {
		t.Fatalf("SearchBlocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "milk the deadline for all it is worth" {
		t.Errorf("got %d blocks", len(blocks))
	}

	// Exclude-only queries work too.
	blocks, err = store.SearchBlocks(nil, []string{"milk"})
	if err != nil {
		t.Fatalf("SearchBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Errorf("exclude-only matched %d blocks, want 1", len(blocks))
	}

	// No keywords at all is rejected.
	if _, err := store.SearchBlocks(nil, nil); err == nil {
		t.Error("expected error for keyword-less search")
	}
}
