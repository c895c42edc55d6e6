// notes is the note-taking CLI the bot shells out to. Notes live in a
// SQLite repository (notes.db) in NOTES_PATH or the current directory.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gravbot/internal/notes"
)

var logger *slog.Logger

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := &cobra.Command{
		Use:           "notes",
		Short:         "Content-addressed note blocks in a local SQLite repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(initCmd())
	root.AddCommand(addCmd())
	root.AddCommand(grepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// dbPath resolves the repository location: NOTES_PATH or the working
// directory, which is why callers run the CLI from its own directory.
func dbPath() (string, error) {
	basePath := os.Getenv("NOTES_PATH")
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("cannot determine working directory: %w", err)
		}
		basePath = wd
	}
	return filepath.Join(basePath, "notes.db"), nil
}

func openStore() (*notes.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no notes repository found at %s, run 'notes init' first", path)
	}
	return notes.NewStore(path, logger)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new notes repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := dbPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Repository already exists at %s\n", filepath.Dir(path))
				return nil
			}
			store, err := notes.NewStore(path, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Printf("Initialized empty notes repository at %s\n", filepath.Dir(path))
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add \"content\"",
		Short: "Add a new note block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := args[0]
			if strings.TrimSpace(content) == "" {
				return fmt.Errorf("content cannot be empty")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			block := notes.NewBlock(content)
			if err := store.CreateBlock(block); err != nil {
				if errors.Is(err, notes.ErrDuplicate) {
					return fmt.Errorf("duplicate note, not added")
				}
				return fmt.Errorf("add note: %w", err)
			}

			fmt.Println("Note added successfully")
			return nil
		},
	}
}

func grepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grep \"term\"...",
		Short: "Search blocks; keywords are unioned, -prefix excludes",
		Args:  cobra.MinimumNArgs(1),
		// Exclusions look like flags (-term); take args verbatim.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var includeKeywords, excludeKeywords []string
			for _, arg := range args {
				if arg == "" {
					continue
				}
				if arg[0] == '-' {
					if len(arg) > 1 {
						excludeKeywords = append(excludeKeywords, arg[1:])
					}
					continue
				}
				includeKeywords = append(includeKeywords, arg)
			}

			if len(includeKeywords) == 0 && len(excludeKeywords) == 0 {
				return fmt.Errorf("at least one search term is required")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			blocks, err := store.SearchBlocks(includeKeywords, excludeKeywords)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(blocks) == 0 {
				fmt.Println("No blocks found matching the specified criteria")
				return nil
			}

			for i, block := range blocks {
				fmt.Println(block.Content)
				if i < len(blocks)-1 {
					fmt.Println()
				}
			}
			return nil
		},
	}
}
