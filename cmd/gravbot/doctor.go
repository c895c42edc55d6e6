package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"gravbot/internal/config"
	"gravbot/internal/executor"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your gravbot installation",
		Long: `Verifies that gravbot's configuration, notes CLI, and notes repository
are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("gravbot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'gravbot init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates (token and channel ids present)
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Notes CLI resolvable and executable
			runner, err := executor.New(executor.Config{
				CLIPath:        cfg.Notes.CLIPath,
				TimeoutSeconds: cfg.Notes.TimeoutSeconds,
				Logger:         logger,
			})
			if err != nil {
				printFail("Notes CLI", err.Error())
				failed++
			} else {
				printPass("Notes CLI", runner.CLIPath())
				passed++

				// 4. Notes repository initialized next to the CLI
				dbPath := filepath.Join(filepath.Dir(runner.CLIPath()), "notes.db")
				if _, err := os.Stat(dbPath); err != nil {
					printWarn("Notes repository", fmt.Sprintf("%s not found, run 'notes init' there", dbPath))
					warned++
				} else if err := checkDatabase(dbPath); err != nil {
					printFail("Notes repository", err.Error())
					failed++
				} else {
					printPass("Notes repository", dbPath)
					passed++
				}
			}

			// 5. Allowlist parses, when configured
			if cfg.Commands.AllowlistPath != "" {
				if _, err := config.LoadAllowlist(cfg.Commands.AllowlistPath); err != nil {
					printFail("Verb allowlist", err.Error())
					failed++
				} else {
					printPass("Verb allowlist", cfg.Commands.AllowlistPath)
					passed++
				}
			}

			// 6. Log file directory writable
			if cfg.Log.File != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
					printWarn("Log file", fmt.Sprintf("cannot create log directory: %v", err))
					warned++
				} else {
					printPass("Log file", cfg.Log.File)
					passed++
				}
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running gravbot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ngravbot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! gravbot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
