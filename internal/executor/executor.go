// Package executor runs the external notes CLI. One invocation per message,
// hard timeout, no retries: a failed invocation leaves the message in place
// for the next attempt at the source.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"gravbot/internal/domain"
)

const defaultTimeout = 30 * time.Second

type Executor struct {
	cliPath string // absolute
	workDir string // the CLI's own directory, so its relative paths hold
	timeout time.Duration
	logger  *slog.Logger
}

type Config struct {
	CLIPath        string
	TimeoutSeconds int
	Logger         *slog.Logger
}

// New resolves the CLI path once and verifies it exists. A missing CLI is a
// startup error: no message can ever be processed without it.
func New(cfg Config) (*Executor, error) {
	abs, err := filepath.Abs(cfg.CLIPath)
	if err != nil {
		return nil, fmt.Errorf("resolve notes CLI path %s: %w", cfg.CLIPath, err)
	}

	if _, err := exec.LookPath(abs); err != nil {
		return nil, fmt.Errorf("notes CLI not found at %s: %w", abs, err)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		cliPath: abs,
		workDir: filepath.Dir(abs),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// CLIPath returns the resolved absolute path, for status display.
func (e *Executor) CLIPath() string { return e.cliPath }

// Execute invokes the CLI as `<cli> <verb> <payload>`, omitting the payload
// argument when empty. Exit 0 is Success; a non-zero exit, a timeout, or a
// spawn failure is Failure. Blocks for at most the configured timeout.
func (e *Executor) Execute(ctx context.Context, verb, payload string) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{verb}
	if payload != "" {
		args = append(args, payload)
	}

	cmd := exec.CommandContext(ctx, e.cliPath, args...)
	cmd.Dir = e.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := domain.Outcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		out.Success = true
		e.logger.Debug("notes CLI accepted", "verb", verb, "stdout_len", len(out.Stdout))
	case ctx.Err() != nil:
		out.Err = fmt.Errorf("notes CLI timed out after %s", e.timeout)
		e.logger.Error("notes CLI timed out", "verb", verb, "timeout", e.timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}
		out.Err = err
		e.logger.Error("notes CLI rejected",
			"verb", verb,
			"exit_code", out.ExitCode,
			"stderr", out.Stderr,
		)
	}

	return out
}
