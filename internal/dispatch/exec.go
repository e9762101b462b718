package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultRunTimeout     = 120
	defaultMaxOutputBytes = 262144
)

// ErrTimeout reports that the command hit the deadline or the caller
// cancelled before it finished.
var ErrTimeout = errors.New("command timed out or cancelled")

// Runner executes a resolved command through the host shell with a bounded
// wait and relays its combined output.
type Runner struct {
	workingDir     string
	timeoutSeconds int
	maxOutputBytes int
}

type RunnerConfig struct {
	WorkingDir     string
	TimeoutSeconds int
	MaxOutputBytes int
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultRunTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	return &Runner{
		workingDir:     cfg.WorkingDir,
		timeoutSeconds: cfg.TimeoutSeconds,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

// Run executes command and returns its combined stdout/stderr. A non-zero
// exit returns both the captured output and an error; a timeout or caller
// cancellation is reported as a distinct error.
func (r *Runner) Run(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("empty command")
	}

	dir := r.workingDir
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	timeout := time.Duration(r.timeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Always use sh -c so pipes, redirects, and quoting behave like the
	// operator typed the command themselves.
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = absDir

	output, err := cmd.CombinedOutput()
	result := r.truncate(string(output))
	if err != nil {
		if runCtx.Err() != nil {
			return result, ErrTimeout
		}
		return result, fmt.Errorf("exit: %w", err)
	}
	return result, nil
}

func (r *Runner) truncate(s string) string {
	if r.maxOutputBytes <= 0 || len(s) <= r.maxOutputBytes {
		return s
	}
	// Back up so the cut never lands inside a multi-byte rune.
	cut := r.maxOutputBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (output truncated)"
}
