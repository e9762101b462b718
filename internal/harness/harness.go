// Package harness runs the fixed smoke-test sequence: each check is one
// external command executed with a bounded wait, and every check runs no
// matter how the previous ones ended.
package harness

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// Outcome is the terminal state of one check.
type Outcome int

const (
	OutcomePass    Outcome = iota // exit 0
	OutcomeFail                   // non-zero exit
	OutcomeTimeout                // deadline exceeded or cancelled
	OutcomeError                  // command could not be launched
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Check is one smoke-test entry.
type Check struct {
	Name    string
	Command string
}

// Result is the terminal report for one check. Stdout and stderr are
// captured separately so failures can show what the tool actually said.
type Result struct {
	Check    Check
	Outcome  Outcome
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Summary aggregates a full harness run.
type Summary struct {
	Results  []Result
	Passed   int
	Failed   int
	TimedOut int
	Errored  int
	Duration time.Duration
}

// Failures counts every non-pass outcome.
func (s *Summary) Failures() int {
	return s.Failed + s.TimedOut + s.Errored
}

// Harness executes checks sequentially. OnResult, when set, is called after
// each check so progress prints as it happens.
type Harness struct {
	timeoutSeconds int
	workingDir     string
	logger         *slog.Logger
	onResult       func(Result)
}

type Config struct {
	TimeoutSeconds int
	WorkingDir     string
	Logger         *slog.Logger
	OnResult       func(Result)
}

func New(cfg Config) *Harness {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Harness{
		timeoutSeconds: cfg.TimeoutSeconds,
		workingDir:     cfg.WorkingDir,
		logger:         cfg.Logger,
		onResult:       cfg.OnResult,
	}
}

// Run executes every check in order. An individual failure never stops the
// sequence; only caller cancellation (Ctrl+C) ends the run early.
func (h *Harness) Run(ctx context.Context, checks []Check) Summary {
	start := time.Now()
	summary := Summary{Results: make([]Result, 0, len(checks))}

	for _, check := range checks {
		if ctx.Err() != nil {
			h.logger.Warn("harness cancelled", "remaining", len(checks)-len(summary.Results))
			break
		}

		res := h.runOne(ctx, check)
		switch res.Outcome {
		case OutcomePass:
			summary.Passed++
		case OutcomeFail:
			summary.Failed++
		case OutcomeTimeout:
			summary.TimedOut++
		case OutcomeError:
			summary.Errored++
		}
		summary.Results = append(summary.Results, res)

		if h.onResult != nil {
			h.onResult(res)
		}
	}

	summary.Duration = time.Since(start)
	return summary
}

func (h *Harness) runOne(ctx context.Context, check Check) Result {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(h.timeoutSeconds)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", check.Command)
	if h.workingDir != "" {
		cmd.Dir = h.workingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Check:    check,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		Err:      err,
	}

	switch {
	case err == nil:
		res.Outcome = OutcomePass
	case runCtx.Err() != nil:
		res.Outcome = OutcomeTimeout
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Outcome = OutcomeFail
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Outcome = OutcomeError
		}
	}

	h.logger.Debug("check finished",
		"name", check.Name,
		"outcome", res.Outcome.String(),
		"duration", res.Duration,
	)
	return res
}
