package harness

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRun_AllOutcomes(t *testing.T) {
	h := New(Config{TimeoutSeconds: 1, Logger: testLogger()})

	checks := []Check{
		{Name: "passes", Command: "echo ok"},
		{Name: "fails", Command: "echo bad >&2; exit 3"},
		{Name: "hangs", Command: "sleep 5"},
	}

	summary := h.Run(context.Background(), checks)

	if len(summary.Results) != 3 {
		t.Fatalf("all checks should run, got %d results", len(summary.Results))
	}
	if summary.Passed != 1 || summary.Failed != 1 || summary.TimedOut != 1 {
		t.Errorf("summary: passed=%d failed=%d timedOut=%d", summary.Passed, summary.Failed, summary.TimedOut)
	}

	pass := summary.Results[0]
	if pass.Outcome != OutcomePass {
		t.Errorf("first check: got %v", pass.Outcome)
	}
	if pass.Stdout == "" {
		t.Error("stdout should be captured")
	}

	fail := summary.Results[1]
	if fail.Outcome != OutcomeFail {
		t.Errorf("second check: got %v", fail.Outcome)
	}
	if fail.ExitCode != 3 {
		t.Errorf("exit code: got %d", fail.ExitCode)
	}
	if fail.Stderr == "" {
		t.Error("stderr should be captured separately")
	}

	if summary.Results[2].Outcome != OutcomeTimeout {
		t.Errorf("third check: got %v", summary.Results[2].Outcome)
	}
}

func TestRun_FailureDoesNotStopSequence(t *testing.T) {
	h := New(Config{TimeoutSeconds: 5, Logger: testLogger()})

	checks := []Check{
		{Name: "first", Command: "exit 1"},
		{Name: "second", Command: "exit 1"},
		{Name: "third", Command: "echo still running"},
	}

	summary := h.Run(context.Background(), checks)
	if len(summary.Results) != 3 {
		t.Fatalf("sequence should continue past failures, got %d results", len(summary.Results))
	}
	if summary.Results[2].Outcome != OutcomePass {
		t.Errorf("last check should still pass, got %v", summary.Results[2].Outcome)
	}
	if summary.Failures() != 2 {
		t.Errorf("failures: got %d", summary.Failures())
	}
}

func TestRun_LaunchErrorIsDistinct(t *testing.T) {
	// A working directory that does not exist makes the command
	// unlaunchable, which is a different outcome than a non-zero exit.
	h := New(Config{
		TimeoutSeconds: 5,
		WorkingDir:     filepath.Join(t.TempDir(), "missing"),
		Logger:         testLogger(),
	})

	summary := h.Run(context.Background(), []Check{{Name: "unlaunchable", Command: "echo hi"}})
	if summary.Errored != 1 {
		t.Fatalf("expected one launch error, got summary %+v", summary)
	}
	res := summary.Results[0]
	if res.Outcome != OutcomeError {
		t.Errorf("outcome: got %v", res.Outcome)
	}
	if res.Err == nil {
		t.Error("launch error should be reported")
	}
}

func TestRun_CancelledCallerStops(t *testing.T) {
	h := New(Config{TimeoutSeconds: 5, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := h.Run(ctx, []Check{{Name: "never", Command: "echo hi"}})
	if len(summary.Results) != 0 {
		t.Errorf("cancelled run should not start checks, got %d results", len(summary.Results))
	}
}

func TestRun_OnResultCallback(t *testing.T) {
	var seen []string
	h := New(Config{
		TimeoutSeconds: 5,
		Logger:         testLogger(),
		OnResult:       func(res Result) { seen = append(seen, res.Check.Name) },
	})

	h.Run(context.Background(), []Check{
		{Name: "a", Command: "true"},
		{Name: "b", Command: "false"},
	})

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("callback order: got %v", seen)
	}
}

func TestOutcome_String(t *testing.T) {
	cases := map[Outcome]string{
		OutcomePass:    "pass",
		OutcomeFail:    "fail",
		OutcomeTimeout: "timeout",
		OutcomeError:   "error",
	}
	for outcome, want := range cases {
		if got := outcome.String(); got != want {
			t.Errorf("%d: got %q, want %q", outcome, got, want)
		}
	}
}
