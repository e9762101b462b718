package harness

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestPrinter_PrintResult(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(Result{
		Check:    Check{Name: "viewer --help"},
		Outcome:  OutcomePass,
		Duration: 120 * time.Millisecond,
	})
	p.PrintResult(Result{
		Check:    Check{Name: "tasks --help"},
		Outcome:  OutcomeFail,
		ExitCode: 2,
		Stderr:   "usage error:\nbad flag\nmore\neven more",
	})
	p.PrintResult(Result{
		Check:   Check{Name: "monitor --help"},
		Outcome: OutcomeTimeout,
	})

	out := buf.String()
	if !strings.Contains(out, "[PASS] viewer --help") {
		t.Errorf("missing pass line:\n%s", out)
	}
	if !strings.Contains(out, "[FAIL] tasks --help") || !strings.Contains(out, "exit 2") {
		t.Errorf("missing fail line:\n%s", out)
	}
	if !strings.Contains(out, "usage error:") {
		t.Errorf("fail detail should show stderr:\n%s", out)
	}
	if strings.Contains(out, "even more") {
		t.Errorf("detail should be capped at three lines:\n%s", out)
	}
	if !strings.Contains(out, "[TIME] monitor --help") {
		t.Errorf("missing timeout line:\n%s", out)
	}
}

func TestPrinter_PrintSummary(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintSummary(Summary{Passed: 4, Failed: 1, TimedOut: 1})

	out := buf.String()
	if !strings.Contains(out, "4 passed, 1 failed, 1 timed out, 0 errored") {
		t.Errorf("summary line wrong:\n%s", out)
	}
	if !strings.Contains(out, "2 check(s) did not pass") {
		t.Errorf("failure count wrong:\n%s", out)
	}
}

func TestFormatSummary_OnlyFailuresListed(t *testing.T) {
	s := Summary{
		Passed:   1,
		Failed:   1,
		TimedOut: 1,
		Results: []Result{
			{Check: Check{Name: "good"}, Outcome: OutcomePass},
			{Check: Check{Name: "bad"}, Outcome: OutcomeFail, ExitCode: 7},
			{Check: Check{Name: "slow"}, Outcome: OutcomeTimeout},
		},
	}

	text := FormatSummary(s)
	if strings.Contains(text, "good") {
		t.Errorf("passing checks should not be listed:\n%s", text)
	}
	if !strings.Contains(text, "bad: fail (exit 7)") {
		t.Errorf("failed check missing:\n%s", text)
	}
	if !strings.Contains(text, "slow: timeout") {
		t.Errorf("timed out check missing:\n%s", text)
	}
}
