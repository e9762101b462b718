package harness

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	passTag = color.New(color.FgGreen).SprintFunc()
	failTag = color.New(color.FgRed).SprintFunc()
	timeTag = color.New(color.FgYellow).SprintFunc()
)

// Printer renders per-check lines and the run summary to a console.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) PrintResult(res Result) {
	switch res.Outcome {
	case OutcomePass:
		fmt.Fprintf(p.out, "  %s %-28s %s\n", passTag("[PASS]"), res.Check.Name, res.Duration.Round(time.Millisecond))
	case OutcomeFail:
		fmt.Fprintf(p.out, "  %s %-28s exit %d\n", failTag("[FAIL]"), res.Check.Name, res.ExitCode)
		p.printDetail(res)
	case OutcomeTimeout:
		fmt.Fprintf(p.out, "  %s %-28s exceeded time limit\n", timeTag("[TIME]"), res.Check.Name)
	case OutcomeError:
		fmt.Fprintf(p.out, "  %s %-28s %v\n", failTag("[ERR ]"), res.Check.Name, res.Err)
	}
}

// printDetail shows the first lines of stderr (or stdout as a fallback) so a
// failed check is explainable without rerunning it.
func (p *Printer) printDetail(res Result) {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if detail == "" {
		return
	}
	lines := strings.Split(detail, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, line := range lines {
		fmt.Fprintf(p.out, "         %s\n", line)
	}
}

func (p *Printer) PrintSummary(s Summary) {
	fmt.Fprintf(p.out, "\n%s\n", strings.Repeat("━", 40))
	fmt.Fprintf(p.out, "Results: %d passed, %d failed, %d timed out, %d errored (%s)\n",
		s.Passed, s.Failed, s.TimedOut, s.Errored, s.Duration.Round(time.Millisecond))
	if s.Failures() == 0 {
		fmt.Fprintf(p.out, "\nAll checks passed.\n")
	} else {
		fmt.Fprintf(p.out, "\n%d check(s) did not pass.\n", s.Failures())
	}
}

// FormatSummary renders a plain-text run summary, suitable for alerts.
func FormatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation: %d passed, %d failed, %d timed out, %d errored\n",
		s.Passed, s.Failed, s.TimedOut, s.Errored)
	for _, res := range s.Results {
		if res.Outcome == OutcomePass {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", res.Check.Name, res.Outcome)
		if res.Outcome == OutcomeFail {
			fmt.Fprintf(&b, " (exit %d)", res.ExitCode)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
