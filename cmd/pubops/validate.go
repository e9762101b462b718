package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pubops/internal/audit"
	"pubops/internal/config"
	"pubops/internal/dispatch"
	"pubops/internal/harness"
	"pubops/internal/notify"

	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the smoke-test sequence against every inspection tool",
		Long: `Executes the configured check commands in order, each with a bounded
wait. A failing check never stops the sequence; every check ends as pass,
non-zero exit, timeout, or launch error, and a summary is printed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

func runValidate(_ []string) error {
	cfg := loadConfigOrDefaults()
	if dbPathFlag != "" {
		cfg.Database.Path = dbPathFlag
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	checks := configuredChecks(cfg, reg)
	if len(checks) == 0 {
		return fmt.Errorf("no checks to run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openAudit(cfg)
	if store != nil {
		defer store.Close()
	}

	fmt.Printf("pubops validate v%s (%d checks)\n\n", version, len(checks))

	printer := harness.NewPrinter(os.Stdout)
	h := harness.New(harness.Config{
		TimeoutSeconds: cfg.Validate.TimeoutSeconds,
		Logger:         logger,
		OnResult:       printer.PrintResult,
	})

	summary := h.Run(ctx, checks)
	printer.PrintSummary(summary)

	if store != nil {
		recordCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := store.RecordValidation(recordCtx, auditValidation(summary))
		if err != nil {
			logger.Warn("cannot record validation run", "err", err)
		}
	}

	if summary.Failures() > 0 {
		alertFailures(ctx, cfg, summary)
		return fmt.Errorf("%d check(s) did not pass", summary.Failures())
	}
	return nil
}

// configuredChecks returns the checks from config, or the built-in sequence
// covering every registered tool when none are configured.
func configuredChecks(cfg *config.Config, reg *dispatch.Registry) []harness.Check {
	if len(cfg.Validate.Checks) > 0 {
		checks := make([]harness.Check, 0, len(cfg.Validate.Checks))
		for _, c := range cfg.Validate.Checks {
			checks = append(checks, harness.Check{Name: c.Name, Command: c.Command})
		}
		return checks
	}
	return defaultChecks(cfg, reg)
}

// defaultChecks invokes every tool's --help so a missing script, a broken
// interpreter, or a syntax error surfaces without touching the database.
func defaultChecks(cfg *config.Config, reg *dispatch.Registry) []harness.Check {
	resolver := dispatch.NewResolver(dispatch.ResolverConfig{
		Registry:    reg,
		Interpreter: cfg.Dispatch.Interpreter,
		ScriptDir:   cfg.Dispatch.ScriptDir,
		DBPath:      cfg.Database.Path,
	})

	var checks []harness.Check
	for _, t := range reg.Tools() {
		command, err := resolver.Resolve(t.ID, []string{"--help"})
		if err != nil {
			continue
		}
		checks = append(checks, harness.Check{
			Name:    t.ID + " --help",
			Command: command,
		})
	}
	return checks
}

func auditValidation(s harness.Summary) audit.ValidationRun {
	return audit.ValidationRun{
		Checks:   len(s.Results),
		Passed:   s.Passed,
		Failed:   s.Failed,
		TimedOut: s.TimedOut,
		Errored:  s.Errored,
		Duration: s.Duration,
	}
}

// alertFailures sends the failure summary to the configured notifier.
// Alerting is best-effort and never changes the command's outcome.
func alertFailures(ctx context.Context, cfg *config.Config, summary harness.Summary) {
	notifier, err := notify.FromConfig(cfg.Notify, logger)
	if err != nil {
		logger.Warn("notifier misconfigured", "err", err)
		return
	}
	if _, ok := notifier.(notify.Noop); ok {
		return
	}
	if err := notifier.Send(ctx, harness.FormatSummary(summary)); err != nil {
		logger.Warn("cannot send validation alert", "err", err)
	}
}
