package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"pubops/internal/audit"
	"pubops/internal/config"
	"pubops/internal/dispatch"

	"github.com/spf13/cobra"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	dbPathFlag string // overrides database.path from config
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var (
		legacyQuery    string
		legacyList     bool
		legacyCommon   bool
		legacyValidate bool
	)

	root := &cobra.Command{
		Use:   "pubops [keyword] [args...]",
		Short: "pubops: operations front door for the Twitter publisher",
		Long: `pubops dispatches to the publisher's database-inspection tools by
keyword, runs the smoke-test sequence, and keeps an audit trail of both.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Older flag style kept for backward compatibility.
			switch {
			case legacyList:
				return runList()
			case legacyCommon:
				return runCommon()
			case legacyValidate:
				return runValidate(nil)
			case legacyQuery != "":
				return runDispatch(legacyQuery, args)
			case len(args) > 0:
				return runDispatch(args[0], args[1:])
			default:
				return runList()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.pubops/config.json)")
	root.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "override the publisher database path")

	root.Flags().StringVar(&legacyQuery, "query", "", "dispatch a query keyword (legacy form of 'pubops run')")
	root.Flags().BoolVar(&legacyList, "list", false, "list available keywords (legacy form of 'pubops list')")
	root.Flags().BoolVar(&legacyCommon, "common", false, "show common invocations (legacy form of 'pubops common')")
	root.Flags().BoolVar(&legacyValidate, "validate", false, "run the smoke tests (legacy form of 'pubops validate')")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(listCmd())
	root.AddCommand(commonCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(backupCmd())
	root.AddCommand(restoreCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and tools directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			toolsDir := config.ExpandPath(cfg.General.ToolsDir)
			if err := os.MkdirAll(toolsDir, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "toolsDir", toolsDir)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [keyword] [args...]",
		Short: "Dispatch a keyword to its inspection tool",
		Long: `Resolves the keyword against the query/tool registry, builds the
external command with the configured database path, and executes it through
the host shell. Trailing args are quoted and appended to the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(args[0], args[1:])
		},
	}
}

func runDispatch(keyword string, extra []string) error {
	cfg := loadConfigOrDefaults()
	if dbPathFlag != "" {
		cfg.Database.Path = dbPathFlag
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	resolver := dispatch.NewResolver(dispatch.ResolverConfig{
		Registry:    reg,
		Interpreter: cfg.Dispatch.Interpreter,
		ScriptDir:   cfg.Dispatch.ScriptDir,
		DBPath:      cfg.Database.Path,
	})

	command, err := resolver.Resolve(keyword, extra)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unknown keyword %q.\n\n", keyword)
		printMenu(os.Stderr, reg)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openAudit(cfg)
	if store != nil {
		defer store.Close()
	}

	runner := dispatch.NewRunner(dispatch.RunnerConfig{
		TimeoutSeconds: cfg.Dispatch.TimeoutSeconds,
		MaxOutputBytes: cfg.Dispatch.MaxOutputBytes,
	})

	logger.Debug("dispatching", "keyword", keyword, "command", command)
	start := time.Now()
	output, runErr := runner.Run(ctx, command)
	if output != "" {
		fmt.Print(output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Println()
		}
	}

	recordDispatch(ctx, store, keyword, command, runErr, time.Since(start))

	if runErr != nil {
		logger.Error("dispatch failed", "keyword", keyword, "err", runErr)
		return runErr
	}
	return nil
}

// recordDispatch writes the audit entry. Auditing is best-effort: a broken
// audit store must never turn a successful dispatch into a failure.
func recordDispatch(ctx context.Context, store *audit.Store, keyword, command string, runErr error, dur time.Duration) {
	if store == nil {
		return
	}

	entry := audit.Dispatch{
		Keyword:  keyword,
		Command:  command,
		Outcome:  "ok",
		Duration: dur,
	}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.Is(runErr, dispatch.ErrTimeout):
		entry.Outcome = "timeout"
	case errors.As(runErr, &exitErr):
		entry.Outcome = "exit"
		entry.ExitCode = exitErr.ExitCode()
	default:
		entry.Outcome = "error"
	}

	// Dispatch may have been cancelled; still try to record it.
	recordCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.RecordDispatch(recordCtx, entry); err != nil {
		logger.Warn("cannot record dispatch", "err", err)
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all query keywords and inspection tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

func runList() error {
	cfg := loadConfigOrDefaults()
	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	printMenu(os.Stdout, reg)
	return nil
}

func printMenu(w io.Writer, reg *dispatch.Registry) {
	fmt.Fprintf(w, "Queries:\n")
	for _, q := range reg.Queries() {
		fmt.Fprintf(w, "  %-12s %s\n", q.Keyword, q.Description)
	}
	fmt.Fprintf(w, "\nTools:\n")
	for _, t := range reg.Tools() {
		fmt.Fprintf(w, "  %-12s %s (%s)\n", t.ID, t.Description, t.Script)
		if len(t.Functions) > 0 {
			fmt.Fprintf(w, "  %-12s functions: %s\n", "", strings.Join(t.Functions, ", "))
		}
	}
	fmt.Fprintf(w, "\nRun 'pubops run <keyword>' to dispatch, 'pubops common' for examples.\n")
}

func commonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "common",
		Short: "Show common invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommon()
		},
	}
}

func runCommon() error {
	fmt.Print(`Common invocations:

  pubops run overview              full database overview
  pubops run pending               tasks waiting to publish
  pubops run urgent                tasks past their scheduled time
  pubops run stats                 one-shot queue statistics
  pubops run backup                trigger a publisher database backup
  pubops run tasks --limit 50      task queries with extra tool args
  pubops run viewer search cats    search tweets through the viewer

  pubops validate                  run the smoke-test sequence
  pubops doctor                    check the installation
  pubops history                   recent dispatches from the audit log
`)
	return nil
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfigOrDefaults() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		cfg.Database.Path = config.ExpandPath(cfg.Database.Path)
		cfg.Audit.DBPath = config.ExpandPath(cfg.Audit.DBPath)
		cfg.General.ToolsDir = config.ExpandPath(cfg.General.ToolsDir)
	}
	return cfg
}

// buildRegistry assembles the dispatch registry: builtins first, then user
// YAML definitions, then startup validation.
func buildRegistry(cfg *config.Config) (*dispatch.Registry, error) {
	reg := dispatch.Builtin(logger)
	if cfg.General.ToolsDir != "" {
		if err := dispatch.LoadDirectory(cfg.General.ToolsDir, reg, logger); err != nil {
			logger.Warn("cannot load user tool definitions", "dir", cfg.General.ToolsDir, "err", err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// openAudit opens the audit store when enabled. Failure is a warning, not an
// error: dispatch must work even when the audit database is unavailable.
func openAudit(cfg *config.Config) *audit.Store {
	if !cfg.Audit.Enabled {
		return nil
	}
	store, err := audit.NewStore(cfg.Audit.DBPath, logger)
	if err != nil {
		logger.Warn("audit store unavailable, continuing without auditing", "path", cfg.Audit.DBPath, "err", err)
		return nil
	}
	return store
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. dispatch.interpreter)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. database.path ./publisher.db)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			paths := config.ListPaths(config.Sanitize(cfg))
			keys := make([]string, 0, len(paths))
			for k := range paths {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s = %v\n", k, paths[k])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
