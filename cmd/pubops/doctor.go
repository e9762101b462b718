package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"pubops/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your pubops installation",
		Long: `Verifies that the configuration, the publisher database, the downstream
tool scripts, and the audit store are correctly set up. Reports pass/fail for
each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("pubops doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				failed++
				fmt.Printf("\nRun 'pubops init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
			} else {
				printPass("Config validation", "valid")
				passed++
			}

			if cfg == nil {
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return nil
			}
			if dbPathFlag != "" {
				cfg.Database.Path = dbPathFlag
			}

			// 3. Publisher database file present. Only stat it: the
			// downstream tools own this file, pubops never opens it.
			if info, err := os.Stat(cfg.Database.Path); err != nil {
				printWarn("Publisher DB", fmt.Sprintf("not found: %s", cfg.Database.Path))
				warned++
			} else if info.IsDir() {
				printFail("Publisher DB", fmt.Sprintf("is a directory: %s", cfg.Database.Path))
				failed++
			} else {
				printPass("Publisher DB", fmt.Sprintf("%s (%d bytes)", cfg.Database.Path, info.Size()))
				passed++
			}

			// 4. Registry validates
			reg, err := buildRegistry(cfg)
			if err != nil {
				printFail("Registry", err.Error())
				failed++
			} else {
				printPass("Registry", fmt.Sprintf("%d keywords", len(reg.Keywords())))
				passed++
			}

			// 5. Interpreter available
			if path, err := exec.LookPath(cfg.Dispatch.Interpreter); err != nil {
				printFail("Interpreter", fmt.Sprintf("%s not found in PATH", cfg.Dispatch.Interpreter))
				failed++
			} else {
				printPass("Interpreter", path)
				passed++
			}

			// 6. Every registered script resolvable
			if reg != nil {
				for _, t := range reg.Tools() {
					script := t.Script
					if cfg.Dispatch.ScriptDir != "" {
						script = filepath.Join(cfg.Dispatch.ScriptDir, script)
					}
					if _, err := os.Stat(script); err != nil {
						printWarn("Script: "+t.ID, fmt.Sprintf("not found: %s", script))
						warned++
					} else {
						printPass("Script: "+t.ID, script)
						passed++
					}
				}
			}

			// 7. Audit database writable
			if cfg.Audit.Enabled {
				if err := checkDatabase(cfg.Audit.DBPath); err != nil {
					printFail("Audit DB", err.Error())
					failed++
				} else {
					printPass("Audit DB", cfg.Audit.DBPath)
					passed++
				}
			} else {
				printWarn("Audit DB", "auditing disabled")
				warned++
			}

			// 8. Tools directory
			if cfg.General.ToolsDir != "" {
				if _, err := os.Stat(cfg.General.ToolsDir); err != nil {
					printWarn("Tools dir", fmt.Sprintf("not found: %s (no user definitions)", cfg.General.ToolsDir))
					warned++
				} else {
					printPass("Tools dir", cfg.General.ToolsDir)
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before dispatching.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\npubops should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

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

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

var (
	doctorPass = color.New(color.FgGreen).SprintFunc()
	doctorFail = color.New(color.FgRed).SprintFunc()
	doctorWarn = color.New(color.FgYellow).SprintFunc()
)

func printPass(check, detail string) {
	fmt.Printf("  %s %-20s %s\n", doctorPass("[PASS]"), check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  %s %-20s %s\n", doctorFail("[FAIL]"), check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  %s %-20s %s\n", doctorWarn("[WARN]"), check, detail)
}
