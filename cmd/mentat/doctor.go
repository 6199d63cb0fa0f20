package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"mentat/internal/config"
	"mentat/internal/provider"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your Mentat installation",
		Long: `Verifies that Mentat's configuration, provider, database, and
workspace are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("Mentat Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'mentat init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return fmt.Errorf("config invalid")
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Workspace directory exists
			if cfg.General.Workspace != "" {
				if info, err := os.Stat(cfg.General.Workspace); err != nil {
					printFail("Workspace", fmt.Sprintf("not found: %s", cfg.General.Workspace))
					failed++
				} else if !info.IsDir() {
					printFail("Workspace", fmt.Sprintf("not a directory: %s", cfg.General.Workspace))
					failed++
				} else {
					printPass("Workspace", cfg.General.Workspace)
					passed++
				}
			} else {
				printWarn("Workspace", "not configured (using current directory)")
				warned++
			}

			// 4. Database writable
			if err := checkDatabase(cfg.Memory.DBPath); err != nil {
				printFail("Database", err.Error())
				failed++
			} else {
				printPass("Database", cfg.Memory.DBPath)
				passed++
			}

			// 5. Providers configured and reachable
			providerCount := 0
			factory := provider.NewFactory(cfg, logger)
			for name, p := range cfg.Providers {
				if !p.Enabled {
					continue
				}
				providerCount++
				prov, err := factory.Get(name)
				if err != nil {
					printWarn("Provider: "+name, err.Error())
					warned++
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err = prov.Healthy(ctx)
				cancel()
				if err != nil {
					printWarn("Provider: "+name, fmt.Sprintf("unreachable: %v", err))
					warned++
				} else {
					printPass("Provider: "+name, "healthy")
					passed++
				}
			}
			if providerCount == 0 {
				printFail("Providers", "no providers enabled")
				failed++
			}

			// 6. WebSocket port free when enabled
			if cfg.Channels.WebSocket.Enabled {
				port := cfg.Channels.WebSocket.Port
				if err := checkPort(port); err != nil {
					printWarn("WebSocket port", fmt.Sprintf("port %d may be in use: %v", port, err))
					warned++
				} else {
					printPass("WebSocket port", fmt.Sprintf(":%d available", port))
					passed++
				}
			}

			// 7. Persona directory readable when a persona is active
			if cfg.Persona.Active != "" {
				dir := config.ExpandPath(cfg.Persona.Dir)
				if _, err := os.Stat(dir); err != nil {
					printWarn("Personas", fmt.Sprintf("active persona %q but directory missing: %s", cfg.Persona.Active, dir))
					warned++
				} else {
					printPass("Personas", dir)
					passed++
				}
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running Mentat.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nMentat should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! Mentat is ready to run.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
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

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
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
