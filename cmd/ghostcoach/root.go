package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/ghostcoach/internal/config"
	"github.com/ayusman/ghostcoach/internal/store"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// st is the reference library shared by subcommands.
	st *store.Store
	// cfg is the loaded configuration.
	cfg config.Config

	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "ghostcoach",
	Short:         "Ghost-skeleton pose coaching",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		path, err := resolveDBPath(dbPath, cfg.Database)
		if err != nil {
			return err
		}

		st, err = store.New(path)
		if err != nil {
			return fmt.Errorf("failed to open reference library: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			st.Close()
		}
	},
}

// resolveDBPath picks the library path: the --db flag, then the configured
// database, then the per-user default.
func resolveDBPath(flag, configured string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configured != "" {
		return configured, nil
	}
	return defaultDBPath()
}

// defaultDBPath returns ~/.ghostcoach/ghostcoach.db, creating the directory.
func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".ghostcoach")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "ghostcoach.db"), nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "reference library path (default: ~/.ghostcoach/ghostcoach.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
}
