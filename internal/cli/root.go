// Package cli defines the Cobra commands of the hakbang CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hakbang/internal/config"
	"hakbang/internal/service"
	"hakbang/internal/store"
	"hakbang/internal/tui"
)

var (
	verbose    bool
	jsonLogs   bool
	configPath string
	dbPath     string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "hakbang",
	Short: "Activity tracker for walks, runs, rides and bodyweight reps",
	Long: `hakbang turns raw location, motion and camera samples into live
session metrics: distance, pace, repetitions, calories and goal progress.
Recordings are replayed through the same engine a phone would drive live.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(true)
		if err != nil {
			return err
		}
		defer env.Close()

		app := tui.NewApp(env.history, tui.NewUnits(env.cfg.Display), nil)
		if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.hakbang/config.json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database (overrides storage.db_path)")

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(recordsCmd)
}

// env bundles what every command needs
type env struct {
	cfg     *config.Config
	db      *store.DB
	logger  *slog.Logger
	history *service.HistoryService
	logFile *os.File
}

func (e *env) Close() {
	e.db.Close()
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// loadEnv reads the config, opens the database and builds the logger.
// Interactive commands log to a file so the TUI is not overwritten.
func loadEnv(interactive bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	var out io.Writer = os.Stderr
	if interactive {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "hakbang.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		e.logFile = f
		out = f
	}
	e.logger = newLogger(out)

	path := cfg.Storage.DBPath
	if dbPath != "" {
		path = dbPath
	}
	e.db, err = store.Open(path)
	if err != nil {
		if e.logFile != nil {
			e.logFile.Close()
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}
	e.history = service.NewHistoryService(e.db, e.logger)
	return e, nil
}

// loadConfig loads the config file, writing an example one on first run
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}

	if errors.Is(err, config.ErrNoConfig) {
		if configPath == "" {
			if err := config.CreateExample(); err != nil {
				return nil, fmt.Errorf("creating example config: %w", err)
			}
		}
		defaults := config.DefaultConfig()
		cfg, err = &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
