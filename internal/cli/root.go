package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/tui"
)

const version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	root := &cobra.Command{
		Use:           "review-vir",
		Short:         "review-vir is a terminal inbox for pull request reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newTUICommand(logger))
	root.AddCommand(newTokensCommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newTUICommand(logger *slog.Logger) *cobra.Command {
	var rawRoute string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the review terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if !cmd.Flags().Changed("route") {
				rawRoute = cfg.InitialRoute
			}
			route, err := resolveInitialRoute(rawRoute)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI, so logs go to a file.
			logFile, err := openLogFile(cfg.LogFile)
			if err != nil {
				return err
			}
			defer logFile.Close()
			fileLogger := newFileLogger(logFile, cfg.Environment)
			fileLogger.Info("tui starting", "route", route.String(), "db_path", cfg.DBPath)
			if err := tui.Run(cfg, fileLogger, route); err != nil {
				logger.Error("tui failed", "error", err, "log_file", cfg.LogFile)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rawRoute, "route", "", "initial route, for example /auth or /pull-requests")
	return cmd
}

func resolveInitialRoute(raw string) (routing.Route, error) {
	if strings.TrimSpace(raw) == "" {
		return routing.DefaultRoute.Clone(), nil
	}
	route, err := routing.ParseRoute(raw)
	if err != nil {
		return routing.Route{}, err
	}
	if !route.Head().Valid() {
		return routing.Route{}, fmt.Errorf("unknown route %q", raw)
	}
	return route, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func newFileLogger(w io.Writer, environment string) *slog.Logger {
	level := slog.LevelInfo
	if environment == "development" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
