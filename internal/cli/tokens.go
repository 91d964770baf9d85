package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/store"
)

func newTokensCommand(logger *slog.Logger) *cobra.Command {
	var timeoutSec int
	cmd := &cobra.Command{
		Use:     "tokens",
		Aliases: []string{"token"},
		Short:   "Manage encrypted service auth tokens",
	}
	cmd.PersistentFlags().IntVar(&timeoutSec, "timeout-sec", 10, "store operation timeout in seconds")

	cmd.AddCommand(newTokensListCommand(logger, &timeoutSec))
	cmd.AddCommand(newTokensSetCommand(logger, &timeoutSec))
	cmd.AddCommand(newTokensRemoveCommand(logger, &timeoutSec))
	return cmd
}

func newTokensListCommand(logger *slog.Logger, timeoutSec *int) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored services with masked tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			authStore, closeStore, err := openAuthStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			ctx, cancel := context.WithTimeout(context.Background(), boundedTimeout(*timeoutSec))
			defer cancel()

			tokens, err := authStore.LoadServiceAuthTokens(ctx, cfg.EncryptionKey)
			if err != nil {
				return err
			}
			if len(tokens) == 0 {
				cmd.Println("No service tokens stored.")
				return nil
			}
			for _, service := range tokens.Services() {
				cmd.Printf("%-10s %s\n", service, authstore.Mask(tokens[service]))
			}
			return nil
		},
	}
}

func newTokensSetCommand(logger *slog.Logger, timeoutSec *int) *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <token>",
		Short: "Store or replace the token for a service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := authstore.ParseServiceName(args[0])
			if err != nil {
				return err
			}
			cfg := config.FromEnv()
			authStore, closeStore, err := openAuthStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			ctx, cancel := context.WithTimeout(context.Background(), boundedTimeout(*timeoutSec))
			defer cancel()

			if err := authStore.SetToken(ctx, cfg.EncryptionKey, service, args[1]); err != nil {
				return err
			}
			cmd.Printf("Stored %s token %s\n", service.Label(), authstore.Mask(args[1]))
			return nil
		},
	}
}

func newTokensRemoveCommand(logger *slog.Logger, timeoutSec *int) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <service>",
		Aliases: []string{"rm"},
		Short:   "Remove the token for a service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := authstore.ParseServiceName(args[0])
			if err != nil {
				return err
			}
			cfg := config.FromEnv()
			authStore, closeStore, err := openAuthStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			ctx, cancel := context.WithTimeout(context.Background(), boundedTimeout(*timeoutSec))
			defer cancel()

			removed, err := authStore.RemoveToken(ctx, service)
			if err != nil {
				return err
			}
			if !removed {
				cmd.Printf("No %s token stored.\n", service.Label())
				return nil
			}
			cmd.Printf("Removed %s token\n", service.Label())
			return nil
		},
	}
}

func openAuthStore(cfg config.Config, logger *slog.Logger) (*authstore.Store, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	sqlStore, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlStore.AutoMigrate(ctx); err != nil {
		_ = sqlStore.Close()
		return nil, nil, err
	}
	closeStore := func() {
		if err := sqlStore.Close(); err != nil && logger != nil {
			logger.Warn("close store", "error", err)
		}
	}
	return authstore.New(sqlStore, logger), closeStore, nil
}

func boundedTimeout(seconds int) time.Duration {
	if seconds < 1 {
		seconds = 10
	}
	if seconds > 300 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}
