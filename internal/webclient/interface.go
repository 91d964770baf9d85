// Package webclient assembles the client interface handed to the shell:
// the encrypted token store and the pull request service behind it.
package webclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/store"
)

// AuthStore loads and saves the encrypted per-service token mapping.
type AuthStore interface {
	LoadServiceAuthTokens(ctx context.Context, secretEncryptionKey string) (authstore.ServiceAuthTokens, error)
	SaveServiceAuthTokens(ctx context.Context, secretEncryptionKey string, authTokensByService authstore.ServiceAuthTokens) error
	ChangedExternally(ctx context.Context) (bool, error)
}

type PullRequestLoader interface {
	Load(ctx context.Context, tokens authstore.ServiceAuthTokens) (Inbox, error)
}

type Interface struct {
	sqlStore     *store.Store
	authStore    AuthStore
	pullRequests PullRequestLoader
	logger       *slog.Logger
}

// New wraps already built collaborators. Load is the production path.
func New(authStore AuthStore, pullRequests PullRequestLoader, logger *slog.Logger) *Interface {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Interface{authStore: authStore, pullRequests: pullRequests, logger: logger}
}

func Load(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Interface, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		return nil, fmt.Errorf("load client interface: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	sqlStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := sqlStore.AutoMigrate(ctx); err != nil {
		_ = sqlStore.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	logger.Info("client interface loaded", "db_path", dbPath)
	return &Interface{
		sqlStore:     sqlStore,
		authStore:    authstore.New(sqlStore, logger.With("component", "authstore")),
		pullRequests: NewPullRequestService(cfg, nil, logger.With("component", "pull_requests")),
		logger:       logger,
	}, nil
}

func (i *Interface) AuthStore() AuthStore {
	return i.authStore
}

func (i *Interface) PullRequests() PullRequestLoader {
	return i.pullRequests
}

// DBPath is the file the store watcher should follow. It is empty when the
// interface was not opened from disk.
func (i *Interface) DBPath() string {
	if i == nil || i.sqlStore == nil {
		return ""
	}
	return i.sqlStore.Path()
}

func (i *Interface) Close() error {
	if i == nil || i.sqlStore == nil {
		return nil
	}
	return i.sqlStore.Close()
}
