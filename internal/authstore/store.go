// Package authstore persists per-service auth tokens encrypted with the
// process-wide encryption key.
package authstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dwizi/review-vir/internal/reviewerr"
	"github.com/dwizi/review-vir/internal/secretbox"
	"github.com/dwizi/review-vir/internal/store"
)

type SealedStore interface {
	ListSealedTokens(ctx context.Context) ([]store.SealedToken, error)
	ReplaceSealedTokens(ctx context.Context, tokens map[string]string) error
	PutSealedToken(ctx context.Context, service, sealed string) error
	DeleteSealedToken(ctx context.Context, service string) (bool, error)
	DataVersion(ctx context.Context) (int64, error)
}

type Store struct {
	sealed SealedStore
	logger *slog.Logger

	mu          sync.Mutex
	dataVersion int64
	versionSeen bool
}

func New(sealed SealedStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{sealed: sealed, logger: logger}
}

func (s *Store) LoadServiceAuthTokens(ctx context.Context, secretEncryptionKey string) (ServiceAuthTokens, error) {
	if strings.TrimSpace(secretEncryptionKey) == "" {
		return nil, reviewerr.ErrMissingEncryptionKey
	}
	if s == nil || s.sealed == nil {
		return nil, reviewerr.ErrStoreUnavailable
	}
	s.markSeen(ctx)
	items, err := s.sealed.ListSealedTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load service auth tokens: %w", err)
	}
	tokens := ServiceAuthTokens{}
	for _, item := range items {
		plaintext, err := secretbox.Open(secretEncryptionKey, item.SealedToken)
		if err != nil {
			return nil, fmt.Errorf("load %s token: %w", item.Service, err)
		}
		tokens[ServiceName(item.Service)] = string(plaintext)
	}
	s.logger.Debug("service auth tokens loaded", "count", len(tokens))
	return tokens, nil
}

// SaveServiceAuthTokens replaces the stored mapping. Blank tokens are
// dropped, so saving an empty field removes that service.
func (s *Store) SaveServiceAuthTokens(ctx context.Context, secretEncryptionKey string, authTokensByService ServiceAuthTokens) error {
	if strings.TrimSpace(secretEncryptionKey) == "" {
		return reviewerr.ErrMissingEncryptionKey
	}
	if s == nil || s.sealed == nil {
		return reviewerr.ErrStoreUnavailable
	}
	compact := authTokensByService.Compact()
	sealedByService := make(map[string]string, len(compact))
	for service, token := range compact {
		sealed, err := secretbox.Seal(secretEncryptionKey, []byte(token))
		if err != nil {
			return fmt.Errorf("seal %s token: %w", service, err)
		}
		sealedByService[string(service)] = sealed
	}
	if err := s.sealed.ReplaceSealedTokens(ctx, sealedByService); err != nil {
		return fmt.Errorf("save service auth tokens: %w", err)
	}
	s.logger.Info("service auth tokens saved", "services", len(sealedByService))
	return nil
}

func (s *Store) SetToken(ctx context.Context, secretEncryptionKey string, service ServiceName, token string) error {
	if strings.TrimSpace(secretEncryptionKey) == "" {
		return reviewerr.ErrMissingEncryptionKey
	}
	if s == nil || s.sealed == nil {
		return reviewerr.ErrStoreUnavailable
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return reviewerr.ErrInvalidToken
	}
	sealed, err := secretbox.Seal(secretEncryptionKey, []byte(trimmed))
	if err != nil {
		return fmt.Errorf("seal %s token: %w", service, err)
	}
	if err := s.sealed.PutSealedToken(ctx, string(service), sealed); err != nil {
		return fmt.Errorf("set %s token: %w", service, err)
	}
	return nil
}

func (s *Store) RemoveToken(ctx context.Context, service ServiceName) (bool, error) {
	if s == nil || s.sealed == nil {
		return false, reviewerr.ErrStoreUnavailable
	}
	removed, err := s.sealed.DeleteSealedToken(ctx, string(service))
	if err != nil {
		return false, fmt.Errorf("remove %s token: %w", service, err)
	}
	return removed, nil
}

// ChangedExternally reports whether another process committed to the
// backing database since the last call or load.
func (s *Store) ChangedExternally(ctx context.Context) (bool, error) {
	if s == nil || s.sealed == nil {
		return false, reviewerr.ErrStoreUnavailable
	}
	version, err := s.sealed.DataVersion(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.versionSeen {
		s.dataVersion = version
		s.versionSeen = true
		return false, nil
	}
	changed := version != s.dataVersion
	s.dataVersion = version
	return changed, nil
}

func (s *Store) markSeen(ctx context.Context) {
	version, err := s.sealed.DataVersion(ctx)
	if err != nil {
		s.logger.Debug("read data version failed", "error", err)
		return
	}
	s.mu.Lock()
	s.dataVersion = version
	s.versionSeen = true
	s.mu.Unlock()
}
