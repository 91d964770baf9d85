package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrSealedTokenInvalid = errors.New("service and sealed token are required")

type SealedToken struct {
	Service     string
	SealedToken string
	UpdatedAt   time.Time
}

func (s *Store) ListSealedTokens(ctx context.Context) ([]SealedToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, sealed_token, updated_at_unix
		FROM service_auth_tokens
		ORDER BY service ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sealed tokens: %w", err)
	}
	defer rows.Close()

	items := []SealedToken{}
	for rows.Next() {
		var item SealedToken
		var updatedAtUnix int64
		if err := rows.Scan(&item.Service, &item.SealedToken, &updatedAtUnix); err != nil {
			return nil, fmt.Errorf("scan sealed token: %w", err)
		}
		item.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sealed tokens: %w", err)
	}
	return items, nil
}

// ReplaceSealedTokens makes the table hold exactly the given tokens.
func (s *Store) ReplaceSealedTokens(ctx context.Context, tokens map[string]string) error {
	services := make([]string, 0, len(tokens))
	for service, sealed := range tokens {
		if strings.TrimSpace(service) == "" || strings.TrimSpace(sealed) == "" {
			return ErrSealedTokenInvalid
		}
		services = append(services, service)
	}
	sort.Strings(services)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tokens: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_auth_tokens`); err != nil {
		return fmt.Errorf("clear sealed tokens: %w", err)
	}
	nowUnix := time.Now().UTC().Unix()
	for _, service := range services {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO service_auth_tokens (service, sealed_token, updated_at_unix) VALUES (?, ?, ?)`,
			service,
			tokens[service],
			nowUnix,
		); err != nil {
			return fmt.Errorf("insert sealed token: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tokens: %w", err)
	}
	return nil
}

func (s *Store) PutSealedToken(ctx context.Context, service, sealed string) error {
	if nullIfEmpty(service) == nil || nullIfEmpty(sealed) == nil {
		return ErrSealedTokenInvalid
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO service_auth_tokens (service, sealed_token, updated_at_unix)
		VALUES (?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			sealed_token = excluded.sealed_token,
			updated_at_unix = excluded.updated_at_unix`,
		strings.TrimSpace(service),
		sealed,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert sealed token: %w", err)
	}
	return nil
}

// DeleteSealedToken reports whether a row was removed.
func (s *Store) DeleteSealedToken(ctx context.Context, service string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM service_auth_tokens WHERE service = ?`, strings.TrimSpace(service))
	if err != nil {
		return false, fmt.Errorf("delete sealed token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete sealed token rows: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) GetSealedToken(ctx context.Context, service string) (SealedToken, error) {
	var item SealedToken
	var updatedAtUnix int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT service, sealed_token, updated_at_unix FROM service_auth_tokens WHERE service = ?`,
		strings.TrimSpace(service),
	).Scan(&item.Service, &item.SealedToken, &updatedAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return SealedToken{}, sql.ErrNoRows
	}
	if err != nil {
		return SealedToken{}, fmt.Errorf("get sealed token: %w", err)
	}
	item.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()
	return item, nil
}
