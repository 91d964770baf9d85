package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestReplaceAndListSealedTokens(t *testing.T) {
	sqlStore := newTestStore(t)
	ctx := context.Background()

	if err := sqlStore.ReplaceSealedTokens(ctx, map[string]string{"github": "sealed-a", "gitlab": "sealed-b"}); err != nil {
		t.Fatalf("replace tokens: %v", err)
	}
	items, err := sqlStore.ListSealedTokens(ctx)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(items) != 2 || items[0].Service != "github" || items[1].Service != "gitlab" {
		t.Fatalf("unexpected tokens: %+v", items)
	}

	if err := sqlStore.ReplaceSealedTokens(ctx, map[string]string{"github": "sealed-c"}); err != nil {
		t.Fatalf("replace tokens again: %v", err)
	}
	items, err = sqlStore.ListSealedTokens(ctx)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(items) != 1 || items[0].SealedToken != "sealed-c" {
		t.Fatalf("expected replace to drop old rows, got %+v", items)
	}
}

func TestReplaceWithEmptyMappingClears(t *testing.T) {
	sqlStore := newTestStore(t)
	ctx := context.Background()
	if err := sqlStore.PutSealedToken(ctx, "github", "sealed"); err != nil {
		t.Fatalf("put token: %v", err)
	}
	if err := sqlStore.ReplaceSealedTokens(ctx, map[string]string{}); err != nil {
		t.Fatalf("replace tokens: %v", err)
	}
	items, err := sqlStore.ListSealedTokens(ctx)
	if err != nil {
		t.Fatalf("list tokens: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no tokens, got %d", len(items))
	}
}

func TestReplaceRejectsBlankEntries(t *testing.T) {
	sqlStore := newTestStore(t)
	err := sqlStore.ReplaceSealedTokens(context.Background(), map[string]string{"github": " "})
	if !errors.Is(err, ErrSealedTokenInvalid) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestPutGetDeleteSealedToken(t *testing.T) {
	sqlStore := newTestStore(t)
	ctx := context.Background()

	if err := sqlStore.PutSealedToken(ctx, "github", "one"); err != nil {
		t.Fatalf("put token: %v", err)
	}
	if err := sqlStore.PutSealedToken(ctx, "github", "two"); err != nil {
		t.Fatalf("upsert token: %v", err)
	}
	item, err := sqlStore.GetSealedToken(ctx, "github")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if item.SealedToken != "two" {
		t.Fatalf("expected upserted value, got %s", item.SealedToken)
	}

	removed, err := sqlStore.DeleteSealedToken(ctx, "github")
	if err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if !removed {
		t.Fatal("expected a row to be removed")
	}
	removed, err = sqlStore.DeleteSealedToken(ctx, "github")
	if err != nil {
		t.Fatalf("delete token again: %v", err)
	}
	if removed {
		t.Fatal("expected nothing to remove the second time")
	}
	if _, err := sqlStore.GetSealedToken(ctx, "github"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected no rows, got %v", err)
	}
}

func TestDataVersionChangesOnForeignCommit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "review_vir_test.sqlite")
	first := openTestStore(t, dbPath)
	second := openTestStore(t, dbPath)
	ctx := context.Background()

	before, err := first.DataVersion(ctx)
	if err != nil {
		t.Fatalf("data version: %v", err)
	}
	if err := first.PutSealedToken(ctx, "github", "own-write"); err != nil {
		t.Fatalf("put token: %v", err)
	}
	afterOwn, err := first.DataVersion(ctx)
	if err != nil {
		t.Fatalf("data version: %v", err)
	}
	if afterOwn != before {
		t.Fatalf("expected own commit not to change data version, got %d -> %d", before, afterOwn)
	}

	if err := second.PutSealedToken(ctx, "github", "foreign-write"); err != nil {
		t.Fatalf("put token from second connection: %v", err)
	}
	afterForeign, err := first.DataVersion(ctx)
	if err != nil {
		t.Fatalf("data version: %v", err)
	}
	if afterForeign == afterOwn {
		t.Fatal("expected foreign commit to change data version")
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return openTestStore(t, filepath.Join(t.TempDir(), "review_vir_test.sqlite"))
}

func openTestStore(t *testing.T, dbPath string) *Store {
	t.Helper()
	sqlStore, err := New(dbPath)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })
	if err := sqlStore.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return sqlStore
}
