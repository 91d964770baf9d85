package forge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dwizi/review-vir/internal/config"
)

func TestClientSearchPullRequests(t *testing.T) {
	t.Parallel()

	var gotQuery, gotAuth, gotPerPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/search/issues" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotPerPage = r.URL.Query().Get("per_page")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":2,"items":[
			{"number":7,"title":" Fix flaky test ","html_url":"https://github.com/acme/api/pull/7","repository_url":"https://api.github.com/repos/acme/api","draft":true,"updated_at":"2024-05-01T10:00:00Z","user":{"login":"octo"},"pull_request":{"url":"x"}},
			{"number":8,"title":"Not a PR","html_url":"https://github.com/acme/api/issues/8","repository_url":"https://api.github.com/repos/acme/api","updated_at":"2024-05-01T10:00:00Z","user":{"login":"octo"}}
		]}`))
	}))
	defer server.Close()

	client, err := New(config.Config{GitHubAPIURL: server.URL + "/", HTTPTimeoutSec: 5}, " tok ")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	items, err := client.SearchPullRequests(context.Background(), "review-requested:@me", 500)
	if err != nil {
		t.Fatalf("search pull requests: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if !strings.HasPrefix(gotQuery, "is:pr is:open") || !strings.HasSuffix(gotQuery, "review-requested:@me") {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if gotPerPage != "100" {
		t.Fatalf("expected per_page clamped to 100, got %s", gotPerPage)
	}
	if len(items) != 1 {
		t.Fatalf("expected issues without pull_request to be skipped, got %d items", len(items))
	}
	item := items[0]
	if item.Number != 7 || item.Title != "Fix flaky test" || !item.Draft {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Repository != "acme/api" || item.Author != "octo" {
		t.Fatalf("unexpected repository or author: %+v", item)
	}
	if !item.UpdatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updated_at: %s", item.UpdatedAt)
	}
}

func TestClientSurfacesGitHubMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	_, err := client.SearchPullRequests(context.Background(), "author:@me", 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Bad credentials") {
		t.Fatalf("expected github message in error, got %v", err)
	}
}

func TestClientFallsBackToStatusText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	_, err := client.SearchPullRequests(context.Background(), "", 0)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := New(config.Config{}, "   "); err == nil {
		t.Fatal("expected error for blank token")
	}
	client, err := New(config.Config{}, "tok")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != "https://api.github.com" {
		t.Fatalf("expected default base url, got %s", client.baseURL)
	}
	if client.http.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %s", client.http.Timeout)
	}
}

func TestClientWithTimeoutClonesClient(t *testing.T) {
	t.Parallel()

	base := &Client{baseURL: "http://example.test", http: &http.Client{Timeout: 5 * time.Second}}
	updated := base.WithTimeout(90 * time.Second)
	if updated == base {
		t.Fatal("expected cloned client")
	}
	if updated.http.Timeout != 90*time.Second {
		t.Fatalf("expected timeout 90s, got %s", updated.http.Timeout)
	}
	if base.http.Timeout != 5*time.Second {
		t.Fatalf("expected original timeout unchanged, got %s", base.http.Timeout)
	}
	if same := base.WithTimeout(0); same != base {
		t.Fatal("expected sub-second timeout to return the same client")
	}
}

func TestRepositoryFromURL(t *testing.T) {
	t.Parallel()

	if got := repositoryFromURL("https://api.github.com/repos/acme/api/"); got != "acme/api" {
		t.Fatalf("unexpected repository: %s", got)
	}
	if got := repositoryFromURL("acme/api"); got != "acme/api" {
		t.Fatalf("unexpected passthrough: %s", got)
	}
}
