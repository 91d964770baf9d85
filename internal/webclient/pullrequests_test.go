package webclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/forge"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	limits  []int
	results map[string][]forge.PullRequest
	err     error
}

func (f *fakeSearcher) SearchPullRequests(_ context.Context, query string, limit int) ([]forge.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func TestPullRequestServiceLoadsBothQueries(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	searcher := &fakeSearcher{results: map[string][]forge.PullRequest{
		queryReviewRequested: {
			{Number: 1, Repository: "acme/api", UpdatedAt: base},
			{Number: 2, Repository: "acme/api", UpdatedAt: base.Add(time.Hour)},
		},
		queryAuthored: {
			{Number: 3, Repository: "acme/web", UpdatedAt: base},
		},
	}}
	var gotToken string
	service := NewPullRequestService(config.Config{PullRequestLimit: 7}, func(_ authstore.ServiceName, token string) (Searcher, error) {
		gotToken = token
		return searcher, nil
	}, nil)

	inbox, err := service.Load(context.Background(), authstore.ServiceAuthTokens{authstore.ServiceGitHub: " tok "})
	if err != nil {
		t.Fatalf("load inbox: %v", err)
	}
	if gotToken != "tok" {
		t.Fatalf("expected trimmed token, got %q", gotToken)
	}
	if len(searcher.queries) != 2 {
		t.Fatalf("expected two queries, got %v", searcher.queries)
	}
	for _, limit := range searcher.limits {
		if limit != 7 {
			t.Fatalf("expected limit 7, got %d", limit)
		}
	}
	if inbox.Len() != 3 {
		t.Fatalf("expected 3 pull requests, got %d", inbox.Len())
	}
	if inbox.ReviewRequested[0].Number != 2 {
		t.Fatalf("expected most recently updated first, got %+v", inbox.ReviewRequested)
	}
	if inbox.Authored[0].Number != 3 {
		t.Fatalf("unexpected authored list: %+v", inbox.Authored)
	}
}

func TestPullRequestServiceSkipsUnknownAndBlankTokens(t *testing.T) {
	calls := 0
	service := NewPullRequestService(config.Config{}, func(authstore.ServiceName, string) (Searcher, error) {
		calls++
		return &fakeSearcher{}, nil
	}, nil)

	inbox, err := service.Load(context.Background(), authstore.ServiceAuthTokens{
		"bitbucket":             "tok",
		authstore.ServiceGitHub: "  ",
	})
	if err != nil {
		t.Fatalf("load inbox: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no searcher to be built, got %d", calls)
	}
	if inbox.Len() != 0 {
		t.Fatalf("expected empty inbox, got %+v", inbox)
	}
}

func TestPullRequestServicePropagatesSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("Bad credentials")}
	service := NewPullRequestService(config.Config{}, func(authstore.ServiceName, string) (Searcher, error) {
		return searcher, nil
	}, nil)

	_, err := service.Load(context.Background(), authstore.ServiceAuthTokens{authstore.ServiceGitHub: "tok"})
	if err == nil || !strings.Contains(err.Error(), "Bad credentials") {
		t.Fatalf("expected search error, got %v", err)
	}
}

func TestPullRequestServiceDefaultLimit(t *testing.T) {
	service := NewPullRequestService(config.Config{}, nil, nil)
	if service.limit != 50 {
		t.Fatalf("expected default limit 50, got %d", service.limit)
	}
}
