package webclient

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/forge"
)

const (
	queryReviewRequested = "review-requested:@me"
	queryAuthored        = "author:@me"
)

type Searcher interface {
	SearchPullRequests(ctx context.Context, query string, limit int) ([]forge.PullRequest, error)
}

// SearcherFactory builds a searcher authenticated for one service.
type SearcherFactory func(service authstore.ServiceName, token string) (Searcher, error)

type Inbox struct {
	ReviewRequested []forge.PullRequest
	Authored        []forge.PullRequest
}

func (i Inbox) Len() int {
	return len(i.ReviewRequested) + len(i.Authored)
}

type PullRequestService struct {
	limit     int
	newSearch SearcherFactory
	logger    *slog.Logger
}

func NewPullRequestService(cfg config.Config, factory SearcherFactory, logger *slog.Logger) *PullRequestService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if factory == nil {
		factory = func(service authstore.ServiceName, token string) (Searcher, error) {
			if service != authstore.ServiceGitHub {
				return nil, fmt.Errorf("no pull request client for %s", service)
			}
			return forge.New(cfg, token)
		}
	}
	limit := cfg.PullRequestLimit
	if limit < 1 {
		limit = 50
	}
	return &PullRequestService{limit: limit, newSearch: factory, logger: logger}
}

// Load queries every known service that has a token, in parallel.
func (s *PullRequestService) Load(ctx context.Context, tokens authstore.ServiceAuthTokens) (Inbox, error) {
	searchers := map[authstore.ServiceName]Searcher{}
	for _, service := range tokens.Services() {
		known, err := authstore.ParseServiceName(string(service))
		if err != nil {
			s.logger.Warn("skipping token for unknown service", "service", service)
			continue
		}
		token := strings.TrimSpace(tokens[service])
		if token == "" {
			continue
		}
		searcher, err := s.newSearch(known, token)
		if err != nil {
			return Inbox{}, fmt.Errorf("%s client: %w", known, err)
		}
		searchers[known] = searcher
	}

	var (
		mu    sync.Mutex
		inbox Inbox
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for service, searcher := range searchers {
		group.Go(func() error {
			items, err := searcher.SearchPullRequests(groupCtx, queryReviewRequested, s.limit)
			if err != nil {
				return fmt.Errorf("%s review requests: %w", service, err)
			}
			mu.Lock()
			inbox.ReviewRequested = append(inbox.ReviewRequested, items...)
			mu.Unlock()
			return nil
		})
		group.Go(func() error {
			items, err := searcher.SearchPullRequests(groupCtx, queryAuthored, s.limit)
			if err != nil {
				return fmt.Errorf("%s authored: %w", service, err)
			}
			mu.Lock()
			inbox.Authored = append(inbox.Authored, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Inbox{}, err
	}

	sortByUpdated(inbox.ReviewRequested)
	sortByUpdated(inbox.Authored)
	s.logger.Debug("pull requests loaded", "review_requested", len(inbox.ReviewRequested), "authored", len(inbox.Authored))
	return inbox, nil
}

func sortByUpdated(items []forge.PullRequest) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			if items[i].Repository == items[j].Repository {
				return items[i].Number > items[j].Number
			}
			return items[i].Repository < items[j].Repository
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}
