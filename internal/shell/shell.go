// Package shell is the root of the review client. It owns the client
// interface and auth token resources, keeps the router in step with the
// route it actually renders, and decides which pages are drawn.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/resource"
	"github.com/dwizi/review-vir/internal/reviewerr"
	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/webclient"
)

type (
	ClientJob    = resource.Job[*webclient.Interface]
	ClientResult = resource.Result[*webclient.Interface]
	TokensJob    = resource.Job[authstore.ServiceAuthTokens]
	TokensResult = resource.Result[authstore.ServiceAuthTokens]
)

type Deps struct {
	LoadClientInterface func(ctx context.Context) (*webclient.Interface, error)
	// EncryptionKey may be empty; token loading then fails with
	// reviewerr.ErrMissingEncryptionKey.
	EncryptionKey string
	// Router defaults to routing.NewReviewRouter.
	Router *routing.Router
	Logger *slog.Logger
}

// tokenInputs changes whenever the token mapping must be reloaded. Revision
// is bumped when another process rewrites the store.
type tokenInputs struct {
	EncryptionKey string
	Client        *webclient.Interface
	Revision      uint64
}

type Shell struct {
	client *resource.Resource[struct{}, *webclient.Interface]
	tokens *resource.Resource[tokenInputs, authstore.ServiceAuthTokens]

	router         *routing.Router
	removeListener func()
	currentRoute   routing.Route

	encryptionKey string
	revision      uint64
	logger        *slog.Logger
}

func New(deps Deps) *Shell {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	router := deps.Router
	if router == nil {
		router = routing.NewReviewRouter(logger)
	}
	loadClient := deps.LoadClientInterface

	s := &Shell{
		client: resource.New("client interface", func(ctx context.Context, _ struct{}) (*webclient.Interface, error) {
			if loadClient == nil {
				return nil, errors.New("no client interface provider configured")
			}
			return loadClient(ctx)
		}),
		tokens:        resource.New("service auth tokens", loadServiceAuthTokens),
		router:        router,
		encryptionKey: deps.EncryptionKey,
		logger:        logger,
	}
	s.removeListener = router.AddRouteListener(true, func(route routing.Route) {
		s.currentRoute = route
	})
	return s
}

func loadServiceAuthTokens(ctx context.Context, in tokenInputs) (authstore.ServiceAuthTokens, error) {
	if strings.TrimSpace(in.EncryptionKey) == "" {
		return nil, reviewerr.ErrMissingEncryptionKey
	}
	if in.Client == nil || in.Client.AuthStore() == nil {
		return nil, reviewerr.ErrStoreUnavailable
	}
	return in.Client.AuthStore().LoadServiceAuthTokens(ctx, in.EncryptionKey)
}

// Start begins loading the client interface. Only the first call returns a
// job.
func (s *Shell) Start() ClientJob {
	return s.client.Update(struct{}{})
}

func (s *Shell) SettleClientInterface(result ClientResult) bool {
	applied := s.client.Settle(result)
	if applied && result.Err != nil {
		s.logger.Error("client interface failed to load", "error", result.Err)
	}
	return applied
}

func (s *Shell) SettleAuthTokens(result TokensResult) bool {
	applied := s.tokens.Settle(result)
	if !applied {
		return false
	}
	if result.Err != nil {
		s.logger.Error("service auth tokens failed to load", "error", result.Err)
	} else {
		s.logger.Info("service auth tokens loaded", "services", len(result.Value))
	}
	return true
}

// Render is one render pass. It asks for the token mapping once the client
// interface has resolved, re-synchronizes the router with the effective
// route and composes the frame. The returned job is nil unless a new token
// load has to run.
func (s *Shell) Render() (Frame, TokensJob) {
	clientSnap := s.client.Snapshot()
	var job TokensJob
	if clientSnap.Resolved() {
		job = s.tokens.Update(tokenInputs{
			EncryptionKey: s.encryptionKey,
			Client:        clientSnap.Value,
			Revision:      s.revision,
		})
	}
	tokensSnap := s.tokens.Snapshot()

	var effective routing.Route
	if clientSnap.Resolved() && tokensSnap.Resolved() {
		effective = EffectiveRoute(s.currentRoute, tokensSnap.Value)
		if !routing.Equal(effective, s.currentRoute) {
			s.router.SetRoutes(effective)
		}
	}
	return Compose(effective, clientSnap, tokensSnap), job
}

// Navigate handles a route change requested by a child view.
func (s *Shell) Navigate(route routing.Route) bool {
	return s.router.SetRoutes(routing.SanitizeRoute(route))
}

// AuthTokensSaved reflects a completed save without reloading the store.
func (s *Shell) AuthTokensSaved(tokens authstore.ServiceAuthTokens) {
	s.tokens.SetValue(tokens.Clone())
}

// AuthTokensChangedExternally schedules a reload on the next render pass.
func (s *Shell) AuthTokensChangedExternally() {
	if s.tokens.Closed() {
		return
	}
	s.revision++
}

func (s *Shell) CurrentRoute() routing.Route {
	return s.currentRoute.Clone()
}

func (s *Shell) EncryptionKey() string {
	return s.encryptionKey
}

func (s *Shell) ClientInterface() ClientSnapshot {
	return s.client.Snapshot()
}

func (s *Shell) AuthTokens() TokensSnapshot {
	return s.tokens.Snapshot()
}

// TokenLoads reports how many token loads have been started.
func (s *Shell) TokenLoads() int {
	return s.tokens.Loads()
}

// Close detaches from the router. Loads still running are not cancelled;
// their results are dropped when settled.
func (s *Shell) Close() {
	if s.removeListener != nil {
		s.removeListener()
		s.removeListener = nil
	}
	s.router.Close()
	s.client.Close()
	s.tokens.Close()
}

func (s *Shell) RouterState() routing.State {
	return s.router.State()
}
