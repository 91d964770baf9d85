package shell

import (
	"errors"
	"testing"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/resource"
	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/webclient"
)

func TestComposeDecisionTable(t *testing.T) {
	client := webclient.New(nil, nil, nil)
	clientResolved := ClientSnapshot{State: resource.StateResolved, Value: client}
	tokens := authstore.ServiceAuthTokens{authstore.ServiceGitHub: "tok"}
	tokensResolved := TokensSnapshot{State: resource.StateResolved, Value: tokens}
	authRoute := routing.DefaultRoute.WithMainPath(routing.PathAuth)

	cases := []struct {
		name     string
		route    routing.Route
		client   ClientSnapshot
		tokens   TokensSnapshot
		kind     FrameKind
		message  string
		auth     bool
		prHidden bool
	}{
		{name: "client pending", client: ClientSnapshot{}, tokens: tokensResolved, kind: FrameLoading},
		{name: "client failed", client: ClientSnapshot{State: resource.StateFailed, Err: errors.New("boom")}, kind: FrameError, message: "boom"},
		{name: "tokens pending", client: clientResolved, tokens: TokensSnapshot{}, kind: FrameLoading},
		{name: "tokens failed", client: clientResolved, tokens: TokensSnapshot{State: resource.StateFailed, Err: errors.New(" ")}, kind: FrameError, message: "unknown error"},
		{name: "auth tab", route: authRoute, client: clientResolved, tokens: tokensResolved, kind: FrameReady, auth: true, prHidden: true},
		{name: "pull requests tab", route: routing.DefaultRoute, client: clientResolved, tokens: tokensResolved, kind: FrameReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := Compose(tc.route, tc.client, tc.tokens)
			if frame.Kind != tc.kind {
				t.Fatalf("expected %s, got %s", tc.kind, frame.Kind)
			}
			if frame.ErrorMessage != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, frame.ErrorMessage)
			}
			if tc.kind != FrameReady {
				if frame.ShowTabs || frame.PullRequestsMounted || frame.AuthMounted {
					t.Fatalf("expected nothing but indicator, got %+v", frame)
				}
				return
			}
			if !frame.ShowTabs || !frame.PullRequestsMounted {
				t.Fatalf("expected tabs and mounted pull requests page, got %+v", frame)
			}
			if frame.AuthMounted != tc.auth || frame.PullRequestsHidden != tc.prHidden {
				t.Fatalf("unexpected mount flags: %+v", frame)
			}
			if frame.Client != client {
				t.Fatal("expected resolved client interface in frame")
			}
		})
	}
}

func TestEffectiveRoute(t *testing.T) {
	stored := routing.Route{Paths: []string{string(routing.PathPullRequests)}, Search: map[string][]string{"q": {"x"}}}

	forced := EffectiveRoute(stored, authstore.ServiceAuthTokens{})
	if forced.Head() != routing.PathAuth {
		t.Fatalf("expected auth for empty tokens, got %s", forced)
	}
	if len(forced.Search) != 0 {
		t.Fatalf("expected forced route to start from the default route, got %s", forced)
	}
	if forced := EffectiveRoute(stored, nil); forced.Head() != routing.PathAuth {
		t.Fatalf("expected auth for nil tokens, got %s", forced)
	}

	tokens := authstore.ServiceAuthTokens{authstore.ServiceGitHub: "tok"}
	if got := EffectiveRoute(stored, tokens); !routing.Equal(got, stored) {
		t.Fatalf("expected stored route, got %s", got)
	}
	if got := EffectiveRoute(routing.Route{}, tokens); !routing.Equal(got, routing.DefaultRoute) {
		t.Fatalf("expected default route for empty stored route, got %s", got)
	}
}
