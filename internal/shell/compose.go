package shell

import (
	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/resource"
	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/webclient"
)

type FrameKind int

const (
	FrameLoading FrameKind = iota
	FrameError
	FrameReady
)

func (k FrameKind) String() string {
	switch k {
	case FrameError:
		return "error"
	case FrameReady:
		return "ready"
	default:
		return "loading"
	}
}

// Frame is what one render pass decided to draw.
type Frame struct {
	Kind         FrameKind
	ErrorMessage string

	Route               routing.Route
	ShowTabs            bool
	AuthMounted         bool
	PullRequestsMounted bool
	PullRequestsHidden  bool

	Tokens authstore.ServiceAuthTokens
	Client *webclient.Interface
}

type (
	ClientSnapshot = resource.Snapshot[*webclient.Interface]
	TokensSnapshot = resource.Snapshot[authstore.ServiceAuthTokens]
)

// EffectiveRoute forces the auth page while no service has a token.
func EffectiveRoute(current routing.Route, tokens authstore.ServiceAuthTokens) routing.Route {
	if len(tokens) == 0 {
		return routing.DefaultRoute.WithMainPath(routing.PathAuth)
	}
	if len(current.Paths) == 0 {
		return routing.DefaultRoute.Clone()
	}
	return current.Clone()
}

// Compose maps the effective route and both resource states to a frame.
// Nothing but a loading indicator or an error is drawn until both
// resources have resolved.
func Compose(effective routing.Route, client ClientSnapshot, tokens TokensSnapshot) Frame {
	switch {
	case client.Pending():
		return Frame{Kind: FrameLoading}
	case client.Failed():
		return Frame{Kind: FrameError, ErrorMessage: resource.ErrorMessage(client.Err)}
	case tokens.Pending():
		return Frame{Kind: FrameLoading}
	case tokens.Failed():
		return Frame{Kind: FrameError, ErrorMessage: resource.ErrorMessage(tokens.Err)}
	}

	head := effective.Head()
	return Frame{
		Kind:                FrameReady,
		Route:               effective,
		ShowTabs:            true,
		AuthMounted:         head == routing.PathAuth,
		PullRequestsMounted: true,
		PullRequestsHidden:  head != routing.PathPullRequests,
		Tokens:              tokens.Value,
		Client:              client.Value,
	}
}
