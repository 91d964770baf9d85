package routing

import (
	"log/slog"
	"sort"
	"sync"
)

type Listener func(Route)

type State int

const (
	StateIdle State = iota
	StateUnmounted
)

func (s State) String() string {
	if s == StateUnmounted {
		return "unmounted"
	}
	return "idle"
}

// Router holds the authoritative current route and notifies listeners when
// it changes.
type Router struct {
	mu        sync.Mutex
	current   Route
	listeners map[uint64]Listener
	nextID    uint64
	closed    bool
	logger    *slog.Logger
}

func NewRouter(defaultRoute Route, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		current:   defaultRoute.Clone(),
		listeners: map[uint64]Listener{},
		logger:    logger,
	}
}

// NewReviewRouter returns a router starting at DefaultRoute.
func NewReviewRouter(logger *slog.Logger) *Router {
	return NewRouter(DefaultRoute, logger)
}

// AddRouteListener registers fn. When immediate is true fn is invoked once
// right away with the current route. The returned func unregisters fn.
func (r *Router) AddRouteListener(immediate bool, fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return func() {}
	}
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	current := r.current.Clone()
	r.mu.Unlock()

	if immediate {
		fn(current)
	}
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// SetRoutes replaces the current route. It returns false and notifies
// nobody when route is structurally equal to the current one or the router
// is unmounted.
func (r *Router) SetRoutes(route Route) bool {
	r.mu.Lock()
	if r.closed || Equal(r.current, route) {
		r.mu.Unlock()
		return false
	}
	previous := r.current
	r.current = route.Clone()
	listeners := r.snapshotListeners()
	next := r.current.Clone()
	r.mu.Unlock()

	r.logger.Debug("route changed", "from", previous.String(), "to", next.String())
	for _, listener := range listeners {
		listener(next.Clone())
	}
	return true
}

func (r *Router) CurrentRoute() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Clone()
}

func (r *Router) ListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return StateUnmounted
	}
	return StateIdle
}

// Close drops every listener. Later SetRoutes calls are no-ops.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.listeners = map[uint64]Listener{}
}

func (r *Router) snapshotListeners() []Listener {
	ids := make([]uint64, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.listeners[id])
	}
	return out
}
