package routing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// MainPath is the first path segment of a route and selects the main page.
type MainPath string

const (
	PathAuth         MainPath = "auth"
	PathPullRequests MainPath = "pull-requests"
)

func MainPaths() []MainPath {
	return []MainPath{PathPullRequests, PathAuth}
}

func (p MainPath) Label() string {
	switch p {
	case PathAuth:
		return "Auth"
	case PathPullRequests:
		return "Pull Requests"
	default:
		return string(p)
	}
}

func (p MainPath) Valid() bool {
	return p == PathAuth || p == PathPullRequests
}

// Route is a navigable UI location: ordered path segments plus search
// parameters and an optional hash.
type Route struct {
	Paths  []string            `json:"paths"`
	Search map[string][]string `json:"search,omitempty"`
	Hash   string              `json:"hash,omitempty"`
}

// DefaultRoute is where the app lands when nothing else is known.
var DefaultRoute = Route{Paths: []string{string(PathPullRequests)}}

func (r Route) Head() MainPath {
	if len(r.Paths) == 0 {
		return ""
	}
	return MainPath(r.Paths[0])
}

// WithMainPath returns a copy of r whose paths are replaced by the single
// main path, keeping search and hash.
func (r Route) WithMainPath(path MainPath) Route {
	out := r.Clone()
	out.Paths = []string{string(path)}
	return out
}

func (r Route) Clone() Route {
	out := Route{Hash: r.Hash}
	if r.Paths != nil {
		out.Paths = append([]string(nil), r.Paths...)
	}
	if r.Search != nil {
		out.Search = make(map[string][]string, len(r.Search))
		for key, values := range r.Search {
			out.Search[key] = append([]string(nil), values...)
		}
	}
	return out
}

// Equal compares routes by their JSON form, so an empty search map and a nil
// one are the same route.
func Equal(a, b Route) bool {
	left, errLeft := json.Marshal(normalize(a))
	right, errRight := json.Marshal(normalize(b))
	if errLeft != nil || errRight != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func normalize(r Route) Route {
	out := r.Clone()
	if out.Paths == nil {
		out.Paths = []string{}
	}
	if len(out.Search) == 0 {
		out.Search = nil
	}
	return out
}

// SanitizeRoute falls back to the default route when the head is not a
// known main path.
func SanitizeRoute(r Route) Route {
	if !r.Head().Valid() {
		return DefaultRoute.Clone()
	}
	return r.Clone()
}

// String renders the route as "/a/b?k=v#hash".
func (r Route) String() string {
	var builder strings.Builder
	for _, segment := range r.Paths {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(segment))
	}
	if len(r.Paths) == 0 {
		builder.WriteString("/")
	}
	if len(r.Search) > 0 {
		keys := make([]string, 0, len(r.Search))
		for key := range r.Search {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		values := url.Values{}
		for _, key := range keys {
			for _, value := range r.Search[key] {
				values.Add(key, value)
			}
		}
		builder.WriteString("?")
		builder.WriteString(values.Encode())
	}
	if r.Hash != "" {
		builder.WriteString("#")
		builder.WriteString(r.Hash)
	}
	return builder.String()
}

// ParseRoute is the inverse of Route.String. The result is not sanitized.
func ParseRoute(raw string) (Route, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Route{}, fmt.Errorf("empty route")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Route{}, fmt.Errorf("parse route %q: %w", raw, err)
	}
	route := Route{Hash: parsed.Fragment}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment == "" {
			continue
		}
		route.Paths = append(route.Paths, segment)
	}
	query := parsed.Query()
	if len(query) > 0 {
		route.Search = map[string][]string(query)
	}
	return route, nil
}
