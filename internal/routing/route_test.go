package routing

import "testing"

func TestEqualIgnoresEmptySearch(t *testing.T) {
	a := Route{Paths: []string{"auth"}}
	b := Route{Paths: []string{"auth"}, Search: map[string][]string{}}
	if !Equal(a, b) {
		t.Fatal("expected nil and empty search to be equal")
	}
	c := Route{Paths: []string{"auth"}, Hash: "x"}
	if Equal(a, c) {
		t.Fatal("expected differing hash to be unequal")
	}
}

func TestParseRouteRoundTrip(t *testing.T) {
	route, err := ParseRoute("/pull-requests/octo?repo=a&repo=b#focus")
	if err != nil {
		t.Fatalf("parse route: %v", err)
	}
	if route.Head() != PathPullRequests || len(route.Paths) != 2 || route.Paths[1] != "octo" {
		t.Fatalf("unexpected paths: %v", route.Paths)
	}
	if len(route.Search["repo"]) != 2 {
		t.Fatalf("expected two repo values, got %v", route.Search["repo"])
	}
	if route.Hash != "focus" {
		t.Fatalf("expected hash focus, got %s", route.Hash)
	}
	if route.String() != "/pull-requests/octo?repo=a&repo=b#focus" {
		t.Fatalf("unexpected string form: %s", route.String())
	}
}

func TestParseRouteWithoutLeadingSlash(t *testing.T) {
	route, err := ParseRoute("auth")
	if err != nil {
		t.Fatalf("parse route: %v", err)
	}
	if route.Head() != PathAuth {
		t.Fatalf("expected auth head, got %s", route.Head())
	}
}

func TestParseRouteRejectsEmpty(t *testing.T) {
	if _, err := ParseRoute("  "); err == nil {
		t.Fatal("expected error for empty route")
	}
}

func TestSanitizeRouteFallsBackToDefault(t *testing.T) {
	got := SanitizeRoute(Route{Paths: []string{"settings"}})
	if !Equal(got, DefaultRoute) {
		t.Fatalf("expected default route, got %s", got.String())
	}
	kept := SanitizeRoute(Route{Paths: []string{"auth"}})
	if kept.Head() != PathAuth {
		t.Fatalf("expected auth route kept, got %s", kept.String())
	}
}

func TestWithMainPathKeepsSearch(t *testing.T) {
	base := Route{Paths: []string{"pull-requests", "x"}, Search: map[string][]string{"q": {"1"}}}
	got := base.WithMainPath(PathAuth)
	if len(got.Paths) != 1 || got.Head() != PathAuth {
		t.Fatalf("unexpected paths: %v", got.Paths)
	}
	if got.Search["q"][0] != "1" {
		t.Fatal("expected search kept")
	}
	if base.Head() != PathPullRequests {
		t.Fatal("expected original route untouched")
	}
}
