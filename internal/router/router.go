package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Route names and paths known to the client.
const (
	RouteHome       = "home"
	RouteLogin      = "login"
	RouteTodoDetail = "todo-detail"

	LoginPath = "/login"
)

// ErrNoRoute is returned when a path matches no registered route.
var ErrNoRoute = errors.New("no route matches path")

// Route is a named client-side destination.
type Route struct {
	Name         string
	Path         string // mux template, e.g. /todos/{id:[0-9]+}
	RequiresAuth bool
}

// Location is a resolved navigation target.
type Location struct {
	Route      Route
	Path       string
	Params     map[string]string
	Redirected bool   // true when the guard sent us elsewhere
	From       string // originally requested path when Redirected
}

// Router resolves paths to routes using mux's matcher.
type Router struct {
	mux    *mux.Router
	routes map[string]Route
}

// DefaultRoutes is the client's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/", RequiresAuth: true},
		{Name: RouteLogin, Path: LoginPath},
		{Name: RouteTodoDetail, Path: "/todos/{id:[0-9]+}", RequiresAuth: true},
	}
}

func New(routes ...Route) *Router {
	r := &Router{
		mux:    mux.NewRouter(),
		routes: make(map[string]Route, len(routes)),
	}
	for _, route := range routes {
		r.mux.NewRoute().Name(route.Name).Path(route.Path)
		r.routes[route.Name] = route
	}
	return r
}

// Default returns a Router with DefaultRoutes.
func Default() *Router {
	return New(DefaultRoutes()...)
}

// Match resolves path without applying any guard.
func (r *Router) Match(path string) (Location, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return Location{}, fmt.Errorf("invalid path %q: %w", path, err)
	}

	var m mux.RouteMatch
	if !r.mux.Match(req, &m) || m.Route == nil {
		return Location{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
	}

	route := r.routes[m.Route.GetName()]
	params := m.Vars
	if params == nil {
		params = map[string]string{}
	}
	return Location{Route: route, Path: req.URL.Path, Params: params}, nil
}

// Path builds the path of a named route from key/value parameters.
func (r *Router) Path(name string, pairs ...string) (string, error) {
	route := r.mux.Get(name)
	if route == nil {
		return "", fmt.Errorf("%w: %s", ErrNoRoute, name)
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}
