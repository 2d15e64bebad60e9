package router

import (
	"sync"

	"github.com/eleven-am/todosync/internal/logger"
)

// AuthChecker reports whether a user is signed in.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Navigator applies the auth guard to every navigation and tracks the
// current location.
type Navigator struct {
	router *Router
	auth   AuthChecker
	logger logger.Logger

	mu        sync.Mutex
	current   Location
	redirects int
}

func NewNavigator(r *Router, auth AuthChecker, log logger.Logger) *Navigator {
	if log == nil {
		log = logger.Router()
	}
	return &Navigator{router: r, auth: auth, logger: log}
}

// Router returns the route table used by the navigator.
func (n *Navigator) Router() *Router {
	return n.router
}

// Navigate resolves path and sends unauthenticated users to the login
// route when the target requires authentication.
func (n *Navigator) Navigate(path string) (Location, error) {
	loc, err := n.router.Match(path)
	if err != nil {
		return Location{}, err
	}

	if loc.Route.RequiresAuth && !n.auth.IsAuthenticated() {
		n.logger.Debug("Guard redirect", "from", path, "to", LoginPath)
		return n.redirectToLogin(path)
	}

	n.mu.Lock()
	n.current = loc
	n.mu.Unlock()
	return loc, nil
}

// RedirectToLogin forces navigation to the login route, regardless of the
// guard. Used when the server rejects the session.
func (n *Navigator) RedirectToLogin() Location {
	n.mu.Lock()
	from := n.current.Path
	n.mu.Unlock()

	n.logger.Info("Session expired, redirecting to login", "from", from)
	loc, _ := n.redirectToLogin(from)
	return loc
}

func (n *Navigator) redirectToLogin(from string) (Location, error) {
	loc, err := n.router.Match(LoginPath)
	if err != nil {
		return Location{}, err
	}
	loc.Redirected = true
	loc.From = from

	n.mu.Lock()
	n.current = loc
	n.redirects++
	n.mu.Unlock()
	return loc, nil
}

// Current returns the last resolved location.
func (n *Navigator) Current() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Redirects counts how many times navigation was sent to login.
func (n *Navigator) Redirects() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirects
}
