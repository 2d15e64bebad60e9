package router

import (
	"testing"

	"github.com/eleven-am/todosync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth bool

func (f fakeAuth) IsAuthenticated() bool { return bool(f) }

func TestMatch(t *testing.T) {
	r := Default()

	tests := []struct {
		path     string
		wantName string
		params   map[string]string
		wantErr  bool
	}{
		{path: "/", wantName: RouteHome, params: map[string]string{}},
		{path: "/login", wantName: RouteLogin, params: map[string]string{}},
		{path: "/todos/42", wantName: RouteTodoDetail, params: map[string]string{"id": "42"}},
		{path: "/todos/abc", wantErr: true},
		{path: "/nowhere", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc, err := r.Match(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoRoute)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, loc.Route.Name)
			assert.Equal(t, tt.params, loc.Params)
			assert.Equal(t, tt.path, loc.Path)
		})
	}
}

func TestPath(t *testing.T) {
	r := Default()

	p, err := r.Path(RouteTodoDetail, "id", "7")
	require.NoError(t, err)
	assert.Equal(t, "/todos/7", p)

	_, err = r.Path(RouteTodoDetail, "id", "seven")
	assert.Error(t, err)

	_, err = r.Path("missing")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		name         string
		authed       bool
		path         string
		wantRoute    string
		wantRedirect bool
	}{
		{name: "anonymous to protected", authed: false, path: "/", wantRoute: RouteLogin, wantRedirect: true},
		{name: "anonymous to detail", authed: false, path: "/todos/3", wantRoute: RouteLogin, wantRedirect: true},
		{name: "anonymous to login", authed: false, path: "/login", wantRoute: RouteLogin},
		{name: "authenticated to protected", authed: true, path: "/todos/3", wantRoute: RouteTodoDetail},
		{name: "authenticated to login", authed: true, path: "/login", wantRoute: RouteLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := NewNavigator(Default(), fakeAuth(tt.authed), logger.Nop())

			loc, err := nav.Navigate(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoute, loc.Route.Name)
			assert.Equal(t, tt.wantRedirect, loc.Redirected)
			if tt.wantRedirect {
				assert.Equal(t, tt.path, loc.From)
				assert.Equal(t, 1, nav.Redirects())
			} else {
				assert.Equal(t, 0, nav.Redirects())
			}
			assert.Equal(t, loc, nav.Current())
		})
	}

	t.Run("unknown path", func(t *testing.T) {
		nav := NewNavigator(Default(), fakeAuth(true), logger.Nop())
		_, err := nav.Navigate("/bogus")
		assert.ErrorIs(t, err, ErrNoRoute)
	})
}

func TestRedirectToLogin(t *testing.T) {
	nav := NewNavigator(Default(), fakeAuth(true), logger.Nop())
	_, err := nav.Navigate("/todos/9")
	require.NoError(t, err)

	loc := nav.RedirectToLogin()
	assert.Equal(t, RouteLogin, loc.Route.Name)
	assert.True(t, loc.Redirected)
	assert.Equal(t, "/todos/9", loc.From)
	assert.Equal(t, 1, nav.Redirects())
	assert.Equal(t, LoginPath, nav.Current().Path)
}
