package routes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/railslens/internal/models"
)

const sampleListing = `                   Prefix Verb   URI Pattern                    Controller#Action
                    users GET    /users(.:format)               users#index
                          POST   /users(.:format)               users#create
                 new_user GET    /users/new(.:format)           users#new
                     user GET    /users/:id(.:format)           users#show
                          PATCH  /users/:id(.:format)           users#update
                          DELETE /users/:id(.:format)           users#destroy
              admin_users GET    /admin/users(.:format)         admin/users#index
                     root GET    /                              pages#home
              rails_admin        /admin                         RailsAdmin::Engine
                          GET    /old(.:format)                 redirect(301, /new)
`

func TestParseLine_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected models.Route
		ok       bool
	}{
		{
			name:     "verb pattern endpoint",
			line:     "GET /users(.:format) users#index",
			expected: models.Route{Verb: "GET", Pattern: "/users", Controller: "users", Action: "index"},
			ok:       true,
		},
		{
			name:     "helper verb pattern endpoint",
			line:     "    user GET /users/:id(.:format) users#show",
			expected: models.Route{Verb: "GET", Helper: "user", Pattern: "/users/:id", Controller: "users", Action: "show"},
			ok:       true,
		},
		{
			name:     "verb column elided",
			line:     "    legacy /legacy(.:format) pages#legacy",
			expected: models.Route{Verb: "", Helper: "legacy", Pattern: "/legacy", Controller: "pages", Action: "legacy"},
			ok:       true,
		},
		{
			name: "too few fields",
			line: "/users users#index",
			ok:   false,
		},
		{
			name: "too many fields",
			line: "users GET /users(.:format) users#index {:format=>:json}",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, route)
		})
	}
}

func TestParse_DropsMalformedLines(t *testing.T) {
	routes := Parse(sampleListing)

	lines := strings.Split(strings.TrimRight(sampleListing, "\n"), "\n")
	malformed := 3 // header, engine mount, redirect
	require.Len(t, routes, len(lines)-malformed)

	assert.Equal(t, models.Route{Verb: "POST", Pattern: "/users", Controller: "users", Action: "create"}, routes[1])
	assert.Equal(t, models.Route{Verb: "GET", Helper: "root", Pattern: "/", Controller: "pages", Action: "home"}, routes[7])
}

func TestParse_CRLF(t *testing.T) {
	routes := Parse("users GET /users(.:format) users#index\r\nuser GET /users/:id(.:format) users#show\r\n")
	require.Len(t, routes, 2)
	assert.Equal(t, "index", routes[0].Action)
	assert.Equal(t, "show", routes[1].Action)
}

func TestStripFormat(t *testing.T) {
	assert.Equal(t, "/users", StripFormat("/users(.:format)"))
	assert.Equal(t, "/", StripFormat("/"))
	assert.Equal(t, "/files/*path", StripFormat("/files/*path"))
}

func TestFindAndFilter(t *testing.T) {
	routes := Parse(sampleListing)

	users := Filter(routes, "USERS")
	assert.Len(t, users, 6)

	route, ok := Find(routes, "Users", "Index")
	require.True(t, ok)
	assert.Equal(t, "/users", route.Pattern)

	route, ok = Find(routes, "admin/users", "index")
	require.True(t, ok)
	assert.Equal(t, "/admin/users", route.Pattern)

	_, ok = Find(routes, "users", "edit")
	assert.False(t, ok)
}

func TestFind_FirstMatchWins(t *testing.T) {
	routes := Parse("users GET /users(.:format) users#index\nlist GET /list(.:format) users#index\n")
	route, ok := Find(routes, "users", "index")
	require.True(t, ok)
	assert.Equal(t, "/users", route.Pattern)
}

func TestGrepController(t *testing.T) {
	filtered := grepController(sampleListing, "Users")
	assert.Contains(t, filtered, "users#index")
	assert.Contains(t, filtered, "admin/users#index", "grep is a prefilter; exact matching happens after parsing")
	assert.NotContains(t, filtered, "pages#home")
}
