package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Matches(t *testing.T) {
	r := Route{Verb: "GET", Pattern: "/users", Controller: "Admin/Users", Action: "Index"}

	assert.True(t, r.Matches("admin/users", "index"))
	assert.False(t, r.Matches("users", "index"))
	assert.False(t, r.Matches("admin/users", "show"))
	assert.Equal(t, "Admin/Users#Index", r.Endpoint())
}

func TestRoute_HasDynamicSegments(t *testing.T) {
	tests := []struct {
		pattern string
		dynamic bool
	}{
		{"/users", false},
		{"/", false},
		{"/users/:id", true},
		{"/files/*path", true},
		{"/posts(/:page)", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.dynamic, Route{Pattern: tt.pattern}.HasDynamicSegments())
		})
	}
}

func TestRoute_String(t *testing.T) {
	assert.Equal(t, "GET /users users#index", Route{Verb: "GET", Pattern: "/users", Controller: "users", Action: "index"}.String())
	assert.Equal(t, "/legacy pages#legacy", Route{Pattern: "/legacy", Controller: "pages", Action: "legacy"}.String())
}

func TestCommand_Arguments(t *testing.T) {
	assert.Equal(t, []interface{}{"/app/models/user.rb"}, Command{Name: OpenFileCommand, Path: "/app/models/user.rb"}.Arguments())
	assert.Equal(t, []interface{}{"/db/schema.rb", 4, 0}, Command{Name: OpenFileAtLineCommand, Path: "/db/schema.rb", Line: 4}.Arguments())
	assert.Equal(t, []interface{}{"http://localhost:3000/"}, Command{Name: OpenURLCommand, URL: "http://localhost:3000/"}.Arguments())
	assert.Nil(t, Command{}.Arguments())
}

func TestLens_Navigable(t *testing.T) {
	assert.False(t, Lens{Title: "inert"}.Navigable())
	assert.False(t, Lens{Title: "blank", Command: &Command{}}.Navigable())
	assert.True(t, Lens{Title: "open", Command: &Command{Name: OpenFileCommand, Path: "/a.rb"}}.Navigable())
}

func TestLens_JSON(t *testing.T) {
	data, err := json.Marshal(Lens{Line: 2, Title: "🛣️ ROUTE: POST /users"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":2,"title":"🛣️ ROUTE: POST /users"}`, string(data))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\r\nb\n"))
	assert.Equal(t, []string{""}, SplitLines(""))
}
