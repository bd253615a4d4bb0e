package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	root := filepath.FromSlash("/srv/shop")
	l := New(root)

	assert.Equal(t, filepath.Join(root, "Gemfile"), l.Gemfile())
	assert.Equal(t, filepath.Join(root, "tmp", "routes_file.txt"), l.CacheFile())
	assert.Equal(t, filepath.Join(root, "db", "schema.rb"), l.SchemaFile())
	assert.Equal(t, filepath.Join(root, "app", "controllers", "admin", "users_controller.rb"), l.ControllerFile("admin/users"))
	assert.Equal(t, filepath.Join(root, "app", "models", "line_item.rb"), l.ModelFile("line_item"))
	assert.Equal(t, []string{
		filepath.Join(root, "app", "views", "users", "show.html.erb"),
		filepath.Join(root, "app", "views", "users", "show.json.jbuilder"),
	}, l.ViewCandidates("users", "show"))
}

func TestLayout_IsRailsProject(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	assert.False(t, l.IsRailsProject())

	require.NoError(t, os.WriteFile(filepath.Join(root, "Gemfile"), []byte("source 'https://rubygems.org'\n"), 0644))
	assert.True(t, l.IsRailsProject())
}

func TestLayout_ControllerForFile(t *testing.T) {
	root := filepath.FromSlash("/srv/shop")
	l := New(root)

	tests := []struct {
		file     string
		expected string
		ok       bool
	}{
		{"app/controllers/users_controller.rb", "users", true},
		{"app/controllers/admin/users_controller.rb", "admin/users", true},
		{"app/controllers/application_controller.rb", "", false},
		{"app/models/user.rb", "", false},
		{"app/controllers/users_controller.rb.bak", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			controller, ok := l.ControllerForFile(filepath.Join(root, filepath.FromSlash(tt.file)))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, controller)
		})
	}

	controller, ok := l.ControllerForFile(filepath.FromSlash("/elsewhere/orders_controller.rb"))
	assert.True(t, ok)
	assert.Equal(t, "orders", controller)
}

func TestLayout_ViewTarget(t *testing.T) {
	root := filepath.FromSlash("/srv/shop")
	l := New(root)

	tests := []struct {
		file       string
		controller string
		action     string
		ok         bool
	}{
		{"app/views/users/show.html.erb", "users", "show", true},
		{"app/views/admin/users/index.json.jbuilder", "admin/users", "index", true},
		{"app/views/layouts/application.html.erb", "layouts", "application", true},
		{"app/views/index.html.erb", "", "", false},
		{"app/models/user.rb", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			controller, action, ok := l.ViewTarget(filepath.Join(root, filepath.FromSlash(tt.file)))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.controller, controller)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestLayout_FileKinds(t *testing.T) {
	root := filepath.FromSlash("/srv/shop")
	l := New(root)
	at := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	assert.True(t, l.IsSchemaFile(at("db/schema.rb")))
	assert.False(t, l.IsSchemaFile(at("vendor/db/schema.rb")))
	assert.True(t, l.IsRoutesFile(at("config/routes.rb")))
	assert.True(t, l.IsModelFile(at("app/models/user.rb")))
	assert.True(t, l.IsModelFile(at("app/models/billing/invoice.rb")))
	assert.False(t, l.IsModelFile(at("app/models/concerns/trackable.rb")))
	assert.False(t, l.IsModelFile(at("app/models/README.md")))
}

func TestResolve(t *testing.T) {
	a := filepath.FromSlash("/srv/shop")
	b := filepath.FromSlash("/srv/shop/engines/billing")
	file := filepath.Join(b, "app", "models", "invoice.rb")

	assert.Equal(t, b, Resolve([]string{a, b}, file))
	assert.Equal(t, a, Resolve([]string{a, b}, filepath.Join(a, "Gemfile")))
	assert.Equal(t, "", Resolve([]string{a}, filepath.FromSlash("/tmp/other.rb")))
}
