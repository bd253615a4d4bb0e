package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/testutil"
	"github.com/toyz/railslens/internal/workspace"
)

type run struct {
	code   int
	stdout string
	stderr string
}

func runApp(t *testing.T, runner *testutil.Runner, args ...string) run {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := &App{Stdout: &stdout, Stderr: &stderr, Version: "1.2.3", Runner: runner}
	code := app.Run(context.Background(), args)
	return run{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestApp_Usage(t *testing.T) {
	result := runApp(t, nil)
	assert.Equal(t, ExitUsage, result.code)
	assert.Contains(t, result.stderr, "Usage: railslens <command>")
	assert.Contains(t, result.stderr, "-workspace")

	result = runApp(t, nil, "help")
	assert.Equal(t, ExitOK, result.code)

	result = runApp(t, nil, "version")
	assert.Equal(t, ExitOK, result.code)
	assert.Equal(t, "railslens 1.2.3\n", result.stdout)

	result = runApp(t, nil, "deploy")
	assert.Equal(t, ExitUsage, result.code)
	assert.Contains(t, result.stderr, `unknown command "deploy"`)

	result = runApp(t, nil, "routes", "-bogus")
	assert.Equal(t, ExitUsage, result.code)
}

func TestApp_Lenses(t *testing.T) {
	root := testutil.WriteArchive(t, testutil.RailsApp)

	t.Run("text output", func(t *testing.T) {
		result := runApp(t, &testutil.Runner{}, "lenses", "-quiet", "-workspace", root,
			filepath.Join(root, "app", "controllers", "users_controller.rb"))
		require.Equal(t, ExitOK, result.code, result.stderr)
		assert.Contains(t, result.stdout, "app/controllers/users_controller.rb\n")
		assert.Contains(t, result.stdout, "🛣️ ROUTE: GET /users ⏿")
		assert.Contains(t, result.stdout, "🛣️ ROUTE: POST /users")
	})

	t.Run("json output over a pattern", func(t *testing.T) {
		result := runApp(t, &testutil.Runner{}, "lenses", "-quiet", "-json", "-workspace", root,
			filepath.Join(root, "app", "models")+"/...")
		require.Equal(t, ExitOK, result.code, result.stderr)

		var lenses map[string][]models.Lens
		require.NoError(t, json.Unmarshal([]byte(result.stdout), &lenses))
		assert.Len(t, lenses["app/models/user.rb"], 1)
		assert.Len(t, lenses["app/models/admin.rb"], 1)
		assert.Empty(t, lenses["app/models/post.rb"])
	})

	t.Run("url lenses flag", func(t *testing.T) {
		result := runApp(t, &testutil.Runner{}, "lenses", "-quiet", "-urls", "-workspace", root,
			filepath.Join(root, "app", "controllers", "users_controller.rb"))
		require.Equal(t, ExitOK, result.code, result.stderr)
		assert.Contains(t, result.stdout, "http://localhost:3000/users")
	})

	t.Run("needs a path", func(t *testing.T) {
		result := runApp(t, &testutil.Runner{}, "lenses", "-workspace", root)
		assert.Equal(t, ExitUsage, result.code)
	})

	t.Run("missing file", func(t *testing.T) {
		result := runApp(t, &testutil.Runner{}, "lenses", "-workspace", root, filepath.Join(root, "nope.rb"))
		assert.Equal(t, ExitError, result.code)
		assert.Contains(t, result.stderr, "File System Error")
	})
}

func TestApp_Routes(t *testing.T) {
	root := testutil.WriteArchive(t, testutil.RailsApp)

	result := runApp(t, &testutil.Runner{}, "routes", "-quiet", "-json", "-workspace", root, "users")
	require.Equal(t, ExitOK, result.code, result.stderr)

	var found []models.Route
	require.NoError(t, json.Unmarshal([]byte(result.stdout), &found))
	assert.Len(t, found, 3)

	result = runApp(t, &testutil.Runner{}, "routes", "-quiet", "-workspace", root)
	require.Equal(t, ExitOK, result.code, result.stderr)
	assert.Contains(t, result.stdout, "admin/users#index")

	result = runApp(t, &testutil.Runner{}, "routes", "-workspace", root, "users", "posts")
	assert.Equal(t, ExitUsage, result.code)
}

func TestApp_RebuildAndClean(t *testing.T) {
	root := testutil.WriteArchive(t, testutil.RailsApp)
	listing := "people GET /people(.:format) people#index\n  person GET /people/:id(.:format) people#show\n"

	result := runApp(t, &testutil.Runner{Stdout: listing}, "rebuild", "-workspace", root)
	require.Equal(t, ExitOK, result.code, result.stderr)
	assert.Contains(t, result.stderr, "Route table rebuilt")
	assert.Contains(t, result.stderr, "Routes: 2")
	assert.Contains(t, result.stderr, "Controllers: 1")
	assert.Equal(t, listing, testutil.ReadFile(t, root, workspace.RoutesCacheFile))

	result = runApp(t, &testutil.Runner{}, "clean", "-workspace", root)
	require.Equal(t, ExitOK, result.code, result.stderr)
	assert.False(t, workspace.Exists(workspace.New(root).CacheFile()))

	result = runApp(t, &testutil.Runner{}, "routes", "-workspace", root)
	assert.Equal(t, ExitError, result.code)
}

func TestApp_RebuildVerboseListsControllers(t *testing.T) {
	root := testutil.WriteArchive(t, testutil.RailsApp)
	listing := "people GET /people(.:format) people#index\n  person GET /people/:id(.:format) people#show\nposts GET /posts(.:format) posts#index\n"

	result := runApp(t, &testutil.Runner{Stdout: listing}, "rebuild", "-verbose", "-workspace", root)
	require.Equal(t, ExitOK, result.code, result.stderr)
	assert.Contains(t, result.stderr, "  - people (2 routes)\n  - posts (1 routes)\n")
}

func TestApp_RebuildFailure(t *testing.T) {
	root := testutil.WriteArchive(t, testutil.RailsApp)
	runner := &testutil.Runner{Stderr: "Bundler::GemNotFound", Err: stderrors.New("exit status 7")}

	result := runApp(t, runner, "rebuild", "-workspace", root)
	assert.Equal(t, ExitError, result.code)
	assert.Contains(t, result.stderr, "Route Command Failed")
	assert.Contains(t, result.stderr, "Bundler::GemNotFound")
}

func TestApp_LanguageServerSessionHasNoImplicitWorkspace(t *testing.T) {
	app := &App{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Runner: &testutil.Runner{}}

	s, err := app.newSession("lsp", Options{})
	require.NoError(t, err)
	assert.Empty(t, s.engine.Workspaces())

	root := testutil.WriteArchive(t, testutil.RailsApp)
	s, err = app.newSession("lsp", Options{Workspace: root})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, s.engine.Workspaces())

	wd, err := os.Getwd()
	require.NoError(t, err)
	s, err = app.newSession("routes", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{wd}, s.engine.Workspaces())
}
