package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/railslens/internal/utils"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvShowRoutes, EnvShowModels, EnvShowTables, EnvShowControllers, EnvShowRouteURLs,
		EnvBaseURL, EnvRoutesCommand, EnvRoutesTimeout, EnvRouteCacheSize, EnvHTTPAddr, EnvLogLevel,
	} {
		if v, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Workspace)
	assert.True(t, cfg.ShowRoutes)
	assert.True(t, cfg.ShowModels)
	assert.True(t, cfg.ShowTables)
	assert.True(t, cfg.ShowControllers)
	assert.False(t, cfg.ShowRouteURLs)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Nil(t, cfg.RoutesCommand)
	assert.Zero(t, cfg.RoutesTimeout)
	assert.Equal(t, utils.DiagnosticInfo, cfg.LogLevel)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	envFile := "RAILSLENS_SHOW_TABLES=false\n" +
		"RAILSLENS_ROUTES_COMMAND=bundle exec rails routes\n" +
		"RAILSLENS_BASE_URL=http://shop.test:3000/\n" +
		"RAILSLENS_ROUTES_TIMEOUT=45s\n" +
		"RAILSLENS_LOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, EnvFileName), []byte(envFile), 0644))

	t.Setenv(EnvShowTables, "true")
	t.Setenv(EnvShowRouteURLs, "1")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.True(t, cfg.ShowTables, "process environment wins over the env file")
	assert.True(t, cfg.ShowRouteURLs)
	assert.Equal(t, []string{"bundle", "exec", "rails", "routes"}, cfg.RoutesCommand)
	assert.Equal(t, "http://shop.test:3000", cfg.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.RoutesTimeout)
	assert.Equal(t, utils.DiagnosticDebug, cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvShowModels, "sometimes")
	t.Setenv(EnvRouteCacheSize, "-3")

	cfg, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvShowModels)
	assert.Contains(t, err.Error(), EnvRouteCacheSize)
	assert.True(t, cfg.ShowModels, "invalid values keep the default")
}

func TestAnyProviderEnabled(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.AnyProviderEnabled())

	cfg.ShowRoutes, cfg.ShowModels, cfg.ShowTables, cfg.ShowControllers = false, false, false, false
	assert.False(t, cfg.AnyProviderEnabled())
}
