package routes

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/utils"
	"github.com/toyz/railslens/internal/workspace"
)

type fakeRunner struct {
	stdout   string
	stderr   string
	err      error
	calls    int
	lastDir  string
	lastArgs []string
	deadline bool
}

func (f *fakeRunner) Run(ctx context.Context, dir string, command []string) ([]byte, []byte, error) {
	f.calls++
	f.lastDir = dir
	f.lastArgs = command
	_, f.deadline = ctx.Deadline()
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func quietDiagnostics() *utils.DiagnosticSystem {
	return utils.NewWriterDiagnostics(utils.DiagnosticSilent, io.Discard)
}

func TestBuilder_BuildWritesCache(t *testing.T) {
	layout := workspace.New(t.TempDir())
	runner := &fakeRunner{stdout: sampleListing}
	b := NewBuilder(quietDiagnostics(), WithRunner(runner))

	text, err := b.Build(context.Background(), layout)
	require.NoError(t, err)
	assert.Equal(t, sampleListing, text)
	assert.Equal(t, layout.Root, runner.lastDir)
	assert.Equal(t, []string{"rails", "routes"}, runner.lastArgs)
	assert.False(t, runner.deadline, "no timeout unless configured")

	data, err := os.ReadFile(layout.CacheFile())
	require.NoError(t, err)
	assert.Equal(t, sampleListing, string(data))

	entries, err := os.ReadDir(filepath.Dir(layout.CacheFile()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are renamed away")
}

func TestBuilder_FailureKeepsStaleCache(t *testing.T) {
	layout := workspace.New(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.CacheFile()), 0755))
	require.NoError(t, os.WriteFile(layout.CacheFile(), []byte("stale"), 0644))

	runner := &fakeRunner{stderr: "SyntaxError in config/routes.rb", err: fmt.Errorf("exit status 1")}
	b := NewBuilder(quietDiagnostics(), WithRunner(runner))

	_, err := b.Build(context.Background(), layout)
	require.Error(t, err)
	assert.Equal(t, errors.CommandErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "SyntaxError in config/routes.rb")

	data, readErr := os.ReadFile(layout.CacheFile())
	require.NoError(t, readErr)
	assert.Equal(t, "stale", string(data))
}

func TestBuilder_EnsureCache(t *testing.T) {
	layout := workspace.New(t.TempDir())
	runner := &fakeRunner{stdout: sampleListing}
	b := NewBuilder(quietDiagnostics(), WithRunner(runner))

	require.NoError(t, b.EnsureCache(context.Background(), layout))
	require.NoError(t, b.EnsureCache(context.Background(), layout))
	assert.Equal(t, 1, runner.calls)
}

func TestBuilder_Timeout(t *testing.T) {
	layout := workspace.New(t.TempDir())
	runner := &fakeRunner{stdout: ""}
	b := NewBuilder(quietDiagnostics(), WithRunner(runner), WithTimeout(time.Minute))

	_, err := b.Build(context.Background(), layout)
	require.NoError(t, err)
	assert.True(t, runner.deadline)
}

func TestBuilder_Command(t *testing.T) {
	writeLock := func(t *testing.T, root, version string) {
		t.Helper()
		lock := fmt.Sprintf("GEM\n  remote: https://rubygems.org/\n  specs:\n    rails (%s)\n      actionpack (= %s)\n", version, version)
		require.NoError(t, os.WriteFile(filepath.Join(root, "Gemfile.lock"), []byte(lock), 0644))
	}

	t.Run("configured command wins", func(t *testing.T) {
		layout := workspace.New(t.TempDir())
		writeLock(t, layout.Root, "4.2.11")
		b := NewBuilder(quietDiagnostics(), WithCommand([]string{"bundle", "exec", "rails", "routes"}))
		assert.Equal(t, []string{"bundle", "exec", "rails", "routes"}, b.Command(layout))
	})

	t.Run("legacy rails uses rake", func(t *testing.T) {
		layout := workspace.New(t.TempDir())
		writeLock(t, layout.Root, "4.2.11.3")
		b := NewBuilder(quietDiagnostics())
		assert.Equal(t, []string{"rake", "routes"}, b.Command(layout))
	})

	t.Run("binstub preferred", func(t *testing.T) {
		layout := workspace.New(t.TempDir())
		writeLock(t, layout.Root, "7.1.3")
		require.NoError(t, os.MkdirAll(layout.Join("bin"), 0755))
		require.NoError(t, os.WriteFile(layout.Join("bin/rails"), []byte("#!/usr/bin/env ruby\n"), 0755))
		b := NewBuilder(quietDiagnostics())
		assert.Equal(t, []string{layout.Join("bin/rails"), "routes"}, b.Command(layout))
	})

	t.Run("with keeps the original untouched", func(t *testing.T) {
		layout := workspace.New(t.TempDir())
		writeLock(t, layout.Root, "7.1.3")
		b := NewBuilder(quietDiagnostics())
		custom := b.With(WithCommand([]string{"bin/routes"}))
		assert.Equal(t, []string{"bin/routes"}, custom.Command(layout))
		assert.Equal(t, []string{"rails", "routes"}, b.Command(layout))
	})
}

func TestRailsVersion(t *testing.T) {
	tests := []struct {
		locked   string
		expected string
		ok       bool
	}{
		{"7.1.3", "v7.1.3", true},
		{"6.1.7.3", "v6.1.7", true},
		{"7.0.0.rc1", "v7.0.0", true},
		{"beta", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.locked, func(t *testing.T) {
			root := t.TempDir()
			lock := "GEM\n  specs:\n    rails (" + tt.locked + ")\n"
			require.NoError(t, os.WriteFile(filepath.Join(root, "Gemfile.lock"), []byte(lock), 0644))

			version, ok := RailsVersion(workspace.New(root))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, version)
		})
	}

	_, ok := RailsVersion(workspace.New(t.TempDir()))
	assert.False(t, ok)
}
