package routes

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/utils"
	"github.com/toyz/railslens/internal/workspace"
)

// Runner executes an external command in dir
type Runner interface {
	Run(ctx context.Context, dir string, command []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, dir string, command []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// legacyRoutesVersion is the first Rails release that ships `rails routes`
const legacyRoutesVersion = "v5.0.0"

var railsLockPattern = regexp.MustCompile(`(?m)^ {4}rails \(([^)]+)\)`)

// Builder regenerates the cached route listing of a workspace
type Builder struct {
	runner      Runner
	command     []string
	timeout     time.Duration
	diagnostics *utils.DiagnosticSystem
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithRunner replaces the command runner
func WithRunner(r Runner) BuilderOption {
	return func(b *Builder) { b.runner = r }
}

// WithCommand fixes the enumeration command instead of detecting it
func WithCommand(command []string) BuilderOption {
	return func(b *Builder) { b.command = command }
}

// WithTimeout bounds each command run. Zero means no timeout.
func WithTimeout(d time.Duration) BuilderOption {
	return func(b *Builder) { b.timeout = d }
}

// NewBuilder creates a route listing builder
func NewBuilder(diagnostics *utils.DiagnosticSystem, opts ...BuilderOption) *Builder {
	b := &Builder{
		runner:      ExecRunner{},
		diagnostics: diagnostics,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// With returns a copy of the builder with opts applied on top of its settings
func (b *Builder) With(opts ...BuilderOption) *Builder {
	clone := *b
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Command returns the enumeration command for the workspace
func (b *Builder) Command(layout workspace.Layout) []string {
	if len(b.command) > 0 {
		return b.command
	}

	if version, ok := RailsVersion(layout); ok && semver.Compare(version, legacyRoutesVersion) < 0 {
		return []string{"rake", "routes"}
	}

	if binstub := layout.Join("bin/rails"); workspace.IsFile(binstub) {
		return []string{binstub, "routes"}
	}
	return []string{"rails", "routes"}
}

// Build runs the enumeration command in the workspace root and replaces the cache file
// with its output. On failure the previous cache file is left untouched.
func (b *Builder) Build(ctx context.Context, layout workspace.Layout) (string, error) {
	command := b.Command(layout)
	commandLine := strings.Join(command, " ")

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	b.diagnostics.Verbose("Running '%s' in %s", commandLine, layout.Root)
	started := time.Now()

	stdout, stderr, err := b.runner.Run(ctx, layout.Root, command)
	if err != nil {
		return "", errors.WrapCommandError(commandLine, string(stderr), err).
			WithLocation(errors.SourceLocation{File: layout.RoutesFile()})
	}

	if err := writeAtomic(layout.CacheFile(), stdout); err != nil {
		return "", err
	}

	b.diagnostics.Debug("Route listing rebuilt in %s (%d bytes)", time.Since(started).Round(time.Millisecond), len(stdout))
	return string(stdout), nil
}

// EnsureCache builds the cache file only when it does not exist yet
func (b *Builder) EnsureCache(ctx context.Context, layout workspace.Layout) error {
	if workspace.Exists(layout.CacheFile()) {
		return nil
	}
	_, err := b.Build(ctx, layout)
	return err
}

// RailsVersion reads the locked rails version from Gemfile.lock as a semver string ("v7.1.3")
func RailsVersion(layout workspace.Layout) (string, bool) {
	data, err := os.ReadFile(layout.GemfileLock())
	if err != nil {
		return "", false
	}

	match := railsLockPattern.FindSubmatch(data)
	if match == nil {
		return "", false
	}
	return toSemver(string(match[1]))
}

// toSemver keeps the leading numeric components of a gem version, e.g. 6.1.7.3 -> v6.1.7
func toSemver(version string) (string, bool) {
	var parts []string
	for _, part := range strings.Split(version, ".") {
		if part == "" || strings.Trim(part, "0123456789") != "" || len(parts) == 3 {
			break
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "", false
	}

	v := "v" + strings.Join(parts, ".")
	return v, semver.IsValid(v)
}

// writeAtomic writes data to a sibling temporary file and renames it over path,
// so readers see either the old or the new listing, never a partial one.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapFileSystemError("create directory for", path, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.WrapFileSystemError("write", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapFileSystemError("replace", path, err)
	}
	return nil
}
