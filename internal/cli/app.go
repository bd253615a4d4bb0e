// Package cli implements the railslens command line.
package cli

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/toyz/railslens/internal/config"
	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/httpapi"
	"github.com/toyz/railslens/internal/lens"
	"github.com/toyz/railslens/internal/lsp"
	"github.com/toyz/railslens/internal/mcpserver"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/routes"
	"github.com/toyz/railslens/internal/utils"
	"github.com/toyz/railslens/internal/workspace"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// App runs railslens subcommands
type App struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Version string

	// Runner replaces the route enumeration command, nil runs the real one
	Runner routes.Runner
}

// NewApp creates an App bound to the process streams
func NewApp(version string) *App {
	return &App{Stdout: os.Stdout, Stderr: os.Stderr, Version: version}
}

// session is the state shared by one command invocation
type session struct {
	opts        Options
	config      config.Config
	diagnostics *utils.DiagnosticSystem
	engine      *lens.Engine
	reporter    *Reporter
}

// Run executes the command line args (without the program name) and returns the exit code
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return ExitUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "-h", "-help", "--help", "help":
		a.usage()
		return ExitOK
	case "version", "-version", "--version":
		fmt.Fprintf(a.Stdout, "railslens %s\n", a.Version)
		return ExitOK
	}

	handler, ok := a.commands()[command]
	if !ok {
		fmt.Fprintf(a.Stderr, "Error: unknown command %q\n\n", command)
		a.usage()
		return ExitUsage
	}

	var opts Options
	fs := newFlagSet(command, &opts, a.Stderr)
	if err := fs.Parse(rest); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	s, err := a.newSession(command, opts)
	if err != nil {
		NewReporter(a.Stdout, a.Stderr, opts.Verbose, false).ReportError(err)
		return ExitError
	}

	if err := handler(ctx, s, fs.Args()); err != nil {
		var usage usageError
		if stderrors.As(err, &usage) {
			fmt.Fprintf(a.Stderr, "Error: %s\n", usage.message)
			return ExitUsage
		}
		s.reporter.ReportError(err)
		return ExitError
	}
	return ExitOK
}

type commandFunc func(ctx context.Context, s *session, args []string) error

func (a *App) commands() map[string]commandFunc {
	return map[string]commandFunc{
		"lsp":     a.runLSP,
		"mcp":     a.runMCP,
		"serve":   a.runServe,
		"lenses":  a.runLenses,
		"routes":  a.runRoutes,
		"rebuild": a.runRebuild,
		"clean":   a.runClean,
	}
}

type usageError struct {
	message string
}

func (e usageError) Error() string { return e.message }

func (a *App) usage() {
	w := a.Stderr
	fmt.Fprintf(w, "Usage: railslens <command> [options] [arguments]\n\n")
	fmt.Fprintf(w, "Code lenses for Rails projects: routes, views, models and schema.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  lsp                  Run the language server on stdio\n")
	fmt.Fprintf(w, "  mcp                  Run the MCP server on stdio\n")
	fmt.Fprintf(w, "  serve                Serve the HTTP API\n")
	fmt.Fprintf(w, "  lenses <path>...     Print the lenses of files, directories or dir/... patterns\n")
	fmt.Fprintf(w, "  routes [controller]  Print the cached route table\n")
	fmt.Fprintf(w, "  rebuild              Regenerate the cached route table\n")
	fmt.Fprintf(w, "  clean                Delete the cached route table\n")
	fmt.Fprintf(w, "  version              Print the version\n")
	fmt.Fprintf(w, "\nOptions:\n")

	var opts Options
	fs := newFlagSet("railslens", &opts, w)
	fs.PrintDefaults()

	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  railslens lenses app/controllers/users_controller.rb\n")
	fmt.Fprintf(w, "  railslens lenses app/...\n")
	fmt.Fprintf(w, "  railslens routes -json admin/users\n")
	fmt.Fprintf(w, "  railslens serve -workspace ~/src/shop -addr :7333\n")
}

func (a *App) newSession(command string, opts Options) (*session, error) {
	cfg, err := a.loadConfig(command, opts)
	if err != nil {
		return nil, err
	}

	// stdout carries the protocol for lsp and mcp, logs always go to stderr
	var diagnostics *utils.DiagnosticSystem
	if a.Stderr == os.Stderr {
		diagnostics = utils.NewStderrDiagnostics(cfg.LogLevel)
	} else {
		diagnostics = utils.NewWriterDiagnostics(cfg.LogLevel, a.Stderr)
	}

	var engineOpts []lens.EngineOption
	if a.Runner != nil {
		engineOpts = append(engineOpts, lens.WithBuilder(routes.NewBuilder(diagnostics, routes.WithRunner(a.Runner))))
	}
	engine, err := lens.NewEngine(cfg, diagnostics, engineOpts...)
	if err != nil {
		return nil, err
	}

	colors := a.Stdout == os.Stdout && diagnostics.Level() > utils.DiagnosticSilent && os.Getenv("NO_COLOR") == ""
	reporter := NewReporter(a.Stdout, a.Stderr, opts.Verbose, colors)

	diagnostics.Debug("%s: workspace %s, providers %v", command, cfg.Workspace, engine.Providers())
	return &session{
		opts:        opts,
		config:      cfg,
		diagnostics: diagnostics,
		engine:      engine,
		reporter:    reporter,
	}, nil
}

// loadConfig reads the configuration of the workspace flag or the current directory.
// Without -workspace the language server learns its roots from the client, so it
// starts from the process environment only.
func (a *App) loadConfig(command string, opts Options) (config.Config, error) {
	root := opts.Workspace
	if root == "" && command != "lsp" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		root = wd
	}

	cfg, err := config.Load(root)
	if err != nil {
		return cfg, err
	}
	opts.apply(&cfg)
	return cfg, nil
}

func (a *App) runLSP(ctx context.Context, s *session, _ []string) error {
	var serverOpts []lsp.ServerOption
	if s.opts.Workspace == "" {
		serverOpts = append(serverOpts, lsp.WithConfigLoader(func(root string) (config.Config, error) {
			cfg, err := config.Load(root)
			if err != nil {
				return cfg, err
			}
			s.opts.apply(&cfg)
			return cfg, nil
		}))
	}
	server := lsp.NewServer(s.engine, s.diagnostics, a.Version, serverOpts...)
	s.diagnostics.Verbose("Language server listening on stdio")
	return server.Serve(ctx, lsp.Stdio())
}

func (a *App) runMCP(ctx context.Context, s *session, _ []string) error {
	s.engine.Activate(ctx)
	s.diagnostics.Verbose("MCP server listening on stdio")
	return mcpserver.Serve(mcpserver.New(s.engine, s.diagnostics, a.Version))
}

func (a *App) runServe(ctx context.Context, s *session, _ []string) error {
	s.engine.Activate(ctx)
	server := httpapi.NewServer(s.engine, s.diagnostics, a.Version)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(s.config.HTTPAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.diagnostics.Info("Shutting down HTTP API")
		return server.Stop(shutdownCtx)
	}
}

func (a *App) runLenses(ctx context.Context, s *session, args []string) error {
	if len(args) == 0 {
		return usageError{message: "lenses needs at least one file, directory or dir/... pattern"}
	}

	files, err := NewDirectoryScanner().Expand(args)
	if err != nil {
		return err
	}

	layout := workspace.New(s.config.Workspace)
	results := make(map[string][]models.Lens, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapFileSystemError("read", path, err)
		}

		found := s.engine.Scan(ctx, models.Document{Path: path, Text: string(data)})
		name := path
		if rel, ok := layout.Rel(path); ok {
			name = rel
		}

		if s.opts.JSON {
			results[name] = nonNil(found)
			continue
		}
		// directory patterns only list files that have lenses
		if len(found) == 0 && len(files) > 1 {
			continue
		}
		s.reporter.PrintLenses(name, found)
	}

	if s.opts.JSON {
		return s.reporter.PrintJSON(results)
	}
	return nil
}

func (a *App) runRoutes(_ context.Context, s *session, args []string) error {
	if len(args) > 1 {
		return usageError{message: "routes takes at most one controller"}
	}
	controller := ""
	if len(args) == 1 {
		controller = args[0]
	}

	found, err := s.engine.Routes(s.config.Workspace, controller)
	if err != nil {
		return err
	}

	if s.opts.JSON {
		return s.reporter.PrintJSON(nonNil(found))
	}
	s.reporter.PrintRoutes(found)
	return nil
}

func (a *App) runRebuild(ctx context.Context, s *session, _ []string) error {
	s.diagnostics.Section("Rebuilding routes")
	started := time.Now()

	found, err := s.engine.Rebuild(ctx, s.config.Workspace)
	if err != nil {
		return err
	}

	if s.opts.JSON {
		return s.reporter.PrintJSON(nonNil(found))
	}

	controllers := make(map[string]int)
	for _, route := range found {
		controllers[route.Controller]++
	}
	s.diagnostics.Summary("Route table rebuilt", []string{"Routes", "Controllers", "Duration"}, map[string]interface{}{
		"Routes":      len(found),
		"Controllers": len(controllers),
		"Duration":    time.Since(started).Round(time.Millisecond),
	})

	if s.opts.Verbose && len(controllers) > 0 {
		names := make([]string, 0, len(controllers))
		for name := range controllers {
			names = append(names, name)
		}
		sort.Strings(names)

		s.diagnostics.Section("\nControllers")
		s.diagnostics.Indent()
		for _, name := range names {
			s.diagnostics.List("%s (%d routes)", name, controllers[name])
		}
		s.diagnostics.Unindent()
	}
	return nil
}

func (a *App) runClean(_ context.Context, s *session, _ []string) error {
	removed, err := NewCleaner().CleanRouteCaches([]string{s.config.Workspace})
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		s.diagnostics.Info("No route listing to remove")
		return nil
	}
	for _, path := range removed {
		s.diagnostics.Success("Removed %s", path)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
