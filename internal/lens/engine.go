package lens

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/railslens/internal/config"
	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/routes"
	"github.com/toyz/railslens/internal/utils"
	"github.com/toyz/railslens/internal/workspace"
)

// Notifier surfaces warnings to the user of a host (editor popup, tool error, ...)
type Notifier interface {
	Warn(message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string)

// Warn implements Notifier
func (f NotifierFunc) Warn(message string) { f(message) }

// Engine runs the enabled providers over documents and owns the route cache of
// every known workspace. Provider failures never escape Scan.
type Engine struct {
	sources     *SourceCache
	diagnostics *utils.DiagnosticSystem

	mu            sync.RWMutex
	builder       *routes.Builder
	store         *routes.Store
	providers     []Provider
	keepProviders bool
	roots         []string
	notifier      Notifier
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithNotifier sets the warning sink
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithBuilder replaces the route listing builder. The configured routes command
// and timeout are still applied on top of it.
func WithBuilder(b *routes.Builder) EngineOption {
	return func(e *Engine) { e.builder = b }
}

// WithProviders replaces the provider list derived from the configuration
func WithProviders(providers ...Provider) EngineOption {
	return func(e *Engine) {
		e.providers = providers
		e.keepProviders = true
	}
}

// NewEngine creates an engine for cfg. Providers run in the fixed order route,
// model, table, controller, skipping the disabled ones.
func NewEngine(cfg config.Config, diagnostics *utils.DiagnosticSystem, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		builder:     routes.NewBuilder(diagnostics),
		sources:     NewSourceCache(),
		diagnostics: diagnostics,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.Reconfigure(cfg); err != nil {
		return nil, err
	}
	if cfg.Workspace != "" {
		e.AddWorkspace(cfg.Workspace)
	}
	return e, nil
}

// Reconfigure applies cfg to the provider set, the route cache and the routes
// command. Registered workspaces are kept and cached routes are dropped.
func (e *Engine) Reconfigure(cfg config.Config) error {
	store, err := routes.NewStore(cfg.RouteCacheSize)
	if err != nil {
		return err
	}

	var providers []Provider
	if cfg.ShowRoutes {
		providers = append(providers, NewRouteProvider(store, cfg.ShowRouteURLs, cfg.BaseURL))
	}
	if cfg.ShowModels {
		providers = append(providers, NewModelProvider())
	}
	if cfg.ShowTables {
		providers = append(providers, NewTableProvider(e.sources))
	}
	if cfg.ShowControllers {
		providers = append(providers, NewControllerProvider(e.sources))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.builder = e.builder.With(
		routes.WithCommand(cfg.RoutesCommand),
		routes.WithTimeout(cfg.RoutesTimeout),
	)
	e.store = store
	if !e.keepProviders {
		e.providers = providers
	}
	return nil
}

type components struct {
	builder   *routes.Builder
	store     *routes.Store
	providers []Provider
}

func (e *Engine) components() components {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return components{builder: e.builder, store: e.store, providers: e.providers}
}

// Providers returns the names of the enabled providers in run order
func (e *Engine) Providers() []string {
	providers := e.components().providers
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

// SetNotifier replaces the warning sink
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// AddWorkspace registers a workspace root
func (e *Engine) AddWorkspace(root string) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.roots {
		if existing == root {
			return
		}
	}
	e.roots = append(e.roots, root)
	sort.Strings(e.roots)
}

// Workspaces returns the registered workspace roots
func (e *Engine) Workspaces() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.roots...)
}

// Workspace resolves a requested workspace root. An empty request selects the only
// registered workspace.
func (e *Engine) Workspace(requested string) (string, error) {
	if requested != "" {
		abs, err := filepath.Abs(requested)
		if err != nil {
			return "", errors.WrapConfigurationError("workspace", err)
		}
		return abs, nil
	}

	roots := e.Workspaces()
	switch len(roots) {
	case 0:
		return "", errors.ConfigurationError("workspace", "no workspace configured")
	case 1:
		return roots[0], nil
	default:
		return "", errors.ConfigurationError("workspace", fmt.Sprintf("several workspaces are open (%s)", strings.Join(roots, ", ")))
	}
}

// Layout returns the layout of the workspace containing path
func (e *Engine) Layout(path string) (workspace.Layout, bool) {
	root := workspace.Resolve(e.Workspaces(), path)
	if root == "" {
		return workspace.Layout{}, false
	}
	return workspace.New(root), true
}

// Scan derives the lenses of doc from every applicable provider. A provider that
// fails or panics contributes nothing and raises a warning.
func (e *Engine) Scan(ctx context.Context, doc models.Document) []models.Lens {
	layout, ok := e.documentLayout(doc)
	if !ok || !layout.IsRailsProject() {
		return nil
	}

	var lenses []models.Lens
	for _, provider := range e.components().providers {
		if !provider.Applies(layout, doc) {
			continue
		}

		found, err := e.scanProvider(ctx, provider, layout, doc)
		if err != nil && ctx.Err() != nil {
			e.diagnostics.Debug("%s: %s scan cancelled", doc.Path, provider.Name())
			continue
		}
		if err != nil {
			e.warn(fmt.Sprintf("railslens: %s lenses unavailable: %v", provider.Name(), err))
			continue
		}
		e.diagnostics.Debug("%s: %d %s lens(es)", doc.Path, len(found), provider.Name())
		lenses = append(lenses, found...)
	}
	return lenses
}

func (e *Engine) scanProvider(ctx context.Context, provider Provider, layout workspace.Layout, doc models.Document) (lenses []models.Lens, err error) {
	defer func() {
		if r := recover(); r != nil {
			lenses = nil
			err = errors.WrapScanError(provider.Name(), doc.Path, fmt.Errorf("panic: %v", r))
		}
	}()

	lenses, err = provider.Scan(ctx, layout, doc)
	if err != nil {
		return nil, errors.WrapScanError(provider.Name(), doc.Path, err)
	}
	return lenses, nil
}

func (e *Engine) documentLayout(doc models.Document) (workspace.Layout, bool) {
	if doc.Workspace != "" {
		return workspace.New(doc.Workspace), true
	}
	return e.Layout(doc.Path)
}

// Activate builds the route listing of every Rails workspace that has none yet.
// Failures are reported as warnings.
func (e *Engine) Activate(ctx context.Context) {
	for _, root := range e.Workspaces() {
		layout := workspace.New(root)
		if !layout.IsRailsProject() {
			e.diagnostics.Verbose("%s is not a Rails project, lenses disabled", root)
			continue
		}
		if err := e.components().builder.EnsureCache(ctx, layout); err != nil {
			e.warn(fmt.Sprintf("railslens: could not build routes for %s: %v", root, err))
		}
	}
}

// OnSave forgets the cached source of path and rebuilds the route listing when
// path is a workspace's routes file. It reports whether a rebuild was attempted.
func (e *Engine) OnSave(ctx context.Context, path string) bool {
	e.sources.Delete(path)

	layout, ok := e.Layout(path)
	if !ok || !layout.IsRoutesFile(path) || !layout.IsRailsProject() {
		return false
	}
	if _, err := e.Rebuild(ctx, layout.Root); err != nil {
		e.warn(fmt.Sprintf("railslens: could not rebuild routes: %v", err))
	}
	return true
}

// Rebuild regenerates the route listing of the workspace at root and drops its
// cached routes. On failure the previous listing stays in place.
func (e *Engine) Rebuild(ctx context.Context, root string) ([]models.Route, error) {
	layout := workspace.New(root)
	c := e.components()
	text, err := c.builder.Build(ctx, layout)
	if err != nil {
		return nil, err
	}

	dropped := c.store.Invalidate(layout.Root)
	e.diagnostics.Verbose("Route listing of %s rebuilt, %d cached controller(s) dropped", layout.Root, dropped)
	return routes.Parse(text), nil
}

// Routes lists the cached routes of the workspace at root, restricted to controller
// when it is not empty
func (e *Engine) Routes(root, controller string) ([]models.Route, error) {
	layout := workspace.New(root)
	if controller != "" {
		return e.components().store.Routes(layout, controller)
	}
	return routes.All(layout)
}

func (e *Engine) warn(message string) {
	e.diagnostics.Warn("%s", message)

	e.mu.RLock()
	notifier := e.notifier
	e.mu.RUnlock()
	if notifier != nil {
		notifier.Warn(message)
	}
}
