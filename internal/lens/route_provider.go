package lens

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/railslens/internal/extract"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/routes"
	"github.com/toyz/railslens/internal/workspace"
)

// maxViewChecks bounds the concurrent view existence checks of one scan
const maxViewChecks = 8

// RouteProvider annotates controller actions with their route and view
type RouteProvider struct {
	store    *routes.Store
	showURLs bool
	baseURL  string
}

// NewRouteProvider creates a route provider. When showURLs is set, static GET
// routes get a second lens opening baseURL+pattern in the browser.
func NewRouteProvider(store *routes.Store, showURLs bool, baseURL string) *RouteProvider {
	return &RouteProvider{
		store:    store,
		showURLs: showURLs,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Name implements Provider
func (p *RouteProvider) Name() string { return "route" }

// Applies implements Provider
func (p *RouteProvider) Applies(layout workspace.Layout, doc models.Document) bool {
	_, ok := layout.ControllerForFile(doc.Path)
	return ok
}

// actionHit is one action definition with its route and resolved view.
// action keeps the casing of the definition, which is what view files use.
type actionHit struct {
	line   int
	action string
	route  models.Route
	view   string
}

// Scan implements Provider
func (p *RouteProvider) Scan(ctx context.Context, layout workspace.Layout, doc models.Document) ([]models.Lens, error) {
	controller, ok := layout.ControllerForFile(doc.Path)
	if !ok {
		return nil, nil
	}

	controllerRoutes, err := p.store.Routes(layout, controller)
	if stderrors.Is(err, routes.ErrNoCache) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(controllerRoutes) == 0 {
		return nil, nil
	}

	var hits []actionHit
	for i, line := range doc.Lines() {
		action, ok := extract.MethodDef(line)
		if !ok {
			continue
		}
		if route, found := routes.Find(controllerRoutes, controller, action); found {
			hits = append(hits, actionHit{line: i, action: action, route: route})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxViewChecks)
	for i := range hits {
		hit := &hits[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hit.view = resolveView(layout, controller, hit.action)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lenses := make([]models.Lens, 0, len(hits))
	for _, hit := range hits {
		lenses = append(lenses, p.routeLens(layout, hit))
		if url, ok := p.browserURL(hit.route); ok {
			lenses = append(lenses, models.Lens{
				Line:    hit.line,
				Title:   "🔗 OPEN: " + url,
				Tooltip: "OPEN IN BROWSER → " + url,
				Command: openURL(url),
			})
		}
	}
	return lenses, nil
}

func (p *RouteProvider) routeLens(layout workspace.Layout, hit actionHit) models.Lens {
	lens := models.Lens{
		Line:  hit.line,
		Title: routeTitle(hit.route),
	}

	if hit.view == "" {
		lens.Tooltip = fmt.Sprintf("NO VIEW FOUND → %s", hit.route.Endpoint())
		return lens
	}

	rel, ok := layout.Rel(hit.view)
	if !ok {
		rel = filepath.Base(hit.view)
	}
	lens.Title += " ⏿"
	lens.Tooltip = "OPEN VIEW → " + rel
	lens.Command = openFile(hit.view)
	return lens
}

func routeTitle(route models.Route) string {
	if route.Verb == "" {
		return fmt.Sprintf("🛣️ ROUTE: %s", route.Pattern)
	}
	return fmt.Sprintf("🛣️ ROUTE: %s %s", route.Verb, route.Pattern)
}

// browserURL returns the URL of a static GET route when URL lenses are enabled
func (p *RouteProvider) browserURL(route models.Route) (string, bool) {
	if !p.showURLs || p.baseURL == "" || route.HasDynamicSegments() {
		return "", false
	}
	for _, verb := range strings.Split(route.Verb, "|") {
		if verb == "GET" {
			return p.baseURL + route.Pattern, true
		}
	}
	return "", false
}

// resolveView returns the first existing view template for the action, or ""
func resolveView(layout workspace.Layout, controller, action string) string {
	for _, candidate := range layout.ViewCandidates(controller, action) {
		if workspace.IsFile(candidate) {
			return candidate
		}
	}
	return ""
}
