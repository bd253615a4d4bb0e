package lens

import (
	"context"

	"github.com/toyz/railslens/internal/extract"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/workspace"
)

// ControllerProvider annotates view templates with their controller and action
type ControllerProvider struct {
	sources *SourceCache
}

// NewControllerProvider creates a controller provider reading controllers through sources
func NewControllerProvider(sources *SourceCache) *ControllerProvider {
	return &ControllerProvider{sources: sources}
}

// Name implements Provider
func (p *ControllerProvider) Name() string { return "controller" }

// Applies implements Provider
func (p *ControllerProvider) Applies(layout workspace.Layout, doc models.Document) bool {
	_, _, ok := layout.ViewTarget(doc.Path)
	return ok
}

// Scan implements Provider. Both lenses sit on the first line of the view.
func (p *ControllerProvider) Scan(_ context.Context, layout workspace.Layout, doc models.Document) ([]models.Lens, error) {
	controller, action, ok := layout.ViewTarget(doc.Path)
	if !ok {
		return nil, nil
	}

	controllerPath := layout.ControllerFile(controller)
	if !workspace.IsFile(controllerPath) {
		return nil, nil
	}

	lenses := []models.Lens{{
		Line:    0,
		Title:   "🎮 CONTROLLER: " + controller,
		Tooltip: "NAVIGATE TO CONTROLLER → " + controller,
		Command: openFile(controllerPath),
	}}

	source, err := readLines(p.sources, controllerPath)
	if err != nil {
		return lenses, nil
	}
	for i, line := range source {
		if name, ok := extract.MethodDef(line); ok && name == action {
			lenses = append(lenses, models.Lens{
				Line:    0,
				Title:   "⚡ ACTION: " + action,
				Tooltip: "NAVIGATE TO ACTION → " + controller + "#" + action,
				Command: openFileAt(controllerPath, i),
			})
			break
		}
	}
	return lenses, nil
}
