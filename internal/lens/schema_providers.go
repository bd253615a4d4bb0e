package lens

import (
	"context"
	"fmt"

	"github.com/toyz/railslens/internal/extract"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/naming"
	"github.com/toyz/railslens/internal/workspace"
)

// ModelProvider annotates schema create_table declarations with their model file
type ModelProvider struct{}

// NewModelProvider creates a model provider
func NewModelProvider() *ModelProvider { return &ModelProvider{} }

// Name implements Provider
func (p *ModelProvider) Name() string { return "model" }

// Applies implements Provider
func (p *ModelProvider) Applies(layout workspace.Layout, doc models.Document) bool {
	return layout.IsSchemaFile(doc.Path)
}

// Scan implements Provider
func (p *ModelProvider) Scan(_ context.Context, layout workspace.Layout, doc models.Document) ([]models.Lens, error) {
	var lenses []models.Lens
	for i, line := range doc.Lines() {
		table, ok := extract.CreateTable(line)
		if !ok {
			continue
		}

		model, found := FindModel(layout, table)
		if !found {
			continue
		}
		lenses = append(lenses, models.Lens{
			Line:    i,
			Title:   fmt.Sprintf("💎 MODEL: %s ⏿", model.Name),
			Tooltip: "OPEN MODEL FILE → " + model.Name,
			Command: openFile(model.Path),
		})
	}
	return lenses, nil
}

// FindModel resolves the model owning table when its source file exists
func FindModel(layout workspace.Layout, table string) (models.Model, bool) {
	name, file := naming.ModelForTable(table)
	if name == "" {
		return models.Model{}, false
	}
	path := layout.ModelFile(file)
	if !workspace.IsFile(path) {
		return models.Model{}, false
	}
	return models.Model{Name: name, Path: path}, true
}

// TableProvider annotates model classes with their schema table declaration
type TableProvider struct {
	sources *SourceCache
}

// NewTableProvider creates a table provider reading the schema through sources
func NewTableProvider(sources *SourceCache) *TableProvider {
	return &TableProvider{sources: sources}
}

// Name implements Provider
func (p *TableProvider) Name() string { return "table" }

// Applies implements Provider
func (p *TableProvider) Applies(layout workspace.Layout, doc models.Document) bool {
	return layout.IsModelFile(doc.Path)
}

// Scan implements Provider. At most one lens is emitted per model file.
func (p *TableProvider) Scan(_ context.Context, layout workspace.Layout, doc models.Document) ([]models.Lens, error) {
	schemaPath := layout.SchemaFile()
	if !workspace.IsFile(schemaPath) {
		return nil, nil
	}
	schema, err := readLines(p.sources, schemaPath)
	if err != nil {
		return nil, nil
	}

	for i, line := range doc.Lines() {
		decl, ok := extract.ClassDeclaration(line)
		if !ok {
			continue
		}

		model := naming.EffectiveModel(decl.Name, decl.Superclass)
		table, found := FindTable(schema, model)
		if !found {
			continue
		}
		return []models.Lens{{
			Line:    i,
			Title:   fmt.Sprintf("🗓️ TABLE: %s ⏿", table.Name),
			Tooltip: "SHOW SCHEMA → " + table.Name,
			Command: openFileAt(schemaPath, table.Line-1),
		}}, nil
	}
	return nil, nil
}

// FindTable locates the create_table declaration of model in the schema lines
func FindTable(schema []string, model string) (models.Table, bool) {
	name := naming.TableForModel(model)
	if name == "" {
		return models.Table{}, false
	}
	for i, line := range schema {
		if table, ok := extract.CreateTable(line); ok && table == name {
			return models.Table{Model: model, Name: name, Line: i + 1}, true
		}
	}
	return models.Table{}, false
}
