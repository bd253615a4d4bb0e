package workspace

import (
	"path"
	"strings"
)

// ControllerForFile returns the controller identifier of a controller source file,
// e.g. app/controllers/admin/users_controller.rb -> "admin/users". Files outside
// app/controllers fall back to their base name.
func (l Layout) ControllerForFile(file string) (string, bool) {
	rel, ok := l.Rel(file)
	if !ok {
		rel = path.Base(strings.ReplaceAll(file, "\\", "/"))
	}

	if !strings.HasSuffix(rel, ControllerSuffix+SourceExt) {
		return "", false
	}
	rel = strings.TrimSuffix(rel, ControllerSuffix+SourceExt)

	if strings.HasPrefix(rel, ControllersDir+"/") {
		rel = strings.TrimPrefix(rel, ControllersDir+"/")
	} else {
		rel = path.Base(rel)
	}

	if rel == "" || rel == "." || rel == "application" {
		return "", false
	}
	return rel, true
}

// IsSchemaFile reports whether file is the workspace schema definition
func (l Layout) IsSchemaFile(file string) bool {
	rel, ok := l.Rel(file)
	return ok && rel == SchemaFile
}

// IsRoutesFile reports whether file is the routing definition source
func (l Layout) IsRoutesFile(file string) bool {
	rel, ok := l.Rel(file)
	return ok && rel == RoutesFile
}

// IsModelFile reports whether file is a model source under app/models (concerns excluded)
func (l Layout) IsModelFile(file string) bool {
	rel, ok := l.Rel(file)
	if !ok || !strings.HasPrefix(rel, ModelsDir+"/") || !strings.HasSuffix(rel, SourceExt) {
		return false
	}
	return !strings.HasPrefix(rel, ModelsDir+"/concerns/")
}

// ViewTarget infers the controller and action owning a view template, e.g.
// app/views/admin/users/show.html.erb -> ("admin/users", "show"). Every
// extension of the template name is stripped.
func (l Layout) ViewTarget(file string) (controller, action string, ok bool) {
	rel, inside := l.Rel(file)
	if !inside || !strings.HasPrefix(rel, ViewsDir+"/") {
		return "", "", false
	}
	rel = strings.TrimPrefix(rel, ViewsDir+"/")

	dir, name := path.Split(rel)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	controller = strings.TrimSuffix(dir, "/")
	if controller == "" || name == "" {
		return "", "", false
	}
	return controller, name, true
}
