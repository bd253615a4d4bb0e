package models

import (
	"fmt"
	"strings"
)

// Route represents one entry of the framework's routing table
type Route struct {
	Verb       string `json:"verb"`             // HTTP verb (GET, POST, etc.), empty when the CLI output elides it
	Helper     string `json:"helper,omitempty"` // URL helper prefix, empty on continuation lines
	Pattern    string `json:"pattern"`          // URL pattern with the (.:format) suffix stripped
	Controller string `json:"controller"`       // controller identifier, e.g. "users" or "admin/users"
	Action     string `json:"action"`           // action name, e.g. "index"
}

// Endpoint returns the controller#action pair of the route
func (r Route) Endpoint() string {
	return r.Controller + "#" + r.Action
}

// Matches reports whether the route handles the given controller and action.
// Both comparisons are case-insensitive.
func (r Route) Matches(controller, action string) bool {
	return strings.EqualFold(r.Controller, controller) && strings.EqualFold(r.Action, action)
}

// HasDynamicSegments reports whether the pattern contains :params, *globs or optional groups
func (r Route) HasDynamicSegments() bool {
	return strings.ContainsAny(r.Pattern, ":*(")
}

// String returns a human readable representation of the route
func (r Route) String() string {
	if r.Verb == "" {
		return fmt.Sprintf("%s %s", r.Pattern, r.Endpoint())
	}
	return fmt.Sprintf("%s %s %s", r.Verb, r.Pattern, r.Endpoint())
}

// Model represents the model file conventionally backing a table
type Model struct {
	Name string // PascalCase singular model name
	Path string // absolute path of the model source file
}

// Table represents the schema declaration conventionally backing a model
type Table struct {
	Model string // effective model identifier the table was derived from
	Name  string // table name as declared in the schema
	Line  int    // schema declaration line (1-based)
}
