// Package routes builds, caches and parses the route listing printed by the framework CLI.
package routes

import (
	"strings"

	"github.com/toyz/railslens/internal/extract"
	"github.com/toyz/railslens/internal/models"
)

// FormatSuffix is the optional format segment the CLI appends to most patterns
const FormatSuffix = "(.:format)"

// Accepted whitespace token counts for a listing row: "[helper] verb pattern endpoint"
// with at most one of helper or verb left blank.
const (
	minRouteFields = 3
	maxRouteFields = 4
)

// Parse converts the CLI route listing into route records.
// Headers, engine mounts, redirects and any other malformed rows are dropped.
func Parse(text string) []models.Route {
	var routes []models.Route
	for _, line := range models.SplitLines(text) {
		if route, ok := ParseLine(line); ok {
			routes = append(routes, route)
		}
	}
	return routes
}

// ParseLine converts one listing row into a route record
func ParseLine(line string) (models.Route, bool) {
	n := len(strings.Fields(line))
	if n < minRouteFields || n > maxRouteFields {
		return models.Route{}, false
	}

	fields, ok := extract.RouteLine(line)
	if !ok {
		return models.Route{}, false
	}

	return models.Route{
		Verb:       fields.Verb,
		Helper:     fields.Helper,
		Pattern:    StripFormat(fields.Pattern),
		Controller: fields.Controller,
		Action:     fields.Action,
	}, true
}

// StripFormat truncates the pattern at the (.:format) suffix when present
func StripFormat(pattern string) string {
	if before, _, found := strings.Cut(pattern, FormatSuffix); found {
		return before
	}
	return pattern
}

// Filter keeps the routes handled by controller, compared case-insensitively
func Filter(routes []models.Route, controller string) []models.Route {
	var out []models.Route
	for _, r := range routes {
		if strings.EqualFold(r.Controller, controller) {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first route handling controller#action
func Find(routes []models.Route, controller, action string) (models.Route, bool) {
	for _, r := range routes {
		if r.Matches(controller, action) {
			return r, true
		}
	}
	return models.Route{}, false
}

// grepController keeps only the lines that mention "<controller>#", case-insensitively
func grepController(text, controller string) string {
	needle := strings.ToLower(controller) + "#"
	var b strings.Builder
	for _, line := range models.SplitLines(text) {
		if strings.Contains(strings.ToLower(line), needle) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
