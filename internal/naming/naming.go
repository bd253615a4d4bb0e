// Package naming holds the Rails naming conventions shared by every lens provider:
// table <-> model name transforms and controller identifiers.
package naming

import (
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"
)

// BaseRecordClasses are the superclasses that mark a class as a plain model
// rather than a single-table-inheritance subclass.
var BaseRecordClasses = []string{"ApplicationRecord", "ActiveRecord::Base"}

var (
	acronymBoundary = regexp.MustCompile(`([A-Z\d]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// Pluralize returns the plural form of a snake_case word
func Pluralize(word string) string {
	return inflect.Pluralize(word)
}

// Singularize returns the singular form of a snake_case word
func Singularize(word string) string {
	return inflect.Singularize(word)
}

// Underscore converts a CamelCase identifier to snake_case. Acronyms stay one
// word: HTTPRequest -> http_request, APIKey -> api_key.
func Underscore(name string) string {
	s := acronymBoundary.ReplaceAllString(name, "${1}_${2}")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(strings.ReplaceAll(s, "-", "_"))
}

// Camelize converts a snake_case identifier to PascalCase
func Camelize(name string) string {
	return inflect.Camelize(name)
}

// Demodulize strips any "Outer::" namespace from a constant name
func Demodulize(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

// IsBaseRecordClass reports whether superclass is one of the framework's base record classes
func IsBaseRecordClass(superclass string) bool {
	for _, base := range BaseRecordClasses {
		if superclass == base {
			return true
		}
	}
	return false
}

// EffectiveModel returns the model whose table backs a class declaration.
// Subclasses of a base record class own their table; any other superclass is
// treated as single-table inheritance and the parent owns the table.
func EffectiveModel(class, superclass string) string {
	if IsBaseRecordClass(superclass) {
		return class
	}
	return superclass
}

// TableForModel derives the conventional table name for a model, e.g. AdminUser -> admin_users
func TableForModel(model string) string {
	return Pluralize(Underscore(Demodulize(model)))
}

// ModelForTable derives the conventional model name and file base name for a table,
// e.g. admin_users -> ("AdminUser", "admin_user")
func ModelForTable(table string) (name, file string) {
	singular := Singularize(table)
	return Camelize(singular), singular
}
