// Package extract turns single lines of loosely structured text into structured
// records. Each extractor is a small participle grammar; callers only see the
// text -> optional record functions, so a grammar can be tightened or replaced
// without touching the lens providers.
package extract

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// httpVerbs lists the verbs the route listing may print, joined with '|' for match routes
const httpVerbs = `GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS|CONNECT|TRACE`

var (
	routeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Path", Pattern: `/\S*`},
		{Name: "Verb", Pattern: `(?:` + httpVerbs + `)(?:\|(?:` + httpVerbs + `))*\b`},
		{Name: "Endpoint", Pattern: `[A-Za-z_][\w/:]*#[\w!?]+`},
		{Name: "Ident", Pattern: `[A-Za-z_]\w*`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	rubyLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
		{Name: "Const", Pattern: `[A-Z]\w*(?:::[A-Z]\w*)*`},
		{Name: "Ident", Pattern: `[a-z_]\w*[!?=]?`},
		{Name: "Symbol", Pattern: `:\w+`},
		{Name: "Number", Pattern: `\d[\w.]*`},
		{Name: "Op", Pattern: `<<|::|<|\.`},
		{Name: "Punct", Pattern: `[^\s\w]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	routeParser       = buildParser[routeLine](routeLexer, "Whitespace")
	methodDefParser   = buildParser[methodDefLine](rubyLexer, "Whitespace", "Comment")
	classDeclParser   = buildParser[classDeclLine](rubyLexer, "Whitespace", "Comment")
	createTableParser = buildParser[createTableLine](rubyLexer, "Whitespace", "Comment")
)

func buildParser[G any](lex lexer.Definition, elide ...string) *participle.Parser[G] {
	return participle.MustBuild[G](
		participle.Lexer(lex),
		participle.Elide(elide...),
		participle.UseLookahead(2),
	)
}

// routeLine is one row of the route listing: [helper] [verb] pattern controller#action
type routeLine struct {
	Helper   string `parser:"@Ident?"`
	Verb     string `parser:"@Verb?"`
	Pattern  string `parser:"@Path"`
	Endpoint string `parser:"@Endpoint"`
}

// The Rest fields swallow whatever follows the interesting prefix of a Ruby line.

type methodDefLine struct {
	Receiver string   `parser:"'def' (@'self' '.')?"`
	Name     string   `parser:"(@Ident | @Const)"`
	Rest     []string `parser:"(@Const | @Ident | @String | @Symbol | @Number | @Op | @Punct)*"`
}

type classDeclLine struct {
	Name       string   `parser:"'class' @Const"`
	Superclass string   `parser:"'<' @Const"`
	Rest       []string `parser:"(@Const | @Ident | @String | @Symbol | @Number | @Op | @Punct)*"`
}

type createTableLine struct {
	Name string   `parser:"'create_table' '('? @String"`
	Rest []string `parser:"(@Const | @Ident | @String | @Symbol | @Number | @Op | @Punct)*"`
}

// RouteFields are the columns of one route listing row
type RouteFields struct {
	Helper     string // URL helper prefix, empty when the column is blank
	Verb       string // HTTP verb, empty when the column is blank
	Pattern    string // raw URL pattern, including any (.:format) suffix
	Controller string // text before '#'
	Action     string // text after '#'
}

// RouteLine extracts the columns of a route listing row
func RouteLine(line string) (RouteFields, bool) {
	parsed, err := routeParser.ParseString("", line)
	if err != nil {
		return RouteFields{}, false
	}

	controller, action, ok := strings.Cut(parsed.Endpoint, "#")
	if !ok || controller == "" || action == "" {
		return RouteFields{}, false
	}

	return RouteFields{
		Helper:     parsed.Helper,
		Verb:       parsed.Verb,
		Pattern:    parsed.Pattern,
		Controller: controller,
		Action:     action,
	}, true
}

// MethodDef extracts the method name from a `def name` line. Class methods
// (`def self.name`) are not actions and are rejected.
func MethodDef(line string) (string, bool) {
	parsed, err := methodDefParser.ParseString("", line)
	if err != nil || parsed.Receiver != "" {
		return "", false
	}
	return parsed.Name, true
}

// ClassDecl is a class declaration with an explicit superclass
type ClassDecl struct {
	Name       string // declared class, possibly namespaced
	Superclass string // superclass token, possibly namespaced
}

// ClassDeclaration extracts `class Name < Superclass`
func ClassDeclaration(line string) (ClassDecl, bool) {
	parsed, err := classDeclParser.ParseString("", line)
	if err != nil {
		return ClassDecl{}, false
	}
	return ClassDecl{Name: parsed.Name, Superclass: parsed.Superclass}, true
}

// CreateTable extracts the table name from a `create_table "name"` schema line
func CreateTable(line string) (string, bool) {
	parsed, err := createTableParser.ParseString("", line)
	if err != nil {
		return "", false
	}
	name := unquote(parsed.Name)
	if name == "" {
		return "", false
	}
	return name, true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
