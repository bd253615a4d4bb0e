package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/models"
)

// Reporter renders command results and failures for humans
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	colors  bool
}

// NewReporter creates a reporter writing results to out and failures to errOut
func NewReporter(out, errOut io.Writer, verbose, colors bool) *Reporter {
	return &Reporter{out: out, errOut: errOut, verbose: verbose, colors: colors}
}

func (r *Reporter) paint(s string, attrs ...color.Attribute) string {
	if !r.colors {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// ReportError prints err with its location, context and suggestions when it carries them
func (r *Reporter) ReportError(err error) {
	var lensErr errors.LensError
	if !stderrors.As(err, &lensErr) {
		fmt.Fprintf(r.errOut, "%s %s\n", r.paint("ERROR:", color.FgRed, color.Bold), err)
		return
	}

	fmt.Fprintf(r.errOut, "%s %s\n", r.paint("ERROR:", color.FgRed, color.Bold), errorTitle(lensErr.ErrorCode()))
	fmt.Fprintf(r.errOut, "Message: %s\n", err)

	if loc := lensErr.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.errOut, "Location: %s\n", loc)
	}

	if ctx := lensErr.Context(); r.verbose && len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for key := range ctx {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(r.errOut, "Context:\n")
		for _, key := range keys {
			fmt.Fprintf(r.errOut, "   %s: %v\n", formatContextKey(key), ctx[key])
		}
	}

	if suggestions := lensErr.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintf(r.errOut, "Suggestions:\n")
		for i, suggestion := range suggestions {
			fmt.Fprintf(r.errOut, "   %d. %s\n", i+1, suggestion)
		}
	}
}

func errorTitle(code errors.ErrorCode) string {
	switch code {
	case errors.CommandErrorCode:
		return "Route Command Failed"
	case errors.FileSystemErrorCode:
		return "File System Error"
	case errors.ParseErrorCode:
		return "Parse Error"
	case errors.ScanErrorCode:
		return "Lens Scan Failed"
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	case errors.ProtocolErrorCode:
		return "Protocol Error"
	default:
		return "Unknown Error"
	}
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// PrintLenses prints the lenses of one file, one per line, with their 1-based line
// numbers and targets
func (r *Reporter) PrintLenses(name string, lenses []models.Lens) {
	fmt.Fprintln(r.out, r.paint(name, color.Bold))
	if len(lenses) == 0 {
		fmt.Fprintln(r.out, "  (no lenses)")
		return
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for _, l := range lenses {
		target := r.paint("-", color.Faint)
		if l.Navigable() {
			target = describeCommand(*l.Command)
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\n", l.Line+1, l.Title, target)
	}
	_ = w.Flush()
}

func describeCommand(c models.Command) string {
	switch c.Name {
	case models.OpenFileAtLineCommand:
		return fmt.Sprintf("%s:%d", c.Path, c.Line+1)
	case models.OpenURLCommand:
		return c.URL
	default:
		return c.Path
	}
}

// PrintRoutes prints routes as an aligned table
func (r *Reporter) PrintRoutes(routes []models.Route) {
	if len(routes) == 0 {
		fmt.Fprintln(r.out, "(no routes)")
		return
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		r.paint("HELPER", color.Bold), r.paint("VERB", color.Bold), r.paint("PATTERN", color.Bold), r.paint("ENDPOINT", color.Bold))
	for _, route := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", route.Helper, route.Verb, route.Pattern, r.paint(route.Endpoint(), color.FgCyan))
	}
	_ = w.Flush()
}

// PrintJSON prints v as indented JSON
func (r *Reporter) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
