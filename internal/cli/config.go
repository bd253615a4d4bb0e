package cli

import (
	"flag"
	"io"

	"github.com/toyz/railslens/internal/config"
	"github.com/toyz/railslens/internal/utils"
)

// Options holds the flags shared by every subcommand
type Options struct {
	// Workspace is the project root, the current directory when empty
	Workspace string

	// Verbose enables detailed logging
	Verbose bool

	// Quiet only reports errors
	Quiet bool

	// JSON switches result output to JSON (lenses, routes, rebuild)
	JSON bool

	// Addr overrides the HTTP listen address (serve)
	Addr string

	// URLs enables browser lenses for static GET routes
	URLs bool
}

// bind registers the option flags on fs
func (o *Options) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.Workspace, "workspace", "", "Rails project root (defaults to the current directory)")
	fs.BoolVar(&o.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&o.Quiet, "quiet", false, "Only show errors")
	fs.BoolVar(&o.JSON, "json", false, "Print results as JSON")
	fs.StringVar(&o.Addr, "addr", "", "HTTP listen address for serve (overrides "+config.EnvHTTPAddr+")")
	fs.BoolVar(&o.URLs, "urls", false, "Add browser lenses for static GET routes")
}

// apply lets explicit flags override the loaded configuration
func (o Options) apply(cfg *config.Config) {
	switch {
	case o.Quiet:
		cfg.LogLevel = utils.DiagnosticError
	case o.Verbose:
		cfg.LogLevel = utils.DiagnosticVerbose
	}
	if o.Addr != "" {
		cfg.HTTPAddr = o.Addr
	}
	if o.URLs {
		cfg.ShowRouteURLs = true
	}
}

func newFlagSet(name string, opts *Options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	opts.bind(fs)
	return fs
}
