// Package config loads railslens settings from the environment and an optional
// per-workspace env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/routes"
	"github.com/toyz/railslens/internal/utils"
)

// EnvFileName is the optional env file read from the workspace root
const EnvFileName = ".railslens.env"

// Environment keys
const (
	EnvShowRoutes      = "RAILSLENS_SHOW_ROUTES"
	EnvShowModels      = "RAILSLENS_SHOW_MODELS"
	EnvShowTables      = "RAILSLENS_SHOW_TABLES"
	EnvShowControllers = "RAILSLENS_SHOW_CONTROLLERS"
	EnvShowRouteURLs   = "RAILSLENS_SHOW_ROUTE_URLS"
	EnvBaseURL         = "RAILSLENS_BASE_URL"
	EnvRoutesCommand   = "RAILSLENS_ROUTES_COMMAND"
	EnvRoutesTimeout   = "RAILSLENS_ROUTES_TIMEOUT"
	EnvRouteCacheSize  = "RAILSLENS_ROUTE_CACHE_SIZE"
	EnvHTTPAddr        = "RAILSLENS_HTTP_ADDR"
	EnvLogLevel        = "RAILSLENS_LOG_LEVEL"
)

// Config holds the settings shared by every host surface
type Config struct {
	// Workspace is the project root; documents outside it get no lenses
	Workspace string

	// Provider toggles
	ShowRoutes      bool
	ShowModels      bool
	ShowTables      bool
	ShowControllers bool

	// ShowRouteURLs adds an "open in browser" lens for static GET routes
	ShowRouteURLs bool

	// BaseURL is prefixed to route patterns for browser lenses
	BaseURL string

	// RoutesCommand overrides the detected route enumeration command
	RoutesCommand []string

	// RoutesTimeout bounds the enumeration command, zero means none
	RoutesTimeout time.Duration

	// RouteCacheSize bounds the in-memory (workspace, controller) route cache
	RouteCacheSize int

	// HTTPAddr is the listen address of the HTTP API
	HTTPAddr string

	// LogLevel controls diagnostic verbosity
	LogLevel utils.DiagnosticLevel
}

// Default returns the built-in settings: every provider on, no URL lenses
func Default() Config {
	return Config{
		ShowRoutes:      true,
		ShowModels:      true,
		ShowTables:      true,
		ShowControllers: true,
		BaseURL:         "http://localhost:3000",
		RouteCacheSize:  routes.DefaultStoreSize,
		HTTPAddr:        "127.0.0.1:7333",
		LogLevel:        utils.DiagnosticInfo,
	}
}

// Load builds the configuration for workspace. Values come from, in increasing
// priority: defaults, <workspace>/.railslens.env, the process environment.
func Load(workspace string) (Config, error) {
	cfg := Default()
	if workspace != "" {
		abs, err := filepath.Abs(workspace)
		if err != nil {
			return cfg, errors.WrapConfigurationError("workspace", err)
		}
		cfg.Workspace = abs
	}

	fileValues := map[string]string{}
	if cfg.Workspace != "" {
		envFile := filepath.Join(cfg.Workspace, EnvFileName)
		if _, err := os.Stat(envFile); err == nil {
			values, err := godotenv.Read(envFile)
			if err != nil {
				return cfg, errors.WrapFileSystemError("read", envFile, err)
			}
			fileValues = values
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}

	err := cfg.apply(lookup)
	return cfg, err
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	var multi errors.MultipleErrors

	boolVar := func(key string, dst *bool) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			multi.Add(errors.WrapConfigurationError(key, err))
			return
		}
		*dst = v
	}

	boolVar(EnvShowRoutes, &c.ShowRoutes)
	boolVar(EnvShowModels, &c.ShowModels)
	boolVar(EnvShowTables, &c.ShowTables)
	boolVar(EnvShowControllers, &c.ShowControllers)
	boolVar(EnvShowRouteURLs, &c.ShowRouteURLs)

	if raw, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(raw) != "" {
		c.BaseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}

	if raw, ok := lookup(EnvRoutesCommand); ok && strings.TrimSpace(raw) != "" {
		c.RoutesCommand = strings.Fields(raw)
	}

	if raw, ok := lookup(EnvRoutesTimeout); ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil || d < 0 {
			multi.Add(errors.ConfigurationError(EnvRoutesTimeout, "expected a non-negative duration such as 30s"))
		} else {
			c.RoutesTimeout = d
		}
	}

	if raw, ok := lookup(EnvRouteCacheSize); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 {
			multi.Add(errors.ConfigurationError(EnvRouteCacheSize, "expected a positive integer"))
		} else {
			c.RouteCacheSize = n
		}
	}

	if raw, ok := lookup(EnvHTTPAddr); ok && strings.TrimSpace(raw) != "" {
		c.HTTPAddr = strings.TrimSpace(raw)
	}

	if raw, ok := lookup(EnvLogLevel); ok {
		level, err := utils.ParseDiagnosticLevel(raw)
		if err != nil {
			multi.Add(errors.WrapConfigurationError(EnvLogLevel, err))
		} else {
			c.LogLevel = level
		}
	}

	return multi.ErrOrNil()
}

// AnyProviderEnabled reports whether at least one lens provider is switched on
func (c Config) AnyProviderEnabled() bool {
	return c.ShowRoutes || c.ShowModels || c.ShowTables || c.ShowControllers
}
