// Package config loads runtime settings for the language server.
// Precedence is flags > environment > defaults; environment variables use
// the CSS_LSP_ prefix with underscores mapping to flag-name hyphens
// (CSS_LSP_IGNORE_GLOBS -> --ignore-globs).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// Path display modes for file labels in hover and diagnostics text.
const (
	PathDisplayRelative    = "relative"
	PathDisplayAbsolute    = "absolute"
	PathDisplayAbbreviated = "abbreviated"
)

// Config is the server's runtime configuration.
type Config struct {
	// LookupGlobs selects the workspace files scanned into the index.
	LookupGlobs []string `koanf:"lookup-files"`
	// IgnoreGlobs excludes paths on top of .gitignore rules.
	IgnoreGlobs []string `koanf:"ignore-globs"`
	// ColorPreview enables color swatches on definitions and usages.
	ColorPreview bool `koanf:"color-preview"`
	// ColorOnlyOnVariables suppresses swatches on definition values,
	// leaving them only on var() references.
	ColorOnlyOnVariables bool `koanf:"color-only-variables"`
	// PathDisplay picks how file paths render in results.
	PathDisplay string `koanf:"path-display"`
	// PathDisplayLength is the per-segment length for abbreviated mode.
	PathDisplayLength int `koanf:"path-display-length"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `koanf:"log-level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LookupGlobs: []string{
			"**/*.css", "**/*.scss", "**/*.sass", "**/*.less",
			"**/*.html", "**/*.htm", "**/*.vue", "**/*.svelte", "**/*.astro",
		},
		IgnoreGlobs: []string{
			"**/node_modules/**", "**/dist/**", "**/build/**", "**/.git/**",
		},
		ColorPreview:      true,
		PathDisplay:       PathDisplayRelative,
		PathDisplayLength: 1,
		LogLevel:          "info",
	}
}

// Flags returns the server's flag set, with defaults applied.
func Flags() *flag.FlagSet {
	d := Default()
	fs := flag.NewFlagSet("css-variables-language-server", flag.ContinueOnError)
	fs.StringSlice("lookup-files", d.LookupGlobs, "glob patterns of files to scan for variables")
	fs.StringSlice("ignore-globs", d.IgnoreGlobs, "glob patterns of paths to skip while scanning")
	fs.Bool("color-preview", d.ColorPreview, "show color swatches for resolvable values")
	fs.Bool("color-only-variables", d.ColorOnlyOnVariables, "only show swatches on variable references")
	fs.String("path-display", d.PathDisplay, "file path style in results: relative, absolute, or abbreviated")
	fs.Int("path-display-length", d.PathDisplayLength, "segment length for abbreviated paths")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, or error")
	return fs
}

// Load parses args and merges flags over environment over defaults.
func Load(args []string) (Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parsing flags: %w", err)
	}
	return load(fs)
}

func load(fs *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue("CSS_LSP_", ".", func(key, value string) (string, any) {
		// CSS_LSP_IGNORE_GLOBS -> ignore-globs
		name := strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(key, "CSS_LSP_")),
			"_", "-",
		)
		// List-valued settings are comma separated in the environment
		if name == "lookup-files" || name == "ignore-globs" {
			return name, strings.Split(value, ",")
		}
		return name, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment variables: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("loading flags: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.PathDisplay {
	case PathDisplayRelative, PathDisplayAbsolute, PathDisplayAbbreviated:
	default:
		return fmt.Errorf("invalid path-display %q", c.PathDisplay)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log-level %q", c.LogLevel)
	}
	return nil
}
