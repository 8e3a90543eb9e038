// Package config reads the generator configuration file: one spec document,
// parser tuning, and any number of client targets.
package config

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for one generation run.
type Config struct {
	// Spec is a path or http(s) URL to the OpenAPI document.
	Spec string `yaml:"spec"`
	Name string `yaml:"name"`
	// Validate runs the optional document validator and merges its findings
	// into the run warnings.
	Validate bool     `yaml:"validate"`
	Parser   Parser   `yaml:"parser"`
	Clients  []Client `yaml:"clients"`
}

// Parser tunes the schema-resolution pipeline. Zero values mean defaults.
type Parser struct {
	// MaxDepth caps schema recursion depth (default 100).
	MaxDepth int `yaml:"maxDepth"`
	// MaxCycles is a debugging budget: crossing it is reported loudly but
	// never changes resolution results.
	MaxCycles   int  `yaml:"maxCycles"`
	DebugCycles bool `yaml:"debugCycles"`
}

// Client is the configuration for a single generated package.
type Client struct {
	Type        string `yaml:"type"`
	OutDir      string `yaml:"outDir"`
	PackageName string `yaml:"packageName"`
	// CorePackage is the runtime support package generated code imports
	// absolutely; empty means "core".
	CorePackage string `yaml:"corePackage"`
	Name        string `yaml:"name"`
}

// Load reads and validates a configuration file. Relative paths are
// absolutized against the working directory; URL specs are kept as-is.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Spec == "" {
		return nil, errors.New("config: spec is required")
	}
	if len(cfg.Clients) == 0 {
		return nil, errors.New("config: at least one client is required")
	}
	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if c.Type == "" || c.OutDir == "" || c.PackageName == "" || c.Name == "" {
			return nil, errors.Errorf("config: clients[%d] missing required fields (type, outDir, packageName, name)", i)
		}
		if !filepath.IsAbs(c.OutDir) {
			abs, _ := filepath.Abs(c.OutDir)
			c.OutDir = abs
		}
	}
	if !isURL(cfg.Spec) && !filepath.IsAbs(cfg.Spec) {
		abs, _ := filepath.Abs(cfg.Spec)
		cfg.Spec = abs
	}
	return &cfg, nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
