// Package generator wires resolved IR into code generators: a registry of
// implementations keyed by type identifier, plus the service that runs a
// whole configuration from document load to rendered packages.
package generator

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/config"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/generator/python"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/loader"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/openapi"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/parser"
)

// Generator renders one client package from a resolved spec.
type Generator interface {
	// Generate writes the package for client from the resolved spec.
	Generate(client config.Client, spec *ir.IRSpec) error
	// GetType returns the type identifier generators register under.
	GetType() string
}

// Registry manages available generators.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator under its type identifier.
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type.
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted.
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Service runs a configuration end to end: document load, optional
// validation, IR construction, then one generator invocation per configured
// client.
type Service struct {
	registry *Registry
	logger   *zap.Logger
}

// NewService creates a service with the default generators registered. A nil
// logger is replaced with a nop logger.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry()
	registry.Register(python.NewGenerator(logger))
	return &Service{registry: registry, logger: logger}
}

// NewServiceWithRegistry creates a service over a caller-built registry.
func NewServiceWithRegistry(registry *Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, logger: logger}
}

// GenerateOptions selects what to generate: a configuration file, or one ad
// hoc client assembled from the fallback fields.
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions describes a single client when no config file is given.
// The parser knobs mirror config.Parser; zero values mean defaults.
type FallbackOptions struct {
	Spec        string
	Type        string
	OutDir      string
	PackageName string
	CorePackage string
	Name        string
	Validate    bool
	MaxDepth    int
	MaxCycles   int
	DebugCycles bool
}

// Generate resolves options into a configuration and runs it. The returned
// warnings are meaningful even when generation fails partway.
func (s *Service) Generate(opts GenerateOptions) ([]string, error) {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		f := opts.Fallback
		if f.Spec == "" || f.Type == "" || f.OutDir == "" || f.PackageName == "" || f.Name == "" {
			return nil, errors.New("either a config path or all fallback options must be provided")
		}
		cfg = &config.Config{
			Spec:     f.Spec,
			Validate: f.Validate,
			Parser: config.Parser{
				MaxDepth:    f.MaxDepth,
				MaxCycles:   f.MaxCycles,
				DebugCycles: f.DebugCycles,
			},
			Clients: []config.Client{{
				Type:        f.Type,
				OutDir:      f.OutDir,
				PackageName: f.PackageName,
				CorePackage: f.CorePackage,
				Name:        f.Name,
			}},
		}
	} else {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	return s.GenerateFromConfig(cfg, opts.SingleClient)
}

// GenerateFromConfig runs one loaded configuration. Warnings from document
// validation and IR construction are returned alongside any hard failure so
// callers can surface them either way.
func (s *Service) GenerateFromConfig(cfg *config.Config, onlyClient string) ([]string, error) {
	doc, err := openapi.LoadDocument(cfg.Spec)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if cfg.Validate {
		warnings = append(warnings, openapi.ValidateDocument(doc)...)
	}

	spec, loadWarnings, err := loader.Load(doc, parser.Options{
		MaxDepth:    cfg.Parser.MaxDepth,
		MaxCycles:   cfg.Parser.MaxCycles,
		DebugCycles: cfg.Parser.DebugCycles,
		Logger:      s.logger,
	})
	warnings = append(warnings, loadWarnings...)
	if err != nil {
		return warnings, err
	}

	matched := false
	for _, client := range cfg.Clients {
		if onlyClient != "" && client.Name != onlyClient {
			continue
		}
		matched = true

		gen, ok := s.registry.Get(client.Type)
		if !ok {
			return warnings, errors.Errorf("unsupported client type %q (available: %s)",
				client.Type, strings.Join(s.registry.GetAvailableTypes(), ", "))
		}
		if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
			return warnings, errors.Wrapf(err, "creating output directory for client %s", client.Name)
		}

		s.logger.Info("generating client",
			zap.String("name", client.Name),
			zap.String("type", client.Type),
			zap.String("outDir", client.OutDir))
		if err := gen.Generate(client, spec); err != nil {
			return warnings, errors.Wrapf(err, "generating client %s", client.Name)
		}
	}
	if onlyClient != "" && !matched {
		return warnings, errors.Errorf("no client named %q in configuration", onlyClient)
	}

	return warnings, nil
}

// GetRegistry returns the generator registry.
func (s *Service) GetRegistry() *Registry {
	return s.registry
}
