// Package cli assembles generation runs for the command-line entry points:
// flag and environment resolution, logger construction, and delegation to the
// generator service.
package cli

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/config"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/generator"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/openapi"
)

// FallbackParams describes a single ad hoc client when no config file is
// given.
type FallbackParams struct {
	Spec        string
	Type        string
	OutDir      string
	PackageName string
	CorePackage string
	Name        string
}

// RunGenerateParams carries what the generate command collected. The parser
// knobs apply to both the config and fallback routes; zero values defer to
// the config file, then the environment, then library defaults.
type RunGenerateParams struct {
	ConfigPath   string
	SingleClient string
	Verbose      bool
	Validate     bool
	MaxDepth     int
	MaxCycles    int
	DebugCycles  bool
	Fallback     FallbackParams
}

// RunGenerate resolves params into a configuration and executes it. The
// returned warnings are meaningful even when the run fails partway.
func RunGenerate(p RunGenerateParams) ([]string, error) {
	logger, err := NewLogger(p.Verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	var cfg *config.Config
	if p.ConfigPath == "" {
		f := p.Fallback
		if f.Spec == "" || f.Type == "" || f.OutDir == "" || f.PackageName == "" || f.Name == "" {
			return nil, errors.New("either --config or all of --input, --type, --out, --package-name, --client-name must be provided")
		}
		cfg = &config.Config{
			Spec: f.Spec,
			Clients: []config.Client{{
				Type:        f.Type,
				OutDir:      absPath(f.OutDir),
				PackageName: f.PackageName,
				CorePackage: f.CorePackage,
				Name:        f.Name,
			}},
		}
	} else {
		cfg, err = config.Load(p.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	if p.Validate {
		cfg.Validate = true
	}
	if p.MaxDepth != 0 {
		cfg.Parser.MaxDepth = p.MaxDepth
	}
	if p.MaxCycles != 0 {
		cfg.Parser.MaxCycles = p.MaxCycles
	}
	if p.DebugCycles {
		cfg.Parser.DebugCycles = true
	}
	applyParserEnv(&cfg.Parser)

	return generator.NewService(logger).GenerateFromConfig(cfg, p.SingleClient)
}

// RunValidate loads a document and returns its validation findings. A
// non-empty result means the document failed validation; the error covers
// loading only.
func RunValidate(input string) ([]string, error) {
	doc, err := openapi.LoadDocument(input)
	if err != nil {
		return nil, err
	}
	return openapi.ValidateDocument(doc), nil
}

// NewLogger builds the CLI logger: a development logger at debug level when
// verbose, a production logger otherwise.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	return zap.NewProductionConfig().Build()
}
