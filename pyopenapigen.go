// Package pyopenapigen generates typed Python model packages from OpenAPI
// specifications.
//
// This package offers a small facade over pkg/generator for the common use
// cases; advanced callers can build a generator.Service directly and register
// their own generators.
//
// Quick Start:
//
//	import pyopenapigen "github.com/mindhiveoy/pyopenapi-gen"
//
//	// Generate a Python models package
//	warnings, err := pyopenapigen.GeneratePythonModels(
//		"https://petstore3.swagger.io/api/v3/openapi.json",
//		"./generated",
//		"petstore_client",
//		"petstore",
//	)
//
// Every entry point returns the run's warnings (unresolved references,
// recursion depth caps, validation findings) alongside any hard failure.
package pyopenapigen

import (
	"github.com/mindhiveoy/pyopenapi-gen/pkg/generator"
)

// GeneratePythonModels is a convenience function for generating a Python
// models package with minimal configuration.
//
// Parameters:
//   - spec: Path to an OpenAPI document or HTTP(S) URL
//   - outDir: Output directory for the generated package
//   - packageName: Python package name (import path root) for the output
//   - clientName: Name of the client in run reporting
//
// Example:
//
//	warnings, err := pyopenapigen.GeneratePythonModels(
//		"./openapi.yaml",
//		"./generated",
//		"my_api_client",
//		"my-api",
//	)
func GeneratePythonModels(spec, outDir, packageName, clientName string) ([]string, error) {
	return generator.GenerateClient(spec, outDir, packageName, clientName)
}

// Generate runs a generation with full control over the options.
//
// Example:
//
//	warnings, err := pyopenapigen.Generate(pyopenapigen.GenerateOptions{
//		Spec:        "./openapi.yaml",
//		Type:        "python",
//		OutDir:      "./generated",
//		PackageName: "my_api_client",
//		Name:        "my-api",
//		Validate:    true,
//		MaxDepth:    150,
//	})
func Generate(opts GenerateOptions) ([]string, error) {
	return generator.NewService(nil).Generate(generator.GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: generator.FallbackOptions{
			Spec:        opts.Spec,
			Type:        opts.Type,
			OutDir:      opts.OutDir,
			PackageName: opts.PackageName,
			CorePackage: opts.CorePackage,
			Name:        opts.Name,
			Validate:    opts.Validate,
			MaxDepth:    opts.MaxDepth,
			MaxCycles:   opts.MaxCycles,
			DebugCycles: opts.DebugCycles,
		},
	})
}

// GenerateFromConfig generates every client in a YAML configuration file.
// Optionally, a single client name restricts the run to that client.
//
// Example:
//
//	// Generate all clients from config
//	warnings, err := pyopenapigen.GenerateFromConfig("./pyopenapi-gen.yaml")
//
//	// Generate only a specific client
//	warnings, err := pyopenapigen.GenerateFromConfig("./pyopenapi-gen.yaml", "my-api")
func GenerateFromConfig(configPath string, singleClient ...string) ([]string, error) {
	return generator.GenerateFromConfig(configPath, nil, singleClient...)
}

// ValidateSpec loads an OpenAPI document and returns its validation
// findings. The error covers loading only; findings never abort.
//
// Example:
//
//	findings, err := pyopenapigen.ValidateSpec("./openapi.yaml")
//	if err != nil {
//		log.Fatalf("cannot load spec: %v", err)
//	}
//	for _, f := range findings {
//		log.Println(f)
//	}
func ValidateSpec(specPath string) ([]string, error) {
	return generator.ValidateSpec(specPath)
}

// GenerateOptions contains options for a generation run.
type GenerateOptions struct {
	// ConfigPath is the path to the configuration file (optional).
	ConfigPath string

	// SingleClient generates only the named client from config (optional).
	SingleClient string

	// Fallback options when no config file is provided.
	Spec        string // OpenAPI document path or URL
	Type        string // Generator type (e.g., "python")
	OutDir      string // Output directory
	PackageName string // Python package name for the output
	CorePackage string // Runtime package imported by generated code
	Name        string // Client name in run reporting

	// Validate merges document validation findings into the warnings.
	Validate bool

	// Parser knobs; zero values mean library defaults.
	MaxDepth    int
	MaxCycles   int
	DebugCycles bool
}
