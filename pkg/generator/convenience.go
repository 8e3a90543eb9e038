package generator

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/config"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/openapi"
)

// GenerateClient is the minimal-ceremony entry point: one Python models
// package from a spec path or URL, no configuration file required.
func GenerateClient(spec, outDir, packageName, clientName string) ([]string, error) {
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	return NewService(nil).Generate(GenerateOptions{
		Fallback: FallbackOptions{
			Spec:        spec,
			Type:        "python",
			OutDir:      absOutDir,
			PackageName: packageName,
			Name:        clientName,
		},
	})
}

// GenerateFromConfig generates every configured client, or just singleClient
// when given, from a configuration file.
func GenerateFromConfig(configPath string, logger *zap.Logger, singleClient ...string) ([]string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	only := ""
	if len(singleClient) > 0 {
		only = singleClient[0]
	}
	return NewService(logger).GenerateFromConfig(cfg, only)
}

// ValidateSpec loads a document and returns its validation findings. The
// error covers loading only; validation findings are warnings, not failures.
func ValidateSpec(specPath string) ([]string, error) {
	doc, err := openapi.LoadDocument(specPath)
	if err != nil {
		return nil, err
	}
	return openapi.ValidateDocument(doc), nil
}
