package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyopenapi-gen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CompleteConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
spec: ./openapi.yaml
name: Petstore
validate: true
parser:
  maxDepth: 50
  debugCycles: true
clients:
  - type: python
    outDir: ./generated
    packageName: petstore_client
    corePackage: petstore_client.core
    name: Petstore
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Spec))
	assert.True(t, cfg.Validate)
	assert.Equal(t, 50, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Parser.DebugCycles)
	require.Len(t, cfg.Clients, 1)
	assert.Equal(t, "python", cfg.Clients[0].Type)
	assert.Equal(t, "petstore_client", cfg.Clients[0].PackageName)
	assert.Equal(t, "petstore_client.core", cfg.Clients[0].CorePackage)
	assert.True(t, filepath.IsAbs(cfg.Clients[0].OutDir))
}

func TestLoad_URLSpecStaysUntouched(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
spec: https://example.com/openapi.json
clients:
  - type: python
    outDir: /tmp/out
    packageName: client
    name: Client
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/openapi.json", cfg.Spec)
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing spec",
			"clients:\n  - type: python\n    outDir: /o\n    packageName: p\n    name: n\n",
			"spec is required",
		},
		{
			"no clients",
			"spec: ./openapi.yaml\n",
			"at least one client",
		},
		{
			"incomplete client",
			"spec: ./openapi.yaml\nclients:\n  - type: python\n    outDir: /o\n",
			"clients[0]",
		},
		{
			"bad yaml",
			"spec: [unclosed",
			"parsing config",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}
