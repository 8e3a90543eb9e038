package cli

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/config"
)

// Environment fallbacks for parser knobs, read only at the CLI boundary.
const (
	envMaxDepth    = "PYOPENAPI_GEN_MAX_DEPTH"
	envMaxCycles   = "PYOPENAPI_GEN_MAX_CYCLES"
	envDebugCycles = "PYOPENAPI_GEN_DEBUG_CYCLES"
)

// applyParserEnv fills parser knobs still at their zero values from the
// environment. Flag and config file values always win; unparseable values
// are ignored.
func applyParserEnv(p *config.Parser) {
	if p.MaxDepth == 0 {
		if v, ok := envInt(envMaxDepth); ok {
			p.MaxDepth = v
		}
	}
	if p.MaxCycles == 0 {
		if v, ok := envInt(envMaxCycles); ok {
			p.MaxCycles = v
		}
	}
	if !p.DebugCycles {
		if v, ok := envBool(envDebugCycles); ok {
			p.DebugCycles = v
		}
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, _ := filepath.Abs(p)
	return abs
}
