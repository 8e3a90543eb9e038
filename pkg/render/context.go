package render

import (
	"strings"

	"go.uber.org/zap"
)

// typeCheckingCondition guards imports that exist only for static checkers.
const typeCheckingCondition = "TYPE_CHECKING"

// stdlibModules are the Python standard-library roots generated code is
// expected to touch. Anything here is imported absolutely.
var stdlibModules = map[string]struct{}{
	"abc":         {},
	"asyncio":     {},
	"base64":      {},
	"collections": {},
	"contextlib":  {},
	"dataclasses": {},
	"datetime":    {},
	"decimal":     {},
	"enum":        {},
	"functools":   {},
	"io":          {},
	"itertools":   {},
	"json":        {},
	"logging":     {},
	"math":        {},
	"os":          {},
	"pathlib":     {},
	"re":          {},
	"subprocess":  {},
	"sys":         {},
	"tempfile":    {},
	"textwrap":    {},
	"typing":      {},
	"uuid":        {},
}

// knownThirdParty are runtime dependencies a generated client may import.
var knownThirdParty = map[string]struct{}{
	"httpx":    {},
	"pydantic": {},
}

// RenderContext is the per-run state shared by every generated module. It
// implements pytype.ModuleContext: the type resolver records imports through
// it and delegates the relative-path / forward-reference decision to
// ResolveRelativeOrForward.
//
// Module paths handled here are dotted and relative to the generated package
// root ("models.pet"), never filesystem paths.
type RenderContext struct {
	collector *ImportCollector
	logger    *zap.Logger

	// packageName is the generated package ("my_client"); corePackage is
	// the runtime support package imported absolutely.
	packageName string
	corePackage string

	currentModule string

	// moduleClasses maps every planned internal module to the class it
	// exports, registered up front so cycle breaking can name the class in
	// a TYPE_CHECKING block.
	moduleClasses map[string]string

	// edges records which internal modules each rendered module imports.
	// They accumulate across the whole run; cycle detection walks them.
	edges map[string]map[string]struct{}

	// conditional imports per condition, per module. Reset per file.
	conditional map[string]map[string]map[string]struct{}
}

// NewRenderContext builds a context for one generation run. A nil logger is
// replaced with a nop logger; an empty corePackage defaults to "core".
func NewRenderContext(packageName, corePackage string, logger *zap.Logger) *RenderContext {
	if corePackage == "" {
		corePackage = "core"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderContext{
		collector:     NewImportCollector(),
		logger:        logger,
		packageName:   packageName,
		corePackage:   corePackage,
		moduleClasses: map[string]string{},
		edges:         map[string]map[string]struct{}{},
		conditional:   map[string]map[string]map[string]struct{}{},
	}
}

// SetCurrentFile switches the context to the module about to be rendered and
// resets all per-file state. Dependency edges survive: they describe the run,
// not the file.
func (c *RenderContext) SetCurrentFile(module string) {
	c.currentModule = module
	c.collector.Reset()
	c.conditional = map[string]map[string]map[string]struct{}{}
}

// CurrentModule returns the module being rendered.
func (c *RenderContext) CurrentModule() string { return c.currentModule }

// RegisterModule announces a planned internal module and the class it will
// export, before any file is rendered.
func (c *RenderContext) RegisterModule(module, className string) {
	if module == "" {
		return
	}
	c.moduleClasses[module] = className
}

// AddImport classifies module and routes it to the right collector group:
// already-relative paths stay relative, core/stdlib/known third-party go in
// absolutely, internal modules are rewritten relative to the current module,
// and anything unknown is treated as an external absolute import.
func (c *RenderContext) AddImport(module, name string) {
	if module == "" {
		return
	}
	top, _, _ := strings.Cut(module, ".")
	switch {
	case strings.HasPrefix(module, "."):
		c.collector.AddRelativeImport(module, name)
	case module == c.corePackage || strings.HasPrefix(module, c.corePackage+"."):
		c.collector.AddImport(module, name)
	case isStdlib(top):
		c.collector.AddImport(module, name)
	case isKnownThirdParty(top):
		c.collector.AddImport(module, name)
	case c.isInternal(module):
		c.addInternalImport(module, name)
	default:
		c.collector.AddImport(module, name)
	}
}

// AddTypingImport records a typing import.
func (c *RenderContext) AddTypingImport(name string) {
	c.collector.AddTypingImport(name)
}

// AddPlainImport records "import module".
func (c *RenderContext) AddPlainImport(module string) {
	c.collector.AddPlainImport(module)
}

// AddConditionalImport records an import emitted under "if condition:".
// TYPE_CHECKING conditions pull in the typing.TYPE_CHECKING flag as well.
func (c *RenderContext) AddConditionalImport(condition, module, name string) {
	if condition == "" || module == "" || name == "" {
		return
	}
	modules, ok := c.conditional[condition]
	if !ok {
		modules = map[string]map[string]struct{}{}
		c.conditional[condition] = modules
	}
	addName(modules, module, name)
	if condition == typeCheckingCondition {
		c.collector.AddTypingImport(typeCheckingCondition)
	}
}

// ResolveRelativeOrForward decides how the current module references target.
// The current module itself is a forward reference. A target whose recorded
// imports already reach back to the current module must not be imported —
// that would close a module-level import cycle — so it also becomes a
// forward reference, surfaced to checkers through a TYPE_CHECKING import.
// Everything else records a dependency edge and imports relatively.
func (c *RenderContext) ResolveRelativeOrForward(target string) (string, bool) {
	if target == "" || target == c.currentModule {
		return "", true
	}
	if c.pathExists(target, c.currentModule) {
		if class, ok := c.moduleClasses[target]; ok {
			c.AddConditionalImport(typeCheckingCondition, c.CalculateRelativePath(target), class)
		} else {
			c.logger.Debug("breaking import cycle to unregistered module",
				zap.String("from", c.currentModule),
				zap.String("target", target))
		}
		return "", true
	}
	c.addEdge(c.currentModule, target)
	return c.CalculateRelativePath(target), false
}

// CalculateRelativePath computes the relative import path from the current
// module to target, purely lexically: shared directory segments are dropped,
// one dot per remaining level plus the leading dot of a relative import.
func (c *RenderContext) CalculateRelativePath(target string) string {
	if target == "" || target == c.currentModule {
		return ""
	}
	currentParts := strings.Split(c.currentModule, ".")
	currentDir := currentParts[:len(currentParts)-1]
	targetParts := strings.Split(target, ".")

	common := 0
	for common < len(currentDir) && common < len(targetParts)-1 && currentDir[common] == targetParts[common] {
		common++
	}
	dots := strings.Repeat(".", len(currentDir)-common+1)
	return dots + strings.Join(targetParts[common:], ".")
}

// RenderImports renders the current module's import block: the regular
// groups from the collector followed by any conditional blocks.
func (c *RenderContext) RenderImports() string {
	lines := c.collector.ImportStatements()
	for _, condition := range sortedKeys(c.conditional) {
		modules := c.conditional[condition]
		lines = append(lines, "", "if "+condition+":")
		for _, module := range sortedKeys(modules) {
			names := sortedKeys(modules[module])
			lines = append(lines, "    from "+module+" import "+strings.Join(names, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// Collector exposes the per-file collector for callers that need direct
// access (tests, emitters merging blocks).
func (c *RenderContext) Collector() *ImportCollector { return c.collector }

func (c *RenderContext) isInternal(module string) bool {
	if c.packageName == "" {
		return false
	}
	return module == c.packageName || strings.HasPrefix(module, c.packageName+".")
}

// addInternalImport rewrites a package-absolute internal path relative to
// the current module. Self-imports are dropped.
func (c *RenderContext) addInternalImport(module, name string) {
	target := strings.TrimPrefix(module, c.packageName+".")
	if target == c.packageName || target == c.currentModule {
		return
	}
	rel := c.CalculateRelativePath(target)
	if rel == "" {
		return
	}
	c.collector.AddRelativeImport(rel, name)
}

func (c *RenderContext) addEdge(from, to string) {
	if from == "" || from == to {
		return
	}
	next, ok := c.edges[from]
	if !ok {
		next = map[string]struct{}{}
		c.edges[from] = next
	}
	next[to] = struct{}{}
}

// pathExists walks recorded edges depth-first looking for a route from one
// module to another.
func (c *RenderContext) pathExists(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]struct{}{}
	stack := []string{from}
	for len(stack) > 0 {
		module := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if module == to {
			return true
		}
		if _, ok := seen[module]; ok {
			continue
		}
		seen[module] = struct{}{}
		for next := range c.edges[module] {
			stack = append(stack, next)
		}
	}
	return false
}

func isStdlib(top string) bool {
	_, ok := stdlibModules[top]
	return ok
}

func isKnownThirdParty(top string) bool {
	_, ok := knownThirdParty[top]
	return ok
}
