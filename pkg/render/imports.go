// Package render tracks per-module state while Python files are being
// generated: which names each module imports, how sibling modules reach each
// other, and when a reference has to become a quoted forward reference
// instead of an import.
package render

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ImportCollector gathers the imports of one generated module and formats
// them deterministically. Absolute ("from typing import Any"), relative
// ("from ..models.pet import Pet") and plain ("import json") imports are kept
// in separate groups.
type ImportCollector struct {
	absolute map[string]map[string]struct{}
	relative map[string]map[string]struct{}
	plain    map[string]struct{}
}

func NewImportCollector() *ImportCollector {
	c := &ImportCollector{}
	c.Reset()
	return c
}

// Reset drops every recorded import so the collector can serve the next
// module.
func (c *ImportCollector) Reset() {
	c.absolute = map[string]map[string]struct{}{}
	c.relative = map[string]map[string]struct{}{}
	c.plain = map[string]struct{}{}
}

// AddImport records "from module import name".
func (c *ImportCollector) AddImport(module, name string) {
	if module == "" || name == "" {
		return
	}
	addName(c.absolute, module, name)
}

// AddImports records several names from one module.
func (c *ImportCollector) AddImports(module string, names ...string) {
	for _, name := range names {
		c.AddImport(module, name)
	}
}

// AddTypingImport records a name imported from typing.
func (c *ImportCollector) AddTypingImport(name string) {
	c.AddImport("typing", name)
}

// AddRelativeImport records "from .module import name"; module must already
// carry its leading dots.
func (c *ImportCollector) AddRelativeImport(module, name string) {
	if module == "" || name == "" {
		return
	}
	addName(c.relative, module, name)
}

// AddPlainImport records "import module".
func (c *ImportCollector) AddPlainImport(module string) {
	if module == "" {
		return
	}
	c.plain[module] = struct{}{}
}

// HasImport reports whether name is already recorded for module in either
// the absolute or relative group.
func (c *ImportCollector) HasImport(module, name string) bool {
	if names, ok := c.absolute[module]; ok {
		if _, ok := names[name]; ok {
			return true
		}
	}
	if names, ok := c.relative[module]; ok {
		_, ok := names[name]
		return ok
	}
	return false
}

// ImportStatements renders every recorded import, plain imports first, then
// absolute, then relative, each group sorted by module with sorted name
// lists. The ordering is part of the deterministic-output contract.
func (c *ImportCollector) ImportStatements() []string {
	statements := make([]string, 0, len(c.plain)+len(c.absolute)+len(c.relative))
	for _, module := range sortedKeys(c.plain) {
		statements = append(statements, "import "+module)
	}
	statements = append(statements, fromImports(c.absolute)...)
	statements = append(statements, fromImports(c.relative)...)
	return statements
}

// Formatted returns the import statements as one newline-joined block.
func (c *ImportCollector) Formatted() string {
	return strings.Join(c.ImportStatements(), "\n")
}

// Merge folds every import recorded on other into this collector.
func (c *ImportCollector) Merge(other *ImportCollector) {
	if other == nil {
		return
	}
	for module, names := range other.absolute {
		for name := range names {
			c.AddImport(module, name)
		}
	}
	for module, names := range other.relative {
		for name := range names {
			c.AddRelativeImport(module, name)
		}
	}
	for module := range other.plain {
		c.AddPlainImport(module)
	}
}

func addName(group map[string]map[string]struct{}, module, name string) {
	names, ok := group[module]
	if !ok {
		names = map[string]struct{}{}
		group[module] = names
	}
	names[name] = struct{}{}
}

func fromImports(group map[string]map[string]struct{}) []string {
	statements := make([]string, 0, len(group))
	for _, module := range sortedKeys(group) {
		names := sortedKeys(group[module])
		statements = append(statements, "from "+module+" import "+strings.Join(names, ", "))
	}
	return statements
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
