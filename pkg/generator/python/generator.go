// Package python renders a Python models package from the resolved IR: one
// module per arena schema (dataclass, enum or type alias), a models
// re-export hub and the package scaffolding, with import blocks computed per
// module by the render context.
package python

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/config"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/pytype"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/render"
)

//go:embed templates/*
var templatesFS embed.FS

// modelsPackage is the subpackage generated model modules live in.
const modelsPackage = "models"

// Generator renders Python model packages.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a Python generator. A nil logger is replaced with a
// nop logger.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// GetType returns the generator type identifier.
func (g *Generator) GetType() string {
	return "python"
}

// moduleEntry pairs an arena schema with its emission identity.
type moduleEntry struct {
	schema *ir.IRSchema
	stem   string
	class  string
}

// moduleExport is one line of the models re-export hub.
type moduleExport struct {
	Stem  string
	Class string
}

type enumView struct {
	Imports   string
	ClassName string
	Base      string
	Docstring string
	Members   []enumMember
}

type classView struct {
	Imports    string
	ClassName  string
	Summary    string
	Attributes []string
	Fields     []classField
}

type aliasView struct {
	Imports   string
	AliasName string
	Target    string
	Docstring string
}

type initView struct {
	Modules []moduleExport
}

type packageView struct {
	Title   string
	Version string
}

// Generate renders the models package for client from the resolved spec.
// Every renderable schema produces one module; per-module failures are
// collected and reported together instead of aborting at the first bad
// schema.
func (g *Generator) Generate(client config.Client, spec *ir.IRSpec) error {
	pkgDir := filepath.Join(client.OutDir, client.PackageName)
	modelsDir := filepath.Join(pkgDir, modelsPackage)
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating models directory %s", modelsDir)
	}

	entries := emittableSchemas(spec)
	resolver := pytype.NewResolver(spec.Schemas, g.logger)
	rctx := render.NewRenderContext(client.PackageName, client.CorePackage, g.logger)
	// Announce every planned module up front so cross-module references can
	// break import cycles with conditional imports.
	for _, entry := range entries {
		rctx.RegisterModule(modelsPackage+"."+entry.stem, entry.class)
	}

	funcMap := template.FuncMap{}
	for k, v := range sprig.FuncMap() {
		funcMap[k] = v
	}

	var errs *multierror.Error
	exports := make([]moduleExport, 0, len(entries))
	for _, entry := range entries {
		rctx.SetCurrentFile(modelsPackage + "." + entry.stem)
		templateName, view, err := g.buildModule(entry, resolver, rctx)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "model %s", entry.schema.Name))
			continue
		}
		target := filepath.Join(modelsDir, entry.stem+".py")
		if err := renderFile(templateName, target, funcMap, view); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		exports = append(exports, moduleExport{Stem: entry.stem, Class: entry.class})
		g.logger.Debug("rendered model",
			zap.String("schema", entry.schema.Name),
			zap.String("file", target))
	}

	if err := renderFile("models_init.py.gotmpl", filepath.Join(modelsDir, "__init__.py"), funcMap, initView{Modules: exports}); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := renderFile("package_init.py.gotmpl", filepath.Join(pkgDir, "__init__.py"), funcMap, packageView{Title: spec.Title, Version: spec.Version}); err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, marker := range []string{filepath.Join(pkgDir, "py.typed"), filepath.Join(modelsDir, "py.typed")} {
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "writing %s", marker))
		}
	}

	return errs.ErrorOrNil()
}

// emittableSchemas selects and orders the arena schemas that get modules:
// sorted by arena name, minus the discriminator skip list.
func emittableSchemas(spec *ir.IRSpec) []moduleEntry {
	names := lo.Keys(spec.Schemas)
	sort.Strings(names)

	entries := make([]moduleEntry, 0, len(names))
	for _, name := range names {
		if _, skip := spec.DiscriminatorSkipList[name]; skip {
			continue
		}
		schema := spec.Schemas[name]
		if schema == nil || schema.GenerationName == "" || schema.FinalModuleStem == "" {
			continue
		}
		entries = append(entries, moduleEntry{
			schema: schema,
			stem:   schema.FinalModuleStem,
			class:  schema.GenerationName,
		})
	}
	return entries
}

// buildModule assembles the template view for one schema. Type resolution
// happens here, so the import block is rendered last, after every reference
// has registered itself.
func (g *Generator) buildModule(entry moduleEntry, resolver *pytype.Resolver, rctx *render.RenderContext) (string, any, error) {
	schema := entry.schema
	switch classify(schema) {
	case kindEnum:
		rctx.AddImport("enum", "Enum")
		rctx.AddImport("enum", "unique")
		rctx.AddPlainImport("json")
		view := enumView{
			ClassName: entry.class,
			Base:      enumPyBase(schema.Type),
			Docstring: schema.Description,
			Members:   enumMembers(schema),
		}
		if view.Docstring == "" {
			view.Docstring = "An enumeration."
		}
		view.Imports = rctx.RenderImports()
		return "enum.py.gotmpl", view, nil

	case kindDataclass:
		rctx.AddImport("dataclasses", "dataclass")
		fields, err := buildFields(schema, resolver, rctx)
		if err != nil {
			return "", nil, err
		}
		view := classView{
			ClassName:  entry.class,
			Summary:    schema.Description,
			Attributes: attributeLines(fields),
			Fields:     orderForBody(fields),
		}
		if view.Summary == "" {
			view.Summary = "Data model for " + entry.class
		}
		view.Imports = rctx.RenderImports()
		return "model.py.gotmpl", view, nil

	default:
		rctx.AddTypingImport("TypeAlias")
		target, err := aliasTarget(schema, resolver, rctx)
		if err != nil {
			return "", nil, err
		}
		view := aliasView{
			AliasName: entry.class,
			Target:    target,
			Docstring: schema.Description,
		}
		view.Imports = rctx.RenderImports()
		return "alias.py.gotmpl", view, nil
	}
}

// renderFile renders one embedded template to the target path.
func renderFile(templateName, targetPath string, funcMap template.FuncMap, data any) error {
	content, err := templatesFS.ReadFile("templates/" + templateName)
	if err != nil {
		return errors.Wrapf(err, "reading template %s", templateName)
	}

	tmpl, err := template.New(templateName).Funcs(funcMap).Parse(string(content))
	if err != nil {
		return errors.Wrapf(err, "parsing template %s", templateName)
	}

	file, err := os.Create(targetPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", targetPath)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return errors.Wrapf(err, "rendering %s", targetPath)
	}
	return nil
}
