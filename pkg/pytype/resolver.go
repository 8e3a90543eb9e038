package pytype

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

// modelsPackage is where generated model modules live, relative to the
// package root.
const modelsPackage = "models"

// stringFormats refines "string" by declared format. Entries with a module
// register an import; unrecognized formats stay plain str.
var stringFormats = map[string]struct {
	pyType string
	module string
}{
	"date":      {pyType: "date", module: "datetime"},
	"date-time": {pyType: "datetime", module: "datetime"},
	"time":      {pyType: "time", module: "datetime"},
	"uuid":      {pyType: "UUID", module: "uuid"},
	"binary":    {pyType: "bytes"},
	"byte":      {pyType: "bytes"},
	"email":     {pyType: "str"},
	"uri":       {pyType: "str"},
	"hostname":  {pyType: "str"},
	"ipv4":      {pyType: "str"},
	"ipv6":      {pyType: "str"},
}

// Resolver maps IR schemas onto Python types. It holds the finished arena so
// lightweight references installed by promotion can hop to their targets.
type Resolver struct {
	schemas map[string]*ir.IRSchema
	logger  *zap.Logger
}

// NewResolver builds a resolver over the finished arena. A nil logger is
// replaced with a nop logger.
func NewResolver(schemas map[string]*ir.IRSchema, logger *zap.Logger) *Resolver {
	if schemas == nil {
		schemas = map[string]*ir.IRSchema{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{schemas: schemas, logger: logger}
}

// Resolve maps schema onto a Python type for the module behind mctx.
// Container elements are always resolved as required; the returned IsOptional
// reflects only this schema's own required/nullable state.
func (r *Resolver) Resolve(schema *ir.IRSchema, mctx ModuleContext, required bool) (ResolvedType, error) {
	return r.resolve(schema, mctx, required, false)
}

// ResolveUnderlying is Resolve for alias targets: a named primitive alias
// unwraps to its underlying type instead of its class name. Object and enum
// models keep their class names even here.
func (r *Resolver) ResolveUnderlying(schema *ir.IRSchema, mctx ModuleContext, required bool) (ResolvedType, error) {
	return r.resolve(schema, mctx, required, true)
}

func (r *Resolver) resolve(schema *ir.IRSchema, mctx ModuleContext, required, underlying bool) (ResolvedType, error) {
	if schema == nil {
		return r.resolveAny(mctx, required), nil
	}

	if schema.Ref != "" {
		target, ok := r.schemas[refName(schema.Ref)]
		if !ok {
			return ResolvedType{}, errors.Errorf("cannot resolve reference %q", schema.Ref)
		}
		return r.resolve(target, mctx, required, underlying)
	}

	if schema.Name != "" && schema.GenerationName != "" && (!underlying || keepsClassName(schema)) {
		return r.resolveNamed(schema, mctx, required), nil
	}

	switch {
	case len(schema.AnyOf) > 0:
		return r.resolveUnion(schema, schema.AnyOf, mctx, required, underlying)
	case len(schema.AllOf) > 0:
		return r.resolveAllOf(schema, mctx, required, underlying)
	case len(schema.OneOf) > 0:
		return r.resolveUnion(schema, schema.OneOf, mctx, required, underlying)
	}

	// Names without a finalized identity are lightweight references left by
	// promotion passes; hop to the canonical arena instance.
	if schema.Name != "" {
		if target, ok := r.schemas[schema.Name]; ok && target != schema {
			return r.resolve(target, mctx, required, underlying)
		}
	}

	// The type tag may name an arena schema when a slot was rewritten to
	// point at a promoted model.
	if schema.Type != "" {
		if target, ok := r.schemas[schema.Type]; ok && target != schema && target.Name != "" {
			return r.resolve(target, mctx, required, underlying)
		}
	}

	switch schema.Type {
	case "string":
		return r.resolveString(schema, mctx, required), nil
	case "integer":
		return ResolvedType{PythonType: "int", IsOptional: optionalFor(schema, required)}, nil
	case "number":
		return ResolvedType{PythonType: "float", IsOptional: optionalFor(schema, required)}, nil
	case "boolean":
		return ResolvedType{PythonType: "bool", IsOptional: optionalFor(schema, required)}, nil
	case "null":
		return ResolvedType{PythonType: "None", IsOptional: true}, nil
	case "array":
		return r.resolveArray(schema, mctx, required, underlying)
	case "object":
		return r.resolveObject(schema, mctx, required), nil
	case "":
		res := r.resolveAny(mctx, required)
		res.IsOptional = optionalFor(schema, required)
		return res, nil
	}

	r.logger.Warn("unknown schema type",
		zap.String("schema", schema.Name),
		zap.String("type", schema.Type))
	res := r.resolveAny(mctx, required)
	res.IsOptional = optionalFor(schema, required)
	return res, nil
}

// resolveNamed emits a model reference: an import when the target lives in
// another module, a quoted forward reference when importing it is impossible.
func (r *Resolver) resolveNamed(schema *ir.IRSchema, mctx ModuleContext, required bool) ResolvedType {
	className := schema.GenerationName
	if schema.FinalModuleStem == "" {
		r.logger.Warn("named schema has no module stem",
			zap.String("schema", schema.Name),
			zap.String("class", className))
		return ResolvedType{PythonType: className, IsOptional: optionalFor(schema, required)}
	}

	module, forward := mctx.ResolveRelativeOrForward(modelsPackage + "." + schema.FinalModuleStem)
	if forward {
		return ResolvedType{
			PythonType:   className,
			IsOptional:   optionalFor(schema, required),
			IsForwardRef: true,
		}
	}

	mctx.AddImport(module, className)
	return ResolvedType{
		PythonType:   className,
		NeedsImport:  true,
		ImportModule: module,
		ImportName:   className,
		IsOptional:   optionalFor(schema, required),
	}
}

func (r *Resolver) resolveString(schema *ir.IRSchema, mctx ModuleContext, required bool) ResolvedType {
	if schema.IsEnum() {
		r.logger.Warn("inline enum reached type resolution without promotion",
			zap.String("schema", schema.Name))
		return ResolvedType{PythonType: "str", IsOptional: optionalFor(schema, required)}
	}

	if ft, ok := stringFormats[schema.Format]; ok {
		if ft.module != "" {
			mctx.AddImport(ft.module, ft.pyType)
		}
		return ResolvedType{PythonType: ft.pyType, IsOptional: optionalFor(schema, required)}
	}

	return ResolvedType{PythonType: "str", IsOptional: optionalFor(schema, required)}
}

func (r *Resolver) resolveArray(schema *ir.IRSchema, mctx ModuleContext, required, underlying bool) (ResolvedType, error) {
	if schema.Items == nil {
		r.logger.Warn("array schema has no items", zap.String("schema", schema.Name))
		mctx.AddTypingImport("List")
		mctx.AddTypingImport("Any")
		return ResolvedType{PythonType: "List[Any]", IsOptional: optionalFor(schema, required)}, nil
	}

	item, err := r.resolve(schema.Items, mctx, true, underlying && isPrimitiveAlias(schema.Items))
	if err != nil {
		return ResolvedType{}, err
	}
	mctx.AddTypingImport("List")
	return ResolvedType{
		PythonType: "List[" + forwardQuoted(item) + "]",
		IsOptional: optionalFor(schema, required),
	}, nil
}

// resolveObject handles anonymous objects. Named objects resolve through
// resolveNamed, so reaching here with properties means a promotion pass
// missed the node.
func (r *Resolver) resolveObject(schema *ir.IRSchema, mctx ModuleContext, required bool) ResolvedType {
	if len(schema.Properties) > 0 {
		r.logger.Warn("anonymous object with properties reached type resolution",
			zap.String("schema", schema.Name))
	}
	mctx.AddTypingImport("Dict")
	mctx.AddTypingImport("Any")
	return ResolvedType{PythonType: "Dict[str, Any]", IsOptional: optionalFor(schema, required)}
}

// resolveUnion maps anyOf/oneOf members onto a sorted, deduplicated Union.
// Null members are folded into optionality instead of appearing in the union
// text.
func (r *Resolver) resolveUnion(schema *ir.IRSchema, members []*ir.IRSchema, mctx ModuleContext, required, underlying bool) (ResolvedType, error) {
	optional := optionalFor(schema, required)
	sawNull := false
	types := make([]string, 0, len(members))

	for _, member := range members {
		if member == nil {
			continue
		}
		resolved, err := r.resolve(member, mctx, true, underlying && isPrimitiveAlias(member))
		if err != nil {
			return ResolvedType{}, err
		}
		if resolved.PythonType == "None" {
			sawNull = true
			continue
		}
		if resolved.IsOptional {
			optional = true
		}
		types = append(types, forwardQuoted(resolved))
	}

	if sawNull {
		optional = true
	}
	sort.Strings(types)
	types = lo.Uniq(types)

	switch len(types) {
	case 0:
		if sawNull {
			return ResolvedType{PythonType: "None", IsOptional: true}, nil
		}
		return r.resolveAny(mctx, required), nil
	case 1:
		return ResolvedType{PythonType: types[0], IsOptional: optional}, nil
	}

	mctx.AddTypingImport("Union")
	return ResolvedType{
		PythonType: "Union[" + strings.Join(types, ", ") + "]",
		IsOptional: optional,
	}, nil
}

// resolveAllOf picks the first member with a concrete declared type, falling
// back to the first member, then to Any. Named allOf parents never reach
// here: their merged properties resolve through resolveNamed.
func (r *Resolver) resolveAllOf(schema *ir.IRSchema, mctx ModuleContext, required, underlying bool) (ResolvedType, error) {
	for _, member := range schema.AllOf {
		if member != nil && member.Type != "" {
			return r.resolve(member, mctx, required, underlying)
		}
	}
	for _, member := range schema.AllOf {
		if member != nil {
			return r.resolve(member, mctx, required, underlying)
		}
	}
	return r.resolveAny(mctx, required), nil
}

func (r *Resolver) resolveAny(mctx ModuleContext, required bool) ResolvedType {
	mctx.AddTypingImport("Any")
	return ResolvedType{PythonType: "Any", IsOptional: !required}
}

// keepsClassName reports whether a named schema stays a class reference even
// under underlying resolution. Object and enum models render as classes, so
// only scalar aliases, arrays and unions unwrap.
func keepsClassName(s *ir.IRSchema) bool {
	return s.IsEnum() || s.Type == "object" || len(s.Properties) > 0 || len(s.AllOf) > 0
}

// isPrimitiveAlias reports whether s is a named alias of a scalar type, the
// only shape ResolveUnderlying unwraps inside containers.
func isPrimitiveAlias(s *ir.IRSchema) bool {
	if s == nil || s.Name == "" || len(s.Properties) > 0 {
		return false
	}
	switch s.Type {
	case "string", "integer", "number", "boolean":
		return true
	}
	return false
}

func optionalFor(s *ir.IRSchema, required bool) bool {
	return !required || s.IsNullable
}

// forwardQuoted quotes forward references when they are embedded in a larger
// type expression.
func forwardQuoted(res ResolvedType) string {
	if res.IsForwardRef && !strings.HasPrefix(res.PythonType, `"`) {
		return `"` + res.PythonType + `"`
	}
	return res.PythonType
}

func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
