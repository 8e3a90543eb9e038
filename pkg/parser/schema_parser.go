// Package parser turns raw OpenAPI schema nodes into IR schemas. Parsing is
// recursive with an explicit guard: cycles and depth overruns degrade to
// placeholder schemas instead of errors, so one bad loop never sinks a whole
// document.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// nodeShape is the closed set of shapes a schema node can take. Every node
// is classified exactly once at parse entry; nodes mixing keywords follow
// the priority order below and the losing keywords are ignored.
type nodeShape int

const (
	shapeRef nodeShape = iota
	shapeAllOf
	shapeAnyOf
	shapeOneOf
	shapeArray
	shapeObject
	shapeEnum
	shapeScalar
)

// ParseSchema recursively parses a raw schema node into an IRSchema,
// resolving $ref targets through the arena and degrading cycles and depth
// overruns to placeholders. name is the parse context: bare names become
// arena names, dotted names mark inline property positions and stay
// anonymous so post-passes can tell inline nodes apart.
func ParseSchema(name string, node any, ctx *ParsingContext) *ir.IRSchema {
	guard := ctx.EnterSchema(name)
	switch guard.Kind {
	case GuardDepthExceeded:
		// Depth-only unwind: nothing was pushed for this frame.
		defer ctx.ExitSchema("")
		return maxDepthPlaceholder(name, ctx)
	case GuardCycle:
		// The stack entry belongs to the enclosing frame.
		defer ctx.ExitSchema("")
		return cyclePlaceholder(name, guard.CyclePath, ctx)
	}
	defer ctx.ExitSchema(name)

	raw := asMap(node)
	if raw == nil {
		schema := &ir.IRSchema{}
		if isArenaName(name) {
			schema.Name = utils.SanitizeClassName(name)
		}
		return schema
	}

	shape, typ, nullable := classifyNode(name, raw, ctx)
	if shape == shapeRef {
		return resolveSchemaRef(stringValue(raw["$ref"]), name, ctx)
	}

	schema := &ir.IRSchema{
		Format:      stringValue(raw["format"]),
		Description: stringValue(raw["description"]),
		Default:     raw["default"],
		Example:     raw["example"],
		IsNullable:  nullable,
	}
	if b, ok := raw["nullable"].(bool); ok && b {
		schema.IsNullable = true
	}
	schema.Discriminator = parseDiscriminator(raw)

	switch shape {
	case shapeAllOf:
		merged, requiredSet, components := processAllOf(raw, name, ctx)
		schema.AllOf = components
		schema.Properties = merged
		schema.Required = requiredAmong(setToSlice(requiredSet), merged)
		if len(merged) > 0 {
			schema.Type = "object"
		} else {
			applyRawType(schema, name, raw, ctx)
		}

	case shapeAnyOf:
		members, memberNull := parseCompositionMembers(anySlice(raw["anyOf"]), ctx)
		if memberNull {
			schema.IsNullable = true
		}
		if len(members) == 0 {
			applyRawType(schema, name, raw, ctx)
		} else {
			schema.AnyOf = members
		}

	case shapeOneOf:
		members, memberNull := parseCompositionMembers(anySlice(raw["oneOf"]), ctx)
		if memberNull {
			schema.IsNullable = true
		}
		if len(members) == 0 {
			applyRawType(schema, name, raw, ctx)
		} else {
			schema.OneOf = members
		}

	case shapeArray:
		schema.Type = "array"
		if items := asMap(raw["items"]); items != nil {
			itemName := ""
			if name != "" {
				itemName = name + "Item"
			}
			schema.Items = ParseSchema(itemName, items, ctx)
		}

	case shapeObject:
		schema.Type = "object"
		props := asMap(raw["properties"])
		for _, key := range sortedKeys(props) {
			parsed := ParseSchema(name+"."+key, props[key], ctx)
			if promoted := promoteInlineObject(name, key, parsed, ctx); promoted != nil {
				parsed = promoted
			}
			schema.Properties = append(schema.Properties, ir.IRProperty{Name: key, Schema: parsed})
		}
		schema.Required = requiredAmong(stringSlice(raw["required"]), schema.Properties)
		if enum := anySlice(raw["enum"]); enum != nil {
			schema.Enum = append([]any(nil), enum...)
		}

	case shapeEnum:
		schema.Type = typ
		schema.Enum = append([]any(nil), anySlice(raw["enum"])...)

	case shapeScalar:
		schema.Type = typ
	}

	switch ap := raw["additionalProperties"].(type) {
	case bool:
		schema.AdditionalProperties = ap
	case map[string]any:
		schema.AdditionalProperties = ParseSchema("", ap, ctx)
	}

	return registerParsed(name, schema, ctx)
}

// classifyNode decides the node's shape once, at parse entry. Reference and
// composition keywords win in priority order; only non-composition nodes
// have their type facet normalized, so type warnings fire at most once per
// node.
func classifyNode(name string, raw map[string]any, ctx *ParsingContext) (shape nodeShape, typ string, nullable bool) {
	switch {
	case stringValue(raw["$ref"]) != "":
		return shapeRef, "", false
	case anySlice(raw["allOf"]) != nil:
		return shapeAllOf, "", false
	case anySlice(raw["anyOf"]) != nil:
		return shapeAnyOf, "", false
	case anySlice(raw["oneOf"]) != nil:
		return shapeOneOf, "", false
	}

	primary, nullable, warnings := NormalizeType(raw["type"], name)
	for _, w := range warnings {
		ctx.Warnf("%s", w)
	}
	if primary != nil {
		typ = *primary
	}

	switch {
	case typ == "array":
		return shapeArray, typ, nullable
	case typ == "object",
		asMap(raw["properties"]) != nil,
		inlineObjectByDefault(name, raw, typ):
		return shapeObject, "object", nullable
	case anySlice(raw["enum"]) != nil:
		return shapeEnum, typ, nullable
	default:
		return shapeScalar, typ, nullable
	}
}

// inlineObjectByDefault reports whether a typeless inline property node is
// treated as an object so the promoter gets a chance at it. Bare component
// names never default: an empty top-level schema stays typeless.
func inlineObjectByDefault(name string, raw map[string]any, typ string) bool {
	return strings.Contains(name, ".") && typ == "" && anySlice(raw["enum"]) == nil
}

// applyRawType falls back to the node's own type facet. Used by composition
// branches whose member lists emptied out, such as null-only unions.
func applyRawType(schema *ir.IRSchema, name string, raw map[string]any, ctx *ParsingContext) {
	primary, nullable, warnings := NormalizeType(raw["type"], name)
	for _, w := range warnings {
		ctx.Warnf("%s", w)
	}
	if primary != nil {
		schema.Type = *primary
	}
	if nullable {
		schema.IsNullable = true
	}
}

func parseDiscriminator(raw map[string]any) *ir.IRDiscriminator {
	node := asMap(raw["discriminator"])
	if node == nil {
		return nil
	}
	propertyName := stringValue(node["propertyName"])
	if propertyName == "" {
		return nil
	}
	d := &ir.IRDiscriminator{PropertyName: propertyName}
	if mapping := asMap(node["mapping"]); mapping != nil {
		d.Mapping = make(map[string]string, len(mapping))
		for k, v := range mapping {
			d.Mapping[k] = stringValue(v)
		}
	}
	return d
}

// requiredAmong filters declared required names down to defined property
// slots, deduplicated and sorted. Names satisfiable only through
// additionalProperties are dropped.
func requiredAmong(declared []string, slots []ir.IRProperty) []string {
	if len(declared) == 0 || len(slots) == 0 {
		return nil
	}
	defined := make(map[string]struct{}, len(slots))
	for i := range slots {
		defined[slots[i].Name] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(declared))
	for _, r := range declared {
		if _, ok := defined[r]; !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// registerParsed applies the registration policy: arena names (no dot) name
// the schema and insert it, dotted property contexts stay anonymous, and
// unresolved placeholders never enter the arena.
func registerParsed(name string, schema *ir.IRSchema, ctx *ParsingContext) *ir.IRSchema {
	if !isArenaName(name) {
		return schema
	}
	schema.Name = utils.SanitizeClassName(name)
	if schema.FromUnresolvedRef {
		return schema
	}
	ctx.Register(name, schema)
	return schema
}

// isArenaName reports whether a parse context name addresses the arena.
// Dotted names are inline property positions.
func isArenaName(name string) bool {
	return name != "" && !strings.Contains(name, ".")
}

// maxDepthPlaceholder degrades a schema that would exceed the recursion
// limit into a registered placeholder so parsing can continue above it.
func maxDepthPlaceholder(name string, ctx *ParsingContext) *ir.IRSchema {
	ctx.CycleDetected = true
	display := displayParseName(name)
	ctx.Warnf("Maximum recursion depth (%d) exceeded while parsing schema '%s'.", ctx.MaxDepth(), display)

	schema, ok := ctx.Lookup(name)
	if !ok {
		schema = &ir.IRSchema{}
		if isArenaName(name) {
			ctx.Register(name, schema)
		}
	}
	if name != "" {
		schema.Name = utils.SanitizeClassName(name)
	}
	schema.Type = "object"
	schema.Description = fmt.Sprintf("[Maximum recursion depth (%d) exceeded for '%s']", ctx.MaxDepth(), display)
	schema.IsCircularRef = true
	schema.CircularRefPath = display + " -> MAX_DEPTH_EXCEEDED"
	schema.FromUnresolvedRef = true
	return schema
}

func displayParseName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}
