package parser

import (
	"strings"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

const schemaRefPrefix = "#/components/schemas/"

// generationSuffixes are ref-name suffixes produced by spec generators; a
// dangling ref is retried against its stripped base name.
var generationSuffixes = []string{"Response", "Create", "Update", "Request", "Input", "Output", "Data"}

// resolveSchemaRef resolves a $ref value to an arena schema, handling cycles
// and dangling targets. It never fails: unsupported and unresolvable refs
// degrade to placeholder schemas plus a warning.
func resolveSchemaRef(refValue, contextName string, ctx *ParsingContext) *ir.IRSchema {
	if !strings.HasPrefix(refValue, schemaRefPrefix) {
		ctx.Warnf("Unsupported or invalid $ref format: %s", refValue)
		return &ir.IRSchema{Name: contextName, FromUnresolvedRef: true}
	}
	refName := refValue[strings.LastIndex(refValue, "/")+1:]

	// Target still being parsed: degrade to a circular placeholder. The
	// placeholder is registered before the referrer finalizes so every
	// referrer shares one instance.
	if ctx.OnStack(refName) {
		return cyclePlaceholder(refName, ctx.PathTo(refName), ctx)
	}

	if cached, ok := ctx.Lookup(refName); ok {
		return cached
	}

	node, ok := ctx.RawSchemas[refName]
	if !ok {
		return resolveDanglingRef(refValue, refName, ctx)
	}

	// Reserve the name ahead of the parse so promotion cannot claim it for
	// an unrelated inline object in the meantime.
	stub := &ir.IRSchema{Name: refName}
	ctx.Register(refName, stub)

	parsed := ParseSchema(refName, node, ctx)
	ctx.Register(refName, parsed)
	return parsed
}

// cyclePlaceholder marks the arena entry for name as circular, creating it
// when absent. Reusing the existing entry keeps placeholder identity stable
// across repeated resolutions of the same cycle.
func cyclePlaceholder(name, cyclePath string, ctx *ParsingContext) *ir.IRSchema {
	ctx.CycleDetected = true

	schema, ok := ctx.Lookup(name)
	if !ok {
		schema = &ir.IRSchema{}
		ctx.Register(name, schema)
	}
	schema.Name = utils.SanitizeClassName(name)
	schema.Type = "object"
	schema.Description = "[Circular reference detected: " + cyclePath + "]"
	schema.IsCircularRef = true
	schema.CircularRefPath = cyclePath
	schema.FromUnresolvedRef = true
	return schema
}

// resolveDanglingRef retries a missing ref target against generated-name
// conventions before giving up with an unresolved placeholder.
func resolveDanglingRef(refValue, refName string, ctx *ParsingContext) *ir.IRSchema {
	const listSuffix = "ListResponse"
	if base := strings.TrimSuffix(refName, listSuffix); base != refName {
		if node, ok := ctx.RawSchemas[base]; ok {
			ctx.Warnf("Resolved $ref: %s by falling back to LIST of base name '%s'.", refValue, base)
			item := ParseSchema(base, node, ctx)
			if !item.FromUnresolvedRef {
				resolved := &ir.IRSchema{Name: refName, Type: "array", Items: item}
				ctx.Register(refName, resolved)
				return resolved
			}
		}
	}

	stripped := refName
	for _, suffix := range generationSuffixes {
		if strings.HasSuffix(stripped, suffix) {
			stripped = strings.TrimSuffix(stripped, suffix)
			break
		}
	}
	if stripped != refName {
		if node, ok := ctx.RawSchemas[stripped]; ok {
			ctx.Warnf("Resolved $ref: %s by falling back to stripped name '%s'.", refValue, stripped)
			base := ParseSchema(stripped, node, ctx)
			var resolved *ir.IRSchema
			if base.FromUnresolvedRef {
				resolved = &ir.IRSchema{Name: refName, FromUnresolvedRef: true}
			} else {
				resolved = cloneSchema(base)
				resolved.Name = refName
			}
			ctx.Register(refName, resolved)
			return resolved
		}
	}

	ctx.Warnf("Could not resolve $ref: %s (no component schema named '%s').", refValue, refName)
	return &ir.IRSchema{Name: refName, FromUnresolvedRef: true}
}

// cloneSchema copies a schema one level deep: slice and map headers are
// copied, member schemas stay shared. Enough for renamed fallback aliases;
// deep copies would have to deal with cycles.
func cloneSchema(s *ir.IRSchema) *ir.IRSchema {
	out := *s
	if s.Properties != nil {
		out.Properties = append([]ir.IRProperty(nil), s.Properties...)
	}
	if s.Required != nil {
		out.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		out.Enum = append([]any(nil), s.Enum...)
	}
	if s.AnyOf != nil {
		out.AnyOf = append([]*ir.IRSchema(nil), s.AnyOf...)
	}
	if s.AllOf != nil {
		out.AllOf = append([]*ir.IRSchema(nil), s.AllOf...)
	}
	if s.OneOf != nil {
		out.OneOf = append([]*ir.IRSchema(nil), s.OneOf...)
	}
	if s.Discriminator != nil {
		d := *s.Discriminator
		if s.Discriminator.Mapping != nil {
			d.Mapping = make(map[string]string, len(s.Discriminator.Mapping))
			for k, v := range s.Discriminator.Mapping {
				d.Mapping[k] = v
			}
		}
		out.Discriminator = &d
	}
	return &out
}
