// Package loader turns a decoded OpenAPI document into the intermediate
// representation. It owns the pass ordering: the schema build pass,
// operations parsing, discriminator identification, inline enum and
// array-item extraction, unified enum materialization and generation-name
// finalization.
package loader

import (
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/parser"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// StructuralError reports a document missing one of the top-level sections
// the loader requires. It is the only error that aborts a generation run;
// everything downstream degrades to placeholders and warnings.
type StructuralError struct {
	Missing string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("missing '%s' section in the specification", e.Missing)
}

// SpecLoader transforms one decoded OpenAPI document into an ir.IRSpec.
// Construct with NewSpecLoader, which performs the structural check, then
// call Load. A SpecLoader is single-use per document but Load may run more
// than once, each run on a fresh context.
type SpecLoader struct {
	title       string
	version     string
	description string
	servers     []string

	paths            map[string]any
	rawComponents    map[string]any
	rawSchemas       map[string]any
	rawParameters    map[string]any
	rawResponses     map[string]any
	rawRequestBodies map[string]any
}

// NewSpecLoader validates the document's top-level structure and captures
// the sections the passes read. A missing openapi or paths key returns a
// StructuralError.
func NewSpecLoader(doc map[string]any) (*SpecLoader, error) {
	if _, ok := doc["openapi"]; !ok {
		return nil, &StructuralError{Missing: "openapi"}
	}
	if _, ok := doc["paths"]; !ok {
		return nil, &StructuralError{Missing: "paths"}
	}

	info := asMap(doc["info"])
	components := asMap(doc["components"])

	l := &SpecLoader{
		title:            "API Client",
		version:          "0.0.0",
		description:      stringValue(info["description"]),
		paths:            asMap(doc["paths"]),
		rawComponents:    components,
		rawSchemas:       asMap(components["schemas"]),
		rawParameters:    asMap(components["parameters"]),
		rawResponses:     asMap(components["responses"]),
		rawRequestBodies: asMap(components["requestBodies"]),
	}
	if title := stringValue(info["title"]); title != "" {
		l.title = title
	}
	if version := stringValue(info["version"]); version != "" {
		l.version = version
	}
	for _, raw := range anySlice(doc["servers"]) {
		if server := asMap(raw); server != nil {
			if u := stringValue(server["url"]); u != "" {
				l.servers = append(l.servers, u)
			}
		}
	}
	return l, nil
}

// Load runs the pass pipeline and assembles the IRSpec, returning it with
// the warnings collected along the way. Pass order matters: discriminator
// properties must be identified before inline enum extraction so their enum
// values stay in place for unification, and unified enums are materialized
// only after collection so unions sharing variants fall back to their own
// discriminator mapping.
func (l *SpecLoader) Load(opts parser.Options) (*ir.IRSpec, []string, error) {
	ctx := BuildSchemas(l.rawSchemas, l.rawComponents, opts)
	logger := ctx.Logger()

	operations := parseOperations(l.paths, l.rawParameters, l.rawResponses, l.rawRequestBodies, ctx)

	pre := parser.NewDiscriminatorCollector(ctx.Schemas, logger)
	discriminatorProperties := pre.IdentifyDiscriminatorProperties()

	schemas := ExtractInlineEnums(ctx.Schemas, discriminatorProperties)

	collector := parser.NewDiscriminatorCollector(schemas, logger)
	unified := collector.CollectUnifiedEnums()
	for _, name := range sortedKeys(unified) {
		schemas[name] = materializeUnifiedEnum(unified[name])
		logger.Debug("added unified discriminator enum", zap.String("name", name))
	}

	finalizeGenerationIdentities(schemas)

	spec := &ir.IRSpec{
		Title:                 l.title,
		Version:               l.version,
		Description:           l.description,
		Schemas:               schemas,
		Operations:            operations,
		Servers:               l.servers,
		DiscriminatorSkipList: collector.SkipList(),
	}
	return spec, ctx.Warnings(), nil
}

// Load is the convenience form: construct a SpecLoader over doc and run it.
func Load(doc map[string]any, opts parser.Options) (*ir.IRSpec, []string, error) {
	l, err := NewSpecLoader(doc)
	if err != nil {
		return nil, nil, err
	}
	return l.Load(opts)
}

// materializeUnifiedEnum builds the arena schema for a unified discriminator
// enum. The emission identity is assigned here so later finalization cannot
// hand the name to a colliding schema.
func materializeUnifiedEnum(meta *parser.UnifiedDiscriminatorEnum) *ir.IRSchema {
	values := make([]any, 0, len(meta.Members))
	for _, member := range meta.Members {
		values = append(values, member.Value)
	}
	schema := &ir.IRSchema{
		Name:        meta.Name,
		Type:        enumBaseType(values),
		Enum:        values,
		Description: meta.Description,
	}
	schema.SetGenerationIdentity(meta.Name, utils.SanitizeModuleName(meta.Name))
	return schema
}

// finalizeGenerationIdentities assigns the emission identity of every arena
// schema that lacks one. Class names are globally unique across the arena;
// a collision between distinct entries takes the lowest free numeric
// suffix. Identities already set are never overwritten.
func finalizeGenerationIdentities(schemas map[string]*ir.IRSchema) {
	used := make(map[string]struct{}, len(schemas))
	for _, name := range sortedKeys(schemas) {
		if gn := schemas[name].GenerationName; gn != "" {
			used[gn] = struct{}{}
		}
	}

	for _, name := range sortedKeys(schemas) {
		schema := schemas[name]
		if schema.GenerationName != "" {
			continue
		}
		base := schema.Name
		if base == "" {
			base = name
		}
		candidate := utils.SanitizeClassName(base)
		final := candidate
		for i := 1; ; i++ {
			if _, taken := used[final]; !taken {
				break
			}
			final = candidate + strconv.Itoa(i)
		}
		used[final] = struct{}{}
		schema.SetGenerationIdentity(final, utils.SanitizeModuleName(final))
	}
}

// enumBaseType infers the primitive backing type of enum values. Decoded
// documents carry integers as int (YAML) or as integral float64 (JSON), so
// both count as integer.
func enumBaseType(values []any) string {
	if len(values) == 0 {
		return "string"
	}
	switch v := values[0].(type) {
	case int, int32, int64:
		return "integer"
	case float64:
		if v == math.Trunc(v) {
			return "integer"
		}
	}
	return "string"
}
