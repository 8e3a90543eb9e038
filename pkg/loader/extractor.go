package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/parser"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// wrapperProperties are generic container property names. Array items under
// them take their extracted name from the parent response type instead of
// the property itself.
var wrapperProperties = []string{"data", "items", "results", "content"}

// BuildSchemas parses every raw component schema through one fresh parsing
// context. Schemas already materialized by an earlier parse (shared $ref
// targets) are not parsed again.
func BuildSchemas(rawSchemas, rawComponents map[string]any, opts parser.Options) *parser.ParsingContext {
	ctx := parser.NewParsingContext(rawSchemas, rawComponents, opts)
	for _, name := range sortedKeys(rawSchemas) {
		if _, ok := ctx.Lookup(name); ok {
			continue
		}
		parser.ParseSchema(name, rawSchemas[name], ctx)
	}
	return ctx
}

// ExtractInlineArrayItems hoists anonymous complex array item schemas out of
// object properties into named arena entries. The items instance itself is
// registered, so the property keeps pointing at the canonical object.
// Primitive items and items that already carry a name stay untouched.
func ExtractInlineArrayItems(schemas map[string]*ir.IRSchema) map[string]*ir.IRSchema {
	for _, schemaName := range sortedKeys(schemas) {
		schema := schemas[schemaName]
		for i := range schema.Properties {
			slot := &schema.Properties[i]
			prop := slot.Schema
			if prop == nil || prop.Type != "array" || prop.Items == nil || prop.Items.Name != "" {
				continue
			}
			if !isComplexItem(prop.Items) {
				continue
			}
			itemName := uniqueSchemaName(arrayItemName(schemaName, slot.Name, prop.Items), schemas)
			prop.Items.Name = itemName
			schemas[itemName] = prop.Items
		}
	}
	return schemas
}

// ExtractInlineEnums hoists anonymous enum-valued properties into named
// arena entries and rewrites each property slot into a lightweight reference
// to its extracted enum. Properties in discriminatorProperties stay inline:
// their values belong to the unified enums collected afterwards. Array item
// schemas are extracted first so their enum properties are visible to this
// pass.
func ExtractInlineEnums(
	schemas map[string]*ir.IRSchema,
	discriminatorProperties map[parser.DiscriminatorProperty]struct{},
) map[string]*ir.IRSchema {
	schemas = ExtractInlineArrayItems(schemas)

	for _, schemaName := range sortedKeys(schemas) {
		schema := schemas[schemaName]
		for i := range schema.Properties {
			slot := &schema.Properties[i]
			prop := slot.Schema
			if prop == nil || !prop.IsEnum() || prop.Name != "" {
				continue
			}
			if isDiscriminatorProperty(discriminatorProperties, schema, schemaName, slot.Name) {
				continue
			}

			enumName := uniqueSchemaName(
				utils.SanitizeClassName(schemaName)+utils.SanitizeClassName(slot.Name)+"Enum",
				schemas,
			)
			description := prop.Description
			if description == "" {
				description = fmt.Sprintf("Enum for %s.%s", schemaName, slot.Name)
			}
			extracted := &ir.IRSchema{
				Name:        enumName,
				Type:        prop.Type,
				Enum:        append([]any(nil), prop.Enum...),
				Description: description,
			}
			schemas[enumName] = extracted

			prop.Name = enumName
			prop.Type = enumName
			prop.Enum = nil
			prop.RefersTo = extracted
		}
	}
	return schemas
}

// isComplexItem reports whether an array item schema is worth an arena name
// of its own: objects, nested arrays and compositions qualify, primitives do
// not.
func isComplexItem(items *ir.IRSchema) bool {
	return items.Type == "object" || items.Type == "array" ||
		len(items.Properties) > 0 || items.HasComposition()
}

// arrayItemName derives the arena name for an extracted array item. Items
// under a generic wrapper property of a response schema are named after the
// response's subject ("MessageListResponse".data -> "MessageItem"); all
// others follow {Parent}{Property}Item.
func arrayItemName(schemaName, propName string, items *ir.IRSchema) string {
	if lo.Contains(wrapperProperties, strings.ToLower(propName)) &&
		items.Type == "object" && strings.HasSuffix(schemaName, "Response") {
		base := strings.ReplaceAll(schemaName, "Response", "")
		base = strings.ReplaceAll(base, "List", "")
		return base + "Item"
	}
	return utils.SanitizeClassName(schemaName) + utils.SanitizeClassName(propName) + "Item"
}

// uniqueSchemaName returns base, or base with the lowest numeric suffix that
// is not yet an arena key.
func uniqueSchemaName(base string, schemas map[string]*ir.IRSchema) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := schemas[name]; !taken {
			return name
		}
		name = base + strconv.Itoa(i)
	}
}

// isDiscriminatorProperty matches a property slot against the pairs found by
// the identification pass. Pairs are keyed by the variant's sanitized class
// name, so the arena key is checked as a fallback for hand-built arenas.
func isDiscriminatorProperty(
	pairs map[parser.DiscriminatorProperty]struct{},
	schema *ir.IRSchema,
	arenaName, propName string,
) bool {
	if len(pairs) == 0 {
		return false
	}
	if schema.Name != "" {
		if _, ok := pairs[parser.DiscriminatorProperty{Schema: schema.Name, Property: propName}]; ok {
			return true
		}
	}
	_, ok := pairs[parser.DiscriminatorProperty{Schema: arenaName, Property: propName}]
	return ok
}
