package parser

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// EnumMember is one member of a unified discriminator enum, named after its
// wire value.
type EnumMember struct {
	Name  string
	Value any
}

// UnifiedDiscriminatorEnum describes one enum unified from the discriminator
// values of a discriminated union's variants. One unified enum replaces the
// per-variant single-value enums that would otherwise be generated.
type UnifiedDiscriminatorEnum struct {
	// Name is the unified enum class name, e.g. NodeTypeEnum.
	Name string
	// PropertyName is the discriminator property, e.g. "type".
	PropertyName string
	// UnionSchemaName is the owning union schema, e.g. Node.
	UnionSchemaName string
	// Members hold the collected values in variant order, deduplicated.
	Members []EnumMember
	// VariantEnumNames are arena names superseded by this unified enum.
	VariantEnumNames map[string]struct{}
	Description      string
}

// DiscriminatorProperty identifies one variant property serving as a union
// discriminator.
type DiscriminatorProperty struct {
	Schema   string
	Property string
}

// DiscriminatorCollector unifies the discriminator enums of discriminated
// unions across a schema arena. It runs in two passes: Identify marks
// variant properties before inline enum extraction so their enums stay in
// place, Collect then folds those values into one unified enum per union
// and rewrites the variant property slots to reference it.
type DiscriminatorCollector struct {
	schemas      map[string]*ir.IRSchema
	unifiedEnums map[string]*UnifiedDiscriminatorEnum
	skipList     map[string]struct{}
	logger       *zap.Logger
}

// NewDiscriminatorCollector builds a collector over the arena. A nil logger
// defaults to a nop logger.
func NewDiscriminatorCollector(schemas map[string]*ir.IRSchema, logger *zap.Logger) *DiscriminatorCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscriminatorCollector{
		schemas:      schemas,
		unifiedEnums: make(map[string]*UnifiedDiscriminatorEnum),
		skipList:     make(map[string]struct{}),
		logger:       logger,
	}
}

// IdentifyDiscriminatorProperties returns the (variant schema, property)
// pairs acting as discriminators. Inline enum extraction must leave these
// properties alone: their values belong to the unified enums built later.
func (c *DiscriminatorCollector) IdentifyDiscriminatorProperties() map[DiscriminatorProperty]struct{} {
	found := make(map[DiscriminatorProperty]struct{})
	for _, name := range sortedSchemaNames(c.schemas) {
		schema := c.schemas[name]
		if !isDiscriminatedUnion(schema) {
			continue
		}
		propertyName := schema.Discriminator.PropertyName
		for _, variant := range unionVariants(schema) {
			vs := c.resolveVariant(variant)
			if vs == nil || vs.Name == "" {
				continue
			}
			found[DiscriminatorProperty{Schema: vs.Name, Property: propertyName}] = struct{}{}
		}
	}
	c.logger.Debug("identified discriminator properties", zap.Int("count", len(found)))
	return found
}

// CollectUnifiedEnums processes every discriminated union in the arena and
// returns the unified enums keyed by name. Superseded per-variant enums are
// removed from the arena and recorded in the skip list. The unified schemas
// themselves are not inserted here; the caller materializes them after the
// collection so that unions sharing variants fall back to the discriminator
// mapping instead of absorbing each other's full value sets.
func (c *DiscriminatorCollector) CollectUnifiedEnums() map[string]*UnifiedDiscriminatorEnum {
	for _, name := range sortedSchemaNames(c.schemas) {
		schema, ok := c.schemas[name]
		if !ok {
			// Removed by an earlier union's supersede step.
			continue
		}
		if !isDiscriminatedUnion(schema) {
			continue
		}
		c.processUnion(schema)
	}
	c.logger.Debug("unified discriminator enums",
		zap.Int("unified", len(c.unifiedEnums)),
		zap.Int("skipped", len(c.skipList)),
	)
	return c.unifiedEnums
}

// ShouldSkipEnum reports whether an arena name was superseded by a unified
// enum and must not be generated.
func (c *DiscriminatorCollector) ShouldSkipEnum(name string) bool {
	_, ok := c.skipList[name]
	return ok
}

// SkipList returns the superseded arena names.
func (c *DiscriminatorCollector) SkipList() map[string]struct{} {
	out := make(map[string]struct{}, len(c.skipList))
	for name := range c.skipList {
		out[name] = struct{}{}
	}
	return out
}

func (c *DiscriminatorCollector) processUnion(union *ir.IRSchema) {
	propertyName := union.Discriminator.PropertyName
	variants := unionVariants(union)
	if len(variants) == 0 {
		return
	}

	// Reverse the discriminator mapping so a variant whose property enum was
	// already unified by another union still contributes its own value.
	valueByVariant := make(map[string]string)
	for value, ref := range union.Discriminator.Mapping {
		variantName := ref[strings.LastIndex(ref, "/")+1:]
		valueByVariant[variantName] = value
	}

	var members []EnumMember
	seenValues := make(map[any]struct{})
	variantEnumNames := make(map[string]struct{})

	for _, variant := range variants {
		vs := c.resolveVariant(variant)
		if vs == nil {
			continue
		}
		slot, ok := vs.Property(propertyName)
		if !ok {
			c.logger.Debug("variant missing discriminator property",
				zap.String("variant", vs.Name),
				zap.String("property", propertyName),
			)
			continue
		}

		values, enumName := c.resolveDiscriminatorValues(slot, vs, valueByVariant)
		if len(values) == 0 {
			c.logger.Debug("no discriminator values for variant",
				zap.String("variant", vs.Name),
				zap.String("property", propertyName),
			)
			continue
		}
		for _, v := range values {
			if _, dup := seenValues[v]; dup {
				continue
			}
			seenValues[v] = struct{}{}
			members = append(members, EnumMember{Name: enumMemberName(v), Value: v})
		}
		if enumName != "" {
			variantEnumNames[enumName] = struct{}{}
		}
	}
	if len(members) == 0 {
		return
	}

	unionName := union.Name
	if unionName == "" {
		unionName = "Union"
	}
	unifiedName := unifiedEnumName(unionName, propertyName)

	description := ""
	if union.Name != "" {
		description = fmt.Sprintf("Discriminator enum for %s union types.", union.Name)
	}
	c.unifiedEnums[unifiedName] = &UnifiedDiscriminatorEnum{
		Name:             unifiedName,
		PropertyName:     propertyName,
		UnionSchemaName:  unionName,
		Members:          members,
		VariantEnumNames: variantEnumNames,
		Description:      description,
	}

	// Rewrite each variant's discriminator slot to reference the unified
	// enum. The slot gets a fresh schema object: variant schemas are shared
	// between parents, so mutating the old property instance in place would
	// leak the rewrite into unrelated holders.
	for _, variant := range variants {
		vs := c.resolveVariant(variant)
		if vs == nil {
			continue
		}
		slot, ok := vs.Property(propertyName)
		if !ok {
			continue
		}
		if old := slot.GenerationName; old != "" {
			if _, exists := c.schemas[old]; exists {
				delete(c.schemas, old)
				variantEnumNames[old] = struct{}{}
				c.logger.Debug("superseded variant enum",
					zap.String("enum", old),
					zap.String("unified", unifiedName),
				)
			}
		}
		replacement := &ir.IRSchema{
			Name:            unifiedName,
			Type:            unifiedName,
			Description:     slot.Description,
			IsNullable:      slot.IsNullable,
			GenerationName:  unifiedName,
			FinalModuleStem: utils.SanitizeModuleName(unifiedName),
		}
		vs.SetProperty(propertyName, replacement)
	}

	for name := range variantEnumNames {
		c.skipList[name] = struct{}{}
	}
}

// resolveDiscriminatorValues finds the enum values a variant contributes:
// the slot's inline enum first, then the arena enum it references, and as a
// last resort the single value the union's discriminator mapping assigns to
// the variant.
func (c *DiscriminatorCollector) resolveDiscriminatorValues(slot, variant *ir.IRSchema, valueByVariant map[string]string) ([]any, string) {
	switch {
	case slot.IsEnum():
		return slot.Enum, slot.Name
	case slot.RefersTo != nil && slot.RefersTo.IsEnum():
		return slot.RefersTo.Enum, slot.RefersTo.Name
	case slot.Name != "":
		if referred, ok := c.schemas[slot.Name]; ok && referred.IsEnum() {
			return referred.Enum, referred.Name
		}
	}
	if value, ok := valueByVariant[variant.Name]; ok {
		return []any{value}, ""
	}
	return nil, ""
}

// resolveVariant maps a union member to its canonical arena entry when it
// has one; inline members are used as-is.
func (c *DiscriminatorCollector) resolveVariant(variant *ir.IRSchema) *ir.IRSchema {
	if variant == nil {
		return nil
	}
	if variant.Name != "" {
		if canonical, ok := c.schemas[variant.Name]; ok {
			return canonical
		}
	}
	return variant
}

func isDiscriminatedUnion(schema *ir.IRSchema) bool {
	return schema != nil &&
		schema.Discriminator != nil &&
		schema.Discriminator.PropertyName != "" &&
		(len(schema.OneOf) > 0 || len(schema.AnyOf) > 0)
}

func unionVariants(schema *ir.IRSchema) []*ir.IRSchema {
	if len(schema.OneOf) > 0 {
		return schema.OneOf
	}
	return schema.AnyOf
}

// unifiedEnumName builds the unified enum class name: the union name with
// any trailing "Enum" stripped, the capitalized property name, and "Enum".
func unifiedEnumName(unionName, propertyName string) string {
	base := strings.TrimSuffix(unionName, "Enum")
	return utils.SanitizeClassName(base + utils.Capitalize(propertyName) + "Enum")
}

// enumMemberName derives a Python enum member name from a wire value.
func enumMemberName(value any) string {
	name := strings.ToUpper(fmt.Sprint(value))
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ReplaceAll(name, " ", "_")
}

func sortedSchemaNames(schemas map[string]*ir.IRSchema) []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
