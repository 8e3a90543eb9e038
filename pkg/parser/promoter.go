package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// promotionSuffixes are name endings that already read as a data shape; the
// promoter does not append another suffix to them.
var promotionSuffixes = []string{"Item", "Data", "Info", "Object", "Record", "Entry"}

// promoteInlineObject hoists an inline object property into the arena as a
// freestanding named schema and returns a lightweight reference schema for
// the parent's property slot. It returns nil when the property is not an
// inline object: enums stay with their property, named schemas arriving via
// $ref keep their canonical identity, and placeholders are left alone.
func promoteInlineObject(parentName, propertyKey string, prop *ir.IRSchema, ctx *ParsingContext) *ir.IRSchema {
	if prop.Type != "object" || prop.Name != "" || prop.Enum != nil || prop.FromUnresolvedRef || prop.IsCircularRef {
		return nil
	}

	base := utils.Singularize(utils.SanitizeClassName(propertyKey))
	if !hasPromotionSuffix(base) && !looksLikeEntity(prop) {
		base += "Data"
	}

	parentPlusProp := base
	if parentName != "" {
		parentPlusProp = utils.SanitizeClassName(parentName + base)
	}

	// A name is free when unused or already bound to this same instance, so
	// re-promoting an object under its existing name is idempotent.
	var chosen string
	switch {
	case nameFreeFor(ctx, base, prop):
		chosen = base
	case nameFreeFor(ctx, parentPlusProp, prop):
		chosen = parentPlusProp
	default:
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s%d", parentPlusProp, i)
			if nameFreeFor(ctx, candidate, prop) {
				chosen = candidate
				break
			}
		}
	}

	prop.Name = chosen
	ctx.Register(chosen, prop)
	ctx.Logger().Debug("promoted inline object",
		zap.String("parent", parentName),
		zap.String("property", propertyKey),
		zap.String("schema", chosen),
	)

	ref := &ir.IRSchema{
		Name:        propertyKey,
		Type:        chosen,
		Description: prop.Description,
		IsNullable:  prop.IsNullable,
		RefersTo:    prop,
	}
	return ref
}

func hasPromotionSuffix(name string) bool {
	for _, suffix := range promotionSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// looksLikeEntity reports whether the object carries an id-like property and
// therefore reads as a domain entity rather than a generic data bag.
func looksLikeEntity(s *ir.IRSchema) bool {
	for _, p := range s.Properties {
		if p.Name == "id" || strings.HasSuffix(p.Name, "Id") {
			return true
		}
	}
	return false
}

func nameFreeFor(ctx *ParsingContext, name string, s *ir.IRSchema) bool {
	existing, ok := ctx.Lookup(name)
	return !ok || existing == s
}
