package parser

import (
	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

// parseCompositionMembers parses the member nodes of an anyOf/oneOf list.
// An explicit {type:"null"} member marks the composition nullable instead of
// joining the member list, and members that parse to completely empty
// schemas are dropped. A single surviving member still comes back as a
// one-element list so composition provenance is preserved.
func parseCompositionMembers(nodes []any, ctx *ParsingContext) (members []*ir.IRSchema, isNullable bool) {
	var parsed []*ir.IRSchema
	for _, raw := range nodes {
		node := asMap(raw)
		if node != nil && node["type"] == "null" {
			isNullable = true
			continue
		}
		parsed = append(parsed, ParseSchema("", node, ctx))
	}

	for _, member := range parsed {
		if isEmptySchema(member) {
			continue
		}
		members = append(members, member)
	}
	return members, isNullable
}

func isEmptySchema(s *ir.IRSchema) bool {
	return s.Type == "" &&
		len(s.Properties) == 0 &&
		s.Items == nil &&
		s.Enum == nil &&
		!s.HasComposition()
}

// processAllOf merges an allOf composition into one flattened property list.
// The first member defining a property wins; sibling properties defined next
// to the allOf keyword override merged slots; required names union across
// all members and the sibling level. The parsed members are returned intact
// for provenance.
func processAllOf(node map[string]any, name string, ctx *ParsingContext) (merged []ir.IRProperty, required map[string]struct{}, components []*ir.IRSchema) {
	required = make(map[string]struct{})
	for _, r := range stringSlice(node["required"]) {
		required[r] = struct{}{}
	}

	index := make(map[string]int)
	rawMembers, _ := node["allOf"].([]any)
	for _, raw := range rawMembers {
		member := ParseSchema("", asMap(raw), ctx)
		components = append(components, member)

		for _, p := range member.Properties {
			if _, seen := index[p.Name]; seen {
				continue
			}
			index[p.Name] = len(merged)
			merged = append(merged, ir.IRProperty{Name: p.Name, Schema: p.Schema})
		}
		for _, r := range member.Required {
			required[r] = struct{}{}
		}
	}

	if siblings := asMap(node["properties"]); siblings != nil {
		for _, key := range sortedKeys(siblings) {
			parsed := ParseSchema(name+"."+key, asMap(siblings[key]), ctx)
			if i, seen := index[key]; seen {
				merged[i].Schema = parsed
				continue
			}
			index[key] = len(merged)
			merged = append(merged, ir.IRProperty{Name: key, Schema: parsed})
		}
	}

	return merged, required, components
}
