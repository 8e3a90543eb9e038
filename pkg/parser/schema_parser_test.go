package parser

import (
	"strings"
	"testing"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

func TestParseSchema_SelfReferenceBecomesPlaceholder(t *testing.T) {
	raw := map[string]any{
		"Node": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":     map[string]any{"type": "string"},
				"parent":   map[string]any{"$ref": "#/components/schemas/Node"},
				"children": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/components/schemas/Node"}},
			},
		},
	}
	ctx := NewParsingContext(raw, nil, Options{})

	parsed := ParseSchema("Node", raw["Node"], ctx)

	if parsed.Name != "Node" || parsed.Type != "object" {
		t.Fatalf("parsed = %q/%q, expected Node/object", parsed.Name, parsed.Type)
	}
	canonical, ok := ctx.Lookup("Node")
	if !ok || canonical != parsed {
		t.Fatal("arena must hold the fully parsed Node as its canonical entry")
	}
	if !ctx.CycleDetected {
		t.Error("CycleDetected not set")
	}

	parent, ok := parsed.Property("parent")
	if !ok {
		t.Fatal("parent property missing")
	}
	if !parent.IsCircularRef {
		t.Error("parent placeholder not flagged IsCircularRef")
	}
	if !strings.Contains(parent.CircularRefPath, " -> ") || !strings.Contains(parent.CircularRefPath, "Node") {
		t.Errorf("CircularRefPath = %q, expected an arrow path through Node", parent.CircularRefPath)
	}
	if parent == parsed {
		t.Error("placeholder must be a distinct instance from the canonical schema")
	}

	children, ok := parsed.Property("children")
	if !ok || children.Type != "array" || children.Items == nil {
		t.Fatal("children property must be an array with items")
	}
	// Both in-cycle resolutions of Node must yield the identical placeholder.
	if children.Items != parent {
		t.Error("cycle placeholder for Node resolved to different instances")
	}
}

func TestParseSchema_PromotesInlineObjectProperty(t *testing.T) {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"details": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fieldA": map[string]any{"type": "string"},
				},
				"required": []any{"fieldA"},
			},
		},
	}
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("OuterSchema", node, ctx)

	slot, ok := parsed.Property("details")
	if !ok {
		t.Fatal("details property missing")
	}
	if slot.RefersTo == nil {
		t.Fatal("details slot must reference the promoted schema")
	}
	promoted, ok := ctx.Lookup(slot.Type)
	if !ok {
		t.Fatalf("promoted schema %q not registered", slot.Type)
	}
	if promoted != slot.RefersTo {
		t.Error("slot reference and arena entry must be the same instance")
	}
	if promoted.Name != "DetailData" {
		t.Errorf("promoted name = %q, expected DetailData", promoted.Name)
	}
	if field, ok := promoted.Property("fieldA"); !ok || field.Type != "string" {
		t.Error("promoted schema lost its fieldA property")
	}
	if !promoted.IsRequired("fieldA") {
		t.Error("promoted schema lost its required list")
	}
}

func TestParseSchema_AllOfFirstMemberWins(t *testing.T) {
	raw := map[string]any{
		"Base": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":   map[string]any{"type": "integer"},
				"name": map[string]any{"type": "string"},
			},
			"required": []any{"id"},
		},
		"Derived": map[string]any{
			"allOf": []any{
				map[string]any{"$ref": "#/components/schemas/Base"},
				map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":  map[string]any{"type": "integer"},
						"extra": map[string]any{"type": "boolean"},
					},
					"required": []any{"extra"},
				},
			},
		},
	}
	ctx := NewParsingContext(raw, nil, Options{})

	parsed := ParseSchema("Derived", raw["Derived"], ctx)

	if parsed.Type != "object" {
		t.Errorf("Type = %q, expected object", parsed.Type)
	}
	if len(parsed.AllOf) != 2 {
		t.Fatalf("AllOf members = %d, expected 2", len(parsed.AllOf))
	}

	base, _ := ctx.Lookup("Base")
	baseName, _ := base.Property("name")
	derivedName, ok := parsed.Property("name")
	if !ok {
		t.Fatal("merged name property missing")
	}
	if derivedName != baseName {
		t.Error("first-wins merge must keep the winning member's property instance")
	}
	if derivedName.Type != "string" {
		t.Errorf("name type = %q, expected string from the first member", derivedName.Type)
	}

	if _, ok := parsed.Property("extra"); !ok {
		t.Error("extra property from the second member missing")
	}

	want := []string{"extra", "id"}
	if len(parsed.Required) != len(want) || parsed.Required[0] != want[0] || parsed.Required[1] != want[1] {
		t.Errorf("Required = %v, expected %v", parsed.Required, want)
	}
}

func TestParseSchema_AllOfSiblingOverride(t *testing.T) {
	raw := map[string]any{
		"Base": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		},
		"Derived": map[string]any{
			"allOf": []any{
				map[string]any{"$ref": "#/components/schemas/Base"},
			},
			"properties": map[string]any{
				"name": map[string]any{"type": "integer", "description": "narrowed"},
			},
		},
	}
	ctx := NewParsingContext(raw, nil, Options{})

	parsed := ParseSchema("Derived", raw["Derived"], ctx)

	base, _ := ctx.Lookup("Base")
	baseName, _ := base.Property("name")
	derivedName, _ := parsed.Property("name")
	if derivedName == baseName {
		t.Fatal("sibling property must override the merged slot with its own instance")
	}
	if derivedName.Type != "integer" || derivedName.Description != "narrowed" {
		t.Errorf("overridden slot = %q/%q, expected integer/narrowed", derivedName.Type, derivedName.Description)
	}
	if baseName.Type != "string" {
		t.Error("override leaked into the base schema's own property")
	}
}

func TestParseSchema_AnyOfNullMemberFoldsIntoNullable(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("MaybeString", map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "null"},
		},
	}, ctx)

	if !parsed.IsNullable {
		t.Error("null member must fold into IsNullable")
	}
	// The surviving member stays in a one-element list for provenance.
	if len(parsed.AnyOf) != 1 {
		t.Fatalf("AnyOf members = %d, expected 1", len(parsed.AnyOf))
	}
	if parsed.AnyOf[0].Type != "string" {
		t.Errorf("surviving member type = %q, expected string", parsed.AnyOf[0].Type)
	}
}

func TestParseSchema_OneOfAllNullMembers(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("OnlyNull", map[string]any{
		"oneOf": []any{map[string]any{"type": "null"}},
	}, ctx)

	if !parsed.IsNullable {
		t.Error("IsNullable must be set")
	}
	if len(parsed.OneOf) != 0 {
		t.Errorf("OneOf members = %d, expected none", len(parsed.OneOf))
	}
	if parsed.Type != "" {
		t.Errorf("Type = %q, expected empty", parsed.Type)
	}
}

func TestParseSchema_DepthStaysBounded(t *testing.T) {
	build := func(levels int) map[string]any {
		node := map[string]any{"type": "string"}
		for i := 0; i < levels; i++ {
			node = map[string]any{"type": "array", "items": node}
		}
		return node
	}

	for _, levels := range []int{50, 200} {
		ctx := NewParsingContext(nil, nil, Options{MaxDepth: 10})
		parsed := ParseSchema("Deep", build(levels), ctx)

		if got := ctx.MaxDepthSeen(); got > 11 {
			t.Errorf("levels=%d: MaxDepthSeen = %d, expected at most 11", levels, got)
		}

		var placeholder bool
		for cur := parsed; cur != nil; cur = cur.Items {
			if cur.IsCircularRef {
				if !strings.Contains(cur.CircularRefPath, "MAX_DEPTH_EXCEEDED") {
					t.Errorf("levels=%d: CircularRefPath = %q, expected a depth marker", levels, cur.CircularRefPath)
				}
				placeholder = true
				break
			}
		}
		if !placeholder {
			t.Errorf("levels=%d: no placeholder found below the depth limit", levels)
		}

		var warned bool
		for _, w := range ctx.Warnings() {
			if strings.Contains(w, "Maximum recursion depth") {
				warned = true
				break
			}
		}
		if !warned {
			t.Errorf("levels=%d: expected a max depth warning, got %v", levels, ctx.Warnings())
		}
	}
}

func TestParseSchema_PropertyPathsStayAnonymous(t *testing.T) {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nickname": map[string]any{"type": "string"},
			"status":   map[string]any{"type": "string", "enum": []any{"active", "inactive"}},
		},
	}
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("User", node, ctx)

	if len(ctx.Schemas) != 1 {
		t.Fatalf("arena has %d entries, expected only User: %v", len(ctx.Schemas), sortedSchemaNames(ctx.Schemas))
	}
	nickname, _ := parsed.Property("nickname")
	if nickname.Name != "" {
		t.Errorf("scalar property name = %q, expected anonymous", nickname.Name)
	}
	status, _ := parsed.Property("status")
	if status.Name != "" || len(status.Enum) != 2 {
		t.Error("enum property must stay inline and anonymous for later extraction")
	}
}

func TestParseSchema_TypelessInlinePropertyPromotes(t *testing.T) {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meta": map[string]any{},
		},
	}
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("Config", node, ctx)

	slot, _ := parsed.Property("meta")
	if slot.Type != "MetaData" {
		t.Fatalf("meta slot type = %q, expected MetaData", slot.Type)
	}
	promoted, ok := ctx.Lookup("MetaData")
	if !ok || promoted.Type != "object" {
		t.Error("typeless inline property must default to a promoted empty object")
	}
}

func TestParseSchema_TopLevelArrayItemsGetNamed(t *testing.T) {
	node := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label": map[string]any{"type": "string"},
			},
		},
	}
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("Tags", node, ctx)

	if parsed.Items == nil || parsed.Items.Name != "TagsItem" {
		t.Fatalf("items name = %v, expected TagsItem", parsed.Items)
	}
	registered, ok := ctx.Lookup("TagsItem")
	if !ok || registered != parsed.Items {
		t.Error("named item schema must be the arena entry")
	}
}

func TestParseSchema_RequiredFilteredToDefinedProperties(t *testing.T) {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
		},
		"required": []any{"a", "missing", "a"},
	}
	ctx := NewParsingContext(nil, nil, Options{})

	parsed := ParseSchema("Thing", node, ctx)

	if len(parsed.Required) != 1 || parsed.Required[0] != "a" {
		t.Errorf("Required = %v, expected [a]", parsed.Required)
	}
}

func TestParseSchema_UnresolvedRef(t *testing.T) {
	ctx := NewParsingContext(map[string]any{}, nil, Options{})

	parsed := ParseSchema("", map[string]any{"$ref": "#/components/schemas/Missing"}, ctx)

	if !parsed.FromUnresolvedRef {
		t.Error("unresolved ref must be flagged")
	}
	if _, ok := ctx.Lookup("Missing"); ok {
		t.Error("unresolved placeholder must not enter the arena")
	}
	var warned bool
	for _, w := range ctx.Warnings() {
		if strings.Contains(w, "Could not resolve $ref") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("warnings = %v, expected an unresolved ref warning", ctx.Warnings())
	}
}

func TestParseSchema_DanglingRefFallbacks(t *testing.T) {
	raw := map[string]any{
		"User": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string"},
			},
		},
	}

	t.Run("stripped generation suffix", func(t *testing.T) {
		ctx := NewParsingContext(raw, nil, Options{})
		parsed := ParseSchema("", map[string]any{"$ref": "#/components/schemas/UserResponse"}, ctx)

		if parsed.Name != "UserResponse" {
			t.Errorf("Name = %q, expected UserResponse", parsed.Name)
		}
		if _, ok := parsed.Property("id"); !ok {
			t.Error("fallback alias must carry the base schema's properties")
		}
		base, _ := ctx.Lookup("User")
		if base == parsed {
			t.Error("alias must be a renamed copy, not the base instance")
		}
	})

	t.Run("list response", func(t *testing.T) {
		ctx := NewParsingContext(raw, nil, Options{})
		parsed := ParseSchema("", map[string]any{"$ref": "#/components/schemas/UserListResponse"}, ctx)

		if parsed.Type != "array" || parsed.Items == nil || parsed.Items.Name != "User" {
			t.Errorf("list fallback = %q items %v, expected array of User", parsed.Type, parsed.Items)
		}
	})
}

func TestParseSchema_AdditionalProperties(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})

	capped := ParseSchema("Capped", map[string]any{
		"type":                 "object",
		"additionalProperties": false,
	}, ctx)
	if v, ok := capped.AdditionalProperties.(bool); !ok || v {
		t.Errorf("AdditionalProperties = %v, expected false", capped.AdditionalProperties)
	}

	mapped := ParseSchema("Mapped", map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": "integer",
		},
	}, ctx)
	schema, ok := mapped.AdditionalProperties.(*ir.IRSchema)
	if !ok {
		t.Fatalf("AdditionalProperties = %T, expected a schema", mapped.AdditionalProperties)
	}
	if schema.Type != "integer" {
		t.Errorf("additional properties value type = %q, expected integer", schema.Type)
	}
}
