package parser

import (
	"testing"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

func inlineObject(props ...string) *ir.IRSchema {
	s := &ir.IRSchema{Type: "object"}
	for _, p := range props {
		s.Properties = append(s.Properties, ir.IRProperty{Name: p, Schema: &ir.IRSchema{Type: "string"}})
	}
	return s
}

func TestPromoteInlineObject_Naming(t *testing.T) {
	tests := []struct {
		name        string
		parent      string
		propertyKey string
		prop        *ir.IRSchema
		expected    string
	}{
		{
			name:        "data suffix appended",
			parent:      "Order",
			propertyKey: "config",
			prop:        inlineObject("mode"),
			expected:    "ConfigData",
		},
		{
			name:        "plural key singularized",
			parent:      "OuterSchema",
			propertyKey: "details",
			prop:        inlineObject("fieldA"),
			expected:    "DetailData",
		},
		{
			name:        "existing shape suffix kept",
			parent:      "LogEvent",
			propertyKey: "eventData",
			prop:        inlineObject("key"),
			expected:    "EventData",
		},
		{
			name:        "entity with id keeps bare name",
			parent:      "Order",
			propertyKey: "owner",
			prop:        inlineObject("id", "name"),
			expected:    "Owner",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := NewParsingContext(nil, nil, Options{})
			ref := promoteInlineObject(test.parent, test.propertyKey, test.prop, ctx)
			if ref == nil {
				t.Fatal("expected a promotion")
			}
			if ref.Type != test.expected {
				t.Errorf("slot type = %q, expected %q", ref.Type, test.expected)
			}
			if test.prop.Name != test.expected {
				t.Errorf("promoted name = %q, expected %q", test.prop.Name, test.expected)
			}
			registered, ok := ctx.Lookup(test.expected)
			if !ok || registered != test.prop {
				t.Error("promoted schema must be registered under its chosen name")
			}
			if ref.RefersTo != test.prop {
				t.Error("slot must back-reference the promoted schema")
			}
			if ref.Name != test.propertyKey {
				t.Errorf("slot name = %q, expected the property key %q", ref.Name, test.propertyKey)
			}
		})
	}
}

func TestPromoteInlineObject_CollisionFallsBackToParentThenCounter(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})

	// Occupy the bare name and the parent-qualified name with other schemas.
	ctx.Register("ConfigData", &ir.IRSchema{Name: "ConfigData"})
	first := inlineObject("mode")
	if ref := promoteInlineObject("Job", "config", first, ctx); ref.Type != "JobConfigData" {
		t.Fatalf("second choice = %q, expected JobConfigData", ref.Type)
	}

	second := inlineObject("mode")
	if ref := promoteInlineObject("Job", "config", second, ctx); ref.Type != "JobConfigData1" {
		t.Fatalf("counter fallback = %q, expected JobConfigData1", ref.Type)
	}
}

func TestPromoteInlineObject_SkipsNonCandidates(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})

	tests := []struct {
		name string
		prop *ir.IRSchema
	}{
		{"scalar", &ir.IRSchema{Type: "string"}},
		{"array", &ir.IRSchema{Type: "array"}},
		{"enum object", &ir.IRSchema{Type: "object", Enum: []any{"a"}}},
		{"named ref target", &ir.IRSchema{Name: "Address", Type: "object"}},
		{"circular placeholder", &ir.IRSchema{Type: "object", IsCircularRef: true}},
		{"unresolved placeholder", &ir.IRSchema{Type: "object", FromUnresolvedRef: true}},
	}
	for _, test := range tests {
		if ref := promoteInlineObject("Parent", "field", test.prop, ctx); ref != nil {
			t.Errorf("%s: promoted unexpectedly to %q", test.name, ref.Type)
		}
	}
	if len(ctx.Schemas) != 0 {
		t.Errorf("arena gained %d entries from skipped promotions", len(ctx.Schemas))
	}
}

func TestPromoteInlineObject_SecondPassLeavesNamedInstanceAlone(t *testing.T) {
	ctx := NewParsingContext(nil, nil, Options{})
	prop := inlineObject("mode")

	ref := promoteInlineObject("Job", "config", prop, ctx)
	if ref == nil || prop.Name != "ConfigData" {
		t.Fatalf("first promotion = %v (name %q)", ref, prop.Name)
	}

	if again := promoteInlineObject("Job", "config", prop, ctx); again != nil {
		t.Error("an already promoted instance must not be promoted again")
	}
	if prop.Name != "ConfigData" {
		t.Errorf("name changed to %q on the second pass", prop.Name)
	}
	if registered, _ := ctx.Lookup("ConfigData"); registered != prop {
		t.Error("arena binding changed on the second pass")
	}
}
