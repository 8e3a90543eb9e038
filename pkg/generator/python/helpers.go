package python

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/pytype"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/render"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

// modelKind classifies an arena schema into the module shape it renders as.
type modelKind int

const (
	kindEnum modelKind = iota
	kindDataclass
	kindAlias
)

// classify decides the module shape for one arena schema. Enums win over
// everything else; object shapes and flattened allOf parents become
// dataclasses; the rest (primitive aliases, arrays, unions, empty schemas)
// become type aliases of whatever the type resolver maps them to, so every
// importable module really exists.
func classify(s *ir.IRSchema) modelKind {
	switch {
	case s.IsEnum() && isEnumBase(s.Type):
		return kindEnum
	case s.Type == "object",
		s.Type == "" && (len(s.Properties) > 0 || len(s.AllOf) > 0):
		return kindDataclass
	default:
		return kindAlias
	}
}

func isEnumBase(typ string) bool {
	return typ == "string" || typ == "integer" || typ == "boolean"
}

// enumPyBase maps the schema type onto the enum's Python base class.
func enumPyBase(typ string) string {
	if typ == "string" {
		return "str"
	}
	return "int"
}

// enumMember is one rendered enum member.
type enumMember struct {
	Name    string
	Literal string
}

// enumMembers renders the member list. String values keep their sanitized
// uppercase names; integer values become VALUE_<n>. Values that do not fit
// the declared base are dropped.
func enumMembers(s *ir.IRSchema) []enumMember {
	members := make([]enumMember, 0, len(s.Enum))
	for _, value := range s.Enum {
		switch s.Type {
		case "string":
			raw := fmt.Sprintf("%v", value)
			members = append(members, enumMember{
				Name:    memberName(utils.SanitizeMethodName(raw)),
				Literal: strconv.Quote(raw),
			})
		case "integer":
			n, ok := integralValue(value)
			if !ok {
				continue
			}
			literal := strconv.FormatInt(n, 10)
			members = append(members, enumMember{
				Name:    memberName(utils.SanitizeMethodName("VALUE_" + literal)),
				Literal: literal,
			})
		}
	}
	return members
}

// memberName uppercases a sanitized identifier and guards the leading
// character so the result is always a legal Python name.
func memberName(sanitized string) string {
	name := strings.ToUpper(sanitized)
	if name == "" || !(name[0] == '_' || (name[0] >= 'A' && name[0] <= 'Z')) {
		name = "_" + name
	}
	return name
}

// integralValue normalizes decoded numeric enum values; YAML documents carry
// integers as int, JSON round-trips as integral float64.
func integralValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

// classField is one rendered dataclass field.
type classField struct {
	Name string
	Type string
	// Default carries the full assignment suffix (" = None",
	// " = field(default_factory=list)") or is empty.
	Default string
	Doc     string
}

// buildFields resolves every property slot into a rendered field, quoting
// forward references and wrapping optionality. Slot order is preserved;
// orderForBody regroups for emission.
func buildFields(s *ir.IRSchema, resolver *pytype.Resolver, rctx *render.RenderContext) ([]classField, error) {
	fields := make([]classField, 0, len(s.Properties))
	for i := range s.Properties {
		slot := s.Properties[i]
		required := s.IsRequired(slot.Name)
		res, err := resolver.Resolve(slot.Schema, rctx, required)
		if err != nil {
			return nil, err
		}

		text := res.PythonType
		if res.IsForwardRef && !strings.HasPrefix(text, `"`) {
			text = `"` + text + `"`
		}
		if res.IsOptional {
			rctx.AddTypingImport("Optional")
			text = "Optional[" + text + "]"
		}

		field := classField{
			Name: utils.SanitizeMethodName(slot.Name),
			Type: text,
		}
		if slot.Schema != nil {
			field.Doc = strings.ReplaceAll(slot.Schema.Description, "\n", " ")
		}
		switch {
		case !required:
			field.Default = " = None"
		case strings.HasPrefix(text, "List["):
			rctx.AddImport("dataclasses", "field")
			field.Default = " = field(default_factory=list)"
		case strings.HasPrefix(text, "Dict["):
			rctx.AddImport("dataclasses", "field")
			field.Default = " = field(default_factory=dict)"
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// orderForBody returns fields in dataclass-legal order: fields without
// defaults first, then everything defaulted.
func orderForBody(fields []classField) []classField {
	ordered := make([]classField, 0, len(fields))
	for _, f := range fields {
		if f.Default == "" {
			ordered = append(ordered, f)
		}
	}
	for _, f := range fields {
		if f.Default != "" {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// attributeLines builds the docstring attribute entries in slot order.
func attributeLines(fields []classField) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		desc := f.Doc
		if desc == "" {
			desc = "No description provided."
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", f.Name, f.Type, desc))
	}
	return lines
}

// aliasTarget resolves the aliased type expression for a non-object,
// non-enum schema. The schema is resolved under an anonymous identity so its
// own name does not round-trip into a self import; everything it references
// resolves normally.
func aliasTarget(s *ir.IRSchema, resolver *pytype.Resolver, rctx *render.RenderContext) (string, error) {
	anon := *s
	anon.Name = ""
	anon.GenerationName = ""
	res, err := resolver.Resolve(&anon, rctx, true)
	if err != nil {
		return "", err
	}

	text := res.PythonType
	if res.IsForwardRef && !strings.HasPrefix(text, `"`) {
		text = `"` + text + `"`
	}
	if res.IsOptional {
		rctx.AddTypingImport("Optional")
		text = "Optional[" + text + "]"
	}
	return text, nil
}
