package ir

import "sort"

// HTTPMethod is an uppercase HTTP verb as used by IROperation.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPut     HTTPMethod = "PUT"
	MethodPost    HTTPMethod = "POST"
	MethodDelete  HTTPMethod = "DELETE"
	MethodOptions HTTPMethod = "OPTIONS"
	MethodHead    HTTPMethod = "HEAD"
	MethodPatch   HTTPMethod = "PATCH"
	MethodTrace   HTTPMethod = "TRACE"
)

// PathItemMethods lists the operation keys recognized inside a path item,
// in emission order.
var PathItemMethods = []HTTPMethod{
	MethodGet, MethodPut, MethodPost, MethodDelete,
	MethodOptions, MethodHead, MethodPatch, MethodTrace,
}

// IRSpec is the complete intermediate representation of one OpenAPI document.
type IRSpec struct {
	Title       string
	Version     string
	Description string
	// Schemas is the arena: every canonical named IRSchema for this run,
	// keyed by its unique arena name.
	Schemas    map[string]*IRSchema
	Operations []*IROperation
	Servers    []string
	// DiscriminatorSkipList holds arena names superseded by unified
	// discriminator enums; emitters must not render them.
	DiscriminatorSkipList map[string]struct{}
}

// IROperation represents a single API operation (path + method).
type IROperation struct {
	OperationID string
	Method      HTTPMethod
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []*IRParameter
	RequestBody *IRRequestBody
	Responses   []*IRResponse
}

// ParameterLocation is the OpenAPI "in" value of a parameter.
type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

// IRParameter represents one operation parameter.
type IRParameter struct {
	Name        string
	In          ParameterLocation
	Required    bool
	Schema      *IRSchema
	Description string
}

// IRRequestBody represents a request body with its per-content-type schemas.
type IRRequestBody struct {
	Required    bool
	Content     map[string]*IRSchema
	Description string
}

// IRResponse represents one response of an operation.
type IRResponse struct {
	StatusCode  string
	Description string
	Content     map[string]*IRSchema
	// Stream marks responses that deliver a body incrementally
	// (binary downloads, server-sent events, ndjson).
	Stream       bool
	StreamFormat string
}

// IRDiscriminator carries polymorphism discriminator information.
type IRDiscriminator struct {
	PropertyName string
	// Mapping maps discriminator values to schema names or refs.
	Mapping map[string]string
}

// IRProperty is one named property slot of an object schema. Slots keep
// insertion order so output stays deterministic across runs.
type IRProperty struct {
	Name   string
	Schema *IRSchema
}

// IRSchema is the language-agnostic representation of one OpenAPI schema
// node. Named instances are owned by the arena; everything else references
// them by pointer, so pointer identity is meaningful (see Property and
// SetProperty).
type IRSchema struct {
	// Name is the arena name; empty for anonymous nodes.
	Name string
	// Type is the primitive tag ("string", "integer", ...), "object",
	// "array", or the name of another arena schema when this node is a
	// lightweight reference installed by inline promotion.
	Type        string
	Format      string
	Description string

	// Object
	Properties           []IRProperty
	Required             []string
	AdditionalProperties any

	// Array
	Items *IRSchema

	// Enum values in declaration order.
	Enum []any

	// Compositions; members are retained for provenance even when their
	// properties have been flattened (allOf).
	AnyOf []*IRSchema
	AllOf []*IRSchema
	OneOf []*IRSchema

	Discriminator *IRDiscriminator

	IsNullable bool
	Default    any
	Example    any

	// Ref holds an unresolved reference name for hand-built IR; the parser
	// resolves document refs before construction, so it is normally empty.
	Ref string

	// Circular/unresolved markers set by the recursion guard and the ref
	// resolver. Placeholders carry these instead of raising.
	IsCircularRef     bool
	CircularRefPath   string
	FromUnresolvedRef bool

	// GenerationName and FinalModuleStem are the finalized emission
	// identity. First write wins; later passes must not overwrite them.
	GenerationName  string
	FinalModuleStem string

	// RefersTo is a non-owning back-reference from a promoted property
	// slot to the arena schema it stands for. Lookup only.
	RefersTo *IRSchema
}

// Property returns the schema bound to the named slot.
func (s *IRSchema) Property(name string) (*IRSchema, bool) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return s.Properties[i].Schema, true
		}
	}
	return nil, false
}

// SetProperty binds name to schema, replacing an existing slot in place or
// appending a new one. Replacement rebinds only this parent's slot; other
// holders of the previous schema keep their reference.
func (s *IRSchema) SetProperty(name string, schema *IRSchema) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			s.Properties[i].Schema = schema
			return
		}
	}
	s.Properties = append(s.Properties, IRProperty{Name: name, Schema: schema})
}

// PropertyNames returns slot names in slot order.
func (s *IRSchema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for i := range s.Properties {
		names = append(names, s.Properties[i].Name)
	}
	return names
}

// IsRequired reports whether name is in the required set.
func (s *IRSchema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// AddRequired unions names into the required set, kept sorted and unique.
func (s *IRSchema) AddRequired(names ...string) {
	for _, n := range names {
		if n == "" || s.IsRequired(n) {
			continue
		}
		s.Required = append(s.Required, n)
	}
	sort.Strings(s.Required)
}

// SetGenerationIdentity assigns the emission identity. Both fields are
// first-write-wins so post-passes cannot rename already-finalized schemas.
func (s *IRSchema) SetGenerationIdentity(generationName, moduleStem string) {
	if s.GenerationName == "" {
		s.GenerationName = generationName
	}
	if s.FinalModuleStem == "" {
		s.FinalModuleStem = moduleStem
	}
}

// IsEnum reports whether this schema declares enum values.
func (s *IRSchema) IsEnum() bool {
	return len(s.Enum) > 0
}

// HasComposition reports whether any composition keyword survived parsing.
func (s *IRSchema) HasComposition() bool {
	return len(s.AnyOf) > 0 || len(s.AllOf) > 0 || len(s.OneOf) > 0
}
