package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

// fakeModule is a minimal ModuleContext: it treats its own module path as a
// forward reference and prefixes every other target with a single dot.
type fakeModule struct {
	current string
	imports map[string][]string
	typing  []string
}

func newFakeModule(current string) *fakeModule {
	return &fakeModule{current: current, imports: map[string][]string{}}
}

func (f *fakeModule) AddImport(module, name string) {
	f.imports[module] = append(f.imports[module], name)
}

func (f *fakeModule) AddTypingImport(name string) {
	f.typing = append(f.typing, name)
}

func (f *fakeModule) ResolveRelativeOrForward(target string) (string, bool) {
	if target == f.current {
		return "", true
	}
	return "." + target, false
}

func namedModel(name, stem string) *ir.IRSchema {
	s := &ir.IRSchema{Name: name, Type: "object"}
	s.SetGenerationIdentity(name, stem)
	return s
}

func TestResolver_Primitives(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		schema   *ir.IRSchema
		required bool
		want     string
		optional bool
	}{
		{"required string", &ir.IRSchema{Type: "string"}, true, "str", false},
		{"optional string", &ir.IRSchema{Type: "string"}, false, "str", true},
		{"nullable string", &ir.IRSchema{Type: "string", IsNullable: true}, true, "str", true},
		{"integer", &ir.IRSchema{Type: "integer"}, true, "int", false},
		{"number", &ir.IRSchema{Type: "number"}, true, "float", false},
		{"boolean", &ir.IRSchema{Type: "boolean"}, true, "bool", false},
		{"null", &ir.IRSchema{Type: "null"}, true, "None", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(nil, nil)
			got, err := r.Resolve(tc.schema, newFakeModule("models.other"), tc.required)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.PythonType)
			assert.Equal(t, tc.optional, got.IsOptional)
			assert.False(t, got.NeedsImport)
		})
	}
}

func TestResolver_StringFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format     string
		want       string
		wantModule string
	}{
		{"date", "date", "datetime"},
		{"date-time", "datetime", "datetime"},
		{"time", "time", "datetime"},
		{"uuid", "UUID", "uuid"},
		{"binary", "bytes", ""},
		{"byte", "bytes", ""},
		{"email", "str", ""},
		{"uri", "str", ""},
		{"ipv6", "str", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.format, func(t *testing.T) {
			t.Parallel()

			mctx := newFakeModule("models.other")
			r := NewResolver(nil, nil)
			got, err := r.Resolve(&ir.IRSchema{Type: "string", Format: tc.format}, mctx, true)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.PythonType)
			if tc.wantModule != "" {
				assert.Equal(t, []string{tc.want}, mctx.imports[tc.wantModule])
			} else {
				assert.Empty(t, mctx.imports)
			}
		})
	}
}

func TestResolver_UnknownFormatSilentlyString(t *testing.T) {
	t.Parallel()

	mctx := newFakeModule("models.other")
	r := NewResolver(nil, nil)
	got, err := r.Resolve(&ir.IRSchema{Type: "string", Format: "passport-number"}, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "str", got.PythonType)
	assert.Empty(t, mctx.imports)
	assert.Empty(t, mctx.typing)
}

func TestResolver_NamedModelImports(t *testing.T) {
	t.Parallel()

	user := namedModel("UserProfile", "user_profile")
	r := NewResolver(map[string]*ir.IRSchema{"UserProfile": user}, nil)

	mctx := newFakeModule("models.order")
	got, err := r.Resolve(user, mctx, false)
	require.NoError(t, err)

	assert.Equal(t, "UserProfile", got.PythonType)
	assert.True(t, got.NeedsImport)
	assert.Equal(t, ".models.user_profile", got.ImportModule)
	assert.Equal(t, "UserProfile", got.ImportName)
	assert.True(t, got.IsOptional)
	assert.False(t, got.IsForwardRef)
	assert.Equal(t, []string{"UserProfile"}, mctx.imports[".models.user_profile"])
}

func TestResolver_SelfReferenceBecomesForwardRef(t *testing.T) {
	t.Parallel()

	node := namedModel("Node", "node")
	node.SetProperty("parent", node)
	r := NewResolver(map[string]*ir.IRSchema{"Node": node}, nil)

	mctx := newFakeModule("models.node")
	got, err := r.Resolve(node, mctx, false)
	require.NoError(t, err)

	assert.Equal(t, "Node", got.PythonType)
	assert.True(t, got.IsForwardRef)
	assert.False(t, got.NeedsImport)
	assert.Empty(t, mctx.imports)
}

// cyclicModule simulates a render context that has already emitted an import
// from b to a, so importing b from a would close a module cycle.
type cyclicModule struct {
	fakeModule
	cycleWith string
}

func (c *cyclicModule) ResolveRelativeOrForward(target string) (string, bool) {
	if target == c.current || target == c.cycleWith {
		return "", true
	}
	return "." + target, false
}

func TestResolver_MutualReferenceAvoidsImportCycle(t *testing.T) {
	t.Parallel()

	a := namedModel("A", "a")
	b := namedModel("B", "b")
	a.SetProperty("b", b)
	b.SetProperty("a", a)
	arena := map[string]*ir.IRSchema{"A": a, "B": b}
	r := NewResolver(arena, nil)

	mctx := &cyclicModule{
		fakeModule: *newFakeModule("models.a"),
		cycleWith:  "models.b",
	}
	prop, ok := a.Property("b")
	require.True(t, ok)

	got, err := r.Resolve(prop, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "B", got.PythonType)
	assert.True(t, got.IsForwardRef)
	assert.False(t, got.NeedsImport)
	assert.Empty(t, mctx.imports, "a forward reference must not emit an import")
}

func TestResolver_ArraysQuoteForwardRefItems(t *testing.T) {
	t.Parallel()

	node := namedModel("Node", "node")
	arr := &ir.IRSchema{Type: "array", Items: node}
	r := NewResolver(map[string]*ir.IRSchema{"Node": node}, nil)

	mctx := newFakeModule("models.node")
	got, err := r.Resolve(arr, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, `List["Node"]`, got.PythonType)
	assert.Contains(t, mctx.typing, "List")

	other := newFakeModule("models.other")
	got, err = r.Resolve(arr, other, false)
	require.NoError(t, err)
	assert.Equal(t, "List[Node]", got.PythonType)
	assert.True(t, got.IsOptional)
	assert.Equal(t, []string{"Node"}, other.imports[".models.node"])
}

func TestResolver_ArrayWithoutItems(t *testing.T) {
	t.Parallel()

	mctx := newFakeModule("models.other")
	r := NewResolver(nil, nil)
	got, err := r.Resolve(&ir.IRSchema{Type: "array"}, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "List[Any]", got.PythonType)
	assert.ElementsMatch(t, []string{"List", "Any"}, mctx.typing)
}

func TestResolver_UnionsAreSortedAndDeduplicated(t *testing.T) {
	t.Parallel()

	schema := &ir.IRSchema{
		OneOf: []*ir.IRSchema{
			{Type: "string"},
			{Type: "integer"},
			{Type: "string"},
			{Type: "boolean"},
		},
	}
	mctx := newFakeModule("models.other")
	r := NewResolver(nil, nil)
	got, err := r.Resolve(schema, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Union[bool, int, str]", got.PythonType)
	assert.Contains(t, mctx.typing, "Union")
}

func TestResolver_UnionNullMembersFoldIntoOptionality(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)

	schema := &ir.IRSchema{
		AnyOf: []*ir.IRSchema{
			{Type: "string"},
			{Type: "null"},
		},
	}
	got, err := r.Resolve(schema, newFakeModule("models.other"), true)
	require.NoError(t, err)
	assert.Equal(t, "str", got.PythonType)
	assert.True(t, got.IsOptional)

	nullOnly := &ir.IRSchema{AnyOf: []*ir.IRSchema{{Type: "null"}}}
	got, err = r.Resolve(nullOnly, newFakeModule("models.other"), true)
	require.NoError(t, err)
	assert.Equal(t, "None", got.PythonType)
	assert.True(t, got.IsOptional)
}

func TestResolver_SingleMemberUnionUnwraps(t *testing.T) {
	t.Parallel()

	schema := &ir.IRSchema{OneOf: []*ir.IRSchema{{Type: "integer"}}}
	mctx := newFakeModule("models.other")
	r := NewResolver(nil, nil)
	got, err := r.Resolve(schema, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "int", got.PythonType)
	assert.NotContains(t, mctx.typing, "Union")
}

func TestResolver_AllOfPicksFirstConcreteMember(t *testing.T) {
	t.Parallel()

	schema := &ir.IRSchema{
		AllOf: []*ir.IRSchema{
			{Description: "typeless"},
			{Type: "integer"},
		},
	}
	r := NewResolver(nil, nil)
	got, err := r.Resolve(schema, newFakeModule("models.other"), true)
	require.NoError(t, err)
	assert.Equal(t, "int", got.PythonType)

	typeless := &ir.IRSchema{
		AllOf: []*ir.IRSchema{{Description: "first"}, {Description: "second"}},
	}
	mctx := newFakeModule("models.other")
	got, err = r.Resolve(typeless, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Any", got.PythonType)
	assert.Contains(t, mctx.typing, "Any")
}

func TestResolver_ResolveUnderlyingUnwrapsPrimitiveAliases(t *testing.T) {
	t.Parallel()

	alias := &ir.IRSchema{Name: "UserId", Type: "string", Format: "uuid"}
	alias.SetGenerationIdentity("UserId", "user_id")
	r := NewResolver(map[string]*ir.IRSchema{"UserId": alias}, nil)

	mctx := newFakeModule("models.other")
	got, err := r.ResolveUnderlying(alias, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "UUID", got.PythonType)
	assert.Equal(t, []string{"UUID"}, mctx.imports["uuid"])

	// Plain Resolve keeps the alias name.
	mctx = newFakeModule("models.other")
	got, err = r.Resolve(alias, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "UserId", got.PythonType)
	assert.True(t, got.NeedsImport)
}

func TestResolver_ResolveUnderlyingKeepsModelClasses(t *testing.T) {
	t.Parallel()

	pet := namedModel("Pet", "pet")
	status := &ir.IRSchema{Name: "Status", Type: "string", Enum: []any{"on", "off"}}
	status.SetGenerationIdentity("Status", "status")
	list := &ir.IRSchema{Name: "PetList", Type: "array", Items: pet}
	list.SetGenerationIdentity("PetList", "pet_list")
	r := NewResolver(map[string]*ir.IRSchema{"Pet": pet, "Status": status, "PetList": list}, nil)

	mctx := newFakeModule("models.other")
	got, err := r.ResolveUnderlying(pet, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Pet", got.PythonType)
	assert.True(t, got.NeedsImport)

	got, err = r.ResolveUnderlying(status, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Status", got.PythonType)

	// A named array alias still unwraps to its element expression.
	got, err = r.ResolveUnderlying(list, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "List[Pet]", got.PythonType)
}

func TestResolver_UnderlyingKeepsModelsInsideContainers(t *testing.T) {
	t.Parallel()

	userID := &ir.IRSchema{Name: "UserId", Type: "string"}
	userID.SetGenerationIdentity("UserId", "user_id")
	pet := namedModel("Pet", "pet")
	arena := map[string]*ir.IRSchema{"UserId": userID, "Pet": pet}
	r := NewResolver(arena, nil)

	ids := &ir.IRSchema{Type: "array", Items: userID}
	mctx := newFakeModule("models.other")
	got, err := r.ResolveUnderlying(ids, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "List[str]", got.PythonType)

	pets := &ir.IRSchema{Type: "array", Items: pet}
	mctx = newFakeModule("models.other")
	got, err = r.ResolveUnderlying(pets, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "List[Pet]", got.PythonType)
}

func TestResolver_PromotedSlotHopsToArenaSchema(t *testing.T) {
	t.Parallel()

	enum := &ir.IRSchema{Name: "TaskStatusEnum", Type: "string", Enum: []any{"open", "done"}}
	enum.SetGenerationIdentity("TaskStatusEnum", "task_status_enum")
	slot := &ir.IRSchema{Name: "TaskStatusEnum", Type: "TaskStatusEnum", RefersTo: enum}
	r := NewResolver(map[string]*ir.IRSchema{"TaskStatusEnum": enum}, nil)

	mctx := newFakeModule("models.task")
	got, err := r.Resolve(slot, mctx, false)
	require.NoError(t, err)
	assert.Equal(t, "TaskStatusEnum", got.PythonType)
	assert.True(t, got.NeedsImport)
	assert.Equal(t, ".models.task_status_enum", got.ImportModule)
	assert.True(t, got.IsOptional)
}

func TestResolver_UnresolvableRefFails(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)
	_, err := r.Resolve(&ir.IRSchema{Ref: "#/components/schemas/Ghost"}, newFakeModule("models.other"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestResolver_RefResolvesThroughArena(t *testing.T) {
	t.Parallel()

	pet := namedModel("Pet", "pet")
	r := NewResolver(map[string]*ir.IRSchema{"Pet": pet}, nil)

	got, err := r.Resolve(&ir.IRSchema{Ref: "#/components/schemas/Pet"}, newFakeModule("models.other"), true)
	require.NoError(t, err)
	assert.Equal(t, "Pet", got.PythonType)
	assert.True(t, got.NeedsImport)
}

func TestResolver_AnonymousObjects(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)

	mctx := newFakeModule("models.other")
	got, err := r.Resolve(&ir.IRSchema{Type: "object"}, mctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Dict[str, Any]", got.PythonType)
	assert.ElementsMatch(t, []string{"Dict", "Any"}, mctx.typing)

	got, err = r.Resolve(nil, newFakeModule("models.other"), true)
	require.NoError(t, err)
	assert.Equal(t, "Any", got.PythonType)

	got, err = r.Resolve(&ir.IRSchema{}, newFakeModule("models.other"), false)
	require.NoError(t, err)
	assert.Equal(t, "Any", got.PythonType)
	assert.True(t, got.IsOptional)
}
