package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
)

// DefaultMaxDepth bounds schema recursion when Options.MaxDepth is unset.
const DefaultMaxDepth = 100

// Options tunes a parsing run. The zero value is usable: depth defaults to
// DefaultMaxDepth and logging to a nop logger.
type Options struct {
	// MaxDepth is the maximum schema recursion depth before the guard
	// degrades to a placeholder.
	MaxDepth int
	// DebugCycles raises cycle logging verbosity. Logging only; it never
	// changes resolution results.
	DebugCycles bool
	// MaxCycles, when > 0, logs an over-budget signal once the number of
	// detected cycles passes it. Logging only.
	MaxCycles int
	Logger    *zap.Logger
}

// GuardKind classifies the outcome of entering a schema node.
type GuardKind int

const (
	// GuardOK means the schema may be parsed normally.
	GuardOK GuardKind = iota
	// GuardCycle means the schema is already on the recursion stack.
	GuardCycle
	// GuardDepthExceeded means the depth limit was hit before entry.
	GuardDepthExceeded
)

// GuardState is the result of EnterSchema. Callers match the kind
// exhaustively; cycle states carry the full arrow-joined path.
type GuardState struct {
	Kind      GuardKind
	CyclePath string
}

// ParsingContext carries all mutable state of one parsing run: the raw spec
// maps, the schema arena, the recursion stack and the collected warnings.
// A context must not be shared between concurrent runs.
type ParsingContext struct {
	// RawSchemas holds the raw components.schemas nodes by name.
	RawSchemas map[string]any
	// RawComponents holds the whole raw components section.
	RawComponents map[string]any
	// Schemas is the arena: canonical named IRSchema instances by name.
	Schemas map[string]*ir.IRSchema

	// CycleDetected flips to true when any cycle was seen during the run.
	CycleDetected bool

	maxDepth     int
	depth        int
	maxDepthSeen int
	cycleCount   int
	debugCycles  bool
	maxCycles    int

	onStack map[string]struct{}
	path    []string

	warnings []string
	logger   *zap.Logger
}

// NewParsingContext builds a context over the raw schema maps. Both maps may
// be nil for hand-built runs.
func NewParsingContext(rawSchemas, rawComponents map[string]any, opts Options) *ParsingContext {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if rawSchemas == nil {
		rawSchemas = map[string]any{}
	}
	if rawComponents == nil {
		rawComponents = map[string]any{}
	}
	return &ParsingContext{
		RawSchemas:    rawSchemas,
		RawComponents: rawComponents,
		Schemas:       make(map[string]*ir.IRSchema),
		maxDepth:      maxDepth,
		debugCycles:   opts.DebugCycles,
		maxCycles:     opts.MaxCycles,
		onStack:       make(map[string]struct{}),
		logger:        logger,
	}
}

// EnterSchema tracks entry into a schema node. Anonymous nodes (empty name)
// only count toward depth. Every EnterSchema must be paired with ExitSchema,
// regardless of the returned kind.
func (c *ParsingContext) EnterSchema(name string) GuardState {
	c.depth++
	if c.depth > c.maxDepthSeen {
		c.maxDepthSeen = c.depth
	}

	if c.depth > c.maxDepth {
		return GuardState{Kind: GuardDepthExceeded}
	}

	if name == "" {
		return GuardState{Kind: GuardOK}
	}

	if _, ok := c.onStack[name]; ok {
		cyclePath := strings.Join(append(append([]string{}, c.path...), name), " -> ")
		c.CycleDetected = true
		c.cycleCount++
		c.logCycle(name, cyclePath)
		return GuardState{Kind: GuardCycle, CyclePath: cyclePath}
	}

	c.onStack[name] = struct{}{}
	c.path = append(c.path, name)
	return GuardState{Kind: GuardOK}
}

// ExitSchema tracks exit from a schema node. Removing an absent name is a
// no-op, so it pairs safely with every EnterSchema outcome.
func (c *ParsingContext) ExitSchema(name string) {
	if c.depth > 0 {
		c.depth--
	}
	if name == "" {
		return
	}
	delete(c.onStack, name)
	if n := len(c.path); n > 0 && c.path[n-1] == name {
		c.path = c.path[:n-1]
	}
}

// OnStack reports whether name is currently being parsed.
func (c *ParsingContext) OnStack(name string) bool {
	_, ok := c.onStack[name]
	return ok
}

// PathTo returns the current recursion path extended with name, joined by
// the cycle arrow separator.
func (c *ParsingContext) PathTo(name string) string {
	return strings.Join(append(append([]string{}, c.path...), name), " -> ")
}

// Depth returns the current recursion depth.
func (c *ParsingContext) Depth() int { return c.depth }

// MaxDepth returns the configured recursion limit.
func (c *ParsingContext) MaxDepth() int { return c.maxDepth }

// MaxDepthSeen returns the deepest recursion observed so far.
func (c *ParsingContext) MaxDepthSeen() int { return c.maxDepthSeen }

// CycleCount returns the number of cycles detected so far.
func (c *ParsingContext) CycleCount() int { return c.cycleCount }

// Register inserts schema into the arena under name, overwriting any
// previous entry. Pointer identity of arena entries is the cross-reference
// contract, so callers prefer Lookup before Register.
func (c *ParsingContext) Register(name string, schema *ir.IRSchema) {
	if name == "" {
		return
	}
	c.Schemas[name] = schema
}

// Lookup returns the arena entry for name.
func (c *ParsingContext) Lookup(name string) (*ir.IRSchema, bool) {
	s, ok := c.Schemas[name]
	return s, ok
}

// Warnf records a non-fatal condition. Warnings surface to the caller after
// the run; they never abort parsing.
func (c *ParsingContext) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, msg)
	c.logger.Warn(msg)
}

// Warnings returns the warnings collected so far, in emission order.
func (c *ParsingContext) Warnings() []string { return c.warnings }

// Logger returns the run logger.
func (c *ParsingContext) Logger() *zap.Logger { return c.logger }

// Reset clears all per-run state so the context can serve a second run over
// the same raw maps. Never call Reset while a run is in flight.
func (c *ParsingContext) Reset() {
	c.Schemas = make(map[string]*ir.IRSchema)
	c.onStack = make(map[string]struct{})
	c.path = nil
	c.depth = 0
	c.maxDepthSeen = 0
	c.cycleCount = 0
	c.CycleDetected = false
	c.warnings = nil
}

func (c *ParsingContext) logCycle(name, cyclePath string) {
	if c.debugCycles {
		c.logger.Warn("cycle detected",
			zap.String("schema", name),
			zap.String("path", cyclePath),
			zap.Int("cycles", c.cycleCount),
		)
	} else {
		c.logger.Debug("cycle detected", zap.String("schema", name))
	}
	if c.maxCycles > 0 && c.cycleCount > c.maxCycles {
		c.logger.Warn("cycle budget exceeded",
			zap.Int("cycles", c.cycleCount),
			zap.Int("budget", c.maxCycles),
		)
	}
}
