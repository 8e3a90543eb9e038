// Package pytype maps finished IR schemas onto Python type expressions.
//
// The resolver is deliberately ignorant of files and directories: everything
// it needs from the module being generated sits behind ModuleContext, so it
// can be driven by a real render context during emission and by a lightweight
// fake in tests.
package pytype

// ModuleContext is what the resolver needs from the module currently being
// generated: somewhere to record imports, and a decision procedure for
// model-to-model references.
type ModuleContext interface {
	// AddImport records a "from module import name" for the current module.
	AddImport(module, name string)

	// AddTypingImport records a name imported from typing.
	AddTypingImport(name string)

	// ResolveRelativeOrForward maps a package-root-relative module path
	// (such as "models.user") to the import path the current module should
	// use. A true second return means no import may be emitted — the target
	// is the current module itself, or importing it would close a module
	// cycle — and the type must be quoted as a forward reference.
	ResolveRelativeOrForward(targetModule string) (path string, isForwardRef bool)
}

// ResolvedType is one schema mapped onto Python.
type ResolvedType struct {
	// PythonType is the type expression, e.g. "str" or "List[Pet]".
	PythonType string

	// NeedsImport marks generated model types; ImportModule and ImportName
	// say where the emitter finds them. Stdlib refinements (datetime, uuid)
	// register their imports on the context instead of setting these.
	NeedsImport  bool
	ImportModule string
	ImportName   string

	// IsOptional reports !required || nullable. Wrapping in Optional[...]
	// is the caller's concern.
	IsOptional bool

	// IsForwardRef means the type names something that cannot be imported
	// from the current module and must be quoted.
	IsForwardRef bool
}
