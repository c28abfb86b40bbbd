// Package sema implements the semantic analyzer of spec.md §4.4: a
// declaration pass, a resolution pass, and an observation-inference
// fixpoint over a scope-stack symbol table. It is a new package — the
// teacher (sentra-language-sentra) compiles straight from AST to
// bytecode with no separate analysis stage — grounded instead on the
// general "pass that annotates the AST before codegen consumes it" shape
// used by the teacher's internal/compiler/compiler.go.
package sema

// SymbolKind classifies a name bound in some scope, spec.md §3.3.
type SymbolKind int

const (
	LocalSlot SymbolKind = iota
	Parameter
	FunctionRef
	GlobalSlot
	BuiltinRef
	ImportedName
)

func (k SymbolKind) String() string {
	switch k {
	case LocalSlot:
		return "LocalSlot"
	case Parameter:
		return "Parameter"
	case FunctionRef:
		return "FunctionRef"
	case GlobalSlot:
		return "GlobalSlot"
	case BuiltinRef:
		return "BuiltinRef"
	case ImportedName:
		return "ImportedName"
	default:
		return "?"
	}
}

// Symbol is one scope entry. Only the fields relevant to its Kind are set.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Qualified string // FunctionRef: module-qualified name for linkage
	Module    string // ImportedName: the module it was imported from
	Original  string // ImportedName: the name in that module
	Tag       string // BuiltinRef: the runtime/builtin identity
	Observed  bool   // set once the observation-inference fixpoint settles
}

// PredicateNames are the nullary geometric predicates of spec.md §4.1,
// each evaluated against the governing observed slot in scope.
var PredicateNames = map[string]bool{
	"converged": true, "stable": true, "oscillating": true,
	"diverging": true, "improving": true,
}

// MetricNames are nullary metrics evaluated against the governing slot.
var MetricNames = map[string]bool{"framework_strength": true}

// BuiltinNames populate the root scope, spec.md §3.3.
var BuiltinNames = []string{
	"print", "len", "append", "map", "filter", "reduce", "zip", "sort",
	"add", "sub", "mul", "div", "mod", "sqrt", "abs", "floor", "ceil", "round", "pow", "min", "max",
	"list", "string",
	"converged", "stable", "oscillating", "diverging", "improving", "framework_strength",
}

// Scope is one level of the lexical scope stack.
type Scope struct {
	symbols map[string]*Symbol
	parent  *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{symbols: make(map[string]*Symbol), parent: parent}
}

func (s *Scope) define(sym *Symbol) { s.symbols[sym.Name] = sym }

func (s *Scope) resolve(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// SymbolTable is the stack of scopes described in spec.md §3.3, rooted in
// a scope pre-populated with the builtin tags.
type SymbolTable struct {
	root    *Scope
	current *Scope
}

// NewSymbolTable builds a table with only the root (builtin) scope active.
func NewSymbolTable() *SymbolTable {
	root := newScope(nil)
	t := &SymbolTable{root: root, current: root}
	for _, name := range BuiltinNames {
		root.define(&Symbol{Name: name, Kind: BuiltinRef, Tag: name})
	}
	return t
}

// Push enters a new nested scope (function bodies and list comprehensions
// only, per DESIGN.md).
func (t *SymbolTable) Push() { t.current = newScope(t.current) }

// Pop exits the innermost scope.
func (t *SymbolTable) Pop() { t.current = t.current.parent }

// Define binds a name in the current scope.
func (t *SymbolTable) Define(sym *Symbol) { t.current.define(sym) }

// Resolve looks a name up through the scope stack to the root.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) { return t.current.resolve(name) }
