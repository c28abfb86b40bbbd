package sema

import (
	"geolc/internal/diag"
	"geolc/internal/parser"
)

var comparisonOps = map[string]bool{"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

// Analyzer runs the pass structure of spec.md §4.4 over a single
// compilation unit's statement list: a declaration pass that
// forward-registers functions and imports, a single combined
// resolution/observation walk in program order (which both resolves
// identifiers and tracks "the most recently referenced slot" so it can
// stamp predicate/metric/interrogative sites with their governing slot
// as it goes — spec.md §3.4's observed-by-predicate-use rule and the
// governing-slot rule are the same online fact, so they are computed in
// the same pass rather than a separate post-hoc annotation pass), and
// finally the fixpoint settle over the contagion edges collected along
// the way.
type Analyzer struct {
	Table  *SymbolTable
	Errors *diag.Accumulator
	file   string

	graph     *observationGraph
	resolved  map[*parser.Identifier]*Symbol
	funcParam map[string]*Symbol

	lastNamed *Symbol // most recently referenced non-builtin symbol
	funcDepth int     // >0 while walking inside a FunctionDef body; distinguishes global from local slots

	assignedSymbol map[parser.Stmt]*Symbol

	// GoverningSlot maps each predicate/metric identifier or interrogative
	// node to the name of the observed slot it is evaluated against, the
	// annotation the code generator reads (spec.md §4.5.5).
	GoverningSlot map[parser.Expr]string

	// GoverningSlotSymbol is GoverningSlot's codegen-facing counterpart:
	// the same annotation keyed to the resolved *Symbol rather than its
	// name, so the generator doesn't have to re-resolve a name string
	// that might be shadowed by the time it walks the tree a second time.
	GoverningSlotSymbol map[parser.Expr]*Symbol
}

// NewAnalyzer builds an analyzer for one compilation unit.
func NewAnalyzer(file string) *Analyzer {
	return &Analyzer{
		Table:         NewSymbolTable(),
		Errors:        diag.NewAccumulator(diag.DefaultMaxErrors),
		file:          file,
		graph:               newObservationGraph(),
		resolved:            make(map[*parser.Identifier]*Symbol),
		funcParam:           make(map[string]*Symbol),
		assignedSymbol:      make(map[parser.Stmt]*Symbol),
		GoverningSlot:       make(map[parser.Expr]string),
		GoverningSlotSymbol: make(map[parser.Expr]*Symbol),
	}
}

// Analyze runs declaration, the combined resolve/annotate walk, and the
// observation fixpoint over a unit's top-level statements.
func (a *Analyzer) Analyze(stmts []parser.Stmt) {
	a.declare(stmts)
	a.walkStmts(stmts)
	a.graph.settle()
}

// declare pre-registers every top-level function, import, and assignment
// target so forward references — including a function defined earlier in
// the unit that reads a global assigned later in the same unit — resolve
// correctly during the walk, per spec.md §4.4's two-pass design: a
// declaration pass that records every top-level slot before the
// resolution pass walks any statement body. A function's own body is not
// pre-declared here; its formal parameter lives in the walk's own pushed
// scope, not as a top-level slot.
func (a *Analyzer) declare(stmts []parser.Stmt) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *parser.FunctionDef:
			sym := &Symbol{Name: st.Name, Kind: FunctionRef, Qualified: a.file + "." + st.Name}
			a.Table.Define(sym)
		case *parser.Import:
			for _, name := range st.Names {
				a.Table.Define(&Symbol{Name: name, Kind: ImportedName, Module: st.Module, Original: name})
			}
		case *parser.Assignment:
			if _, existed := a.Table.Resolve(st.Name); !existed {
				a.Table.Define(&Symbol{Name: st.Name, Kind: GlobalSlot})
			}
		}
	}
}

func (a *Analyzer) fail(pos parser.Pos, format string, args ...interface{}) {
	a.Errors.Add(diag.New(diag.KindSemanticError, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...))
}

// --- combined resolution / observation walk ---

func (a *Analyzer) walkStmts(stmts []parser.Stmt) {
	for _, s := range stmts {
		a.walkStmt(s)
	}
}

func (a *Analyzer) walkStmt(s parser.Stmt) {
	switch st := s.(type) {
	case *parser.Assignment:
		a.walkExpr(st.Value)
		sym, existed := a.Table.Resolve(st.Name)
		if !existed {
			kind := LocalSlot
			if a.funcDepth == 0 {
				kind = GlobalSlot
			}
			sym = &Symbol{Name: st.Name, Kind: kind}
			a.Table.Define(sym)
		}
		if rhs, ok := st.Value.(*parser.Identifier); ok {
			if rhsSym, ok := a.resolved[rhs]; ok {
				a.graph.connect(rhsSym, sym)
			}
		}
		a.lastNamed = sym
		a.assignedSymbol[st] = sym
	case *parser.IndexAssignment:
		a.walkExpr(st.Target)
		a.walkExpr(st.Idx)
		a.walkExpr(st.Value)
		if target, ok := st.Target.(*parser.Identifier); ok {
			if sym, ok := a.resolved[target]; ok {
				a.assignedSymbol[st] = sym
			}
		}
	case *parser.ExpressionStmt:
		a.walkExpr(st.Expr)
	case *parser.FunctionDef:
		savedLast := a.lastNamed
		a.lastNamed = nil
		a.Table.Push()
		argSym := &Symbol{Name: "arg", Kind: Parameter}
		a.Table.Define(argSym)
		a.funcParam[st.Name] = argSym
		a.funcDepth++
		a.walkStmts(st.Body)
		a.funcDepth--
		a.Table.Pop()
		a.lastNamed = savedLast
	case *parser.Return:
		if st.Value != nil {
			a.walkExpr(st.Value)
		}
	case *parser.If:
		a.walkExpr(st.Cond)
		a.walkStmts(st.Then)
		a.walkStmts(st.Else)
	case *parser.Loop:
		a.walkExpr(st.Cond)
		a.walkStmts(st.Body)
	case *parser.Break, *parser.Continue, *parser.Import:
		// nothing to resolve
	}
}

func (a *Analyzer) walkExpr(e parser.Expr) {
	switch ex := e.(type) {
	case *parser.Literal:
		// nothing
	case *parser.Identifier:
		sym, ok := a.Table.Resolve(ex.Name)
		if !ok {
			a.fail(ex.P, "UnboundName: %q is not declared in this scope", ex.Name)
			return
		}
		a.resolved[ex] = sym
		if sym.Kind == BuiltinRef && (PredicateNames[sym.Tag] || MetricNames[sym.Tag]) {
			a.stampGoverningSlot(ex, sym.Tag, ex.P)
			return
		}
		if sym.Kind != BuiltinRef && sym.Kind != FunctionRef {
			a.lastNamed = sym
		}
	case *parser.List:
		for _, el := range ex.Elements {
			a.walkExpr(el)
		}
	case *parser.ListComprehension:
		a.walkExpr(ex.Iterable)
		a.Table.Push()
		a.Table.Define(&Symbol{Name: ex.Var, Kind: LocalSlot})
		a.walkExpr(ex.Elem)
		if ex.Filter != nil {
			a.walkExpr(ex.Filter)
		}
		a.Table.Pop()
	case *parser.Index:
		a.walkExpr(ex.Target)
		a.walkExpr(ex.Idx)
	case *parser.Call:
		a.walkExpr(ex.Callee)
		a.walkExpr(ex.Arg)
		if callee, ok := ex.Callee.(*parser.Identifier); ok {
			if calleeSym, ok := a.resolved[callee]; ok && calleeSym.Kind == FunctionRef {
				if argID, ok := ex.Arg.(*parser.Identifier); ok {
					if argSym, ok := a.resolved[argID]; ok {
						if paramSym, ok := a.funcParam[calleeSym.Name]; ok {
							a.graph.connect(argSym, paramSym)
						}
					}
				}
			}
		}
	case *parser.BinaryOp:
		a.walkExpr(ex.Left)
		a.walkExpr(ex.Right)
		if comparisonOps[ex.Op] {
			a.markIfIdentifier(ex.Left)
			a.markIfIdentifier(ex.Right)
		}
	case *parser.UnaryOp:
		a.walkExpr(ex.Operand)
	case *parser.Interrogative:
		a.stampGoverningSlot(ex, ex.Which, ex.P)
	}
}

// stampGoverningSlot records the governing slot for a predicate, metric,
// or interrogative occurrence and marks that slot observed: a variable
// that becomes someone's governing slot is, by spec.md §3.4 rule (a),
// observed by definition.
func (a *Analyzer) stampGoverningSlot(node parser.Expr, tag string, pos parser.Pos) {
	if a.lastNamed == nil {
		a.GoverningSlot[node] = ""
		a.fail(pos, "PredicateWithoutSubject: %q has no observed slot in scope", tag)
		return
	}
	a.graph.mark(a.lastNamed)
	a.GoverningSlot[node] = a.lastNamed.Name
	a.GoverningSlotSymbol[node] = a.lastNamed
}

func (a *Analyzer) markIfIdentifier(e parser.Expr) {
	if id, ok := e.(*parser.Identifier); ok {
		if sym, ok := a.resolved[id]; ok {
			a.graph.mark(sym)
		}
	}
}

// AssignedSymbol returns the symbol an Assignment or IndexAssignment
// statement resolved to, for the code generator to decide its storage
// class (global Cell, global double, local Cell, or local double).
func (a *Analyzer) AssignedSymbol(s parser.Stmt) *Symbol { return a.assignedSymbol[s] }

// ParamSymbol returns the sole formal parameter's symbol for a declared
// function, nil if the name isn't a known function.
func (a *Analyzer) ParamSymbol(funcName string) *Symbol { return a.funcParam[funcName] }

// Resolved exposes the identifier-to-symbol table built during resolution,
// read by the code generator to tell local slots, parameters, globals,
// builtins, and imported names apart.
func (a *Analyzer) Resolved() map[*parser.Identifier]*Symbol { return a.resolved }
