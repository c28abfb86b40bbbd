// Package codegen lowers one analyzed compilation unit to an *ir.Module
// via github.com/llir/llvm, rendering it with Module.String() to produce
// the LIR text artifact of spec.md §4.5. Grounded on the teacher's
// visitor-shaped internal/compiler/compiler.go — a Compiler type that
// implements parser.ExprVisitor/StmtVisitor and walks the AST via
// Accept(c) — generalized from Sentra's stack-bytecode target to a real
// SSA intermediate representation with real basic blocks, calls into a
// named runtime ABI, and predicate/governing-slot lowering.
package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"geolc/internal/diag"
	"geolc/internal/parser"
	"geolc/internal/sema"
)

// Mode toggles the main-wrapper emission of spec.md §4.5.7.
type Mode int

const (
	ProgramMode Mode = iota
	LibraryMode
)

// crossModulePrefixes names the globals that receive external linkage
// and the __unit_global_ naming convention, spec.md §4.5.6/§6.3.
var crossModulePrefixes = []string{"lex_", "ast_", "parser_token_", "shared"}

func hasCrossModulePrefix(name string) bool {
	for _, p := range crossModulePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// i8ptr is the opaque handle type used for *List and *String: neither
// backing Go type (a slice header, a byte slice) is a fixed-layout C
// struct worth naming in LIR, and nothing the generator emits ever reads
// their fields directly — every access goes through a declared runtime
// call, so an opaque byte pointer carries exactly as much information as
// the ABI needs.
var i8ptr = types.NewPointer(types.I8)

var builtinArity = map[string]int{
	"print": 1, "len": 1, "append": 2, "list": 1, "string": 1,
	"add": 2, "sub": 2, "mul": 2, "div": 2, "mod": 2,
	"sqrt": 1, "abs": 1, "floor": 1, "ceil": 1, "round": 1,
	"pow": 2, "min": 2, "max": 2,
}

var intrinsicLLVMName = map[string]string{
	"sqrt": "llvm.sqrt.f64", "abs": "llvm.fabs.f64", "floor": "llvm.floor.f64",
	"ceil": "llvm.ceil.f64", "round": "llvm.round.f64",
	"pow": "llvm.pow.f64", "min": "llvm.minnum.f64", "max": "llvm.maxnum.f64",
}

type local struct {
	observed bool
	ptr      value.Value
}

type loopTargets struct{ header, exit *ir.Block }

// codegenAbort unwinds generation on the first CodegenError/TypeShapeError,
// mirroring the parser's parseError{} sentinel (internal/parser/parser.go)
// and spec.md §7's "code generation aborts on the first error" policy.
type codegenAbort struct{}

// Generator lowers one compilation unit's analyzed statement list to an
// *ir.Module.
type Generator struct {
	Unit    string
	Mode    Mode
	IsEntry bool
	Errors  *diag.Accumulator

	an *sema.Analyzer

	mod *ir.Module

	cellType *types.StructType
	cellPtr  *types.PointerType

	externs map[string]*ir.Func
	funcs   map[string]*ir.Func

	strings   map[string]*ir.Global
	stringSeq int
	blockSeq  int

	fn      *ir.Func
	blk     *ir.Block
	fnName  string
	locals  map[string]local
	globals map[string]local

	initialized map[*sema.Symbol]bool

	// repr tracks, per symbol, the last statically-known representation
	// its assigned value carried — list or string handle, both opaque
	// i8* in the generated IR and otherwise indistinguishable — so
	// VisitIndex can tell a list-index from a string-index use of the
	// same `[]` syntax (spec.md §3.2). Absent/zero means unknown.
	repr map[*sema.Symbol]reprKind

	loops []loopTargets

	// ExternalInits names other units' qualified __init_unit_<name>
	// functions, in the topological order the linker computed
	// (internal/linker), that this unit's main must call before running
	// its own initializer and top-level statements — spec.md §4.5.6:
	// "a main wrapper... calls the unit initializers in import order."
	// Only consulted when Mode == ProgramMode && IsEntry.
	ExternalInits []string
}

// NewGenerator builds a generator for one compilation unit. an must have
// already run Analyze over stmts.
func NewGenerator(unit string, an *sema.Analyzer, mode Mode, isEntry bool) *Generator {
	g := &Generator{
		Unit:        unit,
		Mode:        mode,
		IsEntry:     isEntry,
		Errors:      diag.NewAccumulator(diag.DefaultMaxErrors),
		an:          an,
		mod:         ir.NewModule(),
		externs:     make(map[string]*ir.Func),
		funcs:       make(map[string]*ir.Func),
		strings:     make(map[string]*ir.Global),
		locals:      make(map[string]local),
		globals:     make(map[string]local),
		initialized: make(map[*sema.Symbol]bool),
		repr:        make(map[*sema.Symbol]reprKind),
	}
	g.mod.SourceFilename = unit
	g.declareCellType()
	return g
}

func (g *Generator) declareCellType() {
	st := types.NewStruct(
		types.Double,                       // value
		types.Double,                       // gradient
		types.Double,                       // stability
		types.I64,                          // iteration
		types.Double,                       // prevValue
		types.Double,                       // prevGradient
		types.NewArray(100, types.Double),  // history
		types.I32,                          // historySize
		types.I32,                          // historyIndex
	)
	st.TypeName = "cell"
	g.mod.TypeDefs = append(g.mod.TypeDefs, st)
	g.cellType = st
	g.cellPtr = types.NewPointer(st)
}

// Generate lowers stmts into the generator's module and returns it along
// with any CodegenError/TypeShapeError diagnostics raised. Generation
// aborts at the first diagnostic; the partially built module is returned
// so callers can still inspect what was emitted before the failure.
func (g *Generator) Generate(stmts []parser.Stmt) (mod *ir.Module, errs []diag.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(codegenAbort); ok {
				mod, errs = g.mod, g.Errors.Items()
				return
			}
			panic(r)
		}
	}()

	for _, s := range stmts {
		if fd, ok := s.(*parser.FunctionDef); ok {
			g.funcs[fd.Name] = g.mod.NewFunc(g.qualify(fd.Name), types.Double, ir.NewParam("arg", types.Double))
		}
	}

	initFn := g.mod.NewFunc(g.initFuncName(), types.Void)
	initFn.Linkage = enum.LinkageExternal
	g.fn, g.blk, g.fnName = initFn, initFn.NewBlock("entry"), g.initFuncName()

	var rest []parser.Stmt
	for _, s := range stmts {
		switch s.(type) {
		case *parser.Assignment, *parser.IndexAssignment:
			g.genStmt(s)
		case *parser.FunctionDef:
			// generated in the pass below
		default:
			rest = append(rest, s)
		}
	}
	if g.blk != nil {
		g.blk.NewRet(nil)
	}
	g.fn, g.blk, g.fnName = nil, nil, ""

	for _, s := range stmts {
		if fd, ok := s.(*parser.FunctionDef); ok {
			g.genFunctionBody(fd)
		}
	}

	if g.Mode == ProgramMode && g.IsEntry {
		mainFn := g.mod.NewFunc("main", types.I32)
		g.fn, g.blk, g.fnName = mainFn, mainFn.NewBlock("entry"), "main"
		for _, depInit := range g.ExternalInits {
			g.blk.NewCall(g.extern(depInit, types.Void))
		}
		g.blk.NewCall(initFn)
		g.genStmts(rest)
		if g.blk != nil {
			g.blk.NewRet(constant.NewInt(types.I32, 0))
		}
		g.fn, g.blk, g.fnName = nil, nil, ""
	}

	return g.mod, g.Errors.Items()
}

func (g *Generator) fail(pos parser.Pos, format string, args ...interface{}) {
	g.Errors.Add(diag.New(diag.KindCodegenError, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...))
	panic(codegenAbort{})
}

func (g *Generator) failTypeShape(pos parser.Pos, format string, args ...interface{}) {
	g.Errors.Add(diag.New(diag.KindTypeShapeError, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...))
	panic(codegenAbort{})
}

// --- naming ---

func (g *Generator) sanitizedUnit() string { return SanitizeUnitName(g.Unit) }

// SanitizeUnitName applies the same non-identifier-character substitution
// used internally for per-unit qualification, exported so internal/linker
// can predict a unit's __init_unit_<name> function name before codegen
// runs over it.
func SanitizeUnitName(unit string) string {
	var b strings.Builder
	for _, r := range unit {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (g *Generator) initFuncName() string { return "__init_unit_" + g.sanitizedUnit() }

func (g *Generator) qualify(name string) string { return g.sanitizedUnit() + "." + name }

func (g *Generator) qualifyGlobal(name string) string {
	if hasCrossModulePrefix(name) {
		return "__unit_global_" + name
	}
	return g.sanitizedUnit() + "." + name
}

func (g *Generator) label(prefix string) string {
	g.blockSeq++
	return fmt.Sprintf("%s.%d", prefix, g.blockSeq)
}

// --- runtime ABI declarations, grounded on internal/runtime's exported
// surface (cell.go, list.go, string.go, predicates.go, print.go), each
// declared lazily as an external ir.Func with no basic blocks so
// llir/llvm renders it as `declare`.

func (g *Generator) extern(name string, ret types.Type, params ...types.Type) *ir.Func {
	if fn, ok := g.externs[name]; ok {
		return fn
	}
	irParams := make([]*ir.Param, len(params))
	for i, t := range params {
		irParams[i] = ir.NewParam("", t)
	}
	fn := g.mod.NewFunc(name, ret, irParams...)
	g.externs[name] = fn
	return fn
}

func (g *Generator) cellInit() *ir.Func      { return g.extern("cell_init", types.Void, g.cellPtr, types.Double) }
func (g *Generator) cellUpdate() *ir.Func    { return g.extern("cell_update", types.Void, g.cellPtr, types.Double) }
func (g *Generator) cellValue() *ir.Func     { return g.extern("cell_value", types.Double, g.cellPtr) }
func (g *Generator) cellIteration() *ir.Func { return g.extern("cell_iteration", types.I64, g.cellPtr) }
func (g *Generator) predicate(name string) *ir.Func {
	return g.extern(name, types.I1, g.cellPtr)
}
func (g *Generator) frameworkStrength() *ir.Func {
	return g.extern("framework_strength", types.Double, g.cellPtr)
}

func (g *Generator) listCreate() *ir.Func  { return g.extern("list_create", i8ptr, types.I64) }
func (g *Generator) listGet() *ir.Func     { return g.extern("list_get", types.Double, i8ptr, types.I64) }
func (g *Generator) listSet() *ir.Func     { return g.extern("list_set", types.Void, i8ptr, types.I64, types.Double) }
func (g *Generator) listAppend() *ir.Func  { return g.extern("list_append", types.Void, i8ptr, types.Double) }
func (g *Generator) listLength() *ir.Func  { return g.extern("list_length", types.I64, i8ptr) }

func (g *Generator) stringCreate() *ir.Func    { return g.extern("string_create", i8ptr, i8ptr) }
func (g *Generator) numberToString() *ir.Func  { return g.extern("number_to_string", i8ptr, types.Double) }
func (g *Generator) stringCharAt() *ir.Func    { return g.extern("string_char_at", types.Double, i8ptr, types.I64) }

// reprKind is VisitIndex's statically-known target representation: this
// language carries no declared variable types, so it is inferred
// structurally from literal shape and builtin-call identity rather than
// from a type table.
type reprKind int

const (
	reprUnknown reprKind = iota
	reprList
	reprString
)

// reprOf infers e's representation well enough to disambiguate `[]`
// indexing (spec.md §3.2: "An Index target is an expression whose
// runtime type must be list or string"). It only recognizes list/string
// literals, identifiers last assigned one of those, and calls to the
// `list`/`string` builtins; anything else (a function call result, an
// arithmetic expression, an unrecognized identifier) is reprUnknown and
// VisitIndex falls back to its prior list_get behavior for it.
func (g *Generator) reprOf(e parser.Expr) reprKind {
	switch ex := e.(type) {
	case *parser.List:
		return reprList
	case *parser.Literal:
		if ex.Kind == parser.LitString {
			return reprString
		}
	case *parser.Identifier:
		if sym := g.an.Resolved()[ex]; sym != nil {
			return g.repr[sym]
		}
	case *parser.Call:
		head, _ := unwindCurry(ex)
		if ident, ok := head.(*parser.Identifier); ok {
			if sym := g.an.Resolved()[ident]; sym != nil && sym.Kind == sema.BuiltinRef {
				switch sym.Tag {
				case "list":
					return reprList
				case "string":
					return reprString
				}
			}
		}
	}
	return reprUnknown
}

func (g *Generator) printF64() *ir.Func { return g.extern("print_f64", types.Void, types.Double) }

func (g *Generator) intrinsic(tag string, arity int) *ir.Func {
	params := make([]types.Type, arity)
	for i := range params {
		params[i] = types.Double
	}
	return g.extern(intrinsicLLVMName[tag], types.Double, params...)
}

// --- storage ---

func (g *Generator) slotFor(sym *sema.Symbol) local {
	if sym.Kind == sema.GlobalSlot {
		if loc, ok := g.globals[sym.Name]; ok {
			return loc
		}
		return g.declareGlobal(sym)
	}
	if loc, ok := g.locals[sym.Name]; ok {
		return loc
	}
	return g.declareLocal(sym)
}

func (g *Generator) declareGlobal(sym *sema.Symbol) local {
	name := g.qualifyGlobal(sym.Name)
	var loc local
	if sym.Observed {
		gv := g.mod.NewGlobalDef(name, constant.NewZeroInitializer(g.cellType))
		if !hasCrossModulePrefix(sym.Name) {
			gv.Linkage = enum.LinkageInternal
		}
		loc = local{observed: true, ptr: gv}
	} else {
		gv := g.mod.NewGlobalDef(name, constant.NewFloat(types.Double, 0))
		if !hasCrossModulePrefix(sym.Name) {
			gv.Linkage = enum.LinkageInternal
		}
		loc = local{observed: false, ptr: gv}
	}
	g.globals[sym.Name] = loc
	return loc
}

func (g *Generator) declareLocal(sym *sema.Symbol) local {
	var loc local
	if sym.Observed {
		loc = local{observed: true, ptr: g.blk.NewAlloca(g.cellType)}
	} else {
		loc = local{observed: false, ptr: g.blk.NewAlloca(types.Double)}
	}
	g.locals[sym.Name] = loc
	return loc
}

func (g *Generator) firstAssignment(sym *sema.Symbol) bool {
	if g.initialized[sym] {
		return false
	}
	g.initialized[sym] = true
	return true
}

// --- strings ---

func (g *Generator) materializeString(s string) value.Value {
	gv, ok := g.strings[s]
	if !ok {
		data := append([]byte(s), 0)
		elems := make([]constant.Constant, len(data))
		for i, b := range data {
			elems[i] = constant.NewInt(types.I8, int64(b))
		}
		arrType := types.NewArray(uint64(len(data)), types.I8)
		name := fmt.Sprintf("%s.str.%d", g.sanitizedUnit(), g.stringSeq)
		g.stringSeq++
		gv = g.mod.NewGlobalDef(name, constant.NewArray(arrType, elems...))
		gv.Immutable = true
		gv.Linkage = enum.LinkageInternal
		g.strings[s] = gv
	}
	ptr := g.blk.NewBitCast(gv, i8ptr)
	return g.blk.NewCall(g.stringCreate(), ptr)
}

// --- expressions (parser.ExprVisitor) ---

func (g *Generator) genExpr(e parser.Expr) value.Value {
	v := e.Accept(g)
	if v == nil {
		return constant.NewFloat(types.Double, 0)
	}
	return v.(value.Value)
}

func (g *Generator) VisitLiteral(e *parser.Literal) interface{} {
	switch e.Kind {
	case parser.LitNumber:
		return constant.NewFloat(types.Double, e.Number)
	case parser.LitBool:
		if e.Bool {
			return constant.NewInt(types.I1, 1)
		}
		return constant.NewInt(types.I1, 0)
	case parser.LitString:
		return g.materializeString(e.Str)
	default: // LitNull
		return constant.NewFloat(types.Double, 0)
	}
}

func (g *Generator) VisitIdentifier(e *parser.Identifier) interface{} {
	sym := g.an.Resolved()[e]
	if sym == nil {
		g.fail(e.P, "CodegenError: unresolved identifier %q reached code generation", e.Name)
	}
	if sym.Kind == sema.BuiltinRef && (sema.PredicateNames[sym.Tag] || sema.MetricNames[sym.Tag]) {
		return g.genPredicateOrMetric(e, sym.Tag)
	}
	if sym.Kind == sema.BuiltinRef || sym.Kind == sema.FunctionRef || sym.Kind == sema.ImportedName {
		g.fail(e.P, "CodegenError: %q cannot be used as a value", e.Name)
	}
	slot := g.slotFor(sym)
	if slot.observed {
		return g.blk.NewCall(g.cellValue(), slot.ptr)
	}
	return g.blk.NewLoad(types.Double, slot.ptr)
}

func (g *Generator) genPredicateOrMetric(node parser.Expr, tag string) value.Value {
	slotSym := g.an.GoverningSlotSymbol[node]
	if slotSym == nil {
		g.fail(node.Position(), "CodegenError: %q has no governing observed slot", tag)
	}
	slot := g.slotFor(slotSym)
	if sema.MetricNames[tag] {
		return g.blk.NewCall(g.frameworkStrength(), slot.ptr)
	}
	return g.blk.NewCall(g.predicate(tag), slot.ptr)
}

func (g *Generator) VisitList(e *parser.List) interface{} {
	n := int64(len(e.Elements))
	lst := g.blk.NewCall(g.listCreate(), constant.NewInt(types.I64, n))
	for i, el := range e.Elements {
		v := g.genExpr(el)
		g.blk.NewCall(g.listSet(), lst, constant.NewInt(types.I64, int64(i)), v)
	}
	return lst
}

func (g *Generator) VisitListComprehension(e *parser.ListComprehension) interface{} {
	iterable := g.genExpr(e.Iterable)
	result := g.blk.NewCall(g.listCreate(), constant.NewInt(types.I64, 0))
	n := g.blk.NewCall(g.listLength(), iterable)

	idxPtr := g.blk.NewAlloca(types.I64)
	g.blk.NewStore(constant.NewInt(types.I64, 0), idxPtr)

	header := g.fn.NewBlock(g.label("compr.header"))
	body := g.fn.NewBlock(g.label("compr.body"))
	skip := g.fn.NewBlock(g.label("compr.skip"))
	exit := g.fn.NewBlock(g.label("compr.exit"))

	g.blk.NewBr(header)
	g.blk = header
	idx := g.blk.NewLoad(types.I64, idxPtr)
	g.blk.NewCondBr(g.blk.NewICmp(enum.IPredSLT, idx, n), body, exit)

	g.blk = body
	elemVal := g.blk.NewCall(g.listGet(), iterable, idx)
	savedLocal, hadLocal := g.locals[e.Var]
	varPtr := g.blk.NewAlloca(types.Double)
	g.blk.NewStore(elemVal, varPtr)
	g.locals[e.Var] = local{observed: false, ptr: varPtr}

	if e.Filter != nil {
		keep := g.genExpr(e.Filter)
		filterBody := g.fn.NewBlock(g.label("compr.filterbody"))
		g.blk.NewCondBr(keep, filterBody, skip)
		g.blk = filterBody
	}
	elemResult := g.genExpr(e.Elem)
	g.blk.NewCall(g.listAppend(), result, elemResult)
	g.blk.NewBr(skip)

	g.blk = skip
	g.blk.NewStore(g.blk.NewAdd(idx, constant.NewInt(types.I64, 1)), idxPtr)
	g.blk.NewBr(header)

	g.blk = exit
	if hadLocal {
		g.locals[e.Var] = savedLocal
	} else {
		delete(g.locals, e.Var)
	}
	return result
}

func (g *Generator) VisitIndex(e *parser.Index) interface{} {
	t := g.genExpr(e.Target)
	idx := g.blk.NewFPToSI(g.genExpr(e.Idx), types.I64)
	if g.reprOf(e.Target) == reprString {
		return g.blk.NewCall(g.stringCharAt(), t, idx)
	}
	return g.blk.NewCall(g.listGet(), t, idx)
}

// unwindCurry flattens a chain of curried Call nodes (e.g. `append of L
// of v`, spec.md §4.5.2) into its ultimate callee and an ordered
// argument list.
func unwindCurry(e parser.Expr) (head parser.Expr, args []parser.Expr) {
	cur := e
	for {
		c, ok := cur.(*parser.Call)
		if !ok {
			break
		}
		args = append([]parser.Expr{c.Arg}, args...)
		cur = c.Callee
	}
	return cur, args
}

func (g *Generator) VisitCall(e *parser.Call) interface{} {
	head, args := unwindCurry(e)
	ident, ok := head.(*parser.Identifier)
	if !ok {
		g.fail(e.P, "CodegenError: unsupported call target")
	}
	sym := g.an.Resolved()[ident]
	if sym == nil {
		g.fail(e.P, "CodegenError: unresolved call target %q", ident.Name)
	}
	switch sym.Kind {
	case sema.FunctionRef:
		return g.genUserCall(sym, args, e.P)
	case sema.BuiltinRef:
		return g.genBuiltinCall(sym.Tag, args, e.P)
	default:
		g.fail(e.P, "CodegenError: %q is not callable", ident.Name)
		return constant.NewFloat(types.Double, 0)
	}
}

func (g *Generator) genUserCall(sym *sema.Symbol, args []parser.Expr, pos parser.Pos) value.Value {
	if len(args) != 1 {
		g.failTypeShape(pos, "TypeShapeError: calling %q expects exactly one argument, got %d", sym.Name, len(args))
	}
	argVal := g.genExpr(args[0])
	fn := g.funcs[sym.Name]
	if fn == nil {
		g.fail(pos, "CodegenError: unresolved function %q", sym.Name)
	}
	return g.blk.NewCall(fn, argVal)
}

func (g *Generator) requireArity(tag string, args []parser.Expr, want int, pos parser.Pos) {
	if len(args) != want {
		g.failTypeShape(pos, "TypeShapeError: %q expects %d argument(s), got %d", tag, want, len(args))
	}
}

func (g *Generator) genBuiltinCall(tag string, args []parser.Expr, pos parser.Pos) value.Value {
	if want, ok := builtinArity[tag]; ok && want > 1 && len(args) == 1 {
		if lit, ok := args[0].(*parser.List); ok {
			args = lit.Elements
		}
	}

	switch tag {
	case "print":
		g.requireArity(tag, args, 1, pos)
		g.blk.NewCall(g.printF64(), g.genExpr(args[0]))
		return constant.NewFloat(types.Double, 0)
	case "len":
		g.requireArity(tag, args, 1, pos)
		n := g.blk.NewCall(g.listLength(), g.genExpr(args[0]))
		return g.blk.NewSIToFP(n, types.Double)
	case "append":
		g.requireArity(tag, args, 2, pos)
		lst := g.genExpr(args[0])
		g.blk.NewCall(g.listAppend(), lst, g.genExpr(args[1]))
		return lst
	case "list":
		g.requireArity(tag, args, 1, pos)
		n := g.blk.NewFPToSI(g.genExpr(args[0]), types.I64)
		return g.blk.NewCall(g.listCreate(), n)
	case "string":
		g.requireArity(tag, args, 1, pos)
		return g.blk.NewCall(g.numberToString(), g.genExpr(args[0]))
	case "add", "sub", "mul", "div", "mod":
		g.requireArity(tag, args, 2, pos)
		a, b := g.genExpr(args[0]), g.genExpr(args[1])
		return g.arith(tag, a, b)
	case "sqrt", "abs", "floor", "ceil", "round":
		g.requireArity(tag, args, 1, pos)
		return g.blk.NewCall(g.intrinsic(tag, 1), g.genExpr(args[0]))
	case "pow", "min", "max":
		g.requireArity(tag, args, 2, pos)
		a, b := g.genExpr(args[0]), g.genExpr(args[1])
		return g.blk.NewCall(g.intrinsic(tag, 2), a, b)
	case "map", "filter", "reduce", "zip", "sort":
		// spec.md §6.2's ABI table names no runtime entry point for
		// these; there is nothing to call into, so this is a genuine
		// unsupported construct rather than a missing wiring effort.
		g.fail(pos, "CodegenError: unsupported construct: %q has no runtime ABI entry", tag)
		return constant.NewFloat(types.Double, 0)
	default:
		g.fail(pos, "CodegenError: unsupported construct: unknown builtin %q", tag)
		return constant.NewFloat(types.Double, 0)
	}
}

func (g *Generator) arith(op string, a, b value.Value) value.Value {
	switch op {
	case "add":
		return g.blk.NewFAdd(a, b)
	case "sub":
		return g.blk.NewFSub(a, b)
	case "mul":
		return g.blk.NewFMul(a, b)
	case "div":
		return g.blk.NewFDiv(a, b)
	default: // mod
		return g.blk.NewFRem(a, b)
	}
}

func (g *Generator) VisitBinaryOp(e *parser.BinaryOp) interface{} {
	l, r := g.genExpr(e.Left), g.genExpr(e.Right)
	switch e.Op {
	case "+":
		return g.blk.NewFAdd(l, r)
	case "-":
		return g.blk.NewFSub(l, r)
	case "*":
		return g.blk.NewFMul(l, r)
	case "/":
		return g.blk.NewFDiv(l, r)
	case "%":
		return g.blk.NewFRem(l, r)
	case "=":
		return g.blk.NewFCmp(enum.FPredOEQ, l, r)
	case "!=":
		return g.blk.NewFCmp(enum.FPredONE, l, r)
	case "<":
		return g.blk.NewFCmp(enum.FPredOLT, l, r)
	case ">":
		return g.blk.NewFCmp(enum.FPredOGT, l, r)
	case "<=":
		return g.blk.NewFCmp(enum.FPredOLE, l, r)
	case ">=":
		return g.blk.NewFCmp(enum.FPredOGE, l, r)
	case "and":
		return g.blk.NewAnd(l, r)
	case "or":
		return g.blk.NewOr(l, r)
	default:
		g.fail(e.P, "CodegenError: unsupported binary operator %q", e.Op)
		return constant.NewFloat(types.Double, 0)
	}
}

func (g *Generator) VisitUnaryOp(e *parser.UnaryOp) interface{} {
	v := g.genExpr(e.Operand)
	switch e.Op {
	case "-":
		return g.blk.NewFNeg(v)
	case "not":
		return g.blk.NewXor(v, constant.NewInt(types.I1, 1))
	default:
		g.fail(e.P, "CodegenError: unsupported unary operator %q", e.Op)
		return constant.NewFloat(types.Double, 0)
	}
}

func (g *Generator) VisitInterrogative(e *parser.Interrogative) interface{} {
	switch e.Which {
	case "WHO":
		return g.materializeString(g.fnName)
	case "WHEN":
		slotSym := g.an.GoverningSlotSymbol[e]
		if slotSym == nil {
			g.fail(e.P, "CodegenError: WHEN has no governing observed slot")
		}
		slot := g.slotFor(slotSym)
		return g.blk.NewSIToFP(g.blk.NewCall(g.cellIteration(), slot.ptr), types.Double)
	case "WHAT":
		slotSym := g.an.GoverningSlotSymbol[e]
		if slotSym == nil {
			g.fail(e.P, "CodegenError: WHAT has no governing observed slot")
		}
		slot := g.slotFor(slotSym)
		if slot.observed {
			return g.blk.NewCall(g.cellValue(), slot.ptr)
		}
		return g.blk.NewLoad(types.Double, slot.ptr)
	default:
		return g.materializeString("")
	}
}

// --- statements (parser.StmtVisitor) ---

func (g *Generator) genStmt(s parser.Stmt) { s.Accept(g) }

func (g *Generator) genStmts(stmts []parser.Stmt) {
	for _, s := range stmts {
		if g.blk == nil {
			return // current block already terminated (return/break/continue)
		}
		g.genStmt(s)
	}
}

func (g *Generator) VisitAssignment(s *parser.Assignment) interface{} {
	sym := g.an.AssignedSymbol(s)
	if sym == nil {
		g.fail(s.P, "CodegenError: unresolved assignment target %q", s.Name)
	}
	v := g.genExpr(s.Value)
	g.repr[sym] = g.reprOf(s.Value)
	slot := g.slotFor(sym)
	if slot.observed {
		if g.firstAssignment(sym) {
			g.blk.NewCall(g.cellInit(), slot.ptr, v)
		} else {
			g.blk.NewCall(g.cellUpdate(), slot.ptr, v)
		}
	} else {
		g.blk.NewStore(v, slot.ptr)
	}
	return nil
}

func (g *Generator) VisitIndexAssignment(s *parser.IndexAssignment) interface{} {
	t := g.genExpr(s.Target)
	idx := g.blk.NewFPToSI(g.genExpr(s.Idx), types.I64)
	v := g.genExpr(s.Value)
	g.blk.NewCall(g.listSet(), t, idx, v)
	return nil
}

func (g *Generator) VisitExpressionStmt(s *parser.ExpressionStmt) interface{} {
	g.genExpr(s.Expr)
	return nil
}

// VisitFunctionDef is a no-op: function bodies are generated by
// genFunctionBody in a dedicated pass so every function's signature is
// visible to every call site regardless of declaration order.
func (g *Generator) VisitFunctionDef(s *parser.FunctionDef) interface{} { return nil }

func (g *Generator) genFunctionBody(fd *parser.FunctionDef) {
	fn := g.funcs[fd.Name]
	g.fn, g.blk, g.fnName = fn, fn.NewBlock("entry"), fd.Name
	g.locals = make(map[string]local)

	paramSym := g.an.ParamSymbol(fd.Name)
	argVal := fn.Params[0]
	if paramSym != nil && paramSym.Observed {
		ptr := g.blk.NewAlloca(g.cellType)
		g.blk.NewCall(g.cellInit(), ptr, argVal)
		g.locals["arg"] = local{observed: true, ptr: ptr}
	} else {
		ptr := g.blk.NewAlloca(types.Double)
		g.blk.NewStore(argVal, ptr)
		g.locals["arg"] = local{observed: false, ptr: ptr}
	}

	g.genStmts(fd.Body)
	if g.blk != nil {
		g.blk.NewRet(constant.NewFloat(types.Double, 0))
	}
	g.fn, g.blk, g.fnName = nil, nil, ""
}

func (g *Generator) VisitReturn(s *parser.Return) interface{} {
	if s.Value == nil {
		g.blk.NewRet(constant.NewFloat(types.Double, 0))
	} else {
		g.blk.NewRet(g.genExpr(s.Value))
	}
	g.blk = nil
	return nil
}

func (g *Generator) VisitIf(s *parser.If) interface{} {
	cond := g.genExpr(s.Cond)
	thenBlk := g.fn.NewBlock(g.label("if.then"))
	elseBlk := g.fn.NewBlock(g.label("if.else"))
	endBlk := g.fn.NewBlock(g.label("if.end"))
	g.blk.NewCondBr(cond, thenBlk, elseBlk)

	g.blk = thenBlk
	g.genStmts(s.Then)
	thenOpen := g.blk
	if thenOpen != nil {
		thenOpen.NewBr(endBlk)
	}

	g.blk = elseBlk
	g.genStmts(s.Else)
	elseOpen := g.blk
	if elseOpen != nil {
		elseOpen.NewBr(endBlk)
	}

	if thenOpen == nil && elseOpen == nil {
		endBlk.NewUnreachable()
		g.blk = nil
		return nil
	}
	g.blk = endBlk
	return nil
}

func (g *Generator) VisitLoop(s *parser.Loop) interface{} {
	header := g.fn.NewBlock(g.label("loop.header"))
	body := g.fn.NewBlock(g.label("loop.body"))
	exit := g.fn.NewBlock(g.label("loop.exit"))

	g.blk.NewBr(header)
	g.blk = header
	cond := g.genExpr(s.Cond)
	g.blk.NewCondBr(cond, body, exit)

	g.loops = append(g.loops, loopTargets{header: header, exit: exit})
	g.blk = body
	g.genStmts(s.Body)
	if g.blk != nil {
		g.blk.NewBr(header)
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.blk = exit
	return nil
}

func (g *Generator) VisitBreak(s *parser.Break) interface{} {
	if len(g.loops) == 0 {
		g.fail(s.P, "CodegenError: break outside any loop")
	}
	g.blk.NewBr(g.loops[len(g.loops)-1].exit)
	g.blk = nil
	return nil
}

func (g *Generator) VisitContinue(s *parser.Continue) interface{} {
	if len(g.loops) == 0 {
		g.fail(s.P, "CodegenError: continue outside any loop")
	}
	g.blk.NewBr(g.loops[len(g.loops)-1].header)
	g.blk = nil
	return nil
}

// VisitImport is a no-op at the codegen layer: cross-unit names resolve
// through the linker's ordering, not through any IR this unit emits.
func (g *Generator) VisitImport(s *parser.Import) interface{} { return nil }
