package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"geolc/internal/lexer"
	"geolc/internal/parser"
)

func analyze(t *testing.T, src string) (*Analyzer, []parser.Stmt) {
	t.Helper()
	toks := lexer.NewScanner(src, "t.geo").ScanTokens()
	p := parser.NewParser(toks, "t.geo")
	stmts := p.Parse()
	require.Equal(t, 0, p.Errors.Len())
	a := NewAnalyzer("t.geo")
	a.Analyze(stmts)
	return a, stmts
}

func TestComparisonMarksOperandsObserved(t *testing.T) {
	a, _ := analyze(t, "x is 0\nif x is 5:\n  x is 1\n")
	sym, ok := a.Table.Resolve("x")
	require.True(t, ok)
	require.True(t, sym.Observed)
}

func TestObservationIsContagiousAcrossAssignment(t *testing.T) {
	a, _ := analyze(t, "x is 0\nif x is 5:\n  x is 1\ny is x\n")
	ySym, ok := a.Table.Resolve("y")
	require.True(t, ok)
	require.True(t, ySym.Observed)
}

func TestObservationPropagatesThroughParameter(t *testing.T) {
	src := "define f as:\n  return arg + 1\nx is 0\nif x is 5:\n  x is 1\nresult is f of x\n"
	a, _ := analyze(t, src)
	require.Equal(t, 0, a.Errors.Len())
	argSym := a.funcParam["f"]
	require.NotNil(t, argSym)
	require.True(t, argSym.Observed)
}

func TestPredicateGetsGoverningSlotFromPrecedingReference(t *testing.T) {
	src := "x is 0\nloop while not converged:\n  x is x + 1\n"
	a, stmts := analyze(t, src)
	require.Equal(t, 0, a.Errors.Len())
	loop := stmts[1].(*parser.Loop)
	un := loop.Cond.(*parser.UnaryOp)
	predIdent := un.Operand.(*parser.Identifier)
	require.Equal(t, "x", a.GoverningSlot[predIdent])
}

func TestPredicateWithoutSubjectIsSemanticError(t *testing.T) {
	a, _ := analyze(t, "print of converged\n")
	require.Greater(t, a.Errors.Len(), 0)
	found := false
	for _, d := range a.Errors.Items() {
		if d.Kind == "SemanticError" {
			found = true
		}
	}
	require.True(t, found)
}

func TestUnboundNameIsSemanticError(t *testing.T) {
	a, _ := analyze(t, "print of unknown_name\n")
	require.Greater(t, a.Errors.Len(), 0)
}

func TestInterrogativeAnnotatedWithGoverningSlot(t *testing.T) {
	src := "x is 0\nif x is 5:\n  x is 1\nprint of WHEN\n"
	a, stmts := analyze(t, src)
	require.Equal(t, 0, a.Errors.Len())
	es := stmts[2].(*parser.ExpressionStmt)
	call := es.Expr.(*parser.Call)
	interrog := call.Arg.(*parser.Interrogative)
	require.Equal(t, "x", a.GoverningSlot[interrog])
}

func TestListComprehensionVariableScopedToComprehension(t *testing.T) {
	a, _ := analyze(t, "nums is [1, 2, 3]\ndoubled is [n * 2 for n in nums]\n")
	require.Equal(t, 0, a.Errors.Len())
	_, ok := a.Table.Resolve("n")
	require.False(t, ok)
}

func TestFunctionDefinedBeforeGlobalItReferencesResolves(t *testing.T) {
	src := "define f as:\n  return counter + 1\ncounter is 0\nprint of (f of 1)\n"
	a, _ := analyze(t, src)
	require.Equal(t, 0, a.Errors.Len())
	sym, ok := a.Table.Resolve("counter")
	require.True(t, ok)
	require.Equal(t, GlobalSlot, sym.Kind)
}

func TestFunctionParameterSymbolIsRecorded(t *testing.T) {
	a, _ := analyze(t, "define identity as:\n  return arg\nprint of (identity of 5)\n")
	require.Equal(t, 0, a.Errors.Len())
	sym := a.funcParam["identity"]
	require.NotNil(t, sym)
}
