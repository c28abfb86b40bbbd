package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"geolc/internal/lexer"
)

func parse(t *testing.T, src string) ([]Stmt, *Parser) {
	t.Helper()
	toks := lexer.NewScanner(src, "t.geo").ScanTokens()
	p := NewParser(toks, "t.geo")
	stmts := p.Parse()
	return stmts, p
}

func TestParseAssignmentStatement(t *testing.T) {
	stmts, p := parse(t, "x is 5\n")
	require.Equal(t, 0, p.Errors.Len())
	require.Len(t, stmts, 1)
	a, ok := stmts[0].(*Assignment)
	require.True(t, ok)
	require.Equal(t, "x", a.Name)
	lit, ok := a.Value.(*Literal)
	require.True(t, ok)
	require.Equal(t, 5.0, lit.Number)
}

func TestIsIsEqualityInExpressionPosition(t *testing.T) {
	stmts, p := parse(t, "if x is 5:\n  return x\n")
	require.Equal(t, 0, p.Errors.Len())
	ifStmt := stmts[0].(*If)
	bin, ok := ifStmt.Cond.(*BinaryOp)
	require.True(t, ok)
	require.Equal(t, "=", bin.Op)
}

func TestIndexAssignment(t *testing.T) {
	stmts, p := parse(t, "nums[0] is 9\n")
	require.Equal(t, 0, p.Errors.Len())
	ia, ok := stmts[0].(*IndexAssignment)
	require.True(t, ok)
	_, isIdent := ia.Target.(*Identifier)
	require.True(t, isIdent)
}

func TestOfProducesCanonicalSingleArgCall(t *testing.T) {
	stmts, p := parse(t, "print of 41\n")
	require.Equal(t, 0, p.Errors.Len())
	es := stmts[0].(*ExpressionStmt)
	call, ok := es.Expr.(*Call)
	require.True(t, ok)
	require.Equal(t, "print", call.Callee.(*Identifier).Name)
	require.Equal(t, 41.0, call.Arg.(*Literal).Number)
}

func TestOfChainsWithIndexPostfix(t *testing.T) {
	stmts, p := parse(t, "print of nums[1]\n")
	require.Equal(t, 0, p.Errors.Len())
	es := stmts[0].(*ExpressionStmt)
	call := es.Expr.(*Call)
	idx, ok := call.Arg.(*Index)
	require.True(t, ok)
	require.Equal(t, "nums", idx.Target.(*Identifier).Name)
}

func TestFunctionDefHasMagicArgParam(t *testing.T) {
	stmts, p := parse(t, "define f as:\n  return arg + 1\n")
	require.Equal(t, 0, p.Errors.Len())
	fn := stmts[0].(*FunctionDef)
	require.Equal(t, "f", fn.Name)
	require.Equal(t, []string{"arg"}, fn.Params)
	require.Len(t, fn.Body, 1)
	ret := fn.Body[0].(*Return)
	require.NotNil(t, ret.Value)
}

func TestIfElseBlocks(t *testing.T) {
	src := "if x is 1:\n  return 1\nelse:\n  return 2\n"
	stmts, p := parse(t, src)
	require.Equal(t, 0, p.Errors.Len())
	ifStmt := stmts[0].(*If)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestLoopWhile(t *testing.T) {
	stmts, p := parse(t, "loop while not converged:\n  x is x + 1\n")
	require.Equal(t, 0, p.Errors.Len())
	loop := stmts[0].(*Loop)
	un, ok := loop.Cond.(*UnaryOp)
	require.True(t, ok)
	require.Equal(t, "not", un.Op)
	require.Len(t, loop.Body, 1)
}

func TestBreakAndContinue(t *testing.T) {
	stmts, p := parse(t, "loop while true:\n  break\n  continue\n")
	require.Equal(t, 0, p.Errors.Len())
	loop := stmts[0].(*Loop)
	require.IsType(t, &Break{}, loop.Body[0])
	require.IsType(t, &Continue{}, loop.Body[1])
}

func TestImportStatement(t *testing.T) {
	stmts, p := parse(t, "from geometry import distance, midpoint\n")
	require.Equal(t, 0, p.Errors.Len())
	imp := stmts[0].(*Import)
	require.Equal(t, "geometry", imp.Module)
	require.Equal(t, []string{"distance", "midpoint"}, imp.Names)
}

func TestListLiteral(t *testing.T) {
	stmts, p := parse(t, "nums is [10, 20, 30]\n")
	require.Equal(t, 0, p.Errors.Len())
	a := stmts[0].(*Assignment)
	list := a.Value.(*List)
	require.Len(t, list.Elements, 3)
}

func TestListComprehension(t *testing.T) {
	stmts, p := parse(t, "doubled is [x * 2 for x in nums if x > 0]\n")
	require.Equal(t, 0, p.Errors.Len())
	a := stmts[0].(*Assignment)
	lc, ok := a.Value.(*ListComprehension)
	require.True(t, ok)
	require.Equal(t, "x", lc.Var)
	require.NotNil(t, lc.Filter)
}

func TestInterrogativeExpression(t *testing.T) {
	stmts, p := parse(t, "print of WHO\n")
	require.Equal(t, 0, p.Errors.Len())
	es := stmts[0].(*ExpressionStmt)
	call := es.Expr.(*Call)
	interrog, ok := call.Arg.(*Interrogative)
	require.True(t, ok)
	require.Equal(t, "WHO", interrog.Which)
}

func TestPrecedenceAndAssociativity(t *testing.T) {
	// "a + b * c" must bind as a + (b * c)
	stmts, p := parse(t, "x is a + b * c\n")
	require.Equal(t, 0, p.Errors.Len())
	a := stmts[0].(*Assignment)
	top := a.Value.(*BinaryOp)
	require.Equal(t, "+", top.Op)
	right := top.Right.(*BinaryOp)
	require.Equal(t, "*", right.Op)
}

func TestOrBindsLooserThanAnd(t *testing.T) {
	stmts, p := parse(t, "x is a or b and c\n")
	require.Equal(t, 0, p.Errors.Len())
	a := stmts[0].(*Assignment)
	top := a.Value.(*BinaryOp)
	require.Equal(t, "or", top.Op)
	right := top.Right.(*BinaryOp)
	require.Equal(t, "and", right.Op)
}

func TestUnaryMinusAndParenGrouping(t *testing.T) {
	stmts, p := parse(t, "x is -(a + b)\n")
	require.Equal(t, 0, p.Errors.Len())
	a := stmts[0].(*Assignment)
	un := a.Value.(*UnaryOp)
	require.Equal(t, "-", un.Op)
	require.IsType(t, &BinaryOp{}, un.Operand)
}

func TestNestedFunctionAndRecursion(t *testing.T) {
	src := "define fact as:\n  if arg <= 1:\n    return 1\n  return arg * (fact of (arg - 1))\n"
	stmts, p := parse(t, src)
	require.Equal(t, 0, p.Errors.Len())
	fn := stmts[0].(*FunctionDef)
	require.Len(t, fn.Body, 2)
}

func TestIllegalAssignmentTargetIsParseError(t *testing.T) {
	_, p := parse(t, "1 is 2\n")
	require.Greater(t, p.Errors.Len(), 0)
}

func TestIllegalStatementRecoversForNextLine(t *testing.T) {
	stmts, p := parse(t, "1 is 2\nprint of 3\n")
	require.Greater(t, p.Errors.Len(), 0)
	// Parser recovers at the next newline and still parses the following statement.
	found := false
	for _, s := range stmts {
		if es, ok := s.(*ExpressionStmt); ok {
			if c, ok := es.Expr.(*Call); ok {
				if id, ok := c.Callee.(*Identifier); ok && id.Name == "print" {
					found = true
				}
			}
		}
	}
	require.True(t, found)
}
