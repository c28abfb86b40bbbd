package parser

import (
	"geolc/internal/diag"
	"geolc/internal/lexer"
)

// precedence maps an operator token's text to its binary precedence level,
// per the climb table of spec.md §4.3 (1 = loosest, 6 = tightest before
// unary/postfix). "is" participates at the same level as the comparison
// operators when it appears in expression position.
var precedence = map[string]int{
	"or":  1,
	"and": 2,
	"=":   4, "!=": 4, "<": 4, ">": 4, "<=": 4, ">=": 4, "is": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// Parser recursively descends a single compilation unit's token stream.
type Parser struct {
	tokens  []lexer.Token
	current int
	file    string
	Errors  *diag.Accumulator
}

// NewParser builds a parser over an already-lexed token stream.
func NewParser(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file, Errors: diag.NewAccumulator(diag.DefaultMaxErrors)}
}

// parseError is panicked by consume/primary on a malformed construct and
// recovered in parseStatementRecovering, which then calls synchronize, so
// one mistake doesn't abort the whole unit.
type parseError struct{}

// Parse turns the unit's token stream into top-level statements, recovering at
// statement boundaries so multiple syntax errors can be reported together.
func (p *Parser) Parse() []Stmt {
	var stmts []Stmt
	for !p.atEnd() {
		p.skipNewlines()
		if p.atEnd() {
			break
		}
		stmt := p.parseStatementRecovering()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func (p *Parser) parseStatementRecovering() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()
	return p.statement()
}

func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.checkKind(lexer.NewlineTok) {
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.checkKind(lexer.NewlineTok) {
		p.advance()
	}
}

// statement parses exactly one statement. Every statement-level form
// (assignment, index-assignment, block headers) is distinguished by its
// leading keyword or, for bare expressions, by what follows.
func (p *Parser) statement() Stmt {
	switch {
	case p.checkKeyword("from"):
		return p.importStatement()
	case p.checkKeyword("define"):
		return p.functionDef()
	case p.checkKeyword("return"):
		return p.returnStatement()
	case p.checkKeyword("if"):
		return p.ifStatement()
	case p.checkKeyword("loop"):
		return p.loopStatement()
	case p.checkKeyword("break"):
		tok := p.advance()
		p.consumeNewline()
		return &Break{P: posOf(tok)}
	case p.checkKeyword("continue"):
		tok := p.advance()
		p.consumeNewline()
		return &Continue{P: posOf(tok)}
	}

	// The assignment target is read at unary level so that "is" is not
	// consumed as equality; if no "is" follows, the statement is re-read
	// from its first token as a full expression.
	start := p.current
	expr := p.unary()
	if p.checkKeyword("is") {
		p.advance()
		value := p.expression()
		p.consumeNewline()
		switch target := expr.(type) {
		case *Identifier:
			return &Assignment{P: target.P, Name: target.Name, Value: value}
		case *Index:
			return &IndexAssignment{P: target.P, Target: target.Target, Idx: target.Idx, Value: value}
		default:
			p.fail(expr.Position(), "IllegalAssignmentTarget: left side of 'is' must be a name or index expression")
			return &ExpressionStmt{P: expr.Position(), Expr: expr}
		}
	}
	p.current = start
	expr = p.expression()
	p.consumeNewline()
	return &ExpressionStmt{P: expr.Position(), Expr: expr}
}

func (p *Parser) importStatement() Stmt {
	tok := p.advance() // "from"
	module := p.consumeIdentText("ModuleNameExpected: expected a module name after 'from'")
	p.consumeKeyword("import", "ImportKeywordExpected: expected 'import' after module name")
	names := []string{p.consumeIdentText("ImportNameExpected: expected a name to import")}
	for p.checkOperator(",") {
		p.advance()
		names = append(names, p.consumeIdentText("ImportNameExpected: expected a name to import"))
	}
	p.consumeNewline()
	return &Import{P: posOf(tok), Module: module, Names: names}
}

func (p *Parser) functionDef() Stmt {
	tok := p.advance() // "define"
	name := p.consumeIdentText("FunctionNameExpected: expected a function name after 'define'")
	p.consumeKeyword("as", "AsKeywordExpected: expected 'as' after function name")
	body := p.block()
	return &FunctionDef{P: posOf(tok), Name: name, Params: []string{"arg"}, Body: body}
}

func (p *Parser) returnStatement() Stmt {
	tok := p.advance()
	var value Expr
	if !p.checkKind(lexer.NewlineTok) && !p.atEnd() {
		value = p.expression()
	}
	p.consumeNewline()
	return &Return{P: posOf(tok), Value: value}
}

func (p *Parser) ifStatement() Stmt {
	tok := p.advance()
	cond := p.expression()
	thenBlock := p.block()
	var elseBlock []Stmt
	if p.checkKeyword("else") {
		p.advance()
		elseBlock = p.block()
	}
	return &If{P: posOf(tok), Cond: cond, Then: thenBlock, Else: elseBlock}
}

func (p *Parser) loopStatement() Stmt {
	tok := p.advance()
	p.consumeKeyword("while", "WhileKeywordExpected: expected 'while' after 'loop'")
	cond := p.expression()
	body := p.block()
	return &Loop{P: posOf(tok), Cond: cond, Body: body}
}

// block parses ":" NEWLINE INDENT stmt* DEDENT, starting at the colon that
// ends the caller's header; block consumes the colon itself.
func (p *Parser) block() []Stmt {
	p.consumeOperator(":", "ColonExpected: expected ':' to start a block")
	p.consumeNewline()
	p.consumeKind(lexer.IndentTok, "IndentExpected: expected an indented block")
	var stmts []Stmt
	p.skipNewlines()
	for !p.checkKind(lexer.DedentTok) && !p.atEnd() {
		stmts = append(stmts, p.parseStatementRecovering())
		p.skipNewlines()
	}
	p.consumeKind(lexer.DedentTok, "DedentExpected: expected end of indented block")
	return stmts
}

// --- expression parsing: precedence climb with "of"/"[" postfix chain ---

func (p *Parser) expression() Expr {
	return p.binary(1)
}

func (p *Parser) binary(minPrec int) Expr {
	left := p.unary()
	for {
		op, ok := p.peekBinaryOp()
		prec, known := precedence[op]
		if !ok || !known || prec < minPrec {
			break
		}
		tok := p.advance()
		right := p.binary(prec + 1)
		normOp := op
		if normOp == "is" {
			normOp = "="
		}
		left = &BinaryOp{P: posOf(tok), Op: normOp, Left: left, Right: right}
	}
	return left
}

// peekBinaryOp reports the operator/keyword text of the current token when
// it names a binary operator, without consuming it.
func (p *Parser) peekBinaryOp() (string, bool) {
	tok := p.peek()
	if tok.Kind == lexer.OperatorTok || tok.Kind == lexer.KeywordTok {
		if _, ok := precedence[tok.Text]; ok {
			return tok.Text, true
		}
	}
	return "", false
}

func (p *Parser) unary() Expr {
	if p.checkKeyword("not") {
		tok := p.advance()
		return &UnaryOp{P: posOf(tok), Op: "not", Operand: p.unary()}
	}
	if p.checkOperator("-") {
		tok := p.advance()
		return &UnaryOp{P: posOf(tok), Op: "-", Operand: p.unary()}
	}
	return p.postfix()
}

func (p *Parser) postfix() Expr {
	expr := p.primary()
	for {
		switch {
		case p.checkKeyword("of"):
			p.advance()
			// The argument takes its own indexing but not a further "of":
			// a following "of" applies to this Call, so "append of xs of 2"
			// chains left as Call{Call{append, xs}, 2}.
			var arg Expr
			if p.checkKeyword("not") || p.checkOperator("-") {
				arg = p.unary()
			} else {
				arg = p.primary()
				for p.checkOperator("[") {
					p.advance()
					idx := p.expression()
					p.consumeOperator("]", "CloseBracketExpected: expected ']' after index")
					arg = &Index{P: arg.Position(), Target: arg, Idx: idx}
				}
			}
			expr = &Call{P: expr.Position(), Callee: expr, Arg: arg}
		case p.checkOperator("["):
			p.advance()
			idx := p.expression()
			p.consumeOperator("]", "CloseBracketExpected: expected ']' after index")
			expr = &Index{P: expr.Position(), Target: expr, Idx: idx}
		default:
			return expr
		}
	}
}

func (p *Parser) primary() Expr {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.Number:
		p.advance()
		return &Literal{P: posOf(tok), Kind: LitNumber, Number: tok.Number}
	case tok.Kind == lexer.StringLit:
		p.advance()
		return &Literal{P: posOf(tok), Kind: LitString, Str: tok.Text}
	case tok.Kind == lexer.KeywordTok && tok.Text == "true":
		p.advance()
		return &Literal{P: posOf(tok), Kind: LitBool, Bool: true}
	case tok.Kind == lexer.KeywordTok && tok.Text == "false":
		p.advance()
		return &Literal{P: posOf(tok), Kind: LitBool, Bool: false}
	case tok.Kind == lexer.KeywordTok && tok.Text == "null":
		p.advance()
		return &Literal{P: posOf(tok), Kind: LitNull}
	case tok.Kind == lexer.Interrog:
		p.advance()
		return &Interrogative{P: posOf(tok), Which: tok.Text}
	case tok.Kind == lexer.Identifier:
		p.advance()
		return &Identifier{P: posOf(tok), Name: tok.Text}
	case tok.Kind == lexer.OperatorTok && tok.Text == "(":
		p.advance()
		inner := p.expression()
		p.consumeOperator(")", "CloseParenExpected: expected ')' after expression")
		return inner
	case tok.Kind == lexer.OperatorTok && tok.Text == "[":
		return p.listOrComprehension()
	default:
		p.fail(posOf(tok), "UnexpectedToken: unexpected token %q in expression", tok.Text)
		panic(parseError{})
	}
}

// listOrComprehension parses "[" after the opening bracket has been seen,
// disambiguating a plain list literal from "[ expr for name in it (if f)? ]"
// by looking for a contextual "for"/"in" identifier after the first element
// (spec.md §4.3 recognizes the comprehension form but the keyword table in
// §3.1 has no reserved "for"/"in" — so they are read as ordinary identifiers
// in this one syntactic position, documented in DESIGN.md).
func (p *Parser) listOrComprehension() Expr {
	open := p.advance() // "["
	if p.checkOperator("]") {
		p.advance()
		return &List{P: posOf(open), Elements: nil}
	}
	first := p.expression()
	if p.checkIdentText("for") {
		p.advance()
		varName := p.consumeIdentText("LoopVariableExpected: expected a name after 'for'")
		if !p.checkIdentText("in") {
			p.fail(posOf(p.peek()), "InKeywordExpected: expected 'in' after comprehension variable")
		} else {
			p.advance()
		}
		iterable := p.expression()
		var filter Expr
		if p.checkKeyword("if") {
			p.advance()
			filter = p.expression()
		}
		p.consumeOperator("]", "CloseBracketExpected: expected ']' after list comprehension")
		return &ListComprehension{P: posOf(open), Elem: first, Var: varName, Iterable: iterable, Filter: filter}
	}

	elements := []Expr{first}
	for p.checkOperator(",") {
		p.advance()
		elements = append(elements, p.expression())
	}
	p.consumeOperator("]", "CloseBracketExpected: expected ']' after list elements")
	return &List{P: posOf(open), Elements: elements}
}

// --- token utilities ---

func (p *Parser) atEnd() bool { return p.peek().Kind == lexer.EOF }

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return tok
}

func (p *Parser) checkKind(k lexer.TokenKind) bool { return p.peek().Kind == k }

func (p *Parser) checkKeyword(text string) bool {
	t := p.peek()
	return t.Kind == lexer.KeywordTok && t.Text == text
}

func (p *Parser) checkOperator(text string) bool {
	t := p.peek()
	return t.Kind == lexer.OperatorTok && t.Text == text
}

func (p *Parser) checkIdentText(text string) bool {
	t := p.peek()
	return t.Kind == lexer.Identifier && t.Text == text
}

func (p *Parser) consumeKind(k lexer.TokenKind, msg string) lexer.Token {
	if p.checkKind(k) {
		return p.advance()
	}
	p.fail(posOf(p.peek()), "%s (got %s)", msg, p.peek().Kind)
	panic(parseError{})
}

func (p *Parser) consumeKeyword(text, msg string) lexer.Token {
	if p.checkKeyword(text) {
		return p.advance()
	}
	p.fail(posOf(p.peek()), "%s (got %q)", msg, p.peek().Text)
	panic(parseError{})
}

func (p *Parser) consumeOperator(text, msg string) lexer.Token {
	if p.checkOperator(text) {
		return p.advance()
	}
	p.fail(posOf(p.peek()), "%s (got %q)", msg, p.peek().Text)
	panic(parseError{})
}

func (p *Parser) consumeIdentText(msg string) string {
	if p.checkKind(lexer.Identifier) {
		return p.advance().Text
	}
	p.fail(posOf(p.peek()), "%s (got %q)", msg, p.peek().Text)
	panic(parseError{})
}

// consumeNewline accepts one NEWLINE or, permissively, EOF/DEDENT directly
// following a statement on the final line of a unit.
func (p *Parser) consumeNewline() {
	if p.checkKind(lexer.NewlineTok) {
		p.advance()
		return
	}
	if p.atEnd() || p.checkKind(lexer.DedentTok) {
		return
	}
	p.fail(posOf(p.peek()), "NewlineExpected: expected end of statement (got %q)", p.peek().Text)
}

func (p *Parser) fail(pos Pos, format string, args ...interface{}) {
	p.Errors.Add(diag.New(diag.KindParseError, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...))
}
