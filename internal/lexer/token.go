package lexer

import "fmt"

// TokenKind enumerates the token kinds from spec.md §3.1.
type TokenKind string

const (
	Number       TokenKind = "NUMBER"
	StringLit    TokenKind = "STRING"
	Identifier   TokenKind = "IDENT"
	KeywordTok   TokenKind = "KEYWORD"
	OperatorTok  TokenKind = "OPERATOR"
	NewlineTok   TokenKind = "NEWLINE"
	IndentTok    TokenKind = "INDENT"
	DedentTok    TokenKind = "DEDENT"
	Interrog     TokenKind = "INTERROGATIVE"
	EOF          TokenKind = "EOF"
)

// Keywords recognized by the lexer, spec.md §3.1.
var Keywords = map[string]bool{
	"define": true, "as": true, "is": true, "of": true,
	"if": true, "else": true, "loop": true, "while": true,
	"return": true, "break": true, "continue": true,
	"not": true, "and": true, "or": true, "from": true, "import": true,
	"true": true, "false": true, "null": true,
}

// Interrogatives, their own token kind per spec.md §3.1.
var Interrogatives = map[string]bool{
	"WHO": true, "WHAT": true, "WHEN": true, "WHERE": true, "WHY": true, "HOW": true,
}

// Operators recognized by longest match, spec.md §4.2.
var operatorsByLength = [][2]string{
	{"<=", "<="}, {">=", ">="}, {"!=", "!="},
	{"+", "+"}, {"-", "-"}, {"*", "*"}, {"/", "/"}, {"%", "%"},
	{"=", "="}, {"<", "<"}, {">", ">"},
	{"(", "("}, {")", ")"}, {"[", "["}, {"]", "]"},
	{",", ","}, {":", ":"},
}

// Token is one lexical unit with its source location.
type Token struct {
	Kind   TokenKind
	Text   string
	Number float64
	File   string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s %q @ %s:%d:%d]", t.Kind, t.Text, t.File, t.Line, t.Column)
}
