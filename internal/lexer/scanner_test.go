package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestIndentAndDedent(t *testing.T) {
	src := "define f as:\n  return arg + 1\nx is 1\n"
	toks := NewScanner(src, "t.geo").ScanTokens()
	ks := kinds(toks)
	require.Contains(t, ks, IndentTok)
	require.Contains(t, ks, DedentTok)
	require.Equal(t, EOF, ks[len(ks)-1])
}

func TestBlankAndCommentLinesDontAffectIndentation(t *testing.T) {
	src := "define f as:\n  # a comment\n\n  return 1\nprint of 1\n"
	toks := NewScanner(src, "t.geo").ScanTokens()
	indentCount, dedentCount := 0, 0
	for _, tok := range toks {
		switch tok.Kind {
		case IndentTok:
			indentCount++
		case DedentTok:
			dedentCount++
		}
	}
	require.Equal(t, 1, indentCount)
	require.Equal(t, 1, dedentCount)
}

func TestNumberLexing(t *testing.T) {
	toks := NewScanner("3.14 2e3 42\n", "t.geo").ScanTokens()
	require.Equal(t, Number, toks[0].Kind)
	require.InDelta(t, 3.14, toks[0].Number, 1e-9)
	require.InDelta(t, 2000, toks[1].Number, 1e-9)
	require.InDelta(t, 42, toks[2].Number, 1e-9)
}

func TestMinusIsNotPartOfNumber(t *testing.T) {
	toks := NewScanner("-5\n", "t.geo").ScanTokens()
	require.Equal(t, OperatorTok, toks[0].Kind)
	require.Equal(t, "-", toks[0].Text)
	require.Equal(t, Number, toks[1].Kind)
	require.InDelta(t, 5, toks[1].Number, 1e-9)
}

func TestStringEscapes(t *testing.T) {
	toks := NewScanner(`"a\nb"`+"\n", "t.geo").ScanTokens()
	require.Equal(t, StringLit, toks[0].Kind)
	require.Equal(t, "a\nb", toks[0].Text)
}

func TestKeywordsAndInterrogatives(t *testing.T) {
	toks := NewScanner("loop while not converged\nWHO\n", "t.geo").ScanTokens()
	require.Equal(t, KeywordTok, toks[0].Kind)
	require.Equal(t, KeywordTok, toks[1].Kind)
	require.Equal(t, KeywordTok, toks[2].Kind)
	require.Equal(t, Identifier, toks[3].Kind) // "converged" is not a reserved keyword
	require.Equal(t, Interrog, toks[5].Kind)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	s := NewScanner("\"abc\n", "t.geo")
	s.ScanTokens()
	require.Greater(t, s.Errors.Len(), 0)
}

func TestLongestMatchOperators(t *testing.T) {
	toks := NewScanner("a <= b\n", "t.geo").ScanTokens()
	require.Equal(t, "<=", toks[1].Text)
}
