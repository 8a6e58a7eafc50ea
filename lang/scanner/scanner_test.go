package scanner

import (
	"testing"

	"github.com/horst-lang/horst/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s := New("test", []byte(src))
	var toks []Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanBasicTokens(t *testing.T) {
	toks := scanAll(t, `let a = 1;`)
	require.Equal(t, []token.Kind{token.LET, token.IDENT, token.EQ, token.NUMBER, token.SEMI, token.EOF}, kinds(toks))
}

func TestScanKeywords(t *testing.T) {
	toks := scanAll(t, `class fn for if in let nil or print return super this true false while do import as and else`)
	want := []token.Kind{
		token.CLASS, token.FN, token.FOR, token.IF, token.IN, token.LET, token.NIL, token.OR,
		token.PRINT, token.RETURN, token.SUPER, token.THIS, token.TRUE, token.FALSE, token.WHILE,
		token.DO, token.IMPORT, token.AS, token.AND, token.ELSE, token.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestScanTwoCharOperators(t *testing.T) {
	toks := scanAll(t, `== != <= >= < > =`)
	require.Equal(t, []token.Kind{
		token.EQ_EQ, token.BANG_EQ, token.LT_EQ, token.GT_EQ, token.LT, token.GT, token.EQ, token.EOF,
	}, kinds(toks))
}

func TestScanComment(t *testing.T) {
	toks := scanAll(t, "let a = 1; // trailing comment\nlet b = 2;")
	require.Equal(t, []token.Kind{
		token.LET, token.IDENT, token.EQ, token.NUMBER, token.SEMI,
		token.LET, token.IDENT, token.EQ, token.NUMBER, token.SEMI, token.EOF,
	}, kinds(toks))
	require.Equal(t, 2, toks[5].Pos.Line())
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello\nworld"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello\nworld", toks[0].Literal)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"hello`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, `1 2.5 300`)
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, "2.5", toks[1].Lexeme)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "let a = 1;\nlet b = 2;\n")
	require.Equal(t, 1, toks[0].Pos.Line())
	firstOnSecondLine := toks[5]
	require.Equal(t, 2, firstOnSecondLine.Pos.Line())
}
