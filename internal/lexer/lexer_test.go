package lexer_test

import (
	"testing"

	"github.com/voidlang/voidc/internal/lexer"
	"github.com/voidlang/voidc/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	lx := lexer.New(src)
	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EndOfFile {
			return toks
		}
	}
}

func TestNextRecognizesKeywordsAndPunctuation(t *testing.T) {
	src := "const main = fn() -> i32 { return 0 }"
	toks := scanAll(t, src)

	expected := []token.Kind{
		token.Const, token.Identifier, token.Equals, token.Fn, token.LParen, token.RParen,
		token.Arrow, token.I32, token.LBrace, token.Return, token.Number, token.RBrace,
		token.EndOfFile,
	}
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(expected), toks)
	}
	for i, want := range expected {
		if toks[i].Kind != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, want)
		}
	}
}

func TestNextTracksLineAndColumn(t *testing.T) {
	src := "a\nbb"
	toks := scanAll(t, src)
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("first token position = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 {
		t.Errorf("second token line = %d, want 2", toks[1].Line)
	}
}

func TestNextSkipsLineComments(t *testing.T) {
	toks := scanAll(t, "1 // ignored\n2")
	if len(toks) != 3 || toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
}

func TestScanStringDecodesEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb"`)
	if toks[0].Kind != token.StringLiteral {
		t.Fatalf("kind = %s, want string literal", toks[0].Kind)
	}
	if toks[0].Lexeme != "a\nb" {
		t.Errorf("lexeme = %q, want %q", toks[0].Lexeme, "a\nb")
	}
}

func TestScanStringUnterminatedIsAnError(t *testing.T) {
	lx := lexer.New(`"unterminated`)
	if _, err := lx.Next(); err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestMaximalMunchSymbols(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{":=", token.ColonEquals},
		{":", token.Colon},
		{"==", token.EqualEqual},
		{"=", token.Equals},
		{"..", token.DotDot},
		{".*", token.DotStar},
		{".", token.Dot},
		{"->", token.Arrow},
		{"-", token.Minus},
		{">=", token.GreaterEqual},
		{">", token.GreaterThan},
	}
	for _, c := range cases {
		lx := lexer.New(c.src)
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if tok.Kind != c.kind {
			t.Errorf("%q: got %s, want %s", c.src, tok.Kind, c.kind)
		}
	}
}

func TestUnexpectedByteIsAnError(t *testing.T) {
	lx := lexer.New("!")
	if _, err := lx.Next(); err == nil {
		t.Fatal("expected an error for a lone '!'")
	}
}

func TestIdentifierAllowsUnderscoresAndDigits(t *testing.T) {
	toks := scanAll(t, "const_fn foo_1 _bar")
	for i, want := range []string{"const_fn", "foo_1", "_bar"} {
		if toks[i].Kind != token.Identifier || toks[i].Lexeme != want {
			t.Errorf("token %d = %+v, want identifier %q", i, toks[i], want)
		}
	}
}
