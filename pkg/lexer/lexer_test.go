package lexer_test

import (
	"testing"

	"github.com/metthal/yara-x/pkg/lexer"
	"github.com/metthal/yara-x/pkg/source"
)

func scanAll(t *testing.T, src string) []lexer.Token {
	t.Helper()
	f := source.NewFile("<test>", []byte(src))
	l := lexer.New(f)
	var toks []lexer.Token
	for {
		tok, diag := l.Next()
		if diag != nil {
			t.Fatalf("unexpected diagnostic scanning %q: %v", src, diag)
		}
		if tok.Kind == lexer.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestSlashAfterValueIsDivision(t *testing.T) {
	toks := scanAll(t, "filesize / 2")
	if len(toks) != 3 || toks[1].Kind != lexer.Slash {
		t.Fatalf("expected filesize, Slash, 2; got %+v", toks)
	}
}

func TestSlashAfterIntLiteralIsDivision(t *testing.T) {
	toks := scanAll(t, "1/0")
	if len(toks) != 3 || toks[1].Kind != lexer.Slash {
		t.Fatalf("expected 1, Slash, 0; got %+v", toks)
	}
}

func TestSlashAtStartOfExpressionStartsRegex(t *testing.T) {
	toks := scanAll(t, `/abc/ matches $a`)
	if len(toks) == 0 || toks[0].Kind != lexer.RegexLit {
		t.Fatalf("expected a leading regex literal; got %+v", toks)
	}
}

func TestSlashAfterMatchesKeywordStartsRegex(t *testing.T) {
	toks := scanAll(t, `$a matches /abc/`)
	var gotRegex bool
	for _, tok := range toks {
		if tok.Kind == lexer.RegexLit {
			gotRegex = true
		}
	}
	if !gotRegex {
		t.Fatalf("expected a regex literal after 'matches'; got %+v", toks)
	}
}

func TestSlashAfterClosingParenIsDivision(t *testing.T) {
	toks := scanAll(t, "(filesize) / 2")
	var gotSlash bool
	for _, tok := range toks {
		if tok.Kind == lexer.Slash {
			gotSlash = true
		}
	}
	if !gotSlash {
		t.Fatalf("expected division after ')'; got %+v", toks)
	}
}
