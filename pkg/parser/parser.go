// Package parser implements the recursive-descent YARA grammar (spec.md
// §4.1) directly into the typed AST (spec.md §4.2 — this parser builds the
// AST in one pass rather than materializing an intermediate parse tree,
// since no formatter consumes trivia in this repo's scope). It is grounded
// in go-corset's pkg/zkc/compiler/parser (statement-oriented recursive
// descent carrying a per-file Environment) and pkg/util/source/sexp/parser
// (bracket-recovery pattern for nested constructs).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/lexer"
	"github.com/metthal/yara-x/pkg/source"
)

// Options controls parser behavior (spec.md §4.1: "default is strict,
// first error aborts").
type Options struct {
	// Strict, when true (the default), aborts on the first syntax error.
	// When false, the parser recovers at statement (rule) boundaries.
	Strict bool
}

// DefaultOptions returns the spec-mandated default: strict parsing.
func DefaultOptions() Options { return Options{Strict: true} }

// Parser turns a token stream into an ast.SourceFile.
type Parser struct {
	file    *source.File
	lex     *lexer.Lexer
	opts    Options
	cur     lexer.Token
	diags   []source.Diagnostic
	aborted bool
}

// Parse parses file's contents under opts, returning the resulting AST and
// any diagnostics. In strict mode (the default) parsing stops at the first
// error; in non-strict mode the parser recovers at rule boundaries and
// keeps going so more than one error can be reported per pass.
func Parse(file *source.File, opts Options) (*ast.SourceFile, []source.Diagnostic) {
	p := &Parser{file: file, lex: lexer.New(file), opts: opts}
	p.advance()
	sf := p.parseSourceFile()
	return sf, p.diags
}

func (p *Parser) advance() {
	for {
		tok, diag := p.lex.Next()
		if diag != nil {
			p.diags = append(p.diags, *diag)
			continue
		}
		p.cur = tok
		return
	}
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur.Kind == k }

func (p *Parser) errorHere(expected ...string) {
	unexpected := []string{lexer.HumanName(p.cur.Kind)}
	if p.cur.Kind == lexer.Ident || p.cur.Kind == lexer.IntLit {
		unexpected = []string{fmt.Sprintf("%s %q", lexer.HumanName(p.cur.Kind), p.cur.Text)}
	}
	p.diags = append(p.diags, source.NewSyntaxError(p.file, p.cur.Span, expected, unexpected))
	p.aborted = true
}

// invalidLiteral records a malformed numeric literal (strconv rejected it,
// e.g. an integer overflowing int64) as a structured diagnostic instead of
// silently carrying whatever zero/partial value strconv returned.
func (p *Parser) invalidLiteral(code source.Code, message string, tok lexer.Token) {
	p.diags = append(p.diags, source.Diagnostic{
		Severity: source.SeverityError,
		Code:     code,
		Message:  message,
		Labels:   []source.Label{{File: p.file, Span: tok.Span, Message: fmt.Sprintf("%q", tok.Text)}},
	})
	p.aborted = true
}

// expect consumes the current token if it has kind k, else records a
// syntax error naming k as expected.
func (p *Parser) expect(k lexer.Kind, name string) (lexer.Token, bool) {
	if p.cur.Kind != k {
		p.errorHere(name)
		return lexer.Token{}, false
	}
	t := p.cur
	p.advance()
	return t, true
}

func (p *Parser) parseSourceFile() *ast.SourceFile {
	start := p.cur.Span
	ns := &ast.Namespace{Name: "default"}
	for !p.at(lexer.EOF) {
		if p.opts.Strict && p.aborted {
			break
		}
		switch {
		case p.at(lexer.KImport):
			if imp := p.parseImport(); imp != nil {
				ns.Imports = append(ns.Imports, imp)
			}
		case p.at(lexer.KInclude):
			p.advance()
			p.expect(lexer.StringLit, "string literal")
		case p.at(lexer.KPrivate), p.at(lexer.KGlobal), p.at(lexer.KRule):
			if r := p.parseRule(); r != nil {
				ns.Rules = append(ns.Rules, r)
			} else if !p.opts.Strict {
				p.recoverToNextRule()
			}
		default:
			p.errorHere("'import'", "'rule'", "'private'", "'global'")
			if p.opts.Strict {
				break
			}
			p.recoverToNextRule()
		}
		if p.opts.Strict && p.aborted {
			break
		}
	}
	sf := &ast.SourceFile{Namespaces: []*ast.Namespace{ns}}
	sf.SetSpan(source.NewSpan(start.Start(), p.cur.Span.End()))
	return sf
}

func (p *Parser) recoverToNextRule() {
	for !p.at(lexer.EOF) && !p.at(lexer.KRule) && !p.at(lexer.KPrivate) && !p.at(lexer.KGlobal) && !p.at(lexer.KImport) {
		p.advance()
	}
	p.aborted = false
}

func (p *Parser) parseImport() *ast.Import {
	startSpan := p.cur.Span
	p.advance() // 'import'
	tok, ok := p.expect(lexer.StringLit, "string literal")
	if !ok {
		return nil
	}
	name := unquoteSimple(tok.Text)
	imp := &ast.Import{Module: name}
	imp.SetSpan(startSpan.Merge(tok.Span))
	return imp
}

func unquoteSimple(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func (p *Parser) parseRule() *ast.Rule {
	start := p.cur.Span
	var mods ast.RuleModifier
	for p.at(lexer.KPrivate) || p.at(lexer.KGlobal) {
		if p.at(lexer.KPrivate) {
			mods |= ast.ModPrivate
		} else {
			mods |= ast.ModGlobal
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.KRule, "'rule'"); !ok {
		return nil
	}
	identTok, ok := p.expect(lexer.Ident, "identifier")
	if !ok {
		return nil
	}
	rule := &ast.Rule{Modifiers: mods, Identifier: identTok.Text, IdentSpan: identTok.Span}

	if p.at(lexer.Colon) {
		p.advance()
		for p.at(lexer.Ident) {
			rule.Tags = append(rule.Tags, ast.Tag{Name: p.cur.Text, Span: p.cur.Span})
			p.advance()
		}
	}

	if _, ok := p.expect(lexer.LBrace, "'{'"); !ok {
		return nil
	}

	for p.at(lexer.KMeta) {
		p.advance()
		if _, ok := p.expect(lexer.Colon, "':'"); !ok {
			return nil
		}
		for p.at(lexer.Ident) {
			rule.Metadata = append(rule.Metadata, p.parseMetadatum())
		}
	}

	if p.at(lexer.KStrings) {
		p.advance()
		if _, ok := p.expect(lexer.Colon, "':'"); !ok {
			return nil
		}
		for p.at(lexer.PatternIdent) {
			pat := p.parsePatternDecl()
			if pat == nil {
				return nil
			}
			rule.Patterns = append(rule.Patterns, pat)
		}
	}

	if _, ok := p.expect(lexer.KCondition, "'condition'"); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.Colon, "':'"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	rule.Condition = cond

	end, ok := p.expect(lexer.RBrace, "'}'")
	if !ok {
		return nil
	}
	rule.SetSpan(start.Merge(end.Span))
	return rule
}

func (p *Parser) parseMetadatum() ast.Metadatum {
	key := p.cur
	start := key.Span
	p.advance()
	p.expect(lexer.Assign, "'='")
	var v ast.MetaValue
	switch {
	case p.at(lexer.StringLit):
		v = ast.MetaValue{Kind: ast.MetaString, Str: string(unescapeString(p.cur.Text))}
		p.advance()
	case p.at(lexer.IntLit):
		n, err := strconv.ParseInt(strings.TrimRight(p.cur.Text, "KkMmBb"), 0, 64)
		if err != nil {
			p.invalidLiteral(source.CodeInvalidInteger, "invalid integer literal in metadata value", p.cur)
		}
		v = ast.MetaValue{Kind: ast.MetaInteger, Int: n}
		p.advance()
	case p.at(lexer.Minus):
		p.advance()
		n, err := strconv.ParseInt(p.cur.Text, 0, 64)
		if err != nil {
			p.invalidLiteral(source.CodeInvalidInteger, "invalid integer literal in metadata value", p.cur)
		}
		v = ast.MetaValue{Kind: ast.MetaInteger, Int: -n}
		p.advance()
	case p.at(lexer.KTrue), p.at(lexer.KFalse):
		v = ast.MetaValue{Kind: ast.MetaBool, Bool: p.at(lexer.KTrue)}
		p.advance()
	default:
		p.errorHere("string literal", "integer literal", "boolean literal")
	}
	m := ast.Metadatum{Key: key.Text, Value: v}
	m.SetSpan(start)
	return m
}

func (p *Parser) parsePatternDecl() *ast.Pattern {
	ident := p.cur
	start := ident.Span
	p.advance()
	if _, ok := p.expect(lexer.Assign, "'='"); !ok {
		return nil
	}
	pat := &ast.Pattern{Identifier: ident.Text}
	switch {
	case p.at(lexer.StringLit):
		pat.BodyKind = ast.PatternText
		pat.Body = string(unescapeString(p.cur.Text))
		p.advance()
	case p.at(lexer.RegexLit):
		pat.BodyKind = ast.PatternRegex
		pat.Body = p.cur.Text
		p.advance()
	case p.at(lexer.LBrace):
		pat.BodyKind = ast.PatternHex
		pat.Body = p.parseHexPatternBody()
	default:
		p.errorHere("string literal", "hex pattern", "regex literal")
		return nil
	}
	modSpans := map[ast.PatternModifier]source.Span{}
	// Modifier names lex as keywords; any other identifier is reported
	// below as an invalid modifier.
	for p.at(lexer.Ident) || p.at(lexer.KNocase) || p.at(lexer.KWide) || p.at(lexer.KAscii) ||
		p.at(lexer.KFullword) || p.at(lexer.KXor) || p.at(lexer.KBase64) || p.at(lexer.KBase64Wide) || p.at(lexer.KPrivate) {
		m, ok := patternModifierFor(p.cur.Text)
		if !ok {
			p.diags = append(p.diags, source.Diagnostic{
				Severity: source.SeverityError,
				Code:     source.CodeInvalidModifier,
				Message:  fmt.Sprintf("%q is not a valid string modifier", p.cur.Text),
				Labels:   []source.Label{{File: p.file, Span: p.cur.Span, Message: "unknown modifier"}},
			})
			p.aborted = true
			p.advance()
			continue
		}
		if first, seen := modSpans[m]; seen {
			p.diags = append(p.diags, source.Diagnostic{
				Severity: source.SeverityError,
				Code:     source.CodeDuplicateModifier,
				Message:  fmt.Sprintf("duplicate modifier %q", p.cur.Text),
				Labels: []source.Label{
					{File: p.file, Span: p.cur.Span, Message: "duplicate here"},
					{File: p.file, Span: first, Message: "first declared here", Note: true},
				},
			})
			p.aborted = true
			p.advance()
			continue
		}
		modSpans[m] = p.cur.Span
		pat.Modifiers |= m
		p.advance()
	}
	p.checkModifierCombination(pat, modSpans)
	pat.SetSpan(start)
	return pat
}

// modifierConflicts lists the pattern modifier pairs YARA rejects together:
// xor decoding and base64 decoding both presuppose a single fixed encoding
// of the pattern bytes, which nocase/fullword/each other contradict.
var modifierConflicts = [][2]ast.PatternModifier{
	{ast.PatMXor, ast.PatMNoCase},
	{ast.PatMXor, ast.PatMFullword},
	{ast.PatMXor, ast.PatMBase64},
	{ast.PatMXor, ast.PatMBase64Wide},
	{ast.PatMBase64, ast.PatMNoCase},
	{ast.PatMBase64, ast.PatMFullword},
	{ast.PatMBase64Wide, ast.PatMNoCase},
	{ast.PatMBase64Wide, ast.PatMFullword},
}

func (p *Parser) checkModifierCombination(pat *ast.Pattern, spans map[ast.PatternModifier]source.Span) {
	for _, pair := range modifierConflicts {
		a, b := pair[0], pair[1]
		if pat.Modifiers&a == 0 || pat.Modifiers&b == 0 {
			continue
		}
		p.diags = append(p.diags, source.Diagnostic{
			Severity: source.SeverityError,
			Code:     source.CodeInvalidModifierCombination,
			Message:  fmt.Sprintf("modifiers %q and %q cannot be combined", modifierName(a), modifierName(b)),
			Labels: []source.Label{
				{File: p.file, Span: spans[b], Message: "conflicts with"},
				{File: p.file, Span: spans[a], Message: "this modifier", Note: true},
			},
		})
		p.aborted = true
	}
}

func modifierName(m ast.PatternModifier) string {
	switch m {
	case ast.PatMNoCase:
		return "nocase"
	case ast.PatMAscii:
		return "ascii"
	case ast.PatMWide:
		return "wide"
	case ast.PatMFullword:
		return "fullword"
	case ast.PatMPrivate:
		return "private"
	case ast.PatMXor:
		return "xor"
	case ast.PatMBase64:
		return "base64"
	case ast.PatMBase64Wide:
		return "base64wide"
	default:
		return "unknown"
	}
}

func patternModifierFor(name string) (ast.PatternModifier, bool) {
	switch strings.ToLower(name) {
	case "nocase":
		return ast.PatMNoCase, true
	case "ascii":
		return ast.PatMAscii, true
	case "wide":
		return ast.PatMWide, true
	case "fullword":
		return ast.PatMFullword, true
	case "private":
		return ast.PatMPrivate, true
	case "xor":
		return ast.PatMXor, true
	case "base64":
		return ast.PatMBase64, true
	case "base64wide":
		return ast.PatMBase64Wide, true
	default:
		return 0, false
	}
}

// parseHexPatternBody consumes a brace-delimited hex pattern body verbatim
// (byte pairs, wildcards, jumps, alternations): the matcher that would
// interpret it is a host primitive out of this spec's scope (spec.md §1),
// so the compiler only needs to retain the literal text.
func (p *Parser) parseHexPatternBody() string {
	start := p.cur.Span
	var b strings.Builder
	p.advance() // '{'
	depth := 1
	parens, brackets := 0, 0
	b.WriteByte('{')
	for depth > 0 && !p.at(lexer.EOF) {
		switch p.cur.Kind {
		case lexer.LBrace:
			depth++
		case lexer.RBrace:
			depth--
			if depth == 0 {
				b.WriteByte('}')
				p.advance()
				continue
			}
		case lexer.LParen:
			parens++
		case lexer.RParen:
			parens--
		case lexer.LBracket:
			brackets++
		case lexer.RBracket:
			brackets--
		}
		b.WriteString(p.cur.Text)
		b.WriteByte(' ')
		p.advance()
	}
	if parens != 0 || brackets != 0 {
		p.diags = append(p.diags, source.Diagnostic{
			Severity: source.SeverityError,
			Code:     source.CodeInvalidHexString,
			Message:  "unbalanced '(' or '[' in hex string",
			Labels:   []source.Label{{File: p.file, Span: start, Message: "hex pattern starts here"}},
		})
		p.aborted = true
	}
	return b.String()
}

func unescapeString(raw string) []byte {
	inner := raw
	if len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	var out []byte
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			case 'x':
				if i+2 < len(inner) {
					v, err := strconv.ParseUint(inner[i+1:i+3], 16, 8)
					if err == nil {
						out = append(out, byte(v))
						i += 2
					}
				}
			default:
				out = append(out, inner[i])
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func asStringBytes(raw string) []byte { return unescapeString(raw) }
