package lexer

import (
	"strings"

	"github.com/metthal/yara-x/pkg/source"
)

// Lexer tokenizes a source.File's contents one token at a time. It is
// grounded in go-corset's pkg/util/source Scanner/Lexer combinator
// framework, but hand-written: YARA's lexical grammar (hex-pattern
// wildcards/jumps, escaped strings, regex literals with trailing
// modifiers) needs stateful per-token logic the combinator scanners don't
// compose cleanly, so each token kind gets its own scan function instead
// of being assembled from Or(Many(...), ManyWith(...), ...).
type Lexer struct {
	file   *source.File
	src    []byte
	pos    int
	marker int // start of the token currently being scanned

	// prevKind is the kind of the last non-trivia token Next returned,
	// used to resolve '/' contextually between division and a regex
	// literal (see divisionContext). havePrev is false before the first
	// token, where a leading '/' can only start a regex.
	prevKind Kind
	havePrev bool
}

// New constructs a lexer over file.
func New(file *source.File) *Lexer {
	return &Lexer{file: file, src: file.Contents()}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	return b
}

func (l *Lexer) tok(kind Kind) Token {
	return Token{Kind: kind, Span: source.NewSpan(l.marker, l.pos), Text: string(l.src[l.marker:l.pos])}
}

// Next scans and returns the next non-trivia token, or an EOF token once
// the input is exhausted.
func (l *Lexer) Next() (Token, *source.Diagnostic) {
	for {
		t, diag := l.nextRaw()
		if diag != nil {
			l.prevKind, l.havePrev = t.Kind, true
			return t, diag
		}
		if t.Kind != Whitespace && t.Kind != Comment {
			l.prevKind, l.havePrev = t.Kind, true
			return t, nil
		}
	}
}

// divisionContext reports whether a '/' encountered right now follows a
// token that can end a value expression, meaning it must be the division
// operator rather than the start of a regex literal. Real YARA-X resolves
// the same ambiguity the same way: a regex literal can only start where an
// expression starts (after an operator, '(', ',', a keyword like
// "matches", or at the very beginning of input).
func (l *Lexer) divisionContext() bool {
	if !l.havePrev {
		return false
	}
	switch l.prevKind {
	case IntLit, FloatLit, StringLit, RegexLit, Ident,
		PatternIdent, PatternCount, PatternOffset, PatternLength,
		RParen, RBracket, KThem, KFilesize, KEntrypoint, KTrue, KFalse:
		return true
	default:
		return false
	}
}

func (l *Lexer) nextRaw() (Token, *source.Diagnostic) {
	l.marker = l.pos
	if l.eof() {
		return l.tok(EOF), nil
	}
	c := l.peek()
	switch {
	case isSpace(c):
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}
		return l.tok(Whitespace), nil
	case c == '/' && l.peekAt(1) == '/':
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}
		return l.tok(Comment), nil
	case c == '/' && l.peekAt(1) == '*':
		l.advance()
		l.advance()
		for !l.eof() && !(l.peek() == '*' && l.peekAt(1) == '/') {
			l.advance()
		}
		if !l.eof() {
			l.advance()
			l.advance()
		}
		return l.tok(Comment), nil
	case isIdentStart(c):
		return l.scanIdentOrKeyword(), nil
	case c == '$':
		return l.scanPatternIdent(PatternIdent, '$'), nil
	case c == '#':
		return l.scanPatternIdent(PatternCount, '#'), nil
	case c == '@':
		return l.scanPatternIdent(PatternOffset, '@'), nil
	case c == '!' && isPatternIdentChar(l.peekAt(1)):
		return l.scanPatternIdent(PatternLength, '!'), nil
	case isDigit(c):
		return l.scanNumber(), nil
	case c == '"':
		return l.scanString()
	case c == '/' && l.divisionContext():
		l.advance()
		return l.tok(Slash), nil
	case c == '/':
		return l.scanRegex()
	default:
		return l.scanPunct()
	}
}

func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
func isPatternIdentChar(c byte) bool {
	return isIdentStart(c) || c == '*'
}

func (l *Lexer) scanIdentOrKeyword() Token {
	for !l.eof() && isIdentCont(l.peek()) {
		l.advance()
	}
	text := string(l.src[l.marker:l.pos])
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		return l.tok(kind)
	}
	return l.tok(Ident)
}

func (l *Lexer) scanPatternIdent(kind Kind, sigil byte) Token {
	l.advance() // sigil
	if l.peek() == '*' && kind == PatternIdent {
		l.advance()
		return l.tok(kind)
	}
	for !l.eof() && isIdentCont(l.peek()) {
		l.advance()
	}
	return l.tok(kind)
}

func (l *Lexer) scanNumber() Token {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for !l.eof() && isHexDigit(l.peek()) {
			l.advance()
		}
		return l.tok(IntLit)
	}
	isFloat := false
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}
	// Unit suffixes KB/MB are folded by the parser, not the lexer, to keep
	// token kinds simple.
	for !l.eof() && (l.peek() == 'K' || l.peek() == 'k' || l.peek() == 'M' || l.peek() == 'm' || l.peek() == 'B' || l.peek() == 'b') {
		l.advance()
	}
	if isFloat {
		return l.tok(FloatLit)
	}
	return l.tok(IntLit)
}

func (l *Lexer) scanString() (Token, *source.Diagnostic) {
	l.advance() // opening quote
	for !l.eof() && l.peek() != '"' {
		if l.peek() == '\\' {
			l.advance()
			if l.eof() {
				break
			}
			if !isValidEscape(l.peek()) {
				d := source.Diagnostic{
					Severity: source.SeverityError,
					Code:     source.CodeInvalidEscapeSequence,
					Message:  "invalid escape sequence",
					Labels: []source.Label{{
						File: l.file, Span: source.NewSpan(l.pos-1, l.pos+1),
						Message: "unrecognized escape",
					}},
				}
				l.advance()
				return l.tok(StringLit), &d
			}
		}
		l.advance()
	}
	if !l.eof() {
		l.advance() // closing quote
	}
	return l.tok(StringLit), nil
}

func isValidEscape(c byte) bool {
	switch c {
	case 'n', 't', 'r', '\\', '"', 'x':
		return true
	default:
		return false
	}
}

func (l *Lexer) scanRegex() (Token, *source.Diagnostic) {
	l.advance() // opening slash
	inClass := false
	for !l.eof() {
		c := l.peek()
		if c == '\\' {
			l.advance()
			if !l.eof() {
				l.advance()
			}
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		} else if c == '\n' {
			break
		}
		l.advance()
	}
	if l.peek() != '/' {
		d := source.Diagnostic{
			Severity: source.SeverityError,
			Code:     source.CodeSyntaxError,
			Message:  "unterminated regex literal",
			Labels:   []source.Label{{File: l.file, Span: source.NewSpan(l.marker, l.pos), Message: "unterminated regex"}},
		}
		return l.tok(RegexLit), &d
	}
	l.advance() // closing slash
	for l.peek() == 'i' || l.peek() == 's' {
		l.advance()
	}
	return l.tok(RegexLit), nil
}

func (l *Lexer) scanPunct() (Token, *source.Diagnostic) {
	c := l.advance()
	two := func(next byte, ifYes, ifNo Kind) Token {
		if l.peek() == next {
			l.advance()
			return l.tok(ifYes)
		}
		return l.tok(ifNo)
	}
	switch c {
	case '(':
		return l.tok(LParen), nil
	case ')':
		return l.tok(RParen), nil
	case '{':
		return l.tok(LBrace), nil
	case '}':
		return l.tok(RBrace), nil
	case '[':
		return l.tok(LBracket), nil
	case ']':
		return l.tok(RBracket), nil
	case ',':
		return l.tok(Comma), nil
	case ':':
		return l.tok(Colon), nil
	case '+':
		return l.tok(Plus), nil
	case '-':
		return l.tok(Minus), nil
	case '*':
		return l.tok(Star), nil
	case '%':
		return l.tok(Percent), nil
	case '^':
		return l.tok(Caret), nil
	case '~':
		return l.tok(Tilde), nil
	case '.':
		return two('.', DotDot, Dot), nil
	case '=':
		return two('=', Eq, Assign), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.tok(Ne), nil
		}
	case '<':
		if l.peek() == '<' {
			l.advance()
			return l.tok(Shl), nil
		}
		return two('=', Le, Lt), nil
	case '>':
		if l.peek() == '>' {
			l.advance()
			return l.tok(Shr), nil
		}
		return two('=', Ge, Gt), nil
	case '&':
		return l.tok(Amp), nil
	case '|':
		return l.tok(Pipe), nil
	}
	d := source.Diagnostic{
		Severity: source.SeverityError,
		Code:     source.CodeSyntaxError,
		Message:  "unexpected character",
		Labels:   []source.Label{{File: l.file, Span: source.NewSpan(l.marker, l.pos), Message: "unexpected character"}},
	}
	return l.tok(EOF), &d
}
