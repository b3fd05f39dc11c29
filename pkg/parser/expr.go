package parser

import (
	"strconv"
	"strings"

	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/lexer"
	"github.com/metthal/yara-x/pkg/source"
)

// parseExpr parses a full condition expression and, if its static form is
// not already obviously Boolean, leaves cast insertion to the semantic
// checker (spec.md §4.4 "Cast at condition root" — casts are inserted at
// typecheck time, since that's when the type is actually known).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.at(lexer.KOr) {
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = mkBinary(left, ast.OpOr, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseNot()
	if left == nil {
		return nil
	}
	for p.at(lexer.KAnd) {
		p.advance()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		left = mkBinary(left, ast.OpAnd, right)
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(lexer.KNot) {
		start := p.cur.Span
		p.advance()
		operand := p.parseNot()
		if operand == nil {
			return nil
		}
		u := &ast.UnaryExpr{Op: ast.OpNot, Operand: operand}
		u.SetSpan(start.Merge(operand.Span()))
		return u
	}
	return p.parseRelational()
}

var relOps = map[lexer.Kind]ast.BinaryOp{
	lexer.Eq: ast.OpEq, lexer.Ne: ast.OpNe,
	lexer.Lt: ast.OpLt, lexer.Le: ast.OpLe,
	lexer.Gt: ast.OpGt, lexer.Ge: ast.OpGe,
	lexer.KContains: ast.OpContains, lexer.KIContains: ast.OpIContains,
	lexer.KStartsWith: ast.OpStartsWith, lexer.KIStartsWith: ast.OpIStartsWith,
	lexer.KEndsWith: ast.OpEndsWith, lexer.KIEndsWith: ast.OpIEndsWith,
	lexer.KIEquals: ast.OpIEquals, lexer.KMatches: ast.OpMatches,
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseBitOr()
	if left == nil {
		return nil
	}
	if op, ok := relOps[p.cur.Kind]; ok {
		p.advance()
		right := p.parseBitOr()
		if right == nil {
			return nil
		}
		return mkBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	left := p.parseBitXor()
	for p.at(lexer.Pipe) {
		p.advance()
		right := p.parseBitXor()
		if right == nil {
			return nil
		}
		left = mkBinary(left, ast.OpBitOr, right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expr {
	left := p.parseBitAnd()
	for p.at(lexer.Caret) {
		p.advance()
		right := p.parseBitAnd()
		if right == nil {
			return nil
		}
		left = mkBinary(left, ast.OpBitXor, right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	left := p.parseShift()
	for p.at(lexer.Amp) {
		p.advance()
		right := p.parseShift()
		if right == nil {
			return nil
		}
		left = mkBinary(left, ast.OpBitAnd, right)
	}
	return left
}

func (p *Parser) parseShift() ast.Expr {
	left := p.parseAdd()
	for p.at(lexer.Shl) || p.at(lexer.Shr) {
		op := ast.OpShl
		if p.at(lexer.Shr) {
			op = ast.OpShr
		}
		p.advance()
		right := p.parseAdd()
		if right == nil {
			return nil
		}
		left = mkBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseAdd() ast.Expr {
	left := p.parseMul()
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		op := ast.OpAdd
		if p.at(lexer.Minus) {
			op = ast.OpSub
		}
		p.advance()
		right := p.parseMul()
		if right == nil {
			return nil
		}
		left = mkBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseMul() ast.Expr {
	left := p.parseUnary()
	for p.at(lexer.Star) || p.at(lexer.Slash) || p.at(lexer.Percent) {
		var op ast.BinaryOp
		switch p.cur.Kind {
		case lexer.Star:
			op = ast.OpMul
		case lexer.Slash:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = mkBinary(left, op, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case lexer.Minus:
		start := p.cur.Span
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		u := &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand}
		u.SetSpan(start.Merge(operand.Span()))
		return u
	case lexer.Tilde:
		start := p.cur.Span
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		u := &ast.UnaryExpr{Op: ast.OpBitNot, Operand: operand}
		u.SetSpan(start.Merge(operand.Span()))
		return u
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	for {
		switch {
		case p.at(lexer.Dot):
			p.advance()
			field, ok := p.expect(lexer.Ident, "identifier")
			if !ok {
				return nil
			}
			fa := &ast.FieldAccess{Target: e, Field: field.Text, FieldSpan: field.Span}
			fa.SetSpan(e.Span().Merge(field.Span))
			e = fa
		case p.at(lexer.LBracket):
			p.advance()
			idx := p.parseExpr()
			if idx == nil {
				return nil
			}
			end, ok := p.expect(lexer.RBracket, "']'")
			if !ok {
				return nil
			}
			ie := &ast.IndexExpr{Target: e, Index: idx}
			ie.SetSpan(e.Span().Merge(end.Span))
			e = ie
		case p.at(lexer.LParen):
			p.advance()
			var args []ast.Expr
			if !p.at(lexer.RParen) {
				for {
					a := p.parseExpr()
					if a == nil {
						return nil
					}
					args = append(args, a)
					if p.at(lexer.Comma) {
						p.advance()
						continue
					}
					break
				}
			}
			end, ok := p.expect(lexer.RParen, "')'")
			if !ok {
				return nil
			}
			ce := &ast.CallExpr{Callee: e, Args: args}
			ce.SetSpan(e.Span().Merge(end.Span))
			e = ce
		default:
			return e
		}
	}
}

func mkBinary(left ast.Expr, op ast.BinaryOp, right ast.Expr) ast.Expr {
	b := &ast.BinaryExpr{Op: op, Left: left, Right: right}
	b.SetSpan(left.Span().Merge(right.Span()))
	return b
}

// parsePrimary handles literals, identifiers, parenthesized expressions,
// pattern references, filesize/entrypoint, and the of/for/quantifier forms
// (spec.md §4.2 Expr family).
func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur.Span
	switch p.cur.Kind {
	case lexer.KTrue, lexer.KFalse:
		b := p.at(lexer.KTrue)
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LitBool, Bool: b}
		lit.SetSpan(start)
		return lit
	case lexer.IntLit:
		n, err := strconv.ParseInt(strings.TrimRight(strings.TrimPrefix(p.cur.Text, "0x"), "KkMmBb"), hexOrDec(p.cur.Text), 64)
		if err != nil {
			p.invalidLiteral(source.CodeInvalidInteger, "invalid integer literal", p.cur)
		}
		n = applyUnitSuffix(p.cur.Text, n)
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LitInt, Int: n}
		lit.SetSpan(start)
		return lit
	case lexer.FloatLit:
		f, err := strconv.ParseFloat(strings.TrimRight(p.cur.Text, "KkMmBb"), 64)
		if err != nil {
			p.invalidLiteral(source.CodeInvalidFloat, "invalid float literal", p.cur)
		}
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LitFloat, Float: f}
		lit.SetSpan(start)
		return lit
	case lexer.StringLit:
		s := unescapeString(p.cur.Text)
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LitString, String: s}
		lit.SetSpan(start)
		return lit
	case lexer.RegexLit:
		text := p.cur.Text
		p.advance()
		lit := &ast.LiteralExpr{Kind: ast.LitRegex, String: []byte(text)}
		lit.SetSpan(start)
		return lit
	case lexer.KFilesize:
		p.advance()
		fe := &ast.FilesizeExpr{}
		fe.SetSpan(start)
		return fe
	case lexer.KEntrypoint:
		p.advance()
		ee := &ast.EntrypointExpr{}
		ee.SetSpan(start)
		return ee
	case lexer.PatternIdent:
		return p.parsePatternRef()
	case lexer.PatternCount:
		name := p.cur.Text
		p.advance()
		pc := &ast.PatternCountExpr{Identifier: "$" + name[1:]}
		pc.SetSpan(start)
		return pc
	case lexer.LParen:
		// A bare parenthesized expression. Ranges "(lo..hi)" only occur as
		// of/for iterables or after pattern "in", which parse their own
		// parens directly (parseForIterable, parsePatternRef) rather than
		// going through parsePrimary.
		p.advance()
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RParen, "')'"); !ok {
			return nil
		}
		return e
	case lexer.KAny, lexer.KAll:
		return p.parseQuantified(start)
	case lexer.KFor:
		return p.parseFor(start)
	case lexer.Ident:
		name := p.cur.Text
		p.advance()
		id := &ast.Ident{Name: name}
		id.SetSpan(start)
		return id
	default:
		// An integer literal or '-' never reaches this check: the IntLit
		// case above and parseUnary consume them first, so "3 of them" and
		// "40% of ($a,$b)" are not parsed as of-expressions. A numeric or
		// percentage count is accepted only after `for`.
		if p.at(lexer.IntLit) || p.at(lexer.Minus) {
			return p.parseQuantified(start)
		}
		p.errorHere("expression")
		return nil
	}
}

func hexOrDec(text string) int {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return 16
	}
	return 10
}

func applyUnitSuffix(text string, n int64) int64 {
	lower := strings.ToLower(text)
	switch {
	case strings.HasSuffix(lower, "kb"):
		return n * 1024
	case strings.HasSuffix(lower, "mb"):
		return n * 1024 * 1024
	default:
		return n
	}
}

func (p *Parser) parsePatternRef() ast.Expr {
	start := p.cur.Span
	name := "$" + p.cur.Text[1:]
	p.advance()
	if p.at(lexer.KAt) {
		p.advance()
		offset := p.parsePrimary()
		if offset == nil {
			return nil
		}
		e := &ast.PatternAtExpr{Identifier: name, Offset: offset}
		e.SetSpan(start.Merge(offset.Span()))
		return e
	}
	if p.at(lexer.KIn) {
		p.advance()
		if _, ok := p.expect(lexer.LParen, "'('"); !ok {
			return nil
		}
		lo := p.parseExpr()
		if lo == nil {
			return nil
		}
		if _, ok := p.expect(lexer.DotDot, "'..'"); !ok {
			return nil
		}
		hi := p.parseExpr()
		if hi == nil {
			return nil
		}
		end, ok := p.expect(lexer.RParen, "')'")
		if !ok {
			return nil
		}
		rng := ast.RangeExpr{Low: lo, High: hi}
		rng.SetSpan(lo.Span().Merge(hi.Span()))
		e := &ast.PatternInExpr{Identifier: name, Range: rng}
		e.SetSpan(start.Merge(end.Span))
		return e
	}
	e := &ast.PatternRefExpr{Identifier: name}
	e.SetSpan(start)
	return e
}

// parsePatternSet parses "( $a , $b , ... )" or "them" following an "of",
// returning the pattern names (nil when them is true), the them flag, the
// span of the construct just parsed, and whether parsing succeeded.
func (p *Parser) parsePatternSet() ([]string, bool, source.Span, bool) {
	if p.at(lexer.KThem) {
		tok := p.cur
		p.advance()
		return nil, true, tok.Span, true
	}
	open, ok := p.expect(lexer.LParen, "'('")
	if !ok {
		return nil, false, source.Span{}, false
	}
	var names []string
	for {
		if p.at(lexer.PatternIdent) {
			names = append(names, "$"+p.cur.Text[1:])
			p.advance()
		} else {
			p.errorHere("pattern identifier")
			return nil, false, source.Span{}, false
		}
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, ok := p.expect(lexer.RParen, "')'")
	if !ok {
		return nil, false, source.Span{}, false
	}
	return names, false, open.Span.Merge(end.Span), true
}

func (p *Parser) parseQuantified(start source.Span) ast.Expr {
	var quant ast.QuantifierKind
	var count ast.Expr
	switch {
	case p.at(lexer.KAny):
		quant = ast.QuantAny
		p.advance()
	case p.at(lexer.KAll):
		quant = ast.QuantAll
		p.advance()
	default:
		n := p.parsePrimary()
		if n == nil {
			return nil
		}
		if p.at(lexer.Percent) {
			p.advance()
			quant = ast.QuantPercent
		} else {
			quant = ast.QuantNumber
		}
		count = n
	}
	if _, ok := p.expect(lexer.KOf, "'of'"); !ok {
		return nil
	}
	names, them, setSpan, ok := p.parsePatternSet()
	if !ok {
		return nil
	}
	of := &ast.OfExpr{Quantifier: quant, Count: count, PatternSet: names, Them: them}
	of.SetSpan(start.Merge(setSpan))
	return of
}

func (p *Parser) parseFor(start source.Span) ast.Expr {
	p.advance() // 'for'
	var quant ast.QuantifierKind
	var count ast.Expr
	switch {
	case p.at(lexer.KAny):
		quant = ast.QuantAny
		p.advance()
	case p.at(lexer.KAll):
		quant = ast.QuantAll
		p.advance()
	default:
		n := p.parsePrimary()
		if n == nil {
			return nil
		}
		if p.at(lexer.Percent) {
			p.advance()
			quant = ast.QuantPercent
		} else {
			quant = ast.QuantNumber
		}
		count = n
	}
	// "for <quant> of (<set>) : (<cond>)" form.
	if p.at(lexer.KOf) {
		p.advance()
		names, them, _, ok := p.parsePatternSet()
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.Colon, "':'"); !ok {
			return nil
		}
		if _, ok := p.expect(lexer.LParen, "'('"); !ok {
			return nil
		}
		cond := p.parseExpr()
		if cond == nil {
			return nil
		}
		end, ok := p.expect(lexer.RParen, "')'")
		if !ok {
			return nil
		}
		of := &ast.OfExpr{Quantifier: quant, Count: count, PatternSet: names, Them: them, Condition: cond}
		of.SetSpan(start.Merge(end.Span))
		return of
	}
	// "for <quant> <var> in <iterable> : (<cond>)" form.
	varTok, ok := p.expect(lexer.Ident, "identifier")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.KIn, "'in'"); !ok {
		return nil
	}
	iterable := p.parseForIterable()
	if iterable == nil {
		return nil
	}
	if _, ok := p.expect(lexer.Colon, "':'"); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.LParen, "'('"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	end, ok := p.expect(lexer.RParen, "')'")
	if !ok {
		return nil
	}
	fe := &ast.ForExpr{Quantifier: quant, Count: count, Var: varTok.Text, VarSpan: varTok.Span, Iterable: iterable, Condition: cond}
	fe.SetSpan(start.Merge(end.Span))
	return fe
}

// parseForIterable parses either a range "(lo..hi)" or a plain expression
// (an array/map-typed field access, or a dotted module expression).
func (p *Parser) parseForIterable() ast.Expr {
	if p.at(lexer.LParen) {
		save := p.cur
		p.advance()
		lo := p.parseExpr()
		if lo != nil && p.at(lexer.DotDot) {
			p.advance()
			hi := p.parseExpr()
			if hi == nil {
				return nil
			}
			end, ok := p.expect(lexer.RParen, "')'")
			if !ok {
				return nil
			}
			r := &ast.RangeExpr{Low: lo, High: hi}
			r.SetSpan(save.Span.Merge(end.Span))
			return r
		}
		if lo == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RParen, "')'"); !ok {
			return nil
		}
		return lo
	}
	return p.parsePostfix()
}
