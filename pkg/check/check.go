package check

import (
	"fmt"

	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/modules"
	"github.com/metthal/yara-x/pkg/source"
	"github.com/metthal/yara-x/pkg/symbols"
	"github.com/metthal/yara-x/pkg/types"
)

// MaxLoopSlots bounds nested for-loop depth (spec.md §5 "128-slot budget").
// Exported so codegen can start its own scratch-slot numbering (the
// bookkeeping counters for/of-loop lowering needs beyond the one slot each
// bound loop variable gets) above this range without colliding with a
// checker-assigned variable slot.
const MaxLoopSlots = 128

// builtinHostFuncs are the bare (unqualified, unimported) functions every
// condition can call directly: the uint8/16/32/64[be] scanned-data readers
// (spec.md §4.6), dispatched through OpCallHost by name rather than through
// a module's Functions table.
var builtinHostFuncs = map[string]bool{
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uint8be": true, "uint16be": true, "uint32be": true, "uint64be": true,
}

type checker struct {
	file    *source.File
	mods    map[string]*modules.Module
	syms    *symbols.Stack
	loopTop int
	diags   []source.Diagnostic

	cur          *Result
	curRule      *ast.Rule
	usedPatterns map[string]bool
}

// CheckFile runs the checker over every namespace of a parsed source file,
// assigning RuleIds contiguously across all of them in declaration order
// (spec.md §5 "Ordering").
func CheckFile(file *source.File, sf *ast.SourceFile) ([]*Result, []source.Diagnostic) {
	var results []*Result
	var diags []source.Diagnostic
	var base symbols.RuleId
	for _, ns := range sf.Namespaces {
		nsResults, nsDiags := CheckNamespace(file, ns, base)
		results = append(results, nsResults...)
		diags = append(diags, nsDiags...)
		base += symbols.RuleId(len(ns.Rules))
	}
	return results, diags
}

// CheckNamespace checks one namespace: its imports, then every rule's
// condition, returning one Result per rule plus the accumulated
// diagnostics. baseRuleID is the RuleId of this namespace's first rule.
func CheckNamespace(file *source.File, ns *ast.Namespace, baseRuleID symbols.RuleId) ([]*Result, []source.Diagnostic) {
	c := &checker{
		file: file,
		mods: make(map[string]*modules.Module),
		syms: symbols.NewStack(),
	}

	c.checkImports(ns)

	// Each rule's symbol is inserted only after its own condition is
	// checked, so a condition can reference only rules declared before it.
	ruleSpans := make(map[string]source.Span, len(ns.Rules))
	results := make([]*Result, 0, len(ns.Rules))
	for i, r := range ns.Rules {
		results = append(results, c.checkRule(r))
		if orig, dup := ruleSpans[r.Identifier]; dup {
			c.duplicate(source.CodeDuplicateRule, "rule", r.Identifier, r.IdentSpan, orig)
			continue
		}
		ruleSpans[r.Identifier] = r.IdentSpan
		c.syms.Insert(symbols.NewRuleSymbol(r.Identifier, baseRuleID+symbols.RuleId(i)))
	}
	return results, c.diags
}

func (c *checker) checkImports(ns *ast.Namespace) {
	for _, imp := range ns.Imports {
		if _, ok := c.mods[imp.Module]; ok {
			c.warnf(imp.Span(), source.CodeDuplicateImport, "module %q already imported, ignoring duplicate import", imp.Module)
			continue
		}
		mod, ok := modules.Lookup(imp.Module)
		if !ok {
			c.errorf(imp.Span(), source.CodeUnknownModule, "unknown module %q", imp.Module)
			continue
		}
		c.mods[imp.Module] = mod
	}
}

func (c *checker) checkRule(rule *ast.Rule) *Result {
	c.cur = newResult(rule)
	c.curRule = rule
	c.usedPatterns = make(map[string]bool)

	tagSpans := make(map[string]source.Span, len(rule.Tags))
	for _, t := range rule.Tags {
		if orig, dup := tagSpans[t.Name]; dup {
			c.duplicate(source.CodeDuplicateTag, "tag", t.Name, t.Span, orig)
			continue
		}
		tagSpans[t.Name] = t.Span
	}

	patternSpans := make(map[string]source.Span, len(rule.Patterns))
	for _, p := range rule.Patterns {
		if orig, dup := patternSpans[p.Identifier]; dup {
			c.duplicate(source.CodeDuplicateString, "pattern", p.Identifier, p.Span(), orig)
			continue
		}
		patternSpans[p.Identifier] = p.Span()
	}

	if rule.Condition != nil {
		ct := c.checkExpr(rule.Condition)
		if ct.Kind != types.KindBool && ct.Kind != types.KindUnknown {
			c.warnf(rule.Condition.Span(), source.CodeNonBooleanCondition,
				"condition has type %s, implicitly cast to bool", ct)
			cast := &ast.CastExpr{Target: rule.Condition, ToBool: true, Implicit: true}
			cast.SetSpan(rule.Condition.Span())
			c.setInfo(cast, types.Bool, nil, nil)
			rule.Condition = cast
		}
	}

	for _, p := range rule.Patterns {
		if !c.usedPatterns[p.Identifier] {
			c.warnf(p.Span(), source.CodeUnusedString, "pattern %s is never used", p.Identifier)
			c.cur.UnusedPatterns = append(c.cur.UnusedPatterns, p)
		}
	}

	return c.cur
}

func (c *checker) setInfo(e ast.Expr, t types.Type, place *Place, call *CallInfo) {
	c.cur.Info[e] = &ExprInfo{Type: t, Place: place, Call: call}
}

func (c *checker) patternDeclared(id string) bool {
	for _, p := range c.curRule.Patterns {
		if p.Identifier == id {
			return true
		}
	}
	return false
}

func (c *checker) allocLoopSlot() (int, bool) {
	if c.loopTop >= MaxLoopSlots {
		return 0, false
	}
	slot := c.loopTop
	c.loopTop++
	return slot, true
}

func (c *checker) freeLoopSlots(mark int) {
	c.loopTop = mark
}

// checkExpr bottom-up types e, recording its ExprInfo, and returns its
// static type (types.Unknown once an error has already been reported for
// e, so callers can keep checking without cascading diagnostics).
func (c *checker) checkExpr(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return c.checkLiteral(n)
	case *ast.Ident:
		return c.checkIdent(n)
	case *ast.FieldAccess:
		return c.checkFieldAccess(n)
	case *ast.IndexExpr:
		return c.checkIndex(n)
	case *ast.CallExpr:
		return c.checkCall(n)
	case *ast.UnaryExpr:
		return c.checkUnary(n)
	case *ast.BinaryExpr:
		return c.checkBinary(n)
	case *ast.OfExpr:
		return c.checkOf(n)
	case *ast.ForExpr:
		return c.checkFor(n)
	case *ast.RangeExpr:
		c.checkRangeBounds(n.Low, n.High, n.Span())
		c.setInfo(n, types.Integer, nil, nil)
		return types.Integer
	case *ast.CastExpr:
		c.checkExpr(n.Target)
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	case *ast.FilesizeExpr:
		c.setInfo(n, types.Integer, nil, nil)
		return types.Integer
	case *ast.EntrypointExpr:
		c.setInfo(n, types.Integer, nil, nil)
		return types.Integer
	case *ast.PatternRefExpr:
		c.useRulePattern(n.Identifier, n.Span())
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	case *ast.PatternAtExpr:
		c.useRulePattern(n.Identifier, n.Span())
		ot := c.checkExpr(n.Offset)
		if ot.Kind != types.KindInteger && ot.Kind != types.KindUnknown {
			c.errorf(n.Offset.Span(), source.CodeWrongType, "offset must be an integer")
		}
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	case *ast.PatternInExpr:
		c.useRulePattern(n.Identifier, n.Span())
		c.checkRangeBounds(n.Range.Low, n.Range.High, n.Range.Span())
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	case *ast.PatternCountExpr:
		c.useRulePattern(n.Identifier, n.Span())
		c.setInfo(n, types.Integer, nil, nil)
		return types.Integer
	default:
		panic(fmt.Sprintf("check: unhandled expression kind %T", e))
	}
}

func (c *checker) useRulePattern(id string, span source.Span) {
	if !c.patternDeclared(id) {
		c.errorf(span, source.CodeUnknownIdentifier, "undeclared pattern %s", id)
		return
	}
	c.usedPatterns[id] = true
}

func (c *checker) checkLiteral(n *ast.LiteralExpr) types.Type {
	var t types.Type
	switch n.Kind {
	case ast.LitBool:
		t = types.Bool
	case ast.LitInt:
		t = types.Integer
	case ast.LitFloat:
		t = types.Float
	case ast.LitString, ast.LitRegex:
		t = types.String
	default:
		panic("check: unhandled literal kind")
	}
	c.setInfo(n, t, nil, nil)
	return t
}

func (c *checker) checkIdent(n *ast.Ident) types.Type {
	if sym, ok := c.syms.Lookup(n.Name); ok {
		switch sym.Kind {
		case symbols.KindRule:
			c.setInfo(n, types.Bool, &Place{IsRule: true, Rule: sym.Rule}, nil)
			return types.Bool
		case symbols.KindLoopVar:
			c.setInfo(n, sym.Type, &Place{IsLoopVar: true, LoopVar: sym.LoopVar}, nil)
			return sym.Type
		default:
			c.errorf(n.Span(), source.CodeWrongType, "%q cannot be used as a value here", n.Name)
			return types.Unknown
		}
	}
	if _, ok := c.mods[n.Name]; ok {
		c.errorf(n.Span(), source.CodeWrongType, "module %q is not a value; access one of its fields", n.Name)
		return types.Unknown
	}
	c.errorf(n.Span(), source.CodeUnknownIdentifier, "unknown identifier %q", n.Name)
	return types.Unknown
}

func (c *checker) checkFieldAccess(fa *ast.FieldAccess) types.Type {
	var basePlace *Place
	var baseType types.Type

	if id, ok := fa.Target.(*ast.Ident); ok {
		if mod, ok2 := c.mods[id.Name]; ok2 {
			basePlace = &Place{Lookup: &bytecode.LookupArg{FromSlot: bytecode.LookupFromModule, Module: mod.Name}}
			baseType = types.NewStructType(mod.Root)
		}
	}
	if basePlace == nil {
		baseType = c.checkExpr(fa.Target)
		if info, ok := c.cur.Info[fa.Target]; ok && info.Place != nil &&
			(info.Place.Lookup != nil || info.Place.IsLoopVar) {
			basePlace = info.Place
		}
	}

	if baseType.Kind != types.KindStruct {
		if baseType.Kind != types.KindUnknown {
			c.errorf(fa.FieldSpan, source.CodeWrongType, "field access on non-struct value of type %s", baseType)
		}
		return types.Unknown
	}
	field, ok := baseType.Struct.FieldByName(fa.Field)
	if !ok {
		c.errorf(fa.FieldSpan, source.CodeUnknownField, "struct %s has no field %q", baseType.Struct.Name, fa.Field)
		return types.Unknown
	}

	path := []int{field.Index}
	fromSlot := bytecode.LookupFromStack
	module := ""
	base := fa.Target
	switch {
	case basePlace != nil && basePlace.Lookup != nil:
		path = append(append([]int{}, basePlace.Lookup.Path...), field.Index)
		fromSlot = basePlace.Lookup.FromSlot
		module = basePlace.Lookup.Module
		base = basePlace.Base
	case basePlace != nil && basePlace.IsLoopVar:
		fromSlot = int(basePlace.LoopVar)
		base = nil
	}

	place := &Place{Lookup: &bytecode.LookupArg{Path: path, FromSlot: fromSlot, Module: module}, Base: base}
	c.setInfo(fa, field.Type, place, nil)
	return field.Type
}

func (c *checker) checkIndex(n *ast.IndexExpr) types.Type {
	targetType := c.checkExpr(n.Target)
	idxType := c.checkExpr(n.Index)

	switch targetType.Kind {
	case types.KindArray:
		if idxType.Kind != types.KindInteger && idxType.Kind != types.KindUnknown {
			c.errorf(n.Index.Span(), source.CodeWrongType, "array index must be an integer")
		}
		c.setInfo(n, *targetType.Elem, nil, nil)
		return *targetType.Elem
	case types.KindMap:
		wantKind := types.KindInteger
		if targetType.MapKey == types.MapKeyString {
			wantKind = types.KindString
		}
		if idxType.Kind != wantKind && idxType.Kind != types.KindUnknown {
			c.errorf(n.Index.Span(), source.CodeWrongType, "wrong map key type")
		}
		c.setInfo(n, *targetType.MapValue, nil, nil)
		return *targetType.MapValue
	case types.KindUnknown:
		return types.Unknown
	default:
		c.errorf(n.Target.Span(), source.CodeWrongType, "cannot index a value of type %s", targetType)
		return types.Unknown
	}
}

func (c *checker) checkCall(call *ast.CallExpr) types.Type {
	argTypes := make([]types.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = c.checkExpr(a)
	}

	if id, ok := call.Callee.(*ast.Ident); ok {
		if builtinHostFuncs[id.Name] {
			if len(argTypes) != 1 {
				c.errorf(call.Span(), source.CodeWrongNumberOfArguments, "%s takes exactly one argument", id.Name)
				return types.Unknown
			}
			if argTypes[0].Kind != types.KindInteger && argTypes[0].Kind != types.KindUnknown {
				c.errorf(call.Args[0].Span(), source.CodeWrongType, "%s's argument must be an integer", id.Name)
				return types.Unknown
			}
			info := &CallInfo{FuncName: id.Name, Mangled: id.Name, ReturnType: types.Integer}
			c.setInfo(call, types.Integer, nil, info)
			return types.Integer
		}
		c.errorf(id.Span(), source.CodeUnknownIdentifier, "unknown function %q", id.Name)
		return types.Unknown
	}

	fa, ok := call.Callee.(*ast.FieldAccess)
	if !ok {
		c.errorf(call.Span(), source.CodeWrongType, "expression is not callable")
		return types.Unknown
	}
	modIdent, ok := fa.Target.(*ast.Ident)
	if !ok {
		c.errorf(fa.Span(), source.CodeWrongType, "expression is not callable")
		return types.Unknown
	}
	mod, ok := c.mods[modIdent.Name]
	if !ok {
		c.errorf(modIdent.Span(), source.CodeUnknownModule, "unknown module %q", modIdent.Name)
		return types.Unknown
	}
	fn, ok := mod.Functions[fa.Field]
	if !ok {
		c.errorf(fa.FieldSpan, source.CodeUnknownIdentifier, "module %q has no function %q", mod.Name, fa.Field)
		return types.Unknown
	}
	idx, ok := fn.Resolve(argTypes)
	if !ok {
		c.errorf(call.Span(), source.CodeNoMatchingOverload, "no overload of %s.%s matches the given argument types", mod.Name, fa.Field)
		return types.Unknown
	}
	sig := fn.Signatures[idx]
	info := &CallInfo{Module: mod.Name, FuncName: fa.Field, Mangled: sig.Mangled, SigIndex: idx, ReturnType: sig.Return}
	c.setInfo(call, sig.Return, nil, info)
	return sig.Return
}

func (c *checker) checkUnary(n *ast.UnaryExpr) types.Type {
	t := c.checkExpr(n.Operand)
	switch n.Op {
	case ast.OpNeg:
		if !t.IsNumeric() && t.Kind != types.KindUnknown {
			c.errorf(n.Span(), source.CodeWrongType, "unary - requires a numeric operand, got %s", t)
			t = types.Unknown
		}
		c.setInfo(n, t, nil, nil)
		return t
	case ast.OpBitNot:
		if t.Kind != types.KindInteger && t.Kind != types.KindUnknown {
			c.errorf(n.Span(), source.CodeWrongType, "~ requires an integer operand, got %s", t)
			t = types.Unknown
		}
		c.setInfo(n, types.Integer, nil, nil)
		return types.Integer
	case ast.OpNot:
		c.coerceBool(&n.Operand, t)
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	default:
		panic("check: unhandled unary operator")
	}
}

func (c *checker) checkBinary(n *ast.BinaryExpr) types.Type {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		lt := c.checkExpr(n.Left)
		c.coerceBool(&n.Left, lt)
		rt := c.checkExpr(n.Right)
		c.coerceBool(&n.Right, rt)
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	}

	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	unknown := lt.Kind == types.KindUnknown || rt.Kind == types.KindUnknown
	var result types.Type

	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		switch {
		case unknown:
			result = types.Unknown
		case !lt.IsNumeric() || !rt.IsNumeric():
			c.errorf(n.Span(), source.CodeWrongType, "arithmetic operator requires numeric operands, got %s and %s", lt, rt)
			result = types.Unknown
		case lt.Kind == types.KindFloat || rt.Kind == types.KindFloat:
			result = types.Float
		default:
			result = types.Integer
		}
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor, ast.OpShl, ast.OpShr:
		if !unknown && (lt.Kind != types.KindInteger || rt.Kind != types.KindInteger) {
			c.errorf(n.Span(), source.CodeWrongType, "bitwise operator requires integer operands, got %s and %s", lt, rt)
			result = types.Unknown
		} else {
			result = types.Integer
		}
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !unknown && !((lt.IsNumeric() && rt.IsNumeric()) || (lt.Kind == types.KindString && rt.Kind == types.KindString)) {
			c.errorf(n.Span(), source.CodeWrongType, "cannot compare %s and %s", lt, rt)
		}
		result = types.Bool
	case ast.OpContains, ast.OpStartsWith, ast.OpEndsWith, ast.OpIEquals,
		ast.OpIContains, ast.OpIStartsWith, ast.OpIEndsWith, ast.OpMatches:
		if !unknown && (lt.Kind != types.KindString || rt.Kind != types.KindString) {
			c.errorf(n.Span(), source.CodeWrongType, "string operator requires string operands, got %s and %s", lt, rt)
		}
		result = types.Bool
	default:
		panic("check: unhandled binary operator")
	}
	c.setInfo(n, result, nil, nil)
	return result
}

// coerceBool applies spec.md §4.4's warn-and-cast rule to the expression
// held in slot, splicing an implicit *ast.CastExpr into the tree in its
// place when t is a non-Bool scalar.
func (c *checker) coerceBool(slot *ast.Expr, t types.Type) {
	if t.Kind == types.KindBool || t.Kind == types.KindUnknown {
		return
	}
	if t.Kind != types.KindInteger && t.Kind != types.KindFloat && t.Kind != types.KindString {
		c.errorf((*slot).Span(), source.CodeWrongType, "cannot use a value of type %s in a boolean context", t)
		return
	}
	c.warnf((*slot).Span(), source.CodeNonBooleanCondition, "implicit cast from %s to bool", t)
	cast := &ast.CastExpr{Target: *slot, ToBool: true, Implicit: true}
	cast.SetSpan((*slot).Span())
	c.setInfo(cast, types.Bool, nil, nil)
	*slot = cast
}

func (c *checker) checkRangeBounds(low, high ast.Expr, span source.Span) {
	lt := c.checkExpr(low)
	ht := c.checkExpr(high)
	if (lt.Kind != types.KindInteger && lt.Kind != types.KindUnknown) ||
		(ht.Kind != types.KindInteger && ht.Kind != types.KindUnknown) {
		c.errorf(span, source.CodeWrongType, "range bounds must be integers")
	}
}

func (c *checker) checkOf(n *ast.OfExpr) types.Type {
	var names []string
	if n.Them {
		for _, p := range c.curRule.Patterns {
			names = append(names, p.Identifier)
		}
	} else {
		for _, id := range n.PatternSet {
			if !c.patternDeclared(id) {
				c.errorf(n.Span(), source.CodeUnknownIdentifier, "undeclared pattern %s", id)
				continue
			}
			names = append(names, id)
		}
	}
	if len(names) == 0 {
		c.errorf(n.Span(), source.CodeWrongType, "pattern set is empty")
	}
	for _, id := range names {
		c.usedPatterns[id] = true
	}

	c.checkQuantifierCount(n.Quantifier, n.Count)

	if n.Condition != nil {
		ct := c.checkExpr(n.Condition)
		c.coerceBool(&n.Condition, ct)
	}
	c.setInfo(n, types.Bool, nil, nil)
	return types.Bool
}

// checkQuantifierCount typechecks the N in "N of ..."/"N% of ..." and "for
// N ... in ...", rejecting a literal percentage outside 1..=100 with an
// InvalidRange error (spec.md §4.4).
func (c *checker) checkQuantifierCount(quant ast.QuantifierKind, count ast.Expr) {
	switch quant {
	case ast.QuantNumber:
		if ct := c.checkExpr(count); ct.Kind != types.KindInteger && ct.Kind != types.KindUnknown {
			c.errorf(count.Span(), source.CodeWrongType, "quantifier count must be an integer")
		}
	case ast.QuantPercent:
		ct := c.checkExpr(count)
		if ct.Kind != types.KindInteger && ct.Kind != types.KindUnknown {
			c.errorf(count.Span(), source.CodeWrongType, "quantifier percentage must be an integer")
		} else if lit, ok := count.(*ast.LiteralExpr); ok && lit.Kind == ast.LitInt {
			if lit.Int < 1 || lit.Int > 100 {
				c.errorf(count.Span(), source.CodeInvalidRange, "quantifier percentage must be between 1 and 100")
			}
		}
	}
}

func (c *checker) checkFor(n *ast.ForExpr) types.Type {
	c.checkQuantifierCount(n.Quantifier, n.Count)

	elemType := c.checkIterable(n.Iterable)

	slot, ok := c.allocLoopSlot()
	if !ok {
		c.errorf(n.VarSpan, source.CodeTooManyLoops, "too many nested loops")
		c.setInfo(n, types.Bool, nil, nil)
		return types.Bool
	}
	c.syms.Push()
	c.syms.Insert(symbols.NewLoopVarSymbol(n.Var, symbols.VarIndex(slot), elemType))
	ct := c.checkExpr(n.Condition)
	c.coerceBool(&n.Condition, ct)
	c.syms.Pop()
	c.freeLoopSlots(slot)

	// Record the allocated slot on the ForExpr node itself (not just on
	// Idents referencing n.Var) so codegen knows which slot to bind the
	// loop variable to without re-deriving it.
	c.setInfo(n, types.Bool, &Place{IsLoopVar: true, LoopVar: symbols.VarIndex(slot)}, nil)
	return types.Bool
}

func (c *checker) checkIterable(it ast.Expr) types.Type {
	if rng, ok := it.(*ast.RangeExpr); ok {
		c.checkRangeBounds(rng.Low, rng.High, rng.Span())
		c.setInfo(rng, types.Integer, nil, nil)
		return types.Integer
	}
	t := c.checkExpr(it)
	switch t.Kind {
	case types.KindArray:
		return *t.Elem
	case types.KindMap:
		return *t.MapValue
	case types.KindUnknown:
		return types.Unknown
	default:
		c.errorf(it.Span(), source.CodeWrongType, "cannot iterate over a value of type %s", t)
		return types.Unknown
	}
}

func (c *checker) errorf(span source.Span, code source.Code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.diags = append(c.diags, source.Diagnostic{
		Severity: source.SeverityError,
		Code:     code,
		Message:  msg,
		Labels:   []source.Label{{File: c.file, Span: span, Message: msg}},
	})
}

func (c *checker) warnf(span source.Span, code source.Code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.diags = append(c.diags, source.Diagnostic{
		Severity: source.SeverityWarning,
		Code:     code,
		Message:  msg,
		Labels:   []source.Label{{File: c.file, Span: span, Message: msg}},
	})
}

func (c *checker) duplicate(code source.Code, kind, name string, newSpan, origSpan source.Span) {
	c.diags = append(c.diags, source.Diagnostic{
		Severity: source.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf("duplicate %s %q", kind, name),
		Labels: []source.Label{
			{File: c.file, Span: newSpan, Message: "redeclared here"},
			{File: c.file, Span: origSpan, Message: "first declared here", Note: true},
		},
	})
}
