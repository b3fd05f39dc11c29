// Package codegen lowers a checked AST (spec.md §4.5 "Code generation")
// into a bytecode.Program: one flat instruction stream with a per-rule
// entry point, consuming the check.Result annotations produced for each
// rule's condition rather than re-deriving types or resolving identifiers
// itself.
//
// It is grounded in go-corset's pkg/corset/compiler (lowering a resolved
// AST to pkg/air constraints by walking the same tree the resolver just
// annotated) and pkg/zkc/vm/instruction's Emit/Patch two-pass jump-target
// pattern, adapted to a simple forward-only single pass since this
// language has no backward references a rule's condition needs to see
// (spec.md §4.4 already rejected forward references to not-yet-declared
// patterns; rule-to-rule references resolve through the matching-rule
// bitmap rather than through jump targets).
package codegen

import (
	"fmt"

	"github.com/metthal/yara-x/internal/pool"
	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/check"
	"github.com/metthal/yara-x/pkg/types"
)

// Catalog records the global numbering codegen derives while lowering.
// Rule ids are each rule's index into the results slice passed to
// Generate, since check.CheckFile already assigns RuleIds contiguously in
// that same order (spec.md §5 "Ordering"); pattern ids are assigned here,
// contiguously across all rules in declaration order, since the checker
// deliberately leaves pattern numbering to whichever stage assembles the
// full compile unit.
type Catalog struct {
	PatternID map[*ast.Pattern]int
}

// Generate lowers every rule's checked condition into one bytecode.Program,
// in the same order results were produced (i.e. RuleId order).
func Generate(results []*check.Result) (*bytecode.Program, *Catalog) {
	cat := &Catalog{PatternID: make(map[*ast.Pattern]int)}
	var next int
	for _, r := range results {
		for _, p := range r.Rule.Patterns {
			cat.PatternID[p] = next
			next++
		}
	}

	prog := &bytecode.Program{RuleEntries: make([]int, len(results))}
	g := &generator{prog: prog, cat: cat, scratch: check.MaxLoopSlots, literals: pool.NewLiterals()}
	for ruleID, r := range results {
		g.info = r.Info
		g.rule = r.Rule
		prog.RuleEntries[ruleID] = prog.Here()
		g.emitValue(r.Rule.Condition)
		prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch, Int: int64(ruleID)})
		prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})
	}
	prog.Literals = g.literals.All()
	return prog, cat
}

// generator holds the state threaded across one Generate call. scratch
// hands out loop-slot numbers for the for/of-loop bookkeeping counters
// (running match count, array length, loop index, ...) that codegen needs
// beyond the one slot the checker allocates per bound loop variable;
// numbering continues upward from check.MaxLoopSlots so it can never
// collide with a checker-assigned variable slot, and is never reused, since
// pkg/vm keeps loop slots in a map rather than a fixed-size array (spec.md
// §4.5's 128-slot budget bounds nested *bound variables*, not this
// compiler's internal scratch space).
type generator struct {
	prog     *bytecode.Program
	info     map[ast.Expr]*check.ExprInfo
	rule     *ast.Rule
	cat      *Catalog
	scratch  int
	literals *pool.Literals
}

func (g *generator) allocScratch() int {
	s := g.scratch
	g.scratch++
	return s
}

func (g *generator) emit(ins bytecode.Instruction) int { return g.prog.Emit(ins) }

func (g *generator) exprInfo(e ast.Expr) *check.ExprInfo {
	info, ok := g.info[e]
	if !ok {
		panic(fmt.Sprintf("codegen: no check info for %T", e))
	}
	return info
}

func (g *generator) patternID(name string) int {
	for _, p := range g.rule.Patterns {
		if p.Identifier == name {
			return g.cat.PatternID[p]
		}
	}
	panic(fmt.Sprintf("codegen: pattern %s not found in rule %s", name, g.rule.Identifier))
}

// emitValue emits the instructions that leave e's runtime value on top of
// the operand stack.
func (g *generator) emitValue(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		g.emitLiteral(n)
	case *ast.Ident:
		g.emitIdent(n)
	case *ast.FieldAccess:
		g.emitFieldAccess(n)
	case *ast.IndexExpr:
		g.emitValue(n.Target)
		g.emitValue(n.Index)
		g.emit(bytecode.Instruction{Op: bytecode.OpIndex})
	case *ast.CallExpr:
		g.emitCall(n)
	case *ast.UnaryExpr:
		g.emitUnary(n)
	case *ast.BinaryExpr:
		g.emitBinary(n)
	case *ast.OfExpr:
		g.emitOf(n)
	case *ast.ForExpr:
		g.emitFor(n)
	case *ast.CastExpr:
		g.emitValue(n.Target)
		if n.ToBool {
			g.emit(bytecode.Instruction{Op: bytecode.OpToBool})
		}
	case *ast.FilesizeExpr:
		g.emit(bytecode.Instruction{Op: bytecode.OpFilesize})
	case *ast.EntrypointExpr:
		g.emit(bytecode.Instruction{Op: bytecode.OpEntrypoint})
	case *ast.PatternRefExpr:
		g.emit(bytecode.Instruction{Op: bytecode.OpPatternMatch, Int: int64(g.patternID(n.Identifier))})
	case *ast.PatternAtExpr:
		g.emitValue(n.Offset)
		g.emit(bytecode.Instruction{Op: bytecode.OpPatternMatchAt, Int: int64(g.patternID(n.Identifier))})
	case *ast.PatternInExpr:
		g.emitValue(n.Range.Low)
		g.emitValue(n.Range.High)
		g.emit(bytecode.Instruction{Op: bytecode.OpPatternMatchIn, Int: int64(g.patternID(n.Identifier))})
	case *ast.PatternCountExpr:
		g.emit(bytecode.Instruction{Op: bytecode.OpPatternCount, Int: int64(g.patternID(n.Identifier))})
	case *ast.RangeExpr:
		// Only reached when a RangeExpr appears somewhere other than a
		// quantifier/iterable position (it has no value of its own there);
		// loop- and pattern-in lowering emit Low/High directly instead.
		panic("codegen: RangeExpr has no standalone value")
	default:
		panic(fmt.Sprintf("codegen: unhandled expression kind %T", e))
	}
}

func (g *generator) emitLiteral(n *ast.LiteralExpr) {
	switch n.Kind {
	case ast.LitBool:
		g.emit(bytecode.Instruction{Op: bytecode.OpPushBool, Bool: n.Bool})
	case ast.LitInt:
		g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: n.Int})
	case ast.LitFloat:
		g.emit(bytecode.Instruction{Op: bytecode.OpPushFloat, Float: n.Float})
	case ast.LitString, ast.LitRegex:
		id := g.literals.Intern(n.String)
		g.emit(bytecode.Instruction{Op: bytecode.OpPushString, Int: int64(id)})
	default:
		panic("codegen: unhandled literal kind")
	}
}

func (g *generator) emitIdent(n *ast.Ident) {
	place := g.exprInfo(n).Place
	switch {
	case place.IsRule:
		g.emit(bytecode.Instruction{Op: bytecode.OpRuleRef, Int: int64(place.Rule)})
	case place.IsLoopVar:
		g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(place.LoopVar)})
	default:
		panic("codegen: ident with neither rule nor loop-var place")
	}
}

// emitFieldAccess walks the accumulated dotted-access path, emitting the
// root value first when the path starts from a computed (non-static)
// value (bytecode.LookupFromStack), then a single OpLookup applying the
// whole path.
func (g *generator) emitFieldAccess(fa *ast.FieldAccess) {
	lookup := g.exprInfo(fa).Place.Lookup
	base := g.exprInfo(fa).Place.Base
	if lookup.FromSlot == bytecode.LookupFromStack {
		g.emitValue(base)
	}
	g.emit(bytecode.Instruction{Op: bytecode.OpLookup, Lookup: *lookup})
}

func (g *generator) emitCall(call *ast.CallExpr) {
	info := g.exprInfo(call)
	for _, a := range call.Args {
		g.emitValue(a)
	}
	op := bytecode.OpCallModule
	if info.Call.Module == "" {
		op = bytecode.OpCallHost
	}
	g.emit(bytecode.Instruction{Op: op, Str: info.Call.Mangled, ArgCount: len(call.Args)})
}

func (g *generator) emitUnary(n *ast.UnaryExpr) {
	g.emitValue(n.Operand)
	switch n.Op {
	case ast.OpNeg:
		g.emit(bytecode.Instruction{Op: bytecode.OpNeg})
	case ast.OpBitNot:
		g.emit(bytecode.Instruction{Op: bytecode.OpBitNot})
	case ast.OpNot:
		g.emit(bytecode.Instruction{Op: bytecode.OpNot})
	default:
		panic("codegen: unhandled unary operator")
	}
}

func (g *generator) emitBinary(n *ast.BinaryExpr) {
	switch n.Op {
	case ast.OpAnd:
		g.emitAnd(n)
		return
	case ast.OpOr:
		g.emitOr(n)
		return
	}

	lt := g.exprInfo(n.Left).Type
	rt := g.exprInfo(n.Right).Type
	mixed := lt.Kind != rt.Kind && (lt.Kind == types.KindFloat || rt.Kind == types.KindFloat) &&
		(lt.Kind == types.KindInteger || rt.Kind == types.KindInteger)

	g.emitValue(n.Left)
	if mixed && lt.Kind == types.KindInteger {
		g.emit(bytecode.Instruction{Op: bytecode.OpToFloat})
	}
	g.emitValue(n.Right)
	if mixed && rt.Kind == types.KindInteger {
		g.emit(bytecode.Instruction{Op: bytecode.OpToFloat})
	}

	isString := lt.Kind == types.KindString || rt.Kind == types.KindString
	switch n.Op {
	case ast.OpAdd:
		g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	case ast.OpSub:
		g.emit(bytecode.Instruction{Op: bytecode.OpSub})
	case ast.OpMul:
		g.emit(bytecode.Instruction{Op: bytecode.OpMul})
	case ast.OpDiv:
		g.emit(bytecode.Instruction{Op: bytecode.OpDiv})
	case ast.OpMod:
		g.emit(bytecode.Instruction{Op: bytecode.OpMod})
	case ast.OpBitAnd:
		g.emit(bytecode.Instruction{Op: bytecode.OpBitAnd})
	case ast.OpBitOr:
		g.emit(bytecode.Instruction{Op: bytecode.OpBitOr})
	case ast.OpBitXor:
		g.emit(bytecode.Instruction{Op: bytecode.OpBitXor})
	case ast.OpShl:
		g.emit(bytecode.Instruction{Op: bytecode.OpShl})
	case ast.OpShr:
		g.emit(bytecode.Instruction{Op: bytecode.OpShr})
	case ast.OpEq:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpEq, bytecode.StrEq)
	case ast.OpNe:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpNe, bytecode.StrNe)
	case ast.OpLt:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpLt, bytecode.StrLt)
	case ast.OpLe:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpLe, bytecode.StrLe)
	case ast.OpGt:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpGt, bytecode.StrGt)
	case ast.OpGe:
		g.emitCompareOrStrOp(isString, bytecode.OpCmpGe, bytecode.StrGe)
	case ast.OpContains:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrContains})
	case ast.OpIContains:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrIContains})
	case ast.OpStartsWith:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrStartsWith})
	case ast.OpIStartsWith:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrIStartsWith})
	case ast.OpEndsWith:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrEndsWith})
	case ast.OpIEndsWith:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrIEndsWith})
	case ast.OpIEquals:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrIEquals})
	case ast.OpMatches:
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: bytecode.StrMatches})
	default:
		panic("codegen: unhandled binary operator")
	}
}

func (g *generator) emitCompareOrStrOp(isString bool, cmp bytecode.Op, strOp bytecode.StrOp) {
	if isString {
		g.emit(bytecode.Instruction{Op: bytecode.OpStrOp, StrOpKind: strOp})
		return
	}
	g.emit(bytecode.Instruction{Op: cmp})
}

// emitAnd lowers short-circuit && using OpAndBranch/OpAndCombine: the left
// operand is evaluated once and, only if it isn't a defined false, the
// right operand is evaluated and the two combined under three-valued
// logic (spec.md §4.5 "Short-circuit").
func (g *generator) emitAnd(n *ast.BinaryExpr) {
	g.emitValue(n.Left)
	g.emitAndCombineWithPending(n.Right)
}

func (g *generator) emitOr(n *ast.BinaryExpr) {
	g.emitValue(n.Left)
	branch := g.emit(bytecode.Instruction{Op: bytecode.OpOrBranch})
	g.emitValue(n.Right)
	g.emit(bytecode.Instruction{Op: bytecode.OpOrCombine})
	done := g.emit(bytecode.Instruction{Op: bytecode.OpJmp})
	trueTarget := g.prog.Here()
	g.emit(bytecode.Instruction{Op: bytecode.OpPushBool, Bool: true})
	g.prog.Patch(branch, trueTarget)
	g.prog.Patch(done, g.prog.Here())
}

// emitOf lowers "quantifier of (pattern-set) [: (condition)]" by unrolling
// over the statically known pattern set: the set's size never depends on
// scan-time data, so the running match count is accumulated directly on
// the operand stack rather than through a runtime loop (spec.md §4.4 "of
// expressions").
func (g *generator) emitOf(n *ast.OfExpr) {
	var names []string
	if n.Them {
		for _, p := range g.rule.Patterns {
			names = append(names, p.Identifier)
		}
	} else {
		names = n.PatternSet
	}

	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
	for _, name := range names {
		g.emit(bytecode.Instruction{Op: bytecode.OpPatternMatch, Int: int64(g.patternID(name))})
		g.emit(bytecode.Instruction{Op: bytecode.OpBoolToInt})
		g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	}

	g.emitQuantifierTest(n.Quantifier, n.Count, g.pushConstTotal(int64(len(names))))

	// The trailing ": (condition)" form, when present, further guards the
	// quantifier result with one condition evaluated once, independent of
	// which patterns matched (spec.md §4.4 "of expressions").
	if n.Condition != nil {
		g.emitAndCombineWithPending(n.Condition)
	}
}

// emitAndCombineWithPending short-circuit ANDs rhs against the Bool value
// already sitting on top of the stack.
func (g *generator) emitAndCombineWithPending(rhs ast.Expr) {
	branch := g.emit(bytecode.Instruction{Op: bytecode.OpAndBranch})
	g.emitValue(rhs)
	g.emit(bytecode.Instruction{Op: bytecode.OpAndCombine})
	done := g.emit(bytecode.Instruction{Op: bytecode.OpJmp})
	falseTarget := g.prog.Here()
	g.emit(bytecode.Instruction{Op: bytecode.OpPushBool, Bool: false})
	g.prog.Patch(branch, falseTarget)
	g.prog.Patch(done, g.prog.Here())
}

// emitQuantifierTest consumes the running match count already on top of
// the stack and leaves a Bool behind, comparing it against the threshold
// the quantifier kind implies. pushTotal emits the code that pushes the
// total iteration count, used by QuantAll/QuantPercent — a compile-time
// constant for a statically unrolled "of", a scratch-slot load for a
// for-loop whose iterable length is only known at scan time.
func (g *generator) emitQuantifierTest(quant ast.QuantifierKind, count ast.Expr, pushTotal func()) {
	switch quant {
	case ast.QuantAny:
		g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
		g.emit(bytecode.Instruction{Op: bytecode.OpCmpGt})
	case ast.QuantAll:
		pushTotal()
		g.emit(bytecode.Instruction{Op: bytecode.OpCmpEq})
	case ast.QuantNumber:
		g.emitValue(count)
		g.emit(bytecode.Instruction{Op: bytecode.OpCmpGe})
	case ast.QuantPercent:
		// minCount = ceil(total * pct / 100) = (total*pct + 99) / 100.
		pushTotal()
		g.emitValue(count)
		g.emit(bytecode.Instruction{Op: bytecode.OpMul})
		g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 99})
		g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
		g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 100})
		g.emit(bytecode.Instruction{Op: bytecode.OpDiv})
		g.emit(bytecode.Instruction{Op: bytecode.OpCmpGe})
	default:
		panic("codegen: unhandled quantifier kind")
	}
}

func (g *generator) pushConstTotal(total int64) func() {
	return func() { g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: total}) }
}

func (g *generator) pushSlotTotal(slot int) func() {
	return func() { g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(slot)}) }
}

// emitFor lowers "quantifier var in iterable : (condition)". The iterable
// is either a range of integers or a struct field of array/map type;
// either way the bound variable's slot was already allocated by the
// checker (recorded as the ForExpr's own Place) and this function only
// needs extra scratch slots for loop bookkeeping (spec.md §4.4 "for
// expressions").
func (g *generator) emitFor(n *ast.ForExpr) {
	slot := int(g.exprInfo(n).Place.LoopVar)

	if rng, ok := n.Iterable.(*ast.RangeExpr); ok {
		g.emitForRange(n, rng, slot)
		return
	}
	g.emitForCollection(n, slot)
}

func (g *generator) emitForRange(n *ast.ForExpr, rng *ast.RangeExpr, slot int) {
	endSlot := g.allocScratch()
	matchSlot := g.allocScratch()
	needTotal := n.Quantifier == ast.QuantAll || n.Quantifier == ast.QuantPercent
	var totalSlot int

	g.emitValue(rng.Low)
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(slot)})
	g.emitValue(rng.High)
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(endSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(matchSlot)})

	if needTotal {
		totalSlot = g.allocScratch()
		g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(endSlot)})
		g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(slot)})
		g.emit(bytecode.Instruction{Op: bytecode.OpSub})
		g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 1})
		g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
		g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(totalSlot)})
	}

	loopStart := g.prog.Here()
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(slot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(endSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpCmpGt})
	exitJmp := g.emit(bytecode.Instruction{Op: bytecode.OpJmpIfTrue})

	g.emitValue(n.Condition)
	g.emit(bytecode.Instruction{Op: bytecode.OpBoolToInt})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(matchSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(matchSlot)})

	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(slot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 1})
	g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(slot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpJmp, Int: int64(loopStart)})

	g.prog.Patch(exitJmp, g.prog.Here())
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(matchSlot)})
	pushTotal := g.pushConstTotal(0)
	if needTotal {
		pushTotal = g.pushSlotTotal(totalSlot)
	}
	g.emitQuantifierTest(n.Quantifier, n.Count, pushTotal)
}

// emitForCollection lowers "for var in array_or_map_field : (cond)",
// binding var to each element by index rather than iterating an array the
// VM has no native cursor for.
func (g *generator) emitForCollection(n *ast.ForExpr, slot int) {
	containerSlot := g.allocScratch()
	lenSlot := g.allocScratch()
	idxSlot := g.allocScratch()
	matchSlot := g.allocScratch()
	needTotal := n.Quantifier == ast.QuantAll || n.Quantifier == ast.QuantPercent

	g.emitValue(n.Iterable)
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(containerSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(containerSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpLen})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(lenSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(idxSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(matchSlot)})

	loopStart := g.prog.Here()
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(idxSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(lenSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpCmpGe})
	exitJmp := g.emit(bytecode.Instruction{Op: bytecode.OpJmpIfTrue})

	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(containerSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(idxSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpIndex})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(slot)})

	g.emitValue(n.Condition)
	g.emit(bytecode.Instruction{Op: bytecode.OpBoolToInt})
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(matchSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(matchSlot)})

	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(idxSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 1})
	g.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	g.emit(bytecode.Instruction{Op: bytecode.OpStoreLoopVar, Int: int64(idxSlot)})
	g.emit(bytecode.Instruction{Op: bytecode.OpJmp, Int: int64(loopStart)})

	g.prog.Patch(exitJmp, g.prog.Here())
	g.emit(bytecode.Instruction{Op: bytecode.OpLoadLoopVar, Int: int64(matchSlot)})
	pushTotal := g.pushConstTotal(0)
	if needTotal {
		pushTotal = g.pushSlotTotal(lenSlot)
	}
	g.emitQuantifierTest(n.Quantifier, n.Count, pushTotal)
}
