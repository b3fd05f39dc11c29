package vm

import (
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/types"
)

// arith implements OpAdd/Sub/Mul/Div/Mod. Both operands are already the
// same numeric Kind by the time they reach here, since codegen emits
// OpToFloat on whichever side needs promoting (pkg/bytecode/opcode.go
// "promotion handled by codegen"). Division/modulo by zero yields an
// undefined result rather than panicking: a rule condition dividing by a
// module-provided field that turned out to be zero is routine input, not a
// VM bug.
func (f *frame) arith(op bytecode.Op) {
	b := f.operand.Pop()
	a := f.operand.Pop()
	if !a.Known || !b.Known {
		f.operand.Push(types.Value{Type: a.Type})
		return
	}
	if a.Type.Kind == types.KindFloat {
		var r float64
		switch op {
		case bytecode.OpAdd:
			r = a.FloatVal + b.FloatVal
		case bytecode.OpSub:
			r = a.FloatVal - b.FloatVal
		case bytecode.OpMul:
			r = a.FloatVal * b.FloatVal
		case bytecode.OpDiv:
			if b.FloatVal == 0 {
				f.operand.Push(types.Value{Type: types.Float})
				return
			}
			r = a.FloatVal / b.FloatVal
		case bytecode.OpMod:
			if b.FloatVal == 0 {
				f.operand.Push(types.Value{Type: types.Float})
				return
			}
			r = float64(int64(a.FloatVal) % int64(b.FloatVal))
		}
		f.operand.Push(types.FloatValue(r))
		return
	}
	var r int64
	switch op {
	case bytecode.OpAdd:
		r = a.IntVal + b.IntVal
	case bytecode.OpSub:
		r = a.IntVal - b.IntVal
	case bytecode.OpMul:
		r = a.IntVal * b.IntVal
	case bytecode.OpDiv:
		if b.IntVal == 0 {
			f.operand.Push(types.Value{Type: types.Integer})
			return
		}
		r = a.IntVal / b.IntVal
	case bytecode.OpMod:
		if b.IntVal == 0 {
			f.operand.Push(types.Value{Type: types.Integer})
			return
		}
		r = a.IntVal % b.IntVal
	}
	f.operand.Push(types.IntValue(r))
}

func (f *frame) neg() {
	a := f.operand.Pop()
	if !a.Known {
		f.operand.Push(types.Value{Type: a.Type})
		return
	}
	if a.Type.Kind == types.KindFloat {
		f.operand.Push(types.FloatValue(-a.FloatVal))
		return
	}
	f.operand.Push(types.IntValue(-a.IntVal))
}

// bitwise implements OpBitAnd/Or/Xor/Shl/Shr, integer-only per spec.md §4.4.
func (f *frame) bitwise(op bytecode.Op) {
	b := f.operand.Pop()
	a := f.operand.Pop()
	if !a.Known || !b.Known {
		f.operand.Push(types.Value{Type: types.Integer})
		return
	}
	// Negative shift counts are undefined (spec.md §4.4); Go's shift rule
	// would otherwise define x << -1 as 0 by shifting more than the width.
	if (op == bytecode.OpShl || op == bytecode.OpShr) && b.IntVal < 0 {
		f.operand.Push(types.Value{Type: types.Integer})
		return
	}
	var r int64
	switch op {
	case bytecode.OpBitAnd:
		r = a.IntVal & b.IntVal
	case bytecode.OpBitOr:
		r = a.IntVal | b.IntVal
	case bytecode.OpBitXor:
		r = a.IntVal ^ b.IntVal
	case bytecode.OpShl:
		r = a.IntVal << uint64(b.IntVal)
	case bytecode.OpShr:
		r = a.IntVal >> uint64(b.IntVal)
	}
	f.operand.Push(types.IntValue(r))
}

func (f *frame) bitNot() {
	a := f.operand.Pop()
	if !a.Known {
		f.operand.Push(types.Value{Type: types.Integer})
		return
	}
	f.operand.Push(types.IntValue(^a.IntVal))
}

// compare implements OpCmpEq/Ne/Lt/Le/Gt/Ge over numeric or boolean
// operands (string comparisons go through OpStrOp/host.StringOp instead).
func (f *frame) compare(op bytecode.Op) {
	b := f.operand.Pop()
	a := f.operand.Pop()
	if !a.Known || !b.Known {
		f.operand.Push(types.Value{Type: types.Bool})
		return
	}
	if a.Type.Kind == types.KindBool {
		switch op {
		case bytecode.OpCmpEq:
			f.operand.Push(types.BoolValue(a.BoolVal == b.BoolVal))
		case bytecode.OpCmpNe:
			f.operand.Push(types.BoolValue(a.BoolVal != b.BoolVal))
		default:
			f.operand.Push(types.Value{Type: types.Bool})
		}
		return
	}
	var av, bv float64
	if a.Type.Kind == types.KindFloat {
		av, bv = a.FloatVal, b.FloatVal
	} else {
		av, bv = float64(a.IntVal), float64(b.IntVal)
	}
	var r bool
	switch op {
	case bytecode.OpCmpEq:
		r = av == bv
	case bytecode.OpCmpNe:
		r = av != bv
	case bytecode.OpCmpLt:
		r = av < bv
	case bytecode.OpCmpLe:
		r = av <= bv
	case bytecode.OpCmpGt:
		r = av > bv
	case bytecode.OpCmpGe:
		r = av >= bv
	}
	f.operand.Push(types.BoolValue(r))
}

func logicalNot(a types.Value) types.Value {
	if !a.Known {
		return types.Value{Type: types.Bool}
	}
	return types.BoolValue(!a.BoolVal)
}

// andCombine applies the three-valued and(left, right) rule OpAndBranch's
// doc comment describes: called only once the left operand wasn't a
// defined false (that case branches away before evaluating right).
func andCombine(a, b types.Value) types.Value {
	if a.Known {
		return b
	}
	if b.Known && !b.BoolVal {
		return types.BoolValue(false)
	}
	return types.Value{Type: types.Bool}
}

// orCombine is the symmetric rule for or(left, right); called only once the
// left operand wasn't a defined true.
func orCombine(a, b types.Value) types.Value {
	if a.Known {
		return b
	}
	if b.Known && b.BoolVal {
		return types.BoolValue(true)
	}
	return types.Value{Type: types.Bool}
}

// toBool implements the truthiness coercion pkg/check splices in as an
// implicit CastExpr at and/or/of/for/condition-root boundaries (spec.md
// §4.4): nonzero numbers and nonempty strings are true.
func toBool(a types.Value) types.Value {
	if !a.Known {
		return types.Value{Type: types.Bool}
	}
	switch a.Type.Kind {
	case types.KindBool:
		return a
	case types.KindInteger:
		return types.BoolValue(a.IntVal != 0)
	case types.KindFloat:
		return types.BoolValue(a.FloatVal != 0)
	case types.KindString:
		return types.BoolValue(len(a.StringVal) != 0)
	default:
		return types.Value{Type: types.Bool}
	}
}

func toFloat(a types.Value) types.Value {
	if !a.Known {
		return types.Value{Type: types.Float}
	}
	return types.FloatValue(float64(a.IntVal))
}

// lengthOf implements OpLen over the three container kinds it is ever
// emitted against: strings, arrays, and maps (spec.md §4.6 str_len/
// array_len/map_len, collapsed to one opcode since the VM is dynamically
// typed at runtime).
func lengthOf(a types.Value) types.Value {
	if !a.Known {
		return types.Value{Type: types.Integer}
	}
	switch a.Type.Kind {
	case types.KindString:
		return types.IntValue(int64(len(a.StringVal)))
	case types.KindArray:
		if a.ArrayVal == nil {
			return types.Value{Type: types.Integer}
		}
		return types.IntValue(int64(len(a.ArrayVal.Items)))
	case types.KindMap:
		if a.MapVal == nil {
			return types.Value{Type: types.Integer}
		}
		return types.IntValue(int64(len(a.MapVal.IntKeys) + len(a.MapVal.StrKeys)))
	default:
		return types.Value{Type: types.Integer}
	}
}

// indexInto implements OpIndex over arrays and maps (spec.md §4.6
// array_lookup_*/map_lookup_*, collapsed to one opcode for the same reason
// as lengthOf). An out-of-range index or a missing map key is an undefined
// result, not an error: YARA conditions routinely probe optional/variable-
// length module data.
func indexInto(container, idx types.Value) types.Value {
	if !container.Known || !idx.Known {
		return elemType(container)
	}
	switch container.Type.Kind {
	case types.KindArray:
		if container.ArrayVal == nil || idx.IntVal < 0 || int(idx.IntVal) >= len(container.ArrayVal.Items) {
			return types.Value{Type: *container.Type.Elem}
		}
		return container.ArrayVal.Items[idx.IntVal]
	case types.KindMap:
		if container.MapVal == nil {
			return types.Value{Type: *container.Type.MapValue}
		}
		if container.Type.MapKey == types.MapKeyString {
			if v, ok := container.MapVal.StrKeys[string(idx.StringVal)]; ok {
				return v
			}
		} else if v, ok := container.MapVal.IntKeys[idx.IntVal]; ok {
			return v
		}
		return types.Value{Type: *container.Type.MapValue}
	default:
		return types.Value{}
	}
}

func elemType(container types.Value) types.Value {
	switch container.Type.Kind {
	case types.KindArray:
		return types.Value{Type: *container.Type.Elem}
	case types.KindMap:
		return types.Value{Type: *container.Type.MapValue}
	default:
		return types.Value{}
	}
}
