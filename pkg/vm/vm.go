// Package vm interprets a bytecode.Program against one scan (spec.md §4.5
// "VM & Host ABI"): one operand stack of pkg/types.Value per rule, a
// loop-variable slot map, and the scan-context globals/host calls routed
// through pkg/host.
//
// It is grounded in go-corset's pkg/zkc/vm/machine Core/State/Frame split
// (static code plus per-call dynamic state), re-targeted from a register
// machine to the stack machine spec.md mandates: a frame here holds an
// operand stack (pkg/util/collection/stack.Stack[types.Value], reused
// as-is) instead of a fixed register file, and loop-variable storage is a
// map[int]types.Value rather than a register bank, since pkg/codegen's
// scratch-slot numbering for nested for-loop bookkeeping is unbounded
// above pkg/check.MaxLoopSlots.
//
// Because this VM's operand values already carry their own Kind and
// materialized payload (pkg/types.Value), undefined-value propagation
// needs no exception-handler stack: every arithmetic, comparison, and
// string-op instruction just reads operand.Known and computes the result's
// Known bit alongside its payload. This also means the host ABI's
// lookup_integer/float/bool/string/value and array_lookup_*/map_lookup_*
// primitive fan-out by static result kind collapses to two generic
// opcodes, OpLookup and OpIndex, that dispatch dynamically on the actual
// runtime Kind instead.
package vm

import (
	"fmt"

	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/host"
	"github.com/metthal/yara-x/pkg/types"
	"github.com/metthal/yara-x/pkg/util/collection/stack"
)

// VM interprets one compiled bytecode.Program.
type VM struct {
	prog   *bytecode.Program
	linker *host.Linker
}

// New constructs a VM for prog, dispatching host calls through linker.
func New(prog *bytecode.Program, linker *host.Linker) *VM {
	return &VM{prog: prog, linker: linker}
}

// Execute runs every rule's condition in order against ctx, returning the
// ids of the rules that matched. ctx.RuleResults must have one entry per
// rule in prog.RuleEntries (host.NewScanContext does this).
func (m *VM) Execute(ctx *host.ScanContext) []int {
	var matched []int
	for ruleID, entry := range m.prog.RuleEntries {
		f := &frame{prog: m.prog, linker: m.linker, ctx: ctx, loopVars: make(map[int]types.Value)}
		ok := f.run(entry)
		ctx.RuleResults[ruleID] = ok
		if ok {
			matched = append(matched, ruleID)
		}
	}
	return matched
}

// frame is the interpreter state for one rule's condition evaluation: an
// operand stack and its own loop-variable slots (spec.md §5 "new_var"/
// "free_vars"; slots never collide across rules since each rule gets a
// fresh frame).
type frame struct {
	prog     *bytecode.Program
	linker   *host.Linker
	ctx      *host.ScanContext
	operand  stack.Stack[types.Value]
	loopVars map[int]types.Value
}

// run interprets instructions starting at pc until OpRuleMatch/OpReturn,
// returning whether the rule's condition evaluated to a defined true
// (spec.md §4.4: an undefined condition result means the rule does not
// match).
func (f *frame) run(pc int) bool {
	matched := false
	for {
		ins := f.prog.Instructions[pc]
		switch ins.Op {
		case bytecode.OpNop:
			pc++
		case bytecode.OpPushBool:
			f.operand.Push(types.BoolValue(ins.Bool))
			pc++
		case bytecode.OpPushInt:
			f.operand.Push(types.IntValue(ins.Int))
			pc++
		case bytecode.OpPushFloat:
			f.operand.Push(types.FloatValue(ins.Float))
			pc++
		case bytecode.OpPushString:
			f.operand.Push(types.StringValue(f.prog.Literal(ins.Int)))
			pc++
		case bytecode.OpPushUnknown:
			f.operand.Push(types.Value{})
			pc++
		case bytecode.OpPop:
			f.operand.Pop()
			pc++
		case bytecode.OpDup:
			f.operand.Push(f.operand.Peek(0))
			pc++

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			f.arith(ins.Op)
			pc++
		case bytecode.OpNeg:
			f.neg()
			pc++

		case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr:
			f.bitwise(ins.Op)
			pc++
		case bytecode.OpBitNot:
			f.bitNot()
			pc++

		case bytecode.OpCmpEq, bytecode.OpCmpNe, bytecode.OpCmpLt, bytecode.OpCmpLe, bytecode.OpCmpGt, bytecode.OpCmpGe:
			f.compare(ins.Op)
			pc++

		case bytecode.OpStrOp:
			b := f.operand.Pop()
			a := f.operand.Pop()
			f.operand.Push(host.StringOp(ins.StrOpKind, a, b))
			pc++

		case bytecode.OpNot:
			a := f.operand.Pop()
			f.operand.Push(logicalNot(a))
			pc++

		case bytecode.OpToBool:
			f.operand.Push(toBool(f.operand.Pop()))
			pc++
		case bytecode.OpToFloat:
			f.operand.Push(toFloat(f.operand.Pop()))
			pc++
		case bytecode.OpBoolToInt:
			a := f.operand.Pop()
			if a.Known && a.BoolVal {
				f.operand.Push(types.IntValue(1))
			} else {
				f.operand.Push(types.IntValue(0))
			}
			pc++

		case bytecode.OpJmp:
			pc = int(ins.Int)
		case bytecode.OpJmpIfTrue:
			a := f.operand.Pop()
			if a.Known && a.BoolVal {
				pc = int(ins.Int)
			} else {
				pc++
			}

		case bytecode.OpAndBranch:
			a := f.operand.Peek(0)
			if a.Known && !a.BoolVal {
				f.operand.Pop()
				pc = int(ins.Int)
			} else {
				pc++
			}
		case bytecode.OpAndCombine:
			b := f.operand.Pop()
			a := f.operand.Pop()
			f.operand.Push(andCombine(a, b))
			pc++
		case bytecode.OpOrBranch:
			a := f.operand.Peek(0)
			if a.Known && a.BoolVal {
				f.operand.Pop()
				pc = int(ins.Int)
			} else {
				pc++
			}
		case bytecode.OpOrCombine:
			b := f.operand.Pop()
			a := f.operand.Pop()
			f.operand.Push(orCombine(a, b))
			pc++

		case bytecode.OpLoadLoopVar:
			f.operand.Push(f.loopVars[int(ins.Int)])
			pc++
		case bytecode.OpStoreLoopVar:
			f.loopVars[int(ins.Int)] = f.operand.Pop()
			pc++

		case bytecode.OpLookup:
			f.lookup(ins.Lookup)
			pc++

		case bytecode.OpLen:
			f.operand.Push(lengthOf(f.operand.Pop()))
			pc++
		case bytecode.OpIndex:
			idx := f.operand.Pop()
			container := f.operand.Pop()
			f.operand.Push(indexInto(container, idx))
			pc++

		case bytecode.OpCallHost, bytecode.OpCallModule:
			f.call(ins.Str, ins.ArgCount)
			pc++

		case bytecode.OpFilesize:
			f.operand.Push(f.ctx.Filesize)
			pc++
		case bytecode.OpEntrypoint:
			f.operand.Push(f.ctx.Entrypoint)
			pc++
		case bytecode.OpPatternMatch:
			f.operand.Push(host.PatternMatched(f.ctx, int(ins.Int)))
			pc++
		case bytecode.OpPatternMatchAt:
			offset := f.operand.Pop()
			f.operand.Push(host.PatternMatchedAt(f.ctx, int(ins.Int), offset))
			pc++
		case bytecode.OpPatternMatchIn:
			high := f.operand.Pop()
			low := f.operand.Pop()
			f.operand.Push(host.PatternMatchedIn(f.ctx, int(ins.Int), low, high))
			pc++
		case bytecode.OpPatternCount:
			f.operand.Push(host.PatternCount(f.ctx, int(ins.Int)))
			pc++
		case bytecode.OpRuleRef:
			f.operand.Push(types.BoolValue(f.ctx.RuleResults[ins.Int]))
			pc++

		case bytecode.OpRuleMatch:
			result := f.operand.Pop()
			matched = result.Known && result.BoolVal
			pc++
		case bytecode.OpReturn:
			return matched

		default:
			panic(fmt.Sprintf("vm: unhandled opcode %s", ins.Op))
		}
	}
}

// call pops argCount operands (in push order) and dispatches to the
// linker-registered primitive or module overload named name.
func (f *frame) call(name string, argCount int) {
	args := make([]types.Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		args[i] = f.operand.Pop()
	}
	result, ok := f.linker.Call(f.ctx, name, args)
	if !ok {
		panic("vm: no host function registered for " + name)
	}
	f.operand.Push(result)
}

// lookup resolves a dotted-access path by repeated struct-field indexing
// (see the package doc comment: values already carry their own struct
// payload, so no host round trip is needed per field).
func (f *frame) lookup(l bytecode.LookupArg) {
	var cur *types.StructInstance
	switch {
	case l.FromSlot == bytecode.LookupFromModule:
		cur = f.ctx.ModuleInstance(l.Module)
	case l.FromSlot == bytecode.LookupFromStack:
		base := f.operand.Pop()
		cur = base.StructVal
	default:
		cur = f.loopVars[l.FromSlot].StructVal
	}

	var result types.Value
	for i, idx := range l.Path {
		if cur == nil {
			result = types.Value{}
			break
		}
		result = cur.Field(idx)
		if i < len(l.Path)-1 {
			cur = result.StructVal
		}
	}
	f.operand.Push(result)
}
