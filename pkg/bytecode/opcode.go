// Package bytecode defines the stack-machine instruction set codegen emits
// and the VM interprets (spec.md §4.5). It is grounded in go-corset's
// pkg/zkc/vm/instruction package (an Instruction abstraction with a human
// readable String() form), adapted from that package's register-machine
// instructions to a stack machine: operands here are encoded directly on
// each Instruction rather than referencing register IDs.
package bytecode

// Op identifies one VM instruction.
type Op int

// The closed instruction set. Arithmetic/bitwise/comparison ops pop two
// stack values and push a (value, undef) pair (spec.md §4.5 "Undefined
// propagation"); control-flow ops branch on a flag computed by the
// preceding instruction.
const (
	OpNop Op = iota

	// Stack / constants.
	OpPushBool
	OpPushInt
	OpPushFloat
	OpPushString // operand: literal pool id
	OpPushUnknown
	OpPop
	OpDup

	// Arithmetic (int or float, promotion handled by codegen emitting
	// OpToFloat where needed).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// Bitwise (ints only).
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr

	// Comparison; result is a bool.
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe

	// String operators (spec.md §4.6): operand is an StrOp case/variant id.
	OpStrOp

	// Logical.
	OpNot

	// Casts.
	OpToBool
	OpToFloat
	// OpBoolToInt pops a Bool and pushes 1 for a defined true, 0 for a
	// defined false or an undefined operand — the quantifier/for-loop
	// match-counter building block (an undefined per-iteration condition
	// simply doesn't count as a match rather than making the whole count
	// undefined).
	OpBoolToInt

	// Control flow. Jump targets are instruction indices, patched by the
	// emitter once both branch ends are known. OpJmpIfTrue pops a Bool
	// value and branches when it is a defined true (an undefined or false
	// operand falls through); this is the one plain conditional-jump
	// primitive the instruction set needs once and/or get their own
	// dedicated short-circuit pair below — used by for-loop exit tests and
	// nowhere else.
	OpJmp
	OpJmpIfTrue

	// Short-circuit and/or (spec.md §4.5 "Short-circuit", §4.4 "Logical
	// and/or/not"). OpAndBranch peeks the left operand: if it is a
	// defined false, it pops it, jumps to the false-result block and the
	// whole expression is false without evaluating the right operand;
	// otherwise it leaves the left operand on the stack and falls through
	// to evaluate the right operand, after which OpAndCombine pops both
	// and applies and(left, right) including the undef/false rule (an
	// undefined left is false only if right is a defined false, else
	// undefined). OpOrBranch/OpOrCombine are the symmetric pair for or.
	OpAndBranch
	OpAndCombine
	OpOrBranch
	OpOrCombine

	// Loop variable slots (spec.md §5 "new_var"/"free_vars" stack
	// discipline; spec.md §4.5 memory layout [0,1024)).
	OpLoadLoopVar  // operand: slot index
	OpStoreLoopVar // operand: slot index

	// Field lookup (spec.md §4.5 "Field lookup"): operand carries the
	// accumulated field-index path and where to start walking it — a loop
	// slot, a named module's root instance, or the value already on top of
	// the stack (bytecode.LookupFromModule/LookupFromStack).
	OpLookup

	// Array/map indexing and length (spec.md §4.6 array_len/map_len/
	// array_lookup_*/map_lookup_*, collapsed to two generic ops since this
	// VM's values are dynamically typed at runtime — see pkg/vm package
	// doc for why the lookup_*/array_lookup_*/map_lookup_* primitive
	// fan-out by static result kind doesn't carry over).
	OpLen   // pop container, push (len, undef)
	OpIndex // pop index, pop container, push indexed element

	// Host/module calls.
	OpCallHost   // operand: host primitive name
	OpCallModule // operand: mangled function name

	// Scan-context reads.
	OpFilesize
	OpEntrypoint
	OpPatternMatch   // $id — operand: pattern id
	OpPatternMatchAt // $id at expr — operand: pattern id
	OpPatternMatchIn // $id in range — operand: pattern id
	OpPatternCount   // #id — operand: pattern id
	// OpRuleRef pushes the matching-rule bitmap bit for a rule referenced
	// by identifier from another rule's condition (spec.md §4.4 "Rule
	// references"): operand is the referenced rule's id.
	OpRuleRef

	// Rule emission terminal (spec.md §4.5 "Rule emission").
	OpRuleMatch // operand: rule id

	OpReturn
)

var opNames = map[Op]string{
	OpNop: "nop", OpPushBool: "push.b", OpPushInt: "push.i", OpPushFloat: "push.f",
	OpPushString: "push.s", OpPushUnknown: "push.unknown", OpPop: "pop", OpDup: "dup",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod", OpNeg: "neg",
	OpBitAnd: "and", OpBitOr: "or", OpBitXor: "xor", OpBitNot: "not.bit", OpShl: "shl", OpShr: "shr",
	OpCmpEq: "cmp.eq", OpCmpNe: "cmp.ne", OpCmpLt: "cmp.lt", OpCmpLe: "cmp.le", OpCmpGt: "cmp.gt", OpCmpGe: "cmp.ge",
	OpStrOp: "str.op", OpNot: "not", OpToBool: "to.bool", OpToFloat: "to.float", OpBoolToInt: "to.int",
	OpJmp: "jmp", OpJmpIfTrue: "jmp.if", OpAndBranch: "and.branch", OpAndCombine: "and.combine",
	OpOrBranch: "or.branch", OpOrCombine: "or.combine",
	OpLoadLoopVar: "load.loopvar", OpStoreLoopVar: "store.loopvar", OpLookup: "lookup",
	OpLen: "len", OpIndex: "index",
	OpCallHost: "call.host", OpCallModule: "call.module",
	OpFilesize: "filesize", OpEntrypoint: "entrypoint",
	OpPatternMatch: "pat.match", OpPatternMatchAt: "pat.match.at", OpPatternMatchIn: "pat.match.in", OpPatternCount: "pat.count",
	OpRuleRef:  "rule.ref",
	OpRuleMatch: "rule.match", OpReturn: "return",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "op?"
}
