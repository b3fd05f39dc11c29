package bytecode

import "fmt"

// StrOp enumerates the string operators dispatched through OpStrOp to the
// str_* host primitives (spec.md §4.6).
type StrOp int

// String operator kinds.
const (
	StrEq StrOp = iota
	StrNe
	StrLt
	StrLe
	StrGt
	StrGe
	StrContains
	StrIContains
	StrStartsWith
	StrIStartsWith
	StrEndsWith
	StrIEndsWith
	StrIEquals
	StrMatches
)

var strOpNames = [...]string{
	"eq", "ne", "lt", "le", "gt", "ge",
	"contains", "icontains", "startswith", "istartswith",
	"endswith", "iendswith", "iequals", "matches",
}

func (s StrOp) String() string {
	if int(s) < len(strOpNames) {
		return strOpNames[s]
	}
	return "str.op?"
}

// LookupArg is the operand of OpLookup: the accumulated dotted-access field
// index path and where it starts (spec.md §4.5 "Field lookup"). Unlike the
// wasm-hosted original, where the lookup primitive resolves the path
// against host-side memory it cannot see into directly, this VM's values
// already carry their struct/array/map payload (pkg/types.Value), so a
// lookup is just repeated Value.StructVal.Field(idx) — see pkg/vm's doc
// comment for the full rationale.
type LookupArg struct {
	Path []int
	// FromSlot is the loop slot the path starts from, LookupFromModule to
	// start from the named module's root instance, or LookupFromStack to
	// apply Path to the struct value already on top of the operand stack
	// (the case codegen uses when the path's root is itself a computed
	// value — e.g. indexing into an array of structs before a field
	// access — rather than a module or a loop variable).
	FromSlot int
	// Module names the root module when FromSlot is LookupFromModule.
	Module string
}

// FromSlot sentinels. Any non-negative value is a loop-variable slot index.
const (
	LookupFromModule = -1
	LookupFromStack  = -2
)

// Instruction is one bytecode op plus its (at most one) typed operand.
// Exactly one of the Xxx fields is meaningful, selected by Op; this mirrors
// go-corset's per-kind instruction structs (pkg/zkc/vm/instruction/add.go,
// goto.go) collapsed into a single tagged struct since this machine's
// operand shapes are much more uniform (one scalar or one small struct,
// never a variable-length register list).
type Instruction struct {
	Op        Op
	Int       int64     // PushInt, slot/rule/pattern ids, jump targets
	Float     float64   // PushFloat
	Bool      bool      // PushBool
	Str       string    // CallHost/CallModule primitive name
	StrOpKind StrOp     // StrOp
	Lookup    LookupArg // Lookup
	ArgCount  int       // CallHost/CallModule argument count
}

// String renders a human-readable disassembly line, grounded in
// go-corset's Instruction.String(env) convention.
func (ins Instruction) String() string {
	switch ins.Op {
	case OpPushInt, OpLoadLoopVar, OpStoreLoopVar, OpJmp, OpJmpIfTrue, OpAndBranch, OpOrBranch,
		OpRuleMatch, OpRuleRef, OpPatternMatch, OpPatternMatchAt,
		OpPatternMatchIn, OpPatternCount:
		return fmt.Sprintf("%s %d", ins.Op, ins.Int)
	case OpPushFloat:
		return fmt.Sprintf("%s %g", ins.Op, ins.Float)
	case OpPushBool:
		return fmt.Sprintf("%s %t", ins.Op, ins.Bool)
	case OpPushString:
		return fmt.Sprintf("%s #%d", ins.Op, ins.Int)
	case OpStrOp:
		return fmt.Sprintf("%s.%s", ins.Op, ins.StrOpKind)
	case OpCallHost, OpCallModule:
		return fmt.Sprintf("%s %s/%d", ins.Op, ins.Str, ins.ArgCount)
	case OpLookup:
		return fmt.Sprintf("%s from=%d module=%s path=%v", ins.Op, ins.Lookup.FromSlot, ins.Lookup.Module, ins.Lookup.Path)
	default:
		return ins.Op.String()
	}
}

// Program is a single compiled unit: a flat instruction sequence plus the
// per-rule entry points codegen records (spec.md §4.7 "finalizes the
// bytecode").
type Program struct {
	Instructions []Instruction
	// RuleEntries maps each rule's index in the rules vector to the
	// instruction index where its condition evaluation begins.
	RuleEntries []int
	// Literals is the deduplicated byte-string literal pool (spec.md §3
	// "Identifier pool" sibling, carrying string/regex literal bodies
	// rather than identifiers): OpPushString's Int operand indexes into
	// this slice rather than carrying the bytes inline.
	Literals [][]byte
}

// Literal resolves a pool index set by codegen into its byte-string
// literal.
func (p *Program) Literal(id int64) []byte { return p.Literals[id] }

// Emit appends ins and returns its index, for later jump-target patching.
func (p *Program) Emit(ins Instruction) int {
	p.Instructions = append(p.Instructions, ins)
	return len(p.Instructions) - 1
}

// Patch overwrites the jump-target operand of the instruction at idx.
func (p *Program) Patch(idx int, target int) {
	p.Instructions[idx].Int = int64(target)
}

// Here returns the index the next Emit call will use, i.e. the current end
// of the instruction stream.
func (p *Program) Here() int { return len(p.Instructions) }
