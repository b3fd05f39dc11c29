package vm

import (
	"testing"

	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/host"
	_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"
	"github.com/metthal/yara-x/pkg/types"
)

// run builds a one-rule program out of ins (terminated by the caller with
// OpRuleMatch/OpReturn) and executes it against data, returning whether the
// rule matched.
func run(t *testing.T, data []byte, ins ...bytecode.Instruction) bool {
	t.Helper()
	prog := &bytecode.Program{RuleEntries: []int{0}}
	for _, i := range ins {
		prog.Emit(i)
	}
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})

	ctx := host.NewScanContext(data, 1)
	m := New(prog, host.NewLinker())
	matched := m.Execute(ctx)
	return len(matched) == 1
}

func TestTrivialTrueRuleMatches(t *testing.T) {
	ok := run(t, nil, bytecode.Instruction{Op: bytecode.OpPushBool, Bool: true})
	if !ok {
		t.Fatal("expected rule to match")
	}
}

func TestTrivialFalseRuleDoesNotMatch(t *testing.T) {
	ok := run(t, nil, bytecode.Instruction{Op: bytecode.OpPushBool, Bool: false})
	if ok {
		t.Fatal("expected rule not to match")
	}
}

func TestFilesizeIsAlwaysKnown(t *testing.T) {
	// condition: filesize == 3
	ok := run(t, []byte("abc"),
		bytecode.Instruction{Op: bytecode.OpFilesize},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 3},
		bytecode.Instruction{Op: bytecode.OpCmpEq},
	)
	if !ok {
		t.Fatal("expected filesize == 3 to match on a 3-byte buffer")
	}
}

func TestUndefinedPropagationThroughReadPastEnd(t *testing.T) {
	// condition: uint32(0) == 0, where the buffer is only 2 bytes long, so
	// the read is undefined and the comparison must be undefined too
	// (never a defined false).
	ok := run(t, []byte{0x01, 0x02},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpCallHost, Str: "uint32", ArgCount: 1},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpCmpEq},
	)
	if ok {
		t.Fatal("expected undefined read to never produce a defined-true comparison")
	}
}

func TestShortCircuitAndSkipsRightOperand(t *testing.T) {
	// condition: false and boom(0), where the left operand is a defined
	// false: OpAndBranch must branch straight to the false result without
	// ever executing the CallHost that would otherwise panic (no host
	// function named "boom" is registered).
	falseLbl := 0
	var ins []bytecode.Instruction
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpPushBool, Bool: false})
	branchIdx := len(ins)
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpAndBranch}) // patched below
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0})
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpCallHost, Str: "boom", ArgCount: 1})
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpAndCombine})
	jmpEnd := len(ins)
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpJmp})
	falseLbl = len(ins)
	ins = append(ins, bytecode.Instruction{Op: bytecode.OpPushBool, Bool: false})
	endLbl := len(ins)

	prog := &bytecode.Program{RuleEntries: []int{0}}
	for _, i := range ins {
		prog.Emit(i)
	}
	prog.Patch(branchIdx, falseLbl)
	prog.Patch(jmpEnd, endLbl)
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})

	ctx := host.NewScanContext(nil, 1)
	m := New(prog, host.NewLinker())
	matched := m.Execute(ctx)
	if len(matched) != 0 {
		t.Fatal("expected short-circuited and to be false, not to panic or match")
	}
}

func TestModuleFieldLookupUndefinedWhenModuleDeclines(t *testing.T) {
	// demo is not registered in pkg/modules, so ModuleInstance returns nil
	// and the field lookup must be undefined rather than panicking.
	prog := &bytecode.Program{RuleEntries: []int{0}}
	prog.Emit(bytecode.Instruction{Op: bytecode.OpLookup, Lookup: bytecode.LookupArg{
		FromSlot: bytecode.LookupFromModule, Module: "demo", Path: []int{0},
	}})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpPushInt, Int: 42})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpCmpEq})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})

	ctx := host.NewScanContext(nil, 1)
	m := New(prog, host.NewLinker())
	matched := m.Execute(ctx)
	if len(matched) != 0 {
		t.Fatal("expected lookup against an unregistered module to be undefined, not matching")
	}
}

func TestDottedModuleFieldLookupResolvesRealModule(t *testing.T) {
	// condition: math.pi > 3.14159 — exercises the real mathmod module
	// registration end to end (import, root struct, field index 1).
	prog := &bytecode.Program{RuleEntries: []int{0}}
	prog.Emit(bytecode.Instruction{Op: bytecode.OpLookup, Lookup: bytecode.LookupArg{
		FromSlot: bytecode.LookupFromModule, Module: "math", Path: []int{1},
	}})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpPushFloat, Float: 3.14159})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpCmpGt})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})

	ctx := host.NewScanContext(nil, 1)
	m := New(prog, host.NewLinker())
	matched := m.Execute(ctx)
	if len(matched) != 1 {
		t.Fatal("expected math.pi > 3.14159 to match")
	}
}

func TestStackBasedLookupWalksStructField(t *testing.T) {
	structType := types.NewStructBuilder("demo").AddField("size", types.Integer)
	inst := &types.StructInstance{Type: structType, Values: []types.Value{types.IntValue(42)}}

	f := &frame{
		prog:     &bytecode.Program{},
		linker:   host.NewLinker(),
		ctx:      host.NewScanContext(nil, 0),
		loopVars: make(map[int]types.Value),
	}
	f.operand.Push(types.Value{Type: types.NewStructType(structType), Known: true, StructVal: inst})
	f.lookup(bytecode.LookupArg{FromSlot: bytecode.LookupFromStack, Path: []int{0}})

	got := f.operand.Pop()
	if !got.Known || got.IntVal != 42 {
		t.Fatalf("expected size field to resolve to 42, got %+v", got)
	}
}

func TestRuleRefReadsEarlierRuleResult(t *testing.T) {
	prog := &bytecode.Program{}
	// Rule 0: true.
	r0 := prog.Emit(bytecode.Instruction{Op: bytecode.OpPushBool, Bool: true})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})
	// Rule 1: references rule 0.
	r1 := prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleRef, Int: 0})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpRuleMatch})
	prog.Emit(bytecode.Instruction{Op: bytecode.OpReturn})
	prog.RuleEntries = []int{r0, r1}

	ctx := host.NewScanContext(nil, 2)
	m := New(prog, host.NewLinker())
	matched := m.Execute(ctx)
	if len(matched) != 2 {
		t.Fatalf("expected both rules to match, got %v", matched)
	}
}

func TestDivisionByZeroIsUndefinedNotPanic(t *testing.T) {
	ok := run(t, nil,
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 10},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpDiv},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpCmpEq},
	)
	if ok {
		t.Fatal("expected 10/0 == 0 to be undefined, not a defined-true match")
	}
}

func TestNegativeShiftCountIsUndefined(t *testing.T) {
	ok := run(t, nil,
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 1},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: -1},
		bytecode.Instruction{Op: bytecode.OpShl},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpCmpEq},
	)
	if ok {
		t.Fatal("expected 1 << -1 to be undefined, not a defined 0")
	}

	ok = run(t, nil,
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 1},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: -1},
		bytecode.Instruction{Op: bytecode.OpShr},
		bytecode.Instruction{Op: bytecode.OpPushInt, Int: 0},
		bytecode.Instruction{Op: bytecode.OpCmpEq},
	)
	if ok {
		t.Fatal("expected 1 >> -1 to be undefined, not a defined 0")
	}
}

func TestLenAndIndexOverArray(t *testing.T) {
	arr := types.Value{
		Type:     types.NewArrayType(types.Integer),
		Known:    true,
		ArrayVal: &types.ArrayInstance{Elem: types.Integer, Items: []types.Value{types.IntValue(7), types.IntValue(8)}},
	}
	if got := lengthOf(arr); !got.Known || got.IntVal != 2 {
		t.Fatalf("expected length 2, got %+v", got)
	}
	if got := indexInto(arr, types.IntValue(1)); !got.Known || got.IntVal != 8 {
		t.Fatalf("expected arr[1] == 8, got %+v", got)
	}
	if got := indexInto(arr, types.IntValue(5)); got.Known {
		t.Fatalf("expected out-of-range index to be undefined, got %+v", got)
	}
}
