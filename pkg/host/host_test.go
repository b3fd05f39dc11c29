package host

import (
	"testing"

	"github.com/metthal/yara-x/pkg/bytecode"
	_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"
	"github.com/metthal/yara-x/pkg/types"
)

func TestFilesizeMatchesBufferLength(t *testing.T) {
	ctx := NewScanContext([]byte("hello"), 0)
	if !ctx.Filesize.Known || ctx.Filesize.IntVal != 5 {
		t.Fatalf("expected filesize 5, got %+v", ctx.Filesize)
	}
}

func TestEntrypointIsAlwaysUnknown(t *testing.T) {
	ctx := NewScanContext([]byte("hello"), 0)
	if ctx.Entrypoint.Known {
		t.Fatal("expected entrypoint to always be undefined (no PE/ELF module implemented)")
	}
}

func TestUint32ReaderLittleEndian(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext([]byte{0x78, 0x56, 0x34, 0x12}, 0)
	got, ok := linker.Call(ctx, "uint32", []types.Value{types.IntValue(0)})
	if !ok {
		t.Fatal("expected uint32 to be registered")
	}
	if !got.Known || got.IntVal != 0x12345678 {
		t.Fatalf("expected 0x12345678, got %+v", got)
	}
}

func TestUint16beReaderBigEndian(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext([]byte{0x12, 0x34}, 0)
	got, ok := linker.Call(ctx, "uint16be", []types.Value{types.IntValue(0)})
	if !ok {
		t.Fatal("expected uint16be to be registered")
	}
	if !got.Known || got.IntVal != 0x1234 {
		t.Fatalf("expected 0x1234, got %+v", got)
	}
}

func TestUintReaderPastEndOfBufferIsUndefined(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext([]byte{0x01, 0x02}, 0)
	got, ok := linker.Call(ctx, "uint32", []types.Value{types.IntValue(0)})
	if !ok {
		t.Fatal("expected uint32 to be registered")
	}
	if got.Known {
		t.Fatalf("expected a read past the end of the buffer to be undefined, got %+v", got)
	}
}

func TestUintReaderNegativeOffsetIsUndefined(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext([]byte{0x01, 0x02, 0x03, 0x04}, 0)
	got, ok := linker.Call(ctx, "uint32", []types.Value{types.IntValue(-1)})
	if !ok {
		t.Fatal("expected uint32 to be registered")
	}
	if got.Known {
		t.Fatalf("expected a negative offset to be undefined, got %+v", got)
	}
}

func TestMathAbsIntOverload(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext(nil, 0)
	name := types.MangleName("math", "abs", []types.Type{types.Integer}, types.Integer)
	got, ok := linker.Call(ctx, name, []types.Value{types.IntValue(-7)})
	if !ok {
		t.Fatal("expected math.abs@i@i to be registered")
	}
	if !got.Known || got.IntVal != 7 {
		t.Fatalf("expected abs(-7) == 7, got %+v", got)
	}
}

func TestMathAbsFloatOverload(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext(nil, 0)
	name := types.MangleName("math", "abs", []types.Type{types.Float}, types.Float)
	got, ok := linker.Call(ctx, name, []types.Value{types.FloatValue(-2.5)})
	if !ok {
		t.Fatal("expected math.abs@f@f to be registered")
	}
	if !got.Known || got.FloatVal != 2.5 {
		t.Fatalf("expected abs(-2.5) == 2.5, got %+v", got)
	}
}

func TestUnregisteredHostFunctionReportsNotOk(t *testing.T) {
	linker := NewLinker()
	ctx := NewScanContext(nil, 0)
	if _, ok := linker.Call(ctx, "no_such_function", nil); ok {
		t.Fatal("expected Call to report ok=false for an unregistered name")
	}
}

func TestModuleInstanceCachedPerScan(t *testing.T) {
	ctx := NewScanContext(nil, 0)
	first := ctx.ModuleInstance("math")
	second := ctx.ModuleInstance("math")
	if first == nil || first != second {
		t.Fatal("expected the same *StructInstance to be returned and cached across calls within one scan")
	}
}

func TestModuleInstanceUnknownModuleReturnsNil(t *testing.T) {
	ctx := NewScanContext(nil, 0)
	if inst := ctx.ModuleInstance("not_a_real_module"); inst != nil {
		t.Fatal("expected an unregistered module name to resolve to nil")
	}
}

func TestStringOpContainsAndIContains(t *testing.T) {
	a := types.StringValue([]byte("HelloWorld"))
	b := types.StringValue([]byte("world"))
	if StringOp(bytecode.StrContains, a, b).BoolVal {
		t.Fatal("expected case-sensitive contains to fail")
	}
	if !StringOp(bytecode.StrIContains, a, b).BoolVal {
		t.Fatal("expected case-insensitive contains to succeed")
	}
}

func TestStringOpUndefinedWhenEitherOperandUnknown(t *testing.T) {
	known := types.StringValue([]byte("abc"))
	unknown := types.Value{Type: types.String}
	got := StringOp(bytecode.StrEq, known, unknown)
	if got.Known {
		t.Fatalf("expected undefined result when an operand is undefined, got %+v", got)
	}
}

func TestStringOpMatchesRegex(t *testing.T) {
	a := types.StringValue([]byte("file123.txt"))
	b := types.StringValue([]byte(`\d+\.txt$`))
	if !StringOp(bytecode.StrMatches, a, b).BoolVal {
		t.Fatal("expected the regex to match")
	}
}

func TestPatternPrimitivesAreStubbedNoMatch(t *testing.T) {
	if PatternMatched(nil, 0).BoolVal {
		t.Fatal("expected PatternMatched to always report false")
	}
	if PatternCount(nil, 0).IntVal != 0 {
		t.Fatal("expected PatternCount to always report 0")
	}
	if PatternMatchedAt(nil, 0, types.IntValue(10)).BoolVal {
		t.Fatal("expected PatternMatchedAt to report false for a known offset")
	}
	undef := PatternMatchedAt(nil, 0, types.Value{Type: types.Integer})
	if undef.Known {
		t.Fatal("expected PatternMatchedAt to propagate an undefined offset")
	}
}
