// Package host implements the scan-time host ABI the VM calls through
// (spec.md §4.6): the scanned-buffer readers, module function dispatch, and
// the per-scan context (buffer, resolved module instances, matching-rule
// bitmap) those primitives read from.
//
// The registration mechanism is name-indexed, mirroring both pkg/modules'
// database/sql-driver self-registration idiom and go-corset's
// pkg/zkc/vm/fun named function table; unlike go-corset's register-width
// calling convention, a HostFunc here just takes/returns pkg/types.Value
// directly, since this VM's values are never packed into fixed-width words.
package host

import (
	"github.com/metthal/yara-x/pkg/modules"
	"github.com/metthal/yara-x/pkg/modules/mod/mathmod"
	"github.com/metthal/yara-x/pkg/types"
)

// ScanContext bundles everything a single scan's host-primitive calls need:
// the scanned buffer, the two VM globals no module can compute
// (filesize/entrypoint), lazily-resolved module instances, and the
// matching-rule bitmap OpRuleRef reads from (spec.md §4.4 "Rule
// references").
type ScanContext struct {
	Data []byte

	// Filesize is always a known Integer (spec.md §4.5 "Globals").
	Filesize types.Value
	// Entrypoint is unknown unless some imported module computes one; none
	// of the illustrative modules in this repository do (spec.md §9 Open
	// Questions — no PE/ELF module is in scope), so every rule referencing
	// `entrypoint` observes undefined-value propagation in practice.
	Entrypoint types.Value

	resolved map[string]*types.StructInstance
	// RuleResults records, per rule id in evaluation order, whether that
	// rule matched. Populated by the VM as it evaluates each rule in turn;
	// OpRuleRef reads an already-populated entry, since a rule can only
	// reference a rule declared (and hence evaluated) earlier (spec.md §4.4).
	RuleResults []bool
}

// NewScanContext builds a ScanContext for scanning data against ruleCount
// rules.
func NewScanContext(data []byte, ruleCount int) *ScanContext {
	return &ScanContext{
		Data:        data,
		Filesize:    types.IntValue(int64(len(data))),
		Entrypoint:  types.Value{Type: types.Integer},
		resolved:    make(map[string]*types.StructInstance),
		RuleResults: make([]bool, ruleCount),
	}
}

// ModuleInstance returns the named module's root struct instance for this
// scan, running its MainFunc at most once and caching the result (including
// a decline, cached as nil) for the remainder of the scan.
func (ctx *ScanContext) ModuleInstance(name string) *types.StructInstance {
	if inst, cached := ctx.resolved[name]; cached {
		return inst
	}
	mod, ok := modules.Lookup(name)
	if !ok || mod.Main == nil {
		ctx.resolved[name] = nil
		return nil
	}
	inst, ok := mod.Main(ctx.Data)
	if !ok {
		inst = nil
	}
	ctx.resolved[name] = inst
	return inst
}

// HostFunc implements one host primitive or module function overload.
type HostFunc func(ctx *ScanContext, args []types.Value) types.Value

// Linker is a name-indexed table (one per NewLinker call) OpCallHost/OpCallModule
// dispatch through: built-in primitives register under their bare name
// (e.g. "uint32be"), module function overloads register under their
// mangled name (spec.md §6), same key codegen already baked into the
// instruction stream.
type Linker struct {
	funcs map[string]HostFunc
}

// NewLinker builds a Linker with every built-in primitive and illustrative
// module function this repository ships registered.
func NewLinker() *Linker {
	l := &Linker{funcs: make(map[string]HostFunc)}
	registerUintReaders(l)
	registerMathModule(l)
	return l
}

// Register adds fn under name, overwriting any previous registration. Used
// by tests to stub primitives and by registerMathModule/registerUintReaders
// below.
func (l *Linker) Register(name string, fn HostFunc) {
	l.funcs[name] = fn
}

// Call dispatches to the function registered under name, if any.
func (l *Linker) Call(ctx *ScanContext, name string, args []types.Value) (types.Value, bool) {
	fn, ok := l.funcs[name]
	if !ok {
		return types.Value{}, false
	}
	return fn(ctx, args), true
}

// registerUintReaders wires the uint8/16/32/64[be] scanned-data readers
// (spec.md §4.6), the builtinHostFuncs pkg/check resolves by bare name.
func registerUintReaders(l *Linker) {
	sizes := []struct {
		name string
		size int
		be   bool
	}{
		{"uint8", 1, false}, {"uint16", 2, false}, {"uint32", 4, false}, {"uint64", 8, false},
		{"uint8be", 1, true}, {"uint16be", 2, true}, {"uint32be", 4, true}, {"uint64be", 8, true},
	}
	for _, s := range sizes {
		size, be := s.size, s.be
		l.Register(s.name, func(ctx *ScanContext, args []types.Value) types.Value {
			return readUint(ctx, args[0], size, be)
		})
	}
}

// readUint resolves an undefined result (spec.md §4.6) for a negative or
// out-of-bounds offset, or an already-undefined offset operand, rather than
// panicking: a read past the end of the scanned buffer is routine (e.g.
// probing a header field in a truncated file) and must flow through as a
// well-typed undefined Integer, not an error.
func readUint(ctx *ScanContext, offset types.Value, size int, be bool) types.Value {
	if !offset.Known || offset.IntVal < 0 {
		return types.Value{Type: types.Integer}
	}
	start := offset.IntVal
	if start+int64(size) > int64(len(ctx.Data)) {
		return types.Value{Type: types.Integer}
	}
	b := ctx.Data[start : start+int64(size)]
	var v uint64
	if be {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
	} else {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	}
	return types.IntValue(int64(v))
}

// registerMathModule wires mathmod's exported overloads by their mangled
// name (spec.md §6): the module descriptor only carries the signature, not
// the Go function, so host-side dispatch is the one place that links a
// mangled name back to mathmod.AbsInt/AbsFloat.
func registerMathModule(l *Linker) {
	l.Register(types.MangleName("math", "abs", []types.Type{types.Integer}, types.Integer),
		func(_ *ScanContext, args []types.Value) types.Value {
			if !args[0].Known {
				return types.Value{Type: types.Integer}
			}
			return types.IntValue(mathmod.AbsInt(args[0].IntVal))
		})
	l.Register(types.MangleName("math", "abs", []types.Type{types.Float}, types.Float),
		func(_ *ScanContext, args []types.Value) types.Value {
			if !args[0].Known {
				return types.Value{Type: types.Float}
			}
			return types.FloatValue(mathmod.AbsFloat(args[0].FloatVal))
		})
}
