// Package symbols implements the stacked symbol table used to resolve
// identifiers during semantic checking (spec.md §3, §4.4): rule names,
// module/loop-bound struct fields, loop variables and functions.
package symbols

import "github.com/metthal/yara-x/pkg/types"

// RuleId indexes a rule within the compiled rules vector.
type RuleId uint32

// VarIndex identifies a loop-variable slot allocated in VM memory
// (spec.md §4.5, §9).
type VarIndex uint32

// Kind discriminates what a Symbol resolves to.
type Kind int

// The symbol kinds from spec.md §3.
const (
	KindRule Kind = iota
	KindFieldIndex
	KindLoopVar
	KindFunc
)

// Symbol carries a value type and a kind: which of Rule/FieldIndex/LoopVar/
// Func the identifier resolves to, plus the payload needed by codegen.
type Symbol struct {
	Name string
	Type types.Type
	Kind Kind

	// Rule is populated when Kind == KindRule.
	Rule RuleId
	// FieldIndex is populated when Kind == KindFieldIndex: the field's
	// stable index within its enclosing struct.
	FieldIndex int
	// LoopVar is populated when Kind == KindLoopVar.
	LoopVar VarIndex
	// Func is populated when Kind == KindFunc.
	Func *types.FuncType
}

// NewRuleSymbol constructs a Symbol for a rule identifier (always Bool).
func NewRuleSymbol(name string, id RuleId) Symbol {
	return Symbol{Name: name, Type: types.Bool, Kind: KindRule, Rule: id}
}

// NewFieldSymbol constructs a Symbol for a struct field.
func NewFieldSymbol(name string, index int, typ types.Type) Symbol {
	return Symbol{Name: name, Type: typ, Kind: KindFieldIndex, FieldIndex: index}
}

// NewLoopVarSymbol constructs a Symbol for a for-loop-bound variable.
func NewLoopVarSymbol(name string, slot VarIndex, typ types.Type) Symbol {
	return Symbol{Name: name, Type: typ, Kind: KindLoopVar, LoopVar: slot}
}

// NewFuncSymbol constructs a Symbol for a callable.
func NewFuncSymbol(name string, fn *types.FuncType) Symbol {
	return Symbol{Name: name, Type: types.NewFuncType(fn), Kind: KindFunc, Func: fn}
}
