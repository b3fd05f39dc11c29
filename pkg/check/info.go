// Package check implements the semantic checker (spec.md §4.4): bottom-up
// expression typing, identifier/dotted-access resolution against the
// module registry and symbol table, quantifier/loop checking, overload
// resolution, and the checker-level diagnostics (duplicates, unused
// strings, unknown imports, non-Boolean condition).
//
// It is grounded in go-corset's pkg/corset semantic-analysis passes
// (scope.go/environment.go's stacked-scope resolution, resolver.go's
// bottom-up expression typing writing results into a side table rather
// than mutating the AST) and pkg/schema/register.go's RegisterMap for the
// struct-field lookups module data resolution needs.
//
// Implicit casts (spec.md §4.4 "Cast at condition root", and int/float/
// string-to-bool coercion of and/or/not/of/for operands) are realized by
// splicing an *ast.CastExpr directly into the tree in place of the node
// that needed coercing, rather than recorded as a side annotation — the
// AST already has a node for exactly this (ast.CastExpr.Implicit), and a
// spliced-in cast means codegen never needs to consult the checker to know
// a cast is there.
package check

import (
	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/symbols"
	"github.com/metthal/yara-x/pkg/types"
)

// Place describes where an expression's value ultimately comes from, once
// identifier resolution and dotted-access accumulation are done. It is the
// checker's output for every Ident/FieldAccess node that resolves
// to a storage location rather than a computed value.
type Place struct {
	// IsRule marks a bare identifier naming another rule, used as a
	// Boolean sub-condition (spec.md §4.4 "Rule references").
	IsRule bool
	Rule   symbols.RuleId

	// IsLoopVar marks a bare identifier naming a bound loop variable with
	// no further field access.
	IsLoopVar bool
	LoopVar   symbols.VarIndex

	// Lookup is set when the place requires a dotted-access walk, either
	// from a module's root instance, a loop variable bound to a struct, or
	// (when Lookup.FromSlot == LookupFromStack) a computed struct value
	// that isn't itself a static path — e.g. indexing into an array of
	// structs before taking a field. In the FromStack case Base is the
	// expression whose value OpLookup should be applied to; codegen emits
	// Base once and then walks the accumulated Path on top of it.
	Lookup *bytecode.LookupArg
	Base   ast.Expr
}

// CallInfo is the checker's resolution of a CallExpr to one concrete
// overload (spec.md §4.4 "Calls").
type CallInfo struct {
	Module     string
	FuncName   string
	Mangled    string
	SigIndex   int
	ReturnType types.Type
}

// ExprInfo is the checker's per-node annotation, looked up by codegen via
// Result.Info keyed by the Expr node's identity (every ast.Expr
// implementation is always handled through a pointer, so interface
// equality here is pointer equality).
type ExprInfo struct {
	Type types.Type

	// Place is set for Ident/FieldAccess nodes that name a location rather
	// than compute a fresh value; IndexExpr nodes never carry one.
	Place *Place

	// Call is set for CallExpr nodes once overload resolution succeeds.
	Call *CallInfo
}

// Result is everything the checker produces for one Rule: its condition's
// resolved place/type/call annotations, and the set of pattern
// declarations never referenced from the condition (spec.md §4.4 "Unused
// pattern identifier").
type Result struct {
	Rule           *ast.Rule
	Info           map[ast.Expr]*ExprInfo
	UnusedPatterns []*ast.Pattern
}

func newResult(rule *ast.Rule) *Result {
	return &Result{Rule: rule, Info: make(map[ast.Expr]*ExprInfo)}
}
