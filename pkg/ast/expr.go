package ast

import "github.com/metthal/yara-x/pkg/source"

// Expr is the family of expression node kinds named in spec.md §4.2:
// literal | identifier | field-access | index | call | unary | binary | of
// | for | range | cast.
type Expr interface {
	Node
	exprNode()
}

func (LiteralExpr) exprNode()    {}
func (Ident) exprNode()          {}
func (FieldAccess) exprNode()    {}
func (IndexExpr) exprNode()      {}
func (CallExpr) exprNode()       {}
func (UnaryExpr) exprNode()      {}
func (BinaryExpr) exprNode()     {}
func (OfExpr) exprNode()         {}
func (ForExpr) exprNode()        {}
func (RangeExpr) exprNode()      {}
func (CastExpr) exprNode()       {}
func (FilesizeExpr) exprNode()   {}
func (EntrypointExpr) exprNode() {}
func (PatternRefExpr) exprNode() {}
func (PatternAtExpr) exprNode()  {}
func (PatternInExpr) exprNode()  {}
func (PatternCountExpr) exprNode() {}

// LiteralKind discriminates LiteralExpr's payload.
type LiteralKind int

// Literal kinds.
const (
	LitBool LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitRegex
)

// LiteralExpr is a constant literal appearing directly in an expression.
type LiteralExpr struct {
	base
	Kind   LiteralKind
	Bool   bool
	Int    int64
	Float  float64
	String []byte
}

// Ident is a bare identifier reference: a rule name, a loop variable, a
// module name, or (inside a struct context) a field name.
type Ident struct {
	base
	Name string
}

// FieldAccess is dotted access `Target.Field` (spec.md §4.4).
type FieldAccess struct {
	base
	Target Expr
	Field  string
	// FieldSpan is the span of just the trailing field name, used for
	// unknown-field diagnostics independent of the whole access span.
	FieldSpan source.Span
}

// IndexExpr is `Target[Index]`, array or map indexing.
type IndexExpr struct {
	base
	Target Expr
	Index  Expr
}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

// UnaryOp enumerates prefix operators.
type UnaryOp int

// Unary operators.
const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

// UnaryExpr is a prefix-operator application.
type UnaryExpr struct {
	base
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates infix operators.
type BinaryOp int

// Binary operators, grouped by spec.md §4.4 category.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpContains
	OpStartsWith
	OpEndsWith
	OpIEquals
	OpIContains
	OpIStartsWith
	OpIEndsWith
	OpMatches
)

// BinaryExpr is an infix-operator application.
type BinaryExpr struct {
	base
	Op          BinaryOp
	Left, Right Expr
}

// QuantifierKind enumerates `of` quantifier forms.
type QuantifierKind int

// Quantifier kinds (spec.md §4.4).
const (
	QuantAny QuantifierKind = iota
	QuantAll
	QuantNumber
	QuantPercent
)

// OfExpr is `<quantifier> of (<set>)`, including the `them` shorthand for
// "all declared patterns" (spec.md §4.4, GLOSSARY).
type OfExpr struct {
	base
	Quantifier QuantifierKind
	// Count is the expression for QuantNumber/QuantPercent quantifiers.
	Count Expr
	// PatternSet lists the pattern identifiers named, or is nil/empty when
	// Them is true.
	PatternSet []string
	Them       bool
	// Condition is the trailing body when this Of acts as a
	// `for <quant> of (<set>) : (<cond>)` (nil for a bare quantified
	// pattern-existence test). Codegen evaluates it once and ANDs it with
	// the quantifier's result; it is not evaluated per pattern of the set.
	Condition Expr
}

// ForExpr is `for <quant> <var> in <iterable> : (<cond>)` (spec.md §4.4).
type ForExpr struct {
	base
	Quantifier QuantifierKind
	Count      Expr
	Var        string
	VarSpan    source.Span
	Iterable   Expr
	Condition  Expr
}

// RangeExpr is `(<lo> .. <hi>)`, used as an of/for iterable or as an
// is_pat_match_in style argument.
type RangeExpr struct {
	base
	Low, High Expr
}

// CastExpr is an explicit or (checker-inserted) implicit cast to a target
// kind, e.g. the to-bool cast at a condition's root (spec.md §4.4 "Cast at
// condition root").
type CastExpr struct {
	base
	Target   Expr
	ToBool   bool
	Implicit bool
}

// FilesizeExpr is the `filesize` keyword, a host-provided i64.
type FilesizeExpr struct{ base }

// EntrypointExpr is the `entrypoint` keyword, a host-provided i64.
type EntrypointExpr struct{ base }

// PatternRefExpr is a bare `$id` reference used as a boolean
// pattern-matched predicate.
type PatternRefExpr struct {
	base
	Identifier string
}

// PatternAtExpr is `$id at <offset>`.
type PatternAtExpr struct {
	base
	Identifier string
	Offset     Expr
}

// PatternInExpr is `$id in <range>`.
type PatternInExpr struct {
	base
	Identifier string
	Range      RangeExpr
}

// PatternCountExpr is `#id`, the number of matches for a pattern.
type PatternCountExpr struct {
	base
	Identifier string
}
