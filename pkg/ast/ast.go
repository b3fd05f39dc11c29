// Package ast implements the typed abstract syntax tree built from the
// parse tree (spec.md §4.2). Every node carries a source span; this is the
// sole input to the semantic checker and code generator.
package ast

import "github.com/metthal/yara-x/pkg/source"

// Node is implemented by every AST node.
type Node interface {
	Span() source.Span
	SetSpan(sp source.Span)
}

// base embeds the common span field shared by every node kind. Field
// base is unexported, so outside packages (the parser) cannot set it with
// a keyed struct literal; they build a node with its other fields, then
// call the promoted SetSpan method once the node's full span is known.
type base struct {
	span source.Span
}

// Span implements Node.
func (b base) Span() source.Span { return b.span }

// SetSpan implements Node. Builders call this once a node's span is known,
// since spans are often only final after parsing the node's last child.
func (b *base) SetSpan(sp source.Span) { b.span = sp }

// NewBase constructs a base value pre-set to sp, for the (same-package)
// node constructors below that know their span up front.
func NewBase(sp source.Span) base { return base{span: sp} }

// SourceFile is the root of the AST for one parsed source file: its
// namespaces (spec.md §4.2). pkg/parser always produces exactly one,
// named "default"; `include` directives are consumed and not followed.
type SourceFile struct {
	base
	Namespaces []*Namespace
}

// Namespace is a scope containing imports and rules; rule names must be
// unique within it (spec.md GLOSSARY).
type Namespace struct {
	base
	Name    string
	Imports []*Import
	Rules   []*Rule
}

// Import names a module brought into scope for this namespace.
type Import struct {
	base
	Module string
}

// RuleModifier flags a rule as private and/or global.
type RuleModifier int

// Rule modifiers.
const (
	ModNone    RuleModifier = 0
	ModPrivate RuleModifier = 1 << iota
	ModGlobal
)

// Metadatum is one `key = value` pair in a rule's meta section.
type Metadatum struct {
	base
	Key   string
	Value MetaValue
}

// MetaValue is the closed set of literal kinds a metadata value may hold.
type MetaValue struct {
	Kind MetaValueKind
	Str  string
	Int  int64
	Bool bool
}

// MetaValueKind discriminates MetaValue's payload.
type MetaValueKind int

// Metadata value kinds.
const (
	MetaString MetaValueKind = iota
	MetaInteger
	MetaBool
)

// PatternBodyKind discriminates a Pattern's body.
type PatternBodyKind int

// Pattern body kinds (spec.md §4.2).
const (
	PatternText PatternBodyKind = iota
	PatternHex
	PatternRegex
)

// PatternModifier flags declared on a string/pattern declaration.
type PatternModifier int

// Pattern modifiers.
const (
	PatMNone       PatternModifier = 0
	PatMNoCase     PatternModifier = 1 << iota
	PatMAscii
	PatMWide
	PatMFullword
	PatMPrivate
	PatMXor
	PatMBase64
	PatMBase64Wide
)

// Pattern is a named byte/hex/regex sub-pattern declared in a rule's
// strings section (spec.md §4.2, GLOSSARY).
type Pattern struct {
	base
	Identifier string // includes the leading '$'
	BodyKind   PatternBodyKind
	Body       string
	Modifiers  PatternModifier
}

// Rule is a named predicate over scanned bytes defined by patterns and a
// Boolean condition (spec.md GLOSSARY).
type Rule struct {
	base
	Modifiers  RuleModifier
	Identifier string
	IdentSpan  source.Span
	Tags       []Tag
	Metadata   []Metadatum
	Patterns   []*Pattern
	Condition  Expr
}

// Tag is one source-span-carrying rule tag.
type Tag struct {
	Name string
	Span source.Span
}
