// Package types implements the closed value/type system shared by the
// semantic checker and code generator (spec.md §3): the Bool/Integer/
// Float/String/Struct/Array/Map/Func/Unknown variant set, and the
// introspectable Struct descriptor used for module-provided data.
package types

import "fmt"

// Kind enumerates the closed set of value types.
type Kind int

// The closed variant set from spec.md §3.
const (
	KindUnknown Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindStruct
	KindArray
	KindMap
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindFunc:
		return "function"
	default:
		return "unknown"
	}
}

// MapKeyKind restricts map keys to the two kinds spec.md §3 allows.
type MapKeyKind int

// Map key kinds.
const (
	MapKeyInteger MapKeyKind = iota
	MapKeyString
)

// Type describes the static type of a value. It is a closed variant keyed
// by Kind; only the fields relevant to that Kind are populated.
type Type struct {
	Kind Kind
	// Struct is populated when Kind == KindStruct.
	Struct *StructType
	// Elem is the element type when Kind == KindArray.
	Elem *Type
	// MapKeyKind/MapValue are populated when Kind == KindMap.
	MapKey   MapKeyKind
	MapValue *Type
	// Func is populated when Kind == KindFunc.
	Func *FuncType
}

// Bool, Integer, Float, String and Unknown are the singleton scalar types.
var (
	Bool    = Type{Kind: KindBool}
	Integer = Type{Kind: KindInteger}
	Float   = Type{Kind: KindFloat}
	String  = Type{Kind: KindString}
	Unknown = Type{Kind: KindUnknown}
)

// NewStructType constructs a struct-typed Type wrapping s.
func NewStructType(s *StructType) Type {
	return Type{Kind: KindStruct, Struct: s}
}

// NewArrayType constructs an array-typed Type with the given element type.
func NewArrayType(elem Type) Type {
	return Type{Kind: KindArray, Elem: &elem}
}

// NewMapType constructs a map-typed Type with the given key/value kinds.
func NewMapType(key MapKeyKind, value Type) Type {
	return Type{Kind: KindMap, MapKey: key, MapValue: &value}
}

// NewFuncType constructs a function-typed Type wrapping f.
func NewFuncType(f *FuncType) Type {
	return Type{Kind: KindFunc, Func: f}
}

// IsNumeric returns true for Integer and Float.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInteger || t.Kind == KindFloat
}

// IsScalar returns true for the types spec.md §3 invariant (v) allows as a
// condition's static type: Bool, Integer, Float, String.
func (t Type) IsScalar() bool {
	switch t.Kind {
	case KindBool, KindInteger, KindFloat, KindString:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("array of %s", t.Elem.String())
	case KindMap:
		keyName := "int"
		if t.MapKey == MapKeyString {
			keyName = "string"
		}
		return fmt.Sprintf("map[%s]%s", keyName, t.MapValue.String())
	case KindStruct:
		if t.Struct != nil {
			return "struct " + t.Struct.Name
		}
		return "struct"
	case KindFunc:
		return "function"
	default:
		return t.Kind.String()
	}
}

// Equal reports whether t and o describe the same static type, ignoring
// materialized values.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.Equal(*o.Elem)
	case KindMap:
		return t.MapKey == o.MapKey && t.MapValue.Equal(*o.MapValue)
	case KindStruct:
		return t.Struct == o.Struct
	default:
		return true
	}
}
