package host

import (
	"bytes"
	"regexp"

	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/types"
)

// StringOp evaluates one str_* primitive (spec.md §4.6), propagating
// undefined when either operand lacks a materialized value.
func StringOp(op bytecode.StrOp, a, b types.Value) types.Value {
	if !a.Known || !b.Known {
		return types.Value{Type: types.Bool}
	}
	switch op {
	case bytecode.StrEq:
		return types.BoolValue(bytes.Equal(a.StringVal, b.StringVal))
	case bytecode.StrNe:
		return types.BoolValue(!bytes.Equal(a.StringVal, b.StringVal))
	case bytecode.StrLt:
		return types.BoolValue(bytes.Compare(a.StringVal, b.StringVal) < 0)
	case bytecode.StrLe:
		return types.BoolValue(bytes.Compare(a.StringVal, b.StringVal) <= 0)
	case bytecode.StrGt:
		return types.BoolValue(bytes.Compare(a.StringVal, b.StringVal) > 0)
	case bytecode.StrGe:
		return types.BoolValue(bytes.Compare(a.StringVal, b.StringVal) >= 0)
	case bytecode.StrContains:
		return types.BoolValue(bytes.Contains(a.StringVal, b.StringVal))
	case bytecode.StrIContains:
		return types.BoolValue(bytes.Contains(bytes.ToLower(a.StringVal), bytes.ToLower(b.StringVal)))
	case bytecode.StrStartsWith:
		return types.BoolValue(bytes.HasPrefix(a.StringVal, b.StringVal))
	case bytecode.StrIStartsWith:
		return types.BoolValue(bytes.HasPrefix(bytes.ToLower(a.StringVal), bytes.ToLower(b.StringVal)))
	case bytecode.StrEndsWith:
		return types.BoolValue(bytes.HasSuffix(a.StringVal, b.StringVal))
	case bytecode.StrIEndsWith:
		return types.BoolValue(bytes.HasSuffix(bytes.ToLower(a.StringVal), bytes.ToLower(b.StringVal)))
	case bytecode.StrIEquals:
		return types.BoolValue(bytes.EqualFold(a.StringVal, b.StringVal))
	case bytecode.StrMatches:
		return types.BoolValue(matches(a.StringVal, b.StringVal))
	default:
		return types.Value{Type: types.Bool}
	}
}

// matches compiles b as a regular expression and reports whether it matches
// anywhere in a. Re-compiling per call is wasteful but this op only ever
// runs against scan-time materialized strings, never per scanned byte, so
// it never sits on a hot path the way the string-pattern matcher would.
func matches(a, b []byte) bool {
	re, err := regexp.Compile(string(b))
	if err != nil {
		return false
	}
	return re.Match(a)
}
