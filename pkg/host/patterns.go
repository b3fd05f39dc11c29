package host

import "github.com/metthal/yara-x/pkg/types"

// PatternMatched reports whether pattern id matched anywhere in the scanned
// buffer. The underlying string-pattern matcher is out of scope (spec.md
// §9 Non-goals "pattern matching itself"); pattern membership is therefore
// always a known false here. A real matcher would populate this from its
// own match bitmap instead of this constant stub.
func PatternMatched(_ *ScanContext, _ int) types.Value {
	return types.BoolValue(false)
}

// PatternMatchedAt reports whether pattern id matched at exactly offset.
// Membership is always known (see PatternMatched); only the offset operand
// can be undefined, in which case the result is undefined too.
func PatternMatchedAt(_ *ScanContext, _ int, offset types.Value) types.Value {
	if !offset.Known {
		return types.Value{Type: types.Bool}
	}
	return types.BoolValue(false)
}

// PatternMatchedIn reports whether pattern id matched within [low, high].
func PatternMatchedIn(_ *ScanContext, _ int, low, high types.Value) types.Value {
	if !low.Known || !high.Known {
		return types.Value{Type: types.Bool}
	}
	return types.BoolValue(false)
}

// PatternCount returns the number of times pattern id matched.
func PatternCount(_ *ScanContext, _ int) types.Value {
	return types.IntValue(0)
}
