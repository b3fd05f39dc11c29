// Package mathmod is a small illustrative module registered under the
// import name "math": a data-only root struct (the constants e and pi) plus two
// overloaded exported functions, abs(i) and abs(f). It stands in for the
// PE/ELF/Mach-O/.NET/LNK modules spec.md scopes out, exercising the same
// module contract (spec.md §6) with a minimal, real implementation.
package mathmod

import (
	"math"

	"github.com/metthal/yara-x/pkg/modules"
	"github.com/metthal/yara-x/pkg/types"
)

func init() {
	root := types.NewStructBuilder("math.Math").
		AddField("e", types.Float).
		AddField("pi", types.Float)

	absInt := types.Signature{
		Args: []types.Type{types.Integer}, Return: types.Integer,
		Mangled: types.MangleName("math", "abs", []types.Type{types.Integer}, types.Integer),
	}
	absFloat := types.Signature{
		Args: []types.Type{types.Float}, Return: types.Float,
		Mangled: types.MangleName("math", "abs", []types.Type{types.Float}, types.Float),
	}

	modules.Register(&modules.Module{
		Name: "math",
		Root: root,
		Main: main,
		Functions: map[string]*types.FuncType{
			"abs": {Name: "abs", Signatures: []types.Signature{absInt, absFloat}},
		},
	})
}

func main(_ []byte) (*types.StructInstance, bool) {
	return &types.StructInstance{
		Type: rootType(),
		Values: []types.Value{
			types.FloatValue(math.E),
			types.FloatValue(math.Pi),
		},
	}, true
}

func rootType() *types.StructType {
	m, _ := modules.Lookup("math")
	return m.Root
}

// AbsInt implements the exported math.abs@i@i overload (spec.md §6 mangled
// name scheme). Host-side dispatch resolves to this by mangled name; see
// pkg/host for the Linker that wires call sites to Go functions.
func AbsInt(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// AbsFloat implements the exported math.abs@f@f overload.
func AbsFloat(f float64) float64 {
	return math.Abs(f)
}
