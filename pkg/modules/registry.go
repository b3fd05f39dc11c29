// Package modules implements the process-wide module registry (spec.md §6,
// §9 "Global registries"): a static, once-initialized table of modules
// available for import in rule conditions. Each module contributes a root
// struct descriptor, an optional main function that populates an instance
// from the scanned buffer, and an optional set of exported callable
// functions.
//
// Modules self-register from their own init(), following the
// database/sql-driver idiom: importing a module package for side effects
// (e.g. `_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"`) is what makes
// it available to the compiler.
//
// Grounded in go-corset's pkg/schema/register.go RegisterMap (an
// once-built, read-only, name-indexed table) and
// original_source/lib/src/modules/mod.rs's static module list plus
// #[module_main] wiring.
package modules

import (
	"sort"
	"sync"

	"github.com/metthal/yara-x/pkg/types"
)

// MainFunc populates a root struct instance for one scan. It receives the
// scanned buffer and returns the populated instance, or ok=false if the
// module declines to attach data for this scan (e.g. magic bytes don't
// match its format).
type MainFunc func(data []byte) (value *types.StructInstance, ok bool)

// Module is one registry entry: a name, its root struct descriptor, an
// optional MainFunc, and any exported callable functions (spec.md §6
// "Module entry").
type Module struct {
	Name      string
	Root      *types.StructType
	Main      MainFunc
	Functions map[string]*types.FuncType // by unqualified name
}

var (
	mu       sync.Mutex
	registry = map[string]*Module{}
)

// Register adds m to the process-wide registry. Modules call this from
// their own init(), mirroring go-corset's RegisterMap construction and
// spec.md §9's "registration list contributed by each module at startup".
// Calling Register for a name already present panics: this is a
// programming error (two modules or a double-init), never a runtime
// condition a caller can recover from.
func Register(m *Module) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[m.Name]; exists {
		panic("modules: duplicate registration for " + m.Name)
	}
	registry[m.Name] = m
}

// Lookup returns the module named name, or ok=false if no such module is
// registered (spec.md §4.1 "Import... If the module is unknown → error").
func Lookup(name string) (*Module, bool) {
	mu.Lock()
	defer mu.Unlock()
	m, ok := registry[name]
	return m, ok
}

// Names returns the sorted list of all registered module names, mainly for
// diagnostics and tests.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

