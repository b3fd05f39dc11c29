// Package artifact defines the immutable compiled output
// pkg/compiler.Compile produces (spec.md §4.7 "Artifact Assembly", §6
// "Compiled artifact"): the rules table, the patterns table, the imported
// module list, and the bytecode module the VM executes. A Rules value owns
// no mutable state after construction, so it may be shared read-only
// across concurrently scanning VM instances (spec.md §5 "Scan time").
package artifact

import (
	"github.com/metthal/yara-x/internal/pool"
	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/symbols"
)

// Rule is one compiled rule's metadata: enough to label a scan result
// without walking the AST the VM no longer needs at scan time.
type Rule struct {
	ID         symbols.RuleId
	Identifier string
	IdentId    pool.IdentId
	Private    bool
	Global     bool
	Tags       []string
	PatternIDs []int
}

// Pattern is one compiled rule's pattern declaration, numbered globally and
// contiguously across the whole compile unit (spec.md §5 "Ordering").
type Pattern struct {
	ID         int
	Identifier string
	IdentId    pool.IdentId
	BodyKind   ast.PatternBodyKind
	Body       string
	Modifiers  ast.PatternModifier
}

// Rules is the immutable compiled artifact (spec.md §6 "Compiled
// artifact"): owns its rules table, patterns table, imported-module list,
// and bytecode module.
type Rules struct {
	rules    []Rule
	patterns []Pattern
	imports  []string
	program  *bytecode.Program
	idents   *pool.Idents
}

// New constructs a Rules value. Called only by pkg/compiler once every
// invariant in spec.md §3 has already been checked. idents is the
// identifier pool interned over every rule and pattern name in this
// compile unit (spec.md §3 "Identifier pool"); New takes ownership of it.
func New(rules []Rule, patterns []Pattern, imports []string, program *bytecode.Program, idents *pool.Idents) *Rules {
	return &Rules{rules: rules, patterns: patterns, imports: imports, program: program, idents: idents}
}

// RuleSet returns every compiled rule, indexed by Rule.ID.
func (r *Rules) RuleSet() []Rule { return r.rules }

// Patterns returns every compiled pattern declaration, indexed by
// Pattern.ID, across all rules.
func (r *Rules) Patterns() []Pattern { return r.patterns }

// Imports returns the sorted, deduplicated list of module names imported
// by any namespace in this compile unit.
func (r *Rules) Imports() []string { return r.imports }

// Program returns the compiled bytecode module a pkg/vm.VM interprets.
func (r *Rules) Program() *bytecode.Program { return r.program }

// Idents returns the dense identifier pool interned over every rule and
// pattern name declared in this compile unit.
func (r *Rules) Idents() *pool.Idents { return r.idents }
