package artifact

import (
	"testing"

	"github.com/metthal/yara-x/internal/pool"
	"github.com/metthal/yara-x/pkg/bytecode"
	"github.com/metthal/yara-x/pkg/symbols"
)

func TestRulesAccessorsReturnConstructedValues(t *testing.T) {
	idents := pool.NewIdents()
	rules := []Rule{{ID: symbols.RuleId(0), Identifier: "r", IdentId: idents.Intern("r")}}
	patterns := []Pattern{{ID: 0, Identifier: "$a", IdentId: idents.Intern("$a")}}
	imports := []string{"math"}
	prog := &bytecode.Program{}

	r := New(rules, patterns, imports, prog, idents)

	if len(r.RuleSet()) != 1 || r.RuleSet()[0].Identifier != "r" {
		t.Fatalf("unexpected RuleSet: %+v", r.RuleSet())
	}
	if len(r.Patterns()) != 1 || r.Patterns()[0].Identifier != "$a" {
		t.Fatalf("unexpected Patterns: %+v", r.Patterns())
	}
	if len(r.Imports()) != 1 || r.Imports()[0] != "math" {
		t.Fatalf("unexpected Imports: %+v", r.Imports())
	}
	if r.Program() != prog {
		t.Fatal("expected Program() to return the same program pointer passed to New")
	}
	if id, ok := r.Idents().Lookup("r"); !ok || id != r.RuleSet()[0].IdentId {
		t.Fatalf("expected Idents() to resolve the rule's interned name, got %v/%v", id, ok)
	}
}
