package codegen_test

import (
	"testing"

	"github.com/metthal/yara-x/pkg/check"
	"github.com/metthal/yara-x/pkg/codegen"
	"github.com/metthal/yara-x/pkg/host"
	"github.com/metthal/yara-x/pkg/parser"
	"github.com/metthal/yara-x/pkg/source"
	"github.com/metthal/yara-x/pkg/vm"
)

func lower(t *testing.T, src string) ([]*check.Result, *source.File) {
	t.Helper()
	f := source.NewFile("<test>", []byte(src))
	sf, pdiags := parser.Parse(f, parser.DefaultOptions())
	if len(pdiags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", pdiags)
	}
	results, cdiags := check.CheckFile(f, sf)
	for _, d := range cdiags {
		if d.Severity == source.SeverityError {
			t.Fatalf("unexpected check error: %v", d)
		}
	}
	return results, f
}

func TestGenerateOneEntryPointPerRule(t *testing.T) {
	results, _ := lower(t, `rule a { condition: true } rule b { condition: false }`)
	prog, _ := codegen.Generate(results)
	if len(prog.RuleEntries) != 2 {
		t.Fatalf("expected 2 rule entries, got %d", len(prog.RuleEntries))
	}

	ctx := host.NewScanContext(nil, 2)
	matched := vm.New(prog, host.NewLinker()).Execute(ctx)
	if len(matched) != 1 || matched[0] != 0 {
		t.Fatalf("expected only rule a (id 0) to match, got %v", matched)
	}
}

func TestGeneratePatternIdsAreContiguousAcrossRules(t *testing.T) {
	results, _ := lower(t, `rule a { strings: $x = "x" $y = "y" condition: true }
rule b { strings: $z = "z" condition: true }`)
	_, cat := codegen.Generate(results)

	seen := map[int]bool{}
	for _, r := range results {
		for _, p := range r.Rule.Patterns {
			id, ok := cat.PatternID[p]
			if !ok {
				t.Fatalf("pattern %s missing from catalog", p.Identifier)
			}
			if seen[id] {
				t.Fatalf("duplicate pattern id %d", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct pattern ids, got %d", len(seen))
	}
}

func TestGenerateAndShortCircuitsAtBytecodeLevel(t *testing.T) {
	results, _ := lower(t, `rule r { condition: false and (1/0 == 0) }`)
	prog, _ := codegen.Generate(results)

	ctx := host.NewScanContext(nil, 1)
	matched := vm.New(prog, host.NewLinker()).Execute(ctx)
	if len(matched) != 0 {
		t.Fatalf("expected the rule not to match, got %v", matched)
	}
}

func TestGenerateForLoopCountsDefinedMatches(t *testing.T) {
	results, _ := lower(t, `rule r { condition: for any i in (1..3) : (i > 1) }`)
	prog, _ := codegen.Generate(results)

	ctx := host.NewScanContext(nil, 1)
	matched := vm.New(prog, host.NewLinker()).Execute(ctx)
	if len(matched) != 1 {
		t.Fatalf("expected 'for any i in (1..3) : (i > 1)' to match (i=2,3 qualify), got %v", matched)
	}
}
