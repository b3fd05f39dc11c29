package compiler

import (
	"testing"

	"github.com/metthal/yara-x/pkg/host"
	_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"
	"github.com/metthal/yara-x/pkg/source"
	"github.com/metthal/yara-x/pkg/types"
	"github.com/metthal/yara-x/pkg/vm"
)

func TestTrivialMatch(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r { condition: true }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}
	if len(rules.RuleSet()) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules.RuleSet()))
	}

	ctx := host.NewScanContext([]byte("anything"), 1)
	m := vm.New(rules.Program(), host.NewLinker())
	matched := m.Execute(ctx)
	if len(matched) != 1 {
		t.Fatalf("expected rule r to match, got %v", matched)
	}
}

func TestFilesizeScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r { condition: filesize == 5 }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}

	linker := host.NewLinker()
	prog := rules.Program()

	matched := vm.New(prog, linker).Execute(host.NewScanContext([]byte("hello"), 1))
	if len(matched) != 1 {
		t.Fatal("expected filesize == 5 to match a 5-byte input")
	}

	matched = vm.New(prog, linker).Execute(host.NewScanContext([]byte("hi"), 1))
	if len(matched) != 0 {
		t.Fatal("expected filesize == 5 not to match a 2-byte input")
	}
}

func TestUndefinedPropagationScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r { condition: uint32(100) == 0 }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}

	ctx := host.NewScanContext(make([]byte, 4), 1)
	matched := vm.New(rules.Program(), host.NewLinker()).Execute(ctx)
	if len(matched) != 0 {
		t.Fatal("expected a read past the end of a 4-byte buffer to be undefined, not matching")
	}
}

func TestShortCircuitScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r { condition: false and uint32(100) == 0 }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}

	// Instrument uint32 to detect whether it was ever called; a defined
	// false left operand must short-circuit the and without evaluating
	// the right operand.
	called := false
	linker := host.NewLinker()
	linker.Register("uint32", func(*host.ScanContext, []types.Value) types.Value {
		called = true
		return types.Value{Type: types.Integer}
	})

	ctx := host.NewScanContext(make([]byte, 4), 1)
	matched := vm.New(rules.Program(), linker).Execute(ctx)
	if len(matched) != 0 {
		t.Fatal("expected false and ... to be false")
	}
	if called {
		t.Fatal("expected uint32 not to be called once the left operand of and is a defined false")
	}
}

func TestDottedFieldAccessScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`import "math" rule r { condition: math.pi > 3 }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}
	if len(rules.Imports()) != 1 || rules.Imports()[0] != "math" {
		t.Fatalf("expected imports = [math], got %v", rules.Imports())
	}

	ctx := host.NewScanContext(nil, 1)
	matched := vm.New(rules.Program(), host.NewLinker()).Execute(ctx)
	if len(matched) != 1 {
		t.Fatal("expected math.pi > 3 to match")
	}
}

func TestUnusedStringWarningScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r { strings: $a = "x" condition: true }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact despite the warning, got diagnostics: %v", diags)
	}
	if len(rules.RuleSet()) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules.RuleSet()))
	}

	found := 0
	for _, d := range diags {
		if d.Code == source.CodeUnusedString {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one UnusedString warning, got %d (all diags: %v)", found, diags)
	}
}

func TestDuplicateRuleErrorScenario(t *testing.T) {
	f := source.NewFile("<test>", []byte(`rule r {condition: true} rule r {condition: false}`))
	rules, diags := Compile(f)
	if rules != nil {
		t.Fatal("expected no artifact for a duplicate rule name")
	}

	var dup *source.Diagnostic
	for i := range diags {
		if diags[i].Code == source.CodeDuplicateRule {
			dup = &diags[i]
		}
	}
	if dup == nil {
		t.Fatalf("expected a DuplicateRule diagnostic, got %v", diags)
	}
	if len(dup.Labels) < 2 {
		t.Fatalf("expected DuplicateRule to carry both spans, got %d label(s)", len(dup.Labels))
	}
}

func TestStringLiteralsAreInternedAndDeduplicated(t *testing.T) {
	f := source.NewFile("<test>", []byte(`import "math" rule r { condition: math.pi > 3 and "needle" == "needle" and "other" != "needle" }`))
	rules, diags := Compile(f)
	if rules == nil {
		t.Fatalf("expected a compiled artifact, got diagnostics: %v", diags)
	}

	lits := rules.Program().Literals
	seen := map[string]int{}
	for _, l := range lits {
		seen[string(l)]++
	}
	if seen["needle"] != 1 {
		t.Fatalf("expected \"needle\" to be interned exactly once, got %d copies in %v", seen["needle"], lits)
	}
	if seen["other"] != 1 {
		t.Fatalf("expected \"other\" to be interned exactly once, got %d copies in %v", seen["other"], lits)
	}
}

func TestMultipleFilesAccumulateIndependently(t *testing.T) {
	good := source.NewFile("good.yar", []byte(`rule ok { condition: true }`))
	bad := source.NewFile("bad.yar", []byte(`rule broken {condition: true} rule broken {condition: false}`))

	rules, diags := Compile(good, bad)
	if rules != nil {
		t.Fatal("expected no artifact when any file has an error")
	}
	if len(diags) == 0 {
		t.Fatal("expected diagnostics from the failing file")
	}
}
