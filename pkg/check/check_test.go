package check_test

import (
	"testing"

	"github.com/metthal/yara-x/pkg/check"
	_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"
	"github.com/metthal/yara-x/pkg/parser"
	"github.com/metthal/yara-x/pkg/source"
)

func checkSrc(t *testing.T, src string) ([]*check.Result, []source.Diagnostic) {
	t.Helper()
	f := source.NewFile("<test>", []byte(src))
	sf, diags := parser.Parse(f, parser.DefaultOptions())
	if hasError(diags) {
		t.Fatalf("unexpected parse errors: %v", diags)
	}
	results, cdiags := check.CheckFile(f, sf)
	return results, cdiags
}

func hasError(diags []source.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == source.SeverityError {
			return true
		}
	}
	return false
}

func hasCode(diags []source.Diagnostic, code source.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheckAcceptsTrivialRule(t *testing.T) {
	results, diags := checkSrc(t, `rule r { condition: true }`)
	if hasError(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestCheckUnknownModuleIsError(t *testing.T) {
	_, diags := checkSrc(t, `import "nope" rule r { condition: true }`)
	if !hasCode(diags, source.CodeUnknownModule) {
		t.Fatalf("expected UnknownModule, got %v", diags)
	}
}

func TestCheckUnknownIdentifierIsError(t *testing.T) {
	_, diags := checkSrc(t, `rule r { condition: not_a_thing }`)
	if !hasCode(diags, source.CodeUnknownIdentifier) {
		t.Fatalf("expected UnknownIdentifier, got %v", diags)
	}
}

func TestCheckArithmeticTypeMismatchIsError(t *testing.T) {
	_, diags := checkSrc(t, `rule r { condition: "x" + 1 == 1 }`)
	if !hasCode(diags, source.CodeWrongType) {
		t.Fatalf("expected WrongType, got %v", diags)
	}
}

func TestCheckNonBooleanConditionWarns(t *testing.T) {
	_, diags := checkSrc(t, `rule r { condition: 1 }`)
	if hasError(diags) {
		t.Fatalf("expected no errors, got %v", diags)
	}
	if !hasCode(diags, source.CodeNonBooleanCondition) {
		t.Fatalf("expected NonBooleanCondition warning, got %v", diags)
	}
}

func TestCheckDuplicateTagIsError(t *testing.T) {
	_, diags := checkSrc(t, `rule r : foo foo { condition: true }`)
	if !hasCode(diags, source.CodeDuplicateTag) {
		t.Fatalf("expected DuplicateTag, got %v", diags)
	}
}

func TestCheckDuplicatePatternIsError(t *testing.T) {
	_, diags := checkSrc(t, `rule r { strings: $a = "x" $a = "y" condition: true }`)
	if !hasCode(diags, source.CodeDuplicateString) {
		t.Fatalf("expected DuplicateString, got %v", diags)
	}
}

func TestCheckUnusedPatternIsRecorded(t *testing.T) {
	results, diags := checkSrc(t, `rule r { strings: $a = "x" condition: true }`)
	if hasError(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(results) != 1 || len(results[0].UnusedPatterns) != 1 {
		t.Fatalf("expected exactly one unused pattern, got %+v", results)
	}
}

func TestCheckPatternReferencedByThemIsNotUnused(t *testing.T) {
	results, diags := checkSrc(t, `rule r { strings: $a = "x" condition: any of them }`)
	if hasError(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(results) != 1 || len(results[0].UnusedPatterns) != 0 {
		t.Fatalf("expected no unused patterns, got %+v", results[0].UnusedPatterns)
	}
}

func TestCheckModuleFieldAccessResolvesType(t *testing.T) {
	_, diags := checkSrc(t, `import "math" rule r { condition: math.pi > 1.0 }`)
	if hasError(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
}

func TestCheckUnknownModuleFunctionIsError(t *testing.T) {
	_, diags := checkSrc(t, `import "math" rule r { condition: math.nope(1) == 1 }`)
	if !hasCode(diags, source.CodeUnknownIdentifier) {
		t.Fatalf("expected UnknownIdentifier for an unknown module function, got %v", diags)
	}
}

func TestCheckUintBuiltinRejectsNonIntegerArg(t *testing.T) {
	_, diags := checkSrc(t, `rule r { condition: uint32("x") == 0 }`)
	if !hasCode(diags, source.CodeWrongType) {
		t.Fatalf("expected WrongType for a non-integer uint32 argument, got %v", diags)
	}
}

func TestCheckRuleIdsAreContiguousAcrossNamespaceDeclarationOrder(t *testing.T) {
	results, diags := checkSrc(t, `rule a { condition: true } rule b { condition: a }`)
	if hasError(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	ref := results[1].Info[results[1].Rule.Condition]
	if ref == nil || ref.Place == nil || !ref.Place.IsRule || ref.Place.Rule != 0 {
		t.Fatalf("expected rule b's reference to a to resolve to RuleId 0, got %+v", ref)
	}
}
