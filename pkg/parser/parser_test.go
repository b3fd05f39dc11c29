package parser_test

import (
	"testing"

	"github.com/metthal/yara-x/pkg/parser"
	"github.com/metthal/yara-x/pkg/source"
)

func parse(t *testing.T, src string) []source.Diagnostic {
	t.Helper()
	f := source.NewFile("<test>", []byte(src))
	_, diags := parser.Parse(f, parser.DefaultOptions())
	return diags
}

func hasCode(diags []source.Diagnostic, code source.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestDivisionInConditionParsesCleanly(t *testing.T) {
	diags := parse(t, `rule r { condition: filesize / 2 == 0 }`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestDuplicatePatternModifierIsReported(t *testing.T) {
	diags := parse(t, `rule r { strings: $a = "x" nocase nocase condition: $a }`)
	if !hasCode(diags, source.CodeDuplicateModifier) {
		t.Fatalf("expected a duplicate_modifier diagnostic, got %v", diags)
	}
}

func TestUnknownModifierIsReported(t *testing.T) {
	diags := parse(t, `rule r { strings: $a = "x" noncase condition: $a }`)
	if !hasCode(diags, source.CodeInvalidModifier) {
		t.Fatalf("expected an invalid_modifier diagnostic, got %v", diags)
	}
}

func TestXorAndNocaseModifiersConflict(t *testing.T) {
	diags := parse(t, `rule r { strings: $a = "x" xor nocase condition: $a }`)
	if !hasCode(diags, source.CodeInvalidModifierCombination) {
		t.Fatalf("expected an invalid_modifier_combination diagnostic, got %v", diags)
	}
}

func TestUnbalancedHexStringIsReported(t *testing.T) {
	diags := parse(t, `rule r { strings: $a = { AA ( BB } condition: $a }`)
	if !hasCode(diags, source.CodeInvalidHexString) {
		t.Fatalf("expected an invalid_hex_string diagnostic, got %v", diags)
	}
}

func TestOverflowingIntegerLiteralIsReported(t *testing.T) {
	diags := parse(t, `rule r { condition: filesize == 0xFFFFFFFFFFFFFFFFF }`)
	if !hasCode(diags, source.CodeInvalidInteger) {
		t.Fatalf("expected an invalid_integer diagnostic, got %v", diags)
	}
}

func TestOverflowingMetadataIntegerIsReported(t *testing.T) {
	diags := parse(t, `rule r { meta: x = 99999999999999999999 condition: true }`)
	if !hasCode(diags, source.CodeInvalidInteger) {
		t.Fatalf("expected an invalid_integer diagnostic, got %v", diags)
	}
}
