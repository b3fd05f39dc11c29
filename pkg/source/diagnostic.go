package source

import "fmt"

// Severity distinguishes diagnostics that abort compilation from those that
// merely accumulate and are returned alongside a successful artifact.
type Severity int

const (
	// SeverityError aborts compilation of the surrounding namespace.
	SeverityError Severity = iota
	// SeverityWarning accumulates and is returned alongside the artifact.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code identifies the structured kind of a diagnostic, so that consumers
// can switch on it without parsing the rendered message.
type Code int

// Error codes (spec.md §7).
const (
	CodeSyntaxError Code = iota
	CodeDuplicateTag
	CodeDuplicateRule
	CodeDuplicateString
	CodeDuplicateModifier
	CodeInvalidModifier
	CodeInvalidModifierCombination
	CodeInvalidHexString
	CodeInvalidRange
	CodeInvalidInteger
	CodeInvalidFloat
	CodeInvalidEscapeSequence
	CodeUnknownModule
	CodeUnknownIdentifier
	CodeWrongType
	CodeWrongNumberOfArguments
	CodeNoMatchingOverload
	CodeTooManyLoops
	CodeUnknownField
	// Warning codes.
	CodeNonBooleanCondition
	CodeUnusedString
	CodeDuplicateImport
)

var codeNames = map[Code]string{
	CodeSyntaxError:                "syntax_error",
	CodeDuplicateTag:                "duplicate_tag",
	CodeDuplicateRule:               "duplicate_rule",
	CodeDuplicateString:             "duplicate_string",
	CodeDuplicateModifier:           "duplicate_modifier",
	CodeInvalidModifier:             "invalid_modifier",
	CodeInvalidModifierCombination:  "invalid_modifier_combination",
	CodeInvalidHexString:            "invalid_hex_string",
	CodeInvalidRange:                "invalid_range",
	CodeInvalidInteger:              "invalid_integer",
	CodeInvalidFloat:                "invalid_float",
	CodeInvalidEscapeSequence:       "invalid_escape_sequence",
	CodeUnknownModule:               "unknown_module",
	CodeUnknownIdentifier:           "unknown_identifier",
	CodeWrongType:                   "wrong_type",
	CodeWrongNumberOfArguments:      "wrong_number_of_arguments",
	CodeNoMatchingOverload:          "no_matching_overload",
	CodeTooManyLoops:                "too_many_loops",
	CodeUnknownField:                "unknown_field",
	CodeNonBooleanCondition:         "non_boolean_condition",
	CodeUnusedString:                "unused_string",
	CodeDuplicateImport:             "duplicate_import",
}

// String returns the stable, machine-readable name of this code.
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Label attaches a message to one span within a diagnostic. A diagnostic
// with more than one label is how duplicate-* diagnostics carry both the
// offending and the original span (spec.md §8 invariant 5).
type Label struct {
	File    *File
	Span    Span
	Message string
	// Note marks a secondary/context label (e.g. "declared here for the
	// first time") as opposed to the primary offending one.
	Note bool
}

// Diagnostic is a structured error or warning. Every diagnostic carries a
// Code so callers can branch on the kind without string-matching the
// rendered message, per spec.md §4.3.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Labels   []Label
	// Note is an optional trailing explanation, rendered after the labels.
	Note string
}

// PrimarySpan returns the span of this diagnostic's first label, or an
// empty span if it carries none.
func (d Diagnostic) PrimarySpan() Span {
	if len(d.Labels) == 0 {
		return Span{}
	}
	return d.Labels[0].Span
}

// Error implements the error interface so a Diagnostic of severity
// SeverityError can be returned/wrapped as a plain Go error.
func (d Diagnostic) Error() string {
	span := d.PrimarySpan()
	return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, span)
}

// NewSyntaxError constructs the Syntax diagnostic carried by parse failures,
// recording the set of grammar rules the parser expected vs. found at the
// failure point.
func NewSyntaxError(file *File, span Span, expected, unexpected []string) Diagnostic {
	msg := "syntax error"
	note := ""
	if len(expected) > 0 {
		note = fmt.Sprintf("expected one of: %v", expected)
	}
	return Diagnostic{
		Severity: SeverityError,
		Code:     CodeSyntaxError,
		Message:  msg,
		Labels: []Label{
			{File: file, Span: span, Message: describeUnexpected(unexpected)},
		},
		Note: note,
	}
}

func describeUnexpected(unexpected []string) string {
	if len(unexpected) == 0 {
		return "unexpected end of input"
	}
	return fmt.Sprintf("unexpected %s", unexpected[0])
}
