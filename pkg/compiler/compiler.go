// Package compiler implements the top-level entry point (spec.md §4.7
// "Artifact Assembly"): parse, semcheck and codegen, producing one
// immutable artifact.Rules value. There is no separate validation pass
// after codegen.
//
// Grounded in pkg/zkc/compiler.Compile's parse-then-link-then-validate
// three-phase pipeline, simplified to parse-then-check-then-codegen since
// this language has no cross-file #include directives to resolve during
// parsing and no separate "linking" step beyond what pkg/codegen's global
// pattern numbering already does.
package compiler

import (
	"sort"

	"github.com/metthal/yara-x/internal/pool"
	"github.com/metthal/yara-x/pkg/artifact"
	"github.com/metthal/yara-x/pkg/ast"
	"github.com/metthal/yara-x/pkg/check"
	"github.com/metthal/yara-x/pkg/codegen"
	"github.com/metthal/yara-x/pkg/parser"
	"github.com/metthal/yara-x/pkg/source"
	"github.com/metthal/yara-x/pkg/symbols"
)

// Compile parses, checks, and lowers every namespace of every file into one
// artifact.Rules (spec.md §8 invariant 1: either an artifact whose
// RuleSet() length equals the source's rule-declaration count, or a
// diagnostic). Each file's namespaces abort independently on a parse or
// semantic error (spec.md §7 "The surrounding namespace aborts"), and the
// remaining files are still parsed and checked so their diagnostics
// accumulate, but any error in any file means no artifact is returned.
func Compile(files ...*source.File) (*artifact.Rules, []source.Diagnostic) {
	var diags []source.Diagnostic
	var results []*check.Result
	imports := make(map[string]bool)

	for _, f := range files {
		sf, perr := parser.Parse(f, parser.DefaultOptions())
		diags = append(diags, perr...)
		if hasError(perr) {
			continue
		}
		rs, cerr := check.CheckFile(f, sf)
		diags = append(diags, cerr...)
		if hasError(cerr) {
			continue
		}
		results = append(results, rs...)
		for _, ns := range sf.Namespaces {
			for _, imp := range ns.Imports {
				imports[imp.Module] = true
			}
		}
	}

	if hasError(diags) {
		return nil, diags
	}

	prog, cat := codegen.Generate(results)

	idents := pool.NewIdents()
	rules := make([]artifact.Rule, len(results))
	var patterns []artifact.Pattern
	for i, r := range results {
		patIDs := make([]int, len(r.Rule.Patterns))
		for j, p := range r.Rule.Patterns {
			id := cat.PatternID[p]
			patIDs[j] = id
			patterns = append(patterns, artifact.Pattern{
				ID: id, Identifier: p.Identifier, IdentId: idents.Intern(p.Identifier),
				BodyKind: p.BodyKind, Body: p.Body, Modifiers: p.Modifiers,
			})
		}
		rules[i] = artifact.Rule{
			ID:         symbols.RuleId(i),
			Identifier: r.Rule.Identifier,
			IdentId:    idents.Intern(r.Rule.Identifier),
			Private:    r.Rule.Modifiers&ast.ModPrivate != 0,
			Global:     r.Rule.Modifiers&ast.ModGlobal != 0,
			Tags:       tagNames(r.Rule.Tags),
			PatternIDs: patIDs,
		}
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })

	importList := make([]string, 0, len(imports))
	for name := range imports {
		importList = append(importList, name)
	}
	sort.Strings(importList)

	return artifact.New(rules, patterns, importList, prog, idents), diags
}

func tagNames(tags []ast.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func hasError(diags []source.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == source.SeverityError {
			return true
		}
	}
	return false
}
