package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metthal/yara-x/pkg/compiler"
	"github.com/metthal/yara-x/pkg/host"
	"github.com/metthal/yara-x/pkg/source"
	"github.com/metthal/yara-x/pkg/vm"
)

var scanCmd = &cobra.Command{
	Use:   "scan <rule-file> <target-file>",
	Short: "Compile a rule file and scan a target file against it.",
	Args:  cobra.ExactArgs(2),
	Run:   runScanCmd,
}

// runScanCmd compiles the rule file, loads the target file into a
// host.ScanContext, interprets the compiled program (spec.md §5 "Scan
// time"), and prints the identifiers of every matching rule.
func runScanCmd(cmd *cobra.Command, args []string) {
	configureLogging(cmd)

	ruleFile, err := source.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "yarax: %s: %v\n", args[0], err)
		os.Exit(1)
	}

	rules, diags := compiler.Compile(ruleFile)
	renderer := source.NewStderrRenderer()
	fmt.Fprint(os.Stderr, renderer.RenderAll(diags))
	if rules == nil {
		os.Exit(1)
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "yarax: %s: %v\n", args[1], err)
		os.Exit(1)
	}

	ctx := host.NewScanContext(data, len(rules.RuleSet()))
	linker := host.NewLinker()
	machine := vm.New(rules.Program(), linker)

	ruleSet := rules.RuleSet()
	for _, id := range machine.Execute(ctx) {
		fmt.Println(ruleSet[id].Identifier)
	}
}
