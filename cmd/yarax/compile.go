package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metthal/yara-x/pkg/compiler"
	"github.com/metthal/yara-x/pkg/source"
)

var compileCmd = &cobra.Command{
	Use:   "compile [rule-files...]",
	Short: "Compile rule files into a bytecode artifact and report diagnostics.",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCompileCmd,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "write the compiled artifact's rule count to this path instead of stdout (diagnostic use only)")
}

// runCompileCmd mirrors go-corset's compileCmd.Run: read every positional
// arg as a source file, compile them together, print diagnostics, and exit
// nonzero if compilation failed (spec.md §8 invariant 1).
func runCompileCmd(cmd *cobra.Command, args []string) {
	configureLogging(cmd)

	files := make([]*source.File, 0, len(args))
	for _, path := range args {
		f, err := source.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "yarax: %s: %v\n", path, err)
			os.Exit(1)
		}
		files = append(files, f)
	}

	rules, diags := compiler.Compile(files...)

	renderer := source.NewStderrRenderer()
	fmt.Fprint(os.Stderr, renderer.RenderAll(diags))

	if rules == nil {
		os.Exit(1)
	}

	summary := fmt.Sprintf("compiled %d rule(s), %d pattern(s)\n", len(rules.RuleSet()), len(rules.Patterns()))
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := os.WriteFile(out, []byte(summary), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "yarax: %s: %v\n", out, err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(summary)
}
