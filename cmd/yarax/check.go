package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metthal/yara-x/pkg/compiler"
	"github.com/metthal/yara-x/pkg/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [rule-files...]",
	Short: "Report diagnostics for rule files without compiling an artifact.",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCheckCmd,
}

// runCheckCmd is the same pipeline as compile but never reports the
// resulting artifact's shape; useful for editor integrations that only
// want diagnostics.
func runCheckCmd(cmd *cobra.Command, args []string) {
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

	_, diags := compiler.Compile(files...)

	renderer := source.NewStderrRenderer()
	fmt.Fprint(os.Stderr, renderer.RenderAll(diags))

	for _, d := range diags {
		if d.Severity == source.SeverityError {
			os.Exit(1)
		}
	}
}
