// Command yarax is a thin CLI over pkg/compiler/pkg/vm (spec.md §6 "CLI
// (delegated collaborator)"): compile rules, report diagnostics, and scan a
// file against them. Grounded in go-corset's pkg/cmd/zkc/root.go (a cobra
// root command dispatching to subcommands, package-level Execute entry
// point called from main) and pkg/cmd/zkc/compile.go (a subcommand that
// compiles its positional args and reports errors before doing anything
// else).
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	// Blank-imported so their init() self-registers into pkg/modules
	// (spec.md §6 "Module contract"; pkg/modules/registry.go's
	// database/sql-driver idiom).
	_ "github.com/metthal/yara-x/pkg/modules/mod/magicmod"
	_ "github.com/metthal/yara-x/pkg/modules/mod/mathmod"
)

var rootCmd = &cobra.Command{
	Use:   "yarax",
	Short: "A compiler and scanner for a YARA-like rule language.",
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.AddCommand(compileCmd, checkCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configureLogging(cmd *cobra.Command) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(log.DebugLevel)
	}
}
