// Command asterc is the Aster compiler driver: it resolves a
// compilation mode from a parsed configuration, plans the job graph
// that realizes it, and executes that graph under bounded parallelism.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "asterc",
	Short:   "Aster compiler driver",
	Version: version,
	Long: `asterc plans and executes the jobs that build an Aster module.

Common tasks:
  asterc plan a.as b.as -o prog          # show the planned job sequence
  asterc build a.as b.as -o prog          # plan and execute
  asterc jobs a.as b.as --graph           # render the job DAG as Mermaid
  asterc scan-modules --module-graph g.json --main-module App`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "planning", Title: "Planning Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "execution", Title: "Execution Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspection", Title: "Inspection Commands:"})

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose diagnostic output")
	rootCmd.SetOut(os.Stderr)
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n", console.FormatInfoMessage("asterc version {{.Version}}")))

	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newJobsCommand())
	rootCmd.AddCommand(newScanModulesCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
