package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
	"github.com/aster-lang/asterc-driver/pkg/explicitmodule"
	"github.com/aster-lang/asterc-driver/pkg/modulegraph"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

func newScanModulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan-modules",
		Short:   "Inspect a scanner-produced module dependency graph and its explicit-module job plan",
		GroupID: "inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScanModules(cmd, args)
		},
	}
	cmd.Flags().String("module-graph", "", "path to the scanner's module dependency graph JSON (required)")
	cmd.Flags().String("main-module", "", "main module name (required)")
	cmd.Flags().Bool("build", false, "also run the Explicit Module Build Planner and print its job plan")
	cmd.Flags().String("frontend", "aster-frontend", "path to the compiler frontend executable")
	_ = cmd.MarkFlagRequired("module-graph")
	_ = cmd.MarkFlagRequired("main-module")
	return cmd
}

func runScanModules(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("module-graph")
	mainModule, _ := cmd.Flags().GetString("main-module")
	doBuild, _ := cmd.Flags().GetBool("build")
	frontend, _ := cmd.Flags().GetString("frontend")

	data, err := os.ReadFile(graphPath)
	if err != nil {
		return fmt.Errorf("reading module graph: %w", err)
	}
	g, err := modulegraph.DecodeGraph(data, nil)
	if err != nil {
		return err
	}

	main := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: mainModule}
	reachable, err := g.ReachableFrom(main)
	if err != nil {
		return err
	}

	rows := make([][]string, len(reachable))
	for i, id := range reachable {
		rows[i] = []string{id.String()}
	}
	fmt.Fprint(os.Stderr, console.RenderTable(console.TableConfig{
		Title:   fmt.Sprintf("Modules reachable from %s", main),
		Headers: []string{"module"},
		Rows:    rows,
	}))

	if !doBuild {
		return nil
	}

	plan, err := explicitmodule.Build(explicitmodule.Config{
		Graph:            g,
		MainModule:       main,
		CompilerTool:     typedpath.Absolute(frontend, typedpath.FileTypeNone),
		PCMGeneratorTool: typedpath.Absolute(frontend, typedpath.FileTypeNone),
	})
	if err != nil {
		return err
	}

	rows = rows[:0]
	for _, j := range plan.Jobs {
		v := jobToView(j)
		rows = append(rows, []string{v.Kind, joinOrDash(v.Outputs)})
	}
	fmt.Fprint(os.Stderr, console.RenderTable(console.TableConfig{
		Title:   "Explicit module jobs",
		Headers: []string{"kind", "outputs"},
		Rows:    rows,
	}))
	if plan.ManifestPath != "" {
		fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("manifest: %s", plan.ManifestPath)))
	}
	return nil
}
