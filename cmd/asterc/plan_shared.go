package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
	"github.com/aster-lang/asterc-driver/internal/diagnostics"
	"github.com/aster-lang/asterc-driver/pkg/config"
	"github.com/aster-lang/asterc-driver/pkg/explicitmodule"
	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/mode"
	"github.com/aster-lang/asterc-driver/pkg/modulegraph"
	"github.com/aster-lang/asterc-driver/pkg/planner"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// warnFunc renders a mode-resolver warning to stderr through console,
// unless the caller is in --json mode, where diagnostics are withheld
// from the parseable channel and dropped (a real driver would route
// them to a separate diagnostics stream; that stream is out of scope
// for this CLI surface).
func warnFunc(jsonMode bool) func(diagnostics.Kind, ...any) {
	return func(kind diagnostics.Kind, args ...any) {
		if jsonMode {
			return
		}
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("%s%v", kind, args)))
	}
}

// resolveAndPlan runs the Mode Resolver then the Build Planner for one
// invocation's inputs and flags, the sequence every inspection/execution
// subcommand shares.
func resolveAndPlan(cmd *cobra.Command, inputPaths []string) (*mode.Result, []*job.Job, error) {
	jsonMode, _ := cmd.Flags().GetBool("json")
	opts := optionsFromFlags(cmd)

	result, err := mode.Resolve(opts, mode.DriverBatch, len(inputPaths) > 0, warnFunc(jsonMode))
	if err != nil {
		return nil, nil, err
	}
	mode.CheckEmbedBitcodeDeprecated(opts, warnFunc(jsonMode))

	inputs := make([]typedpath.TypedPath, len(inputPaths))
	for i, p := range inputPaths {
		inputs[i] = typedpath.Absolute(p, typedpath.FileTypeSource)
	}

	ofm := config.NewOutputFileMap()
	if path, _ := cmd.Flags().GetString("output-file-map"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading output file map: %w", err)
		}
		decoded, err := config.DecodeOutputFileMap(data)
		if err != nil {
			return nil, nil, err
		}
		ofm = decoded
	}

	frontend, _ := cmd.Flags().GetString("frontend")
	linker, _ := cmd.Flags().GetString("linker")
	archiver, _ := cmd.Flags().GetString("archiver")
	outputPath, _ := cmd.Flags().GetString("output")
	moduleName, _ := cmd.Flags().GetString("module-name")
	numThreads, _ := cmd.Flags().GetInt("num-threads")
	bridgingHeader, _ := cmd.Flags().GetString("import-objc-header")

	cfg := planner.Config{
		Mode:          result.Mode,
		OutputTypes:   result.OutputTypes,
		Options:       opts,
		Inputs:        inputs,
		OutputFileMap: ofm,
		ModuleName:    moduleName,
		OutputPath:    outputPath,
		Tools: planner.ToolPaths{
			Compiler: typedpath.Absolute(frontend, typedpath.FileTypeNone),
			Linker:   typedpath.Absolute(linker, typedpath.FileTypeNone),
			Archiver: typedpath.Absolute(archiver, typedpath.FileTypeNone),
		},
		NumThreads:         numThreads,
		BridgingHeaderPath: bridgingHeader,
	}

	if opts.Has(config.OptEnableExplicitModules) {
		explicitJobs, manifestPath, err := planExplicitModules(cmd, moduleName, frontend)
		if err != nil {
			return result, nil, err
		}
		cfg.ExplicitModuleJobs = explicitJobs
		cfg.ExplicitModuleMapPath = manifestPath
	}

	jobs, err := planner.Plan(cfg)
	if err != nil {
		return result, nil, err
	}
	return result, jobs, nil
}

// planExplicitModules runs the Explicit Module Build Planner (spec
// §4.D) against the scanner's module dependency graph and returns its
// jobs (including the manifest-writing job, if any) plus the manifest
// path every compile job needs to reference (spec §8 invariant: S4 is
// only exercisable when the compile step actually consumes that
// manifest).
func planExplicitModules(cmd *cobra.Command, moduleName, frontend string) ([]*job.Job, string, error) {
	graphPath, _ := cmd.Flags().GetString("module-graph")
	if graphPath == "" {
		return nil, "", fmt.Errorf("--explicit-module-build requires --module-graph")
	}

	data, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading module graph: %w", err)
	}
	g, err := modulegraph.DecodeGraph(data, nil)
	if err != nil {
		return nil, "", err
	}

	main := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: moduleName}
	tool := typedpath.Absolute(frontend, typedpath.FileTypeNone)
	plan, err := explicitmodule.Build(explicitmodule.Config{
		Graph:            g,
		MainModule:       main,
		CompilerTool:     tool,
		PCMGeneratorTool: tool,
	})
	if err != nil {
		return nil, "", err
	}

	jobs := plan.Jobs
	if plan.ManifestJob != nil {
		jobs = append(jobs, plan.ManifestJob)
	}
	return jobs, plan.ManifestPath, nil
}
