package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/pkg/config"
)

// commonFlags registers the option-table flags shared by plan, build,
// and jobs: a thin stand-in for the real argument-table parser the
// driver core treats as an external collaborator (spec §1).
func commonFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output path")
	flags.String("module-name", "", "module name")
	flags.Int("num-threads", 0, "number of frontend worker threads (single-compile/batch modes)")

	flags.Bool("emit-executable", false, "link a standalone executable")
	flags.Bool("emit-library", false, "link a shared library")
	flags.Bool("emit-object", false, "stop after generating object files")
	flags.Bool("emit-assembly", false, "stop after generating assembly")
	flags.Bool("emit-module-path", false, "emit only the compiled module")
	flags.Bool("lto", false, "enable link-time optimization")
	flags.Bool("static", false, "link statically (emit-library only)")

	flags.BoolP("whole-module-optimization", "w", false, "compile the whole module in one frontend invocation")
	flags.Bool("enable-batch-mode", false, "partition primaries into deterministic batches")
	flags.Int("batch-seed", 0, "batch partition seed")
	flags.Int("batch-count", 0, "number of batch partitions")
	flags.Int("batch-size-limit", 0, "maximum primaries per batch partition")

	flags.Bool("explicit-module-build", false, "use precomputed module dependency information")
	flags.String("module-graph", "", "path to the scanner's module dependency graph JSON (required with --explicit-module-build)")
	flags.String("import-objc-header", "", "bridging header path")
	flags.Bool("disable-bridging-pch", false, "never precompile the bridging header")
	flags.String("output-file-map", "", "path to a JSON output file map")

	flags.String("frontend", "aster-frontend", "path to the compiler frontend executable")
	flags.String("linker", "cc", "path to the linker driver executable")
	flags.String("archiver", "ar", "path to the static-library archiver executable")
}

// optionsFromFlags translates cobra flags into the core's config.Options
// bag (spec §3 "the actual option-table parser is an external
// collaborator"; this is that collaborator's CLI-facing half).
func optionsFromFlags(cmd *cobra.Command) *config.Options {
	flags := cmd.Flags()
	opts := config.NewOptions()

	setIfTrue := func(flag string, id config.OptionID) {
		if v, _ := flags.GetBool(flag); v {
			opts.Set(id, "")
		}
	}
	setString := func(flag string, id config.OptionID) {
		if v, _ := flags.GetString(flag); v != "" {
			opts.Set(id, v)
		}
	}
	setInt := func(flag string, id config.OptionID) {
		if flags.Changed(flag) {
			v, _ := flags.GetInt(flag)
			opts.Set(id, strconv.Itoa(v))
		}
	}

	setIfTrue("emit-executable", config.OptEmitExecutable)
	setIfTrue("emit-library", config.OptEmitLibrary)
	setIfTrue("emit-object", config.OptEmitObject)
	setIfTrue("emit-assembly", config.OptEmitAssembly)
	setIfTrue("emit-module-path", config.OptEmitModulePath)
	setIfTrue("lto", config.OptLTO)
	setIfTrue("static", config.OptStatic)
	setIfTrue("whole-module-optimization", config.OptWholeModuleOptimization)
	setIfTrue("enable-batch-mode", config.OptEnableBatchMode)
	setIfTrue("explicit-module-build", config.OptEnableExplicitModules)
	setIfTrue("disable-bridging-pch", config.OptDisableBridgingPCH)

	setString("module-name", config.OptModuleName)
	setString("import-objc-header", config.OptImportObjCHeader)

	setInt("num-threads", config.OptNumThreads)
	setInt("batch-seed", config.OptBatchSeed)
	setInt("batch-count", config.OptBatchCount)
	setInt("batch-size-limit", config.OptBatchSizeLimit)

	if v, _ := flags.GetString("output"); v != "" {
		opts.Set(config.OptOutputFile, v)
	}

	return opts
}
