// Package planner implements the Build Planner (spec §4.C): given a
// resolved CompilerMode and a build configuration, it emits the ordered
// job sequence that produces the requested outputs.
package planner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/aster-lang/asterc-driver/internal/diagnostics"
	"github.com/aster-lang/asterc-driver/pkg/config"
	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/mode"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// ToolPaths names the executables the planner's jobs invoke. Resolving
// these from a toolchain handle is an external concern (spec §3
// "toolchain handle"); the planner only consumes the resolved paths.
type ToolPaths struct {
	Compiler        typedpath.TypedPath
	Linker          typedpath.TypedPath
	Archiver        typedpath.TypedPath
	AutolinkExtract typedpath.TypedPath
}

// Config is everything the planner needs to emit a job sequence for one
// compilation (spec §4.C, consuming the "build configuration" of §3).
type Config struct {
	Mode        mode.Mode
	OutputTypes mode.OutputTypes
	Options     *config.Options

	Inputs        []typedpath.TypedPath
	OutputFileMap *config.OutputFileMap
	ModuleName    string
	OutputPath    string // resolved value of -o, "" if not given

	Tools             ToolPaths
	FileListThreshold int
	NumThreads        int

	BridgingHeaderPath string

	// ExplicitModuleJobs and ScanDependenciesJob are delegated to §4.D
	// and injected here pre-built; the planner only sequences them.
	// ExplicitModuleMapPath, when non-empty, names the serialized
	// manifest those jobs produced; every compile job that consumes
	// modules gets "-explicit-swift-module-map-file <path>" appended.
	ScanDependenciesJob   *job.Job
	ExplicitModuleJobs    []*job.Job
	ExplicitModuleMapPath string

	RequiresAutolinkExtract bool
}

// Plan implements the spec §4.C algorithm, returning the ordered job
// list or a diagnostics error.
func Plan(cfg Config) ([]*job.Job, error) {
	if err := checkDuplicateBasenames(cfg.Inputs); err != nil {
		return nil, err
	}

	emitModuleSeparately := decideEmitModuleSeparately(cfg)
	// Only a linkable product type requests a link step; the zero value
	// of OutputTypes.Linker does not.
	linkRequested := cfg.OutputTypes.Linker == typedpath.FileTypeExecutable ||
		cfg.OutputTypes.Linker == typedpath.FileTypeDynamicLibrary ||
		cfg.OutputTypes.Linker == typedpath.FileTypeStaticLibrary
	bridgingPCHNeeded := cfg.BridgingHeaderPath != "" &&
		cfg.Mode.SupportsBridgingPCH() &&
		!cfg.Options.Has(config.OptDisableBridgingPCH)
	bridgingHeaderChaining := cfg.Options.Has(config.OptChainBridgingHeader)

	var jobs []*job.Job

	if cfg.ScanDependenciesJob != nil {
		jobs = append(jobs, cfg.ScanDependenciesJob)
	}
	jobs = append(jobs, cfg.ExplicitModuleJobs...)

	var pchJob *job.Job
	if bridgingPCHNeeded {
		pchJob = buildPCHJob(cfg, bridgingHeaderChaining)
		jobs = append(jobs, pchJob)
	}

	compileOutputsNeedOOverride := false
	var compileJobs []*job.Job
	var moduleOutputsFromCompiles []typedpath.TypedPath

	switch cfg.Mode.Kind {
	case mode.KindStandardCompile:
		for _, in := range cfg.Inputs {
			cj, modOut, err := buildStandardCompileJob(cfg, in, pchJob)
			if err != nil {
				return nil, err
			}
			compileJobs = append(compileJobs, cj)
			if modOut != nil {
				moduleOutputsFromCompiles = append(moduleOutputsFromCompiles, *modOut)
			}
		}

	case mode.KindBatchCompile:
		buckets, err := partitionBatch(cfg.Inputs, cfg.Mode.Batch)
		if err != nil {
			return nil, err
		}
		for _, bucket := range buckets {
			cj, modOuts := buildBatchCompileJob(cfg, bucket, pchJob)
			compileJobs = append(compileJobs, cj)
			moduleOutputsFromCompiles = append(moduleOutputsFromCompiles, modOuts...)
		}

	case mode.KindSingleCompile:
		cj := buildSingleCompileJob(cfg, pchJob)
		compileJobs = append(compileJobs, cj)
		compileOutputsNeedOOverride = true

	default:
		// Immediate/Repl/CompilePCM/DumpPCM/Intro have no compile-job
		// sequence of their own; callers construct those single jobs
		// directly (spec §4.B requiresInPlaceExecution contract).
	}
	jobs = append(jobs, compileJobs...)

	if cfg.OutputPath != "" && !compileOutputsNeedOOverride {
		totalOutputs := 0
		for _, cj := range compileJobs {
			totalOutputs += len(cj.Outputs)
		}
		if totalOutputs > 1 && !linkRequested {
			return nil, diagnostics.New(diagnostics.KindCannotSpecifyOForMultipleOutputs)
		}
	}

	if emitModuleSeparately {
		jobs = append(jobs, buildEmitModuleJob(cfg))
	} else if needsMergeModule(cfg, moduleOutputsFromCompiles) {
		jobs = append(jobs, buildMergeModuleJob(cfg, moduleOutputsFromCompiles))
	}

	if cfg.RequiresAutolinkExtract {
		jobs = append(jobs, buildAutolinkExtractJob(cfg, compileJobs))
	}

	if linkRequested {
		jobs = append(jobs, buildLinkJob(cfg, compileJobs))
	}

	return jobs, nil
}

func checkDuplicateBasenames(inputs []typedpath.TypedPath) error {
	seen := make(map[string]string)
	for _, in := range inputs {
		base := filepath.Base(in.Location.Path)
		if first, ok := seen[base]; ok {
			return diagnostics.New(diagnostics.KindTwoFilesSameName, base, first, in.Location.Path)
		}
		seen[base] = in.Location.Path
	}
	return nil
}

func decideEmitModuleSeparately(cfg Config) bool {
	if !cfg.Options.Has(config.OptEmitModulePath) {
		return false
	}
	switch cfg.Mode.Kind {
	case mode.KindStandardCompile:
		return true
	case mode.KindBatchCompile:
		return len(cfg.Inputs) > 0
	default:
		return false
	}
}

func needsMergeModule(cfg Config, partialModules []typedpath.TypedPath) bool {
	if !cfg.Options.Has(config.OptEmitModulePath) {
		return false
	}
	if cfg.Mode.Kind != mode.KindStandardCompile && cfg.Mode.Kind != mode.KindBatchCompile {
		return false
	}
	return len(partialModules) > 1
}

// compileOutputKinds enumerates the file-type names the output file map
// may carry for a compile job, in the order spec §4.C lists them.
var compileOutputKinds = []string{
	"object", "swiftmodule", "swiftdoc", "swiftsourceinfo",
	"diagnostics", "dependencies", "swift-dependencies",
	"const-values", "llvm-bc", "tbd", "objc-header",
}

// enumerateOutputs resolves every compile-job output for primaryInput
// (or the module-wide single-input key when primaryInput == "") from
// the output file map. When the map has no entry, only the object
// output of a named primary input is synthesized, as that input's path
// with its extension replaced by ".o"; every other unmapped kind, and
// every unmapped kind of the single-input key, is omitted.
func enumerateOutputs(cfg Config, primaryInput string) []typedpath.TypedPath {
	var outs []typedpath.TypedPath
	for _, kind := range compileOutputKinds {
		path, ok := cfg.OutputFileMap.Lookup(primaryInput, kind)
		if !ok {
			if kind == "object" && primaryInput != "" {
				path = strings.TrimSuffix(primaryInput, filepath.Ext(primaryInput)) + ".o"
			} else {
				continue
			}
		}
		outs = append(outs, typedpath.Absolute(path, fileTypeForOutputKind(kind)))
	}
	return outs
}

func fileTypeForOutputKind(kind string) typedpath.FileType {
	switch kind {
	case "object":
		return typedpath.FileTypeObject
	case "swiftmodule":
		return typedpath.FileTypeModule
	case "swiftdoc":
		return typedpath.FileTypeModuleDoc
	case "swiftsourceinfo":
		return typedpath.FileTypeModuleSourceInfo
	case "diagnostics":
		return typedpath.FileTypeSerializedDiagnostics
	case "dependencies":
		return typedpath.FileTypeDependencyList
	case "swift-dependencies":
		return typedpath.FileTypeSwiftDeps
	case "const-values":
		return typedpath.FileTypeConstValues
	case "llvm-bc":
		return typedpath.FileTypeLLVMBitcode
	case "tbd":
		return typedpath.FileTypeTBD
	case "objc-header":
		return typedpath.FileTypeObjCHeader
	default:
		return typedpath.FileTypeNone
	}
}

func buildStandardCompileJob(cfg Config, in typedpath.TypedPath, pchJob *job.Job) (*job.Job, *typedpath.TypedPath, error) {
	outs := enumerateOutputs(cfg, in.Location.Path)
	inputs := []typedpath.TypedPath{in}
	if pchJob != nil {
		inputs = append(inputs, pchJob.Outputs...)
	}
	if manifest, ok := explicitModuleManifestInput(cfg); ok {
		inputs = append(inputs, manifest)
	}

	cj := &job.Job{
		Kind:          job.KindCompile,
		Tool:          cfg.Tools.Compiler,
		Inputs:        inputs,
		DisplayInputs: []typedpath.TypedPath{in},
		PrimaryInputs: []typedpath.TypedPath{in},
		Outputs:       outs,
		CommandLine:   standardCompileCommandLine(cfg, in),
	}

	var modOut *typedpath.TypedPath
	for _, o := range outs {
		if o.Type == typedpath.FileTypeModule {
			m := o
			modOut = &m
		}
	}
	return cj, modOut, nil
}

func standardCompileCommandLine(cfg Config, in typedpath.TypedPath) []job.Arg {
	args := []job.Arg{job.Flag("-c"), job.Path{TypedPath: in}}
	if cfg.ModuleName != "" {
		args = append(args, job.Flag("-module-name"), job.Flag(cfg.ModuleName))
	}
	return appendExplicitModuleMapArg(cfg, args)
}

// explicitModuleManifestInput reconstructs the manifest's TypedPath from
// its path string with the same temporary-file Location kind the
// Explicit Module Build Planner used when it wrote it (spec §4.D), so
// the compile job's Dependencies() lookup resolves to the job that
// produced it rather than treating it as an already-on-disk input.
func explicitModuleManifestInput(cfg Config) (typedpath.TypedPath, bool) {
	if cfg.ExplicitModuleMapPath == "" {
		return typedpath.TypedPath{}, false
	}
	return typedpath.Temporary(cfg.ExplicitModuleMapPath, typedpath.FileTypeJSONArtifacts), true
}

// appendExplicitModuleMapArg appends "-explicit-swift-module-map-file
// <path>" when the Explicit Module Build Planner (spec §4.D) produced a
// manifest for this build.
func appendExplicitModuleMapArg(cfg Config, args []job.Arg) []job.Arg {
	manifest, ok := explicitModuleManifestInput(cfg)
	if !ok {
		return args
	}
	return append(args, job.Flag("-explicit-swift-module-map-file"), job.Path{TypedPath: manifest})
}

// partitionBatch implements the deterministic bucketing rule of spec
// §4.C: seed a permutation, then split into fixed-size buckets bounded
// by size-limit with count as the desired partition count.
func partitionBatch(inputs []typedpath.TypedPath, params mode.BatchParams) ([][]typedpath.TypedPath, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	perm := deterministicPermutation(len(inputs), params.Seed)

	count := params.Count
	if count <= 0 {
		count = 1
	}
	if count > len(inputs) {
		count = len(inputs)
	}
	bucketSize := (len(inputs) + count - 1) / count
	if params.SizeLimit > 0 && bucketSize > params.SizeLimit {
		bucketSize = params.SizeLimit
	}
	if bucketSize < 1 {
		bucketSize = 1
	}

	var buckets [][]typedpath.TypedPath
	for i := 0; i < len(perm); i += bucketSize {
		end := i + bucketSize
		if end > len(perm) {
			end = len(perm)
		}
		var bucket []typedpath.TypedPath
		for _, idx := range perm[i:end] {
			bucket = append(bucket, inputs[idx])
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

// deterministicPermutation produces a reproducible permutation of
// [0, n) from an integer seed via a linear congruential shuffle; the
// same (n, seed) pair always yields the same order (spec §8 invariant
// 4, applied to batch partitioning specifically by spec §4.C/S3).
func deterministicPermutation(n int, seed int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	state := uint64(seed)*2654435761 + 1
	for i := n - 1; i > 0; i-- {
		state = state*6364136223846793005 + 1442695040888963407
		j := int(state % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

func buildBatchCompileJob(cfg Config, bucket []typedpath.TypedPath, pchJob *job.Job) (*job.Job, []typedpath.TypedPath) {
	var inputs, primaries []typedpath.TypedPath
	var allOutputs, moduleOutputs []typedpath.TypedPath
	for _, in := range bucket {
		inputs = append(inputs, in)
		primaries = append(primaries, in)
		outs := enumerateOutputs(cfg, in.Location.Path)
		allOutputs = append(allOutputs, outs...)
		for _, o := range outs {
			if o.Type == typedpath.FileTypeModule {
				moduleOutputs = append(moduleOutputs, o)
			}
		}
	}
	if pchJob != nil {
		inputs = append(inputs, pchJob.Outputs...)
	}
	if manifest, ok := explicitModuleManifestInput(cfg); ok {
		inputs = append(inputs, manifest)
	}

	var args []job.Arg
	for _, in := range bucket {
		args = append(args, job.Path{TypedPath: in})
	}
	if cfg.ModuleName != "" {
		args = append(args, job.Flag("-module-name"), job.Flag(cfg.ModuleName))
	}
	args = appendExplicitModuleMapArg(cfg, args)

	cj := &job.Job{
		Kind:          job.KindCompile,
		Tool:          cfg.Tools.Compiler,
		Inputs:        inputs,
		DisplayInputs: bucket,
		PrimaryInputs: primaries,
		Outputs:       allOutputs,
		CommandLine:   args,
	}
	return cj, moduleOutputs
}

func buildSingleCompileJob(cfg Config, pchJob *job.Job) *job.Job {
	inputs := append([]typedpath.TypedPath(nil), cfg.Inputs...)
	if pchJob != nil {
		inputs = append(inputs, pchJob.Outputs...)
	}
	if manifest, ok := explicitModuleManifestInput(cfg); ok {
		inputs = append(inputs, manifest)
	}

	var outs []typedpath.TypedPath
	numThreads, _, _ := cfg.Options.Int(config.OptNumThreads)
	if numThreads > 0 {
		// Multithreaded WMO: one output per input even in single-compile
		// (spec §4.C edge cases).
		for _, in := range cfg.Inputs {
			outs = append(outs, enumerateOutputs(cfg, in.Location.Path)...)
		}
	} else {
		outs = enumerateOutputs(cfg, "")
	}

	var args []job.Arg
	for _, in := range cfg.Inputs {
		args = append(args, job.Path{TypedPath: in})
	}
	args = append(args, job.Flag("-whole-module-optimization"))
	if cfg.ModuleName != "" {
		args = append(args, job.Flag("-module-name"), job.Flag(cfg.ModuleName))
	}
	args = appendExplicitModuleMapArg(cfg, args)

	return &job.Job{
		Kind:          job.KindCompile,
		Tool:          cfg.Tools.Compiler,
		Inputs:        inputs,
		DisplayInputs: cfg.Inputs,
		Outputs:       outs,
		CommandLine:   args,
	}
}

func buildPCHJob(cfg Config, chained bool) *job.Job {
	header := typedpath.Absolute(cfg.BridgingHeaderPath, typedpath.FileTypeObjCHeader)
	outPath := strings.TrimSuffix(cfg.BridgingHeaderPath, filepath.Ext(cfg.BridgingHeaderPath)) + ".pch"
	out := typedpath.Absolute(outPath, typedpath.FileTypePrecompiledHeader)

	args := []job.Arg{job.Flag("-emit-pch"), job.Path{TypedPath: header}, job.Flag("-o"), job.Path{TypedPath: out}}
	if chained {
		args = append(args, job.Flag("-emit-clang-header-path-chained"))
	}

	return &job.Job{
		Kind:          job.KindGeneratePCH,
		Tool:          cfg.Tools.Compiler,
		Inputs:        []typedpath.TypedPath{header},
		DisplayInputs: []typedpath.TypedPath{header},
		Outputs:       []typedpath.TypedPath{out},
		CommandLine:   args,
	}
}

func buildEmitModuleJob(cfg Config) *job.Job {
	outs := enumerateOutputs(cfg, "")
	var args []job.Arg
	for _, in := range cfg.Inputs {
		args = append(args, job.Path{TypedPath: in})
	}
	args = append(args, job.Flag("-emit-module"))
	if cfg.ModuleName != "" {
		args = append(args, job.Flag("-module-name"), job.Flag(cfg.ModuleName))
	}

	return &job.Job{
		Kind:          job.KindEmitModule,
		Tool:          cfg.Tools.Compiler,
		Inputs:        cfg.Inputs,
		DisplayInputs: cfg.Inputs,
		Outputs:       outs,
		CommandLine:   args,
	}
}

func buildMergeModuleJob(cfg Config, partialModules []typedpath.TypedPath) *job.Job {
	sorted := append([]typedpath.TypedPath(nil), partialModules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	outs := enumerateOutputs(cfg, "")
	var args []job.Arg
	for _, p := range sorted {
		args = append(args, job.Path{TypedPath: p})
	}
	args = append(args, job.Flag("-merge-modules"))

	return &job.Job{
		Kind:          job.KindMergeModule,
		Tool:          cfg.Tools.Compiler,
		Inputs:        sorted,
		DisplayInputs: sorted,
		Outputs:       outs,
		CommandLine:   args,
	}
}

func buildAutolinkExtractJob(cfg Config, compileJobs []*job.Job) *job.Job {
	var objects []typedpath.TypedPath
	for _, cj := range compileJobs {
		for _, o := range cj.Outputs {
			if o.Type == typedpath.FileTypeObject {
				objects = append(objects, o)
			}
		}
	}
	out := typedpath.Absolute(cfg.ModuleName+".autolink", typedpath.FileTypeAutolink)
	var args []job.Arg
	for _, o := range objects {
		args = append(args, job.Path{TypedPath: o})
	}
	args = append(args, job.Flag("-o"), job.Path{TypedPath: out})

	return &job.Job{
		Kind:          job.KindAutolinkExtract,
		Tool:          cfg.Tools.AutolinkExtract,
		Inputs:        objects,
		DisplayInputs: objects,
		Outputs:       []typedpath.TypedPath{out},
		CommandLine:   args,
	}
}

func buildLinkJob(cfg Config, compileJobs []*job.Job) *job.Job {
	var objects []typedpath.TypedPath
	for _, cj := range compileJobs {
		for _, o := range cj.Outputs {
			if o.Type == typedpath.FileTypeObject || o.Type == typedpath.FileTypeLLVMBitcode {
				objects = append(objects, o)
			}
		}
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = cfg.ModuleName
		if outPath == "" {
			outPath = "a.out"
		}
	}
	out := typedpath.Absolute(outPath, cfg.OutputTypes.Linker)

	inputs := objects
	var args []job.Arg
	if len(objects) > cfg.FileListThreshold && cfg.FileListThreshold > 0 {
		fl := typedpath.FileList("link-inputs", objects)
		inputs = []typedpath.TypedPath{fl}
		args = append(args, job.ResponseFilePath{TypedPath: fl})
	} else {
		for _, o := range objects {
			args = append(args, job.Path{TypedPath: o})
		}
	}
	args = append(args, job.Flag("-o"), job.Path{TypedPath: out})

	// A static library is archived, not linked (spec §4.A step 4:
	// "linker=static|dynamic per -static").
	tool := cfg.Tools.Linker
	kind := job.KindLink
	if cfg.OutputTypes.Linker == typedpath.FileTypeStaticLibrary {
		tool = cfg.Tools.Archiver
		kind = job.KindArchive
	}

	return &job.Job{
		Kind:                  kind,
		Tool:                  tool,
		Inputs:                inputs,
		DisplayInputs:         objects,
		Outputs:               []typedpath.TypedPath{out},
		CommandLine:           args,
		SupportsResponseFiles: true,
	}
}
