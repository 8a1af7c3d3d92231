// Package mode implements the Compilation Mode Resolver (spec §4.A): it
// classifies a parsed configuration into one CompilerMode and derives the
// compiler/linker output types that drive the Build Planner.
package mode

import (
	"fmt"

	"github.com/aster-lang/asterc-driver/internal/diagnostics"
	"github.com/aster-lang/asterc-driver/pkg/config"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// Kind is the closed sum type of compilation modes (spec §3).
type Kind int

const (
	KindStandardCompile Kind = iota
	KindBatchCompile
	KindSingleCompile
	KindImmediate
	KindRepl
	KindCompilePCM
	KindDumpPCM
	KindIntro
)

func (k Kind) String() string {
	switch k {
	case KindStandardCompile:
		return "standard-compile"
	case KindBatchCompile:
		return "batch-compile"
	case KindSingleCompile:
		return "single-compile"
	case KindImmediate:
		return "immediate"
	case KindRepl:
		return "repl"
	case KindCompilePCM:
		return "compile-pcm"
	case KindDumpPCM:
		return "dump-pcm"
	case KindIntro:
		return "intro"
	default:
		return "unknown"
	}
}

// BatchParams holds the sub-options of BatchCompile.
type BatchParams struct {
	Seed      int
	Count     int
	SizeLimit int
}

// Mode is the resolved compilation mode plus its batch parameters, if any.
type Mode struct {
	Kind  Kind
	Batch BatchParams
}

// UsesPrimaryFileInputs reports whether per-input primaries drive
// parseable-output decomposition (spec §4.B).
func (m Mode) UsesPrimaryFileInputs() bool {
	return m.Kind == KindStandardCompile || m.Kind == KindBatchCompile
}

// IsSingleCompilation reports whether the mode compiles the whole module
// in one frontend invocation with no primary.
func (m Mode) IsSingleCompilation() bool {
	return m.Kind == KindSingleCompile
}

// SupportsBridgingPCH reports whether the mode may consume a bridging
// precompiled header.
func (m Mode) SupportsBridgingPCH() bool {
	switch m.Kind {
	case KindStandardCompile, KindBatchCompile, KindSingleCompile:
		return true
	default:
		return false
	}
}

// IsBatch reports whether the mode is BatchCompile.
func (m Mode) IsBatch() bool {
	return m.Kind == KindBatchCompile
}

// DriverKind distinguishes the two ways the resolver is invoked (spec §4.A).
type DriverKind int

const (
	DriverInteractive DriverKind = iota
	DriverBatch
)

// OutputTypes is the (compiler-output-type, linker-output-type) pair the
// resolver derives alongside the mode.
type OutputTypes struct {
	Compiler typedpath.FileType
	Linker   typedpath.FileType // executable, dynamic or static library when a link step is requested; any other value (the zero value included) means none
}

// Result is the full output of Resolve.
type Result struct {
	Mode        Mode
	OutputTypes OutputTypes
}

// Resolve implements the spec §4.A algorithm. warn is called with every
// non-fatal diagnostic the resolver raises along the way.
func Resolve(opts *config.Options, driverKind DriverKind, hasInputs bool, warn func(diagnostics.Kind, ...any)) (*Result, error) {
	if warn == nil {
		warn = func(diagnostics.Kind, ...any) {}
	}

	// Step 1: mode-selecting options short-circuit everything else.
	switch {
	case opts.Has(config.OptEmitImportedModules):
		return &Result{Mode: Mode{Kind: KindStandardCompile}, OutputTypes: OutputTypes{Compiler: typedpath.FileTypeJSONDependencies}}, nil
	case opts.Has(config.OptRepl):
		return &Result{Mode: Mode{Kind: KindRepl}}, nil
	case opts.Has(config.OptEmitPCM):
		return &Result{Mode: Mode{Kind: KindCompilePCM}, OutputTypes: OutputTypes{Compiler: typedpath.FileTypePrecompiledModule}}, nil
	case opts.Has(config.OptDumpPCM):
		return &Result{Mode: Mode{Kind: KindDumpPCM}}, nil
	case opts.Has(config.OptIntegratedRepl):
		return nil, diagnostics.New(diagnostics.KindIntegratedReplRemoved)
	}

	var m Mode
	switch driverKind {
	case DriverInteractive:
		switch {
		case !hasInputs && !opts.Has(config.OptRepl):
			m = Mode{Kind: KindIntro}
		case hasInputs:
			m = Mode{Kind: KindImmediate}
		default:
			m = Mode{Kind: KindRepl}
		}

	case DriverBatch:
		resolved, err := resolveBatchDriverMode(opts, warn)
		if err != nil {
			return nil, err
		}
		m = resolved

	default:
		return nil, fmt.Errorf("unknown driver kind %v", driverKind)
	}

	outs, err := deriveOutputTypes(opts)
	if err != nil {
		return nil, err
	}
	return &Result{Mode: m, OutputTypes: outs}, nil
}

// resolveBatchDriverMode implements step 3 of spec §4.A.
func resolveBatchDriverMode(opts *config.Options, warn func(diagnostics.Kind, ...any)) (Mode, error) {
	wmo := opts.Has(config.OptWholeModuleOptimization)
	dumpAST := opts.Has(config.OptDumpAST)
	indexFile := opts.Has(config.OptIndexFile)

	if wmo && dumpAST {
		warn(diagnostics.KindConflictingOptions, string(config.OptDumpAST), string(config.OptWholeModuleOptimization))
		opts.Clear(config.OptWholeModuleOptimization)
		wmo = false
		return Mode{Kind: KindStandardCompile}, nil
	}
	if indexFile && dumpAST {
		warn(diagnostics.KindConflictingOptions, string(config.OptDumpAST), string(config.OptIndexFile))
		opts.Clear(config.OptIndexFile)
		indexFile = false
		return Mode{Kind: KindStandardCompile}, nil
	}

	if wmo || indexFile {
		if opts.Has(config.OptEnableBatchMode) {
			warn(diagnostics.KindConflictingOptions, string(config.OptEnableBatchMode), "whole-module-optimization/index-file")
		}
		return Mode{Kind: KindSingleCompile}, nil
	}

	if opts.Has(config.OptEnableBatchMode) {
		seed, _, err := opts.Int(config.OptBatchSeed)
		if err != nil {
			return Mode{}, diagnostics.New(diagnostics.KindInvalidArgumentValue, string(config.OptBatchSeed), err.Error())
		}
		count, _, err := opts.Int(config.OptBatchCount)
		if err != nil {
			return Mode{}, diagnostics.New(diagnostics.KindInvalidArgumentValue, string(config.OptBatchCount), err.Error())
		}
		sizeLimit, _, err := opts.Int(config.OptBatchSizeLimit)
		if err != nil {
			return Mode{}, diagnostics.New(diagnostics.KindInvalidArgumentValue, string(config.OptBatchSizeLimit), err.Error())
		}
		return Mode{Kind: KindBatchCompile, Batch: BatchParams{Seed: seed, Count: count, SizeLimit: sizeLimit}}, nil
	}

	return Mode{Kind: KindStandardCompile}, nil
}

// deriveOutputTypes implements step 4 of spec §4.A.
func deriveOutputTypes(opts *config.Options) (OutputTypes, error) {
	switch {
	case opts.Has(config.OptEmitExecutable):
		compiler := typedpath.FileTypeObject
		if opts.Has(config.OptLTO) {
			compiler = typedpath.FileTypeLLVMBitcode
		}
		return OutputTypes{Compiler: compiler, Linker: typedpath.FileTypeExecutable}, nil

	case opts.Has(config.OptEmitLibrary):
		compiler := typedpath.FileTypeObject
		if opts.Has(config.OptLTO) {
			compiler = typedpath.FileTypeLLVMBitcode
		}
		linker := typedpath.FileTypeDynamicLibrary
		if opts.Has(config.OptStatic) {
			linker = typedpath.FileTypeStaticLibrary
		}
		return OutputTypes{Compiler: compiler, Linker: linker}, nil

	case opts.Has(config.OptEmitObject):
		return OutputTypes{Compiler: typedpath.FileTypeObject}, nil
	case opts.Has(config.OptEmitAssembly):
		return OutputTypes{Compiler: typedpath.FileTypeAssembly}, nil
	case opts.Has(config.OptEmitSIL), opts.Has(config.OptEmitSILGen):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptEmitSIB), opts.Has(config.OptEmitSIBGen):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptEmitIR), opts.Has(config.OptEmitIRGen):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptEmitBC):
		return OutputTypes{Compiler: typedpath.FileTypeLLVMBitcode}, nil
	case opts.Has(config.OptDumpAST):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptEmitPCM):
		return OutputTypes{Compiler: typedpath.FileTypePrecompiledModule}, nil
	case opts.Has(config.OptEmitImportedModules):
		return OutputTypes{Compiler: typedpath.FileTypeJSONDependencies}, nil
	case opts.Has(config.OptIndexFile):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptParse), opts.Has(config.OptResolveImports), opts.Has(config.OptTypecheck):
		return OutputTypes{Compiler: typedpath.FileTypeNone}, nil
	case opts.Has(config.OptScanDependencies):
		return OutputTypes{Compiler: typedpath.FileTypeJSONDependencies}, nil
	case opts.Has(config.OptEmitModulePath):
		return OutputTypes{Compiler: typedpath.FileTypeModule}, nil
	default:
		return OutputTypes{Compiler: typedpath.FileTypeObject}, nil
	}
}

// CheckEmbedBitcodeDeprecated erases the deprecated embed-bitcode flag
// with a warning, per spec §4.A step 4.
func CheckEmbedBitcodeDeprecated(opts *config.Options, warn func(diagnostics.Kind, ...any)) {
	if opts.Has(config.OptEmbedBitcode) {
		if warn != nil {
			warn(diagnostics.KindInvalidArgumentValue, string(config.OptEmbedBitcode), "deprecated, ignored")
		}
		opts.Clear(config.OptEmbedBitcode)
	}
}
