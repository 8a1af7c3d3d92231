// Package config holds the build configuration the Mode Resolver and
// Build Planner consume (spec §3): parsed options, the input file list,
// the output file map, and toolchain/target information. The actual
// option-table parser is an external collaborator (spec §1); Options
// here is the minimal indexed-by-identity surface the core needs.
package config

import "strconv"

// OptionID identifies an option by its canonical long name, independent
// of however many aliases or spellings the outer option-table parser
// accepts for it.
type OptionID string

// Well-known option identities the Mode Resolver and Planner inspect.
// The outer parser is responsible for mapping every spelling of a flag
// (e.g. "-wmo" and "-whole-module-optimization") onto one of these.
const (
	OptEmitImportedModules      OptionID = "emit-imported-modules"
	OptRepl                     OptionID = "repl"
	OptEmitPCM                  OptionID = "emit-pcm"
	OptDumpPCM                  OptionID = "dump-pcm"
	OptIntegratedRepl           OptionID = "integrated-repl"
	OptWholeModuleOptimization  OptionID = "whole-module-optimization"
	OptDumpAST                  OptionID = "dump-ast"
	OptIndexFile                OptionID = "index-file"
	OptEnableBatchMode          OptionID = "enable-batch-mode"
	OptBatchSeed                OptionID = "driver-batch-seed"
	OptBatchCount               OptionID = "driver-batch-count"
	OptBatchSizeLimit           OptionID = "driver-batch-size-limit"
	OptEmitExecutable           OptionID = "emit-executable"
	OptEmitLibrary              OptionID = "emit-library"
	OptStatic                   OptionID = "static"
	OptEmitObject               OptionID = "emit-object"
	OptEmitAssembly             OptionID = "emit-assembly"
	OptEmitSIL                  OptionID = "emit-sil"
	OptEmitSILGen               OptionID = "emit-silgen"
	OptEmitSIB                  OptionID = "emit-sib"
	OptEmitSIBGen               OptionID = "emit-sibgen"
	OptEmitIR                   OptionID = "emit-ir"
	OptEmitIRGen                OptionID = "emit-irgen"
	OptEmitBC                   OptionID = "emit-bc"
	OptParse                    OptionID = "parse"
	OptResolveImports           OptionID = "resolve-imports"
	OptTypecheck                OptionID = "typecheck"
	OptScanDependencies         OptionID = "scan-dependencies"
	OptEmitModulePath           OptionID = "emit-module-path"
	OptEmbedBitcode             OptionID = "embed-bitcode"
	OptOutputFile               OptionID = "o"
	OptModuleName               OptionID = "module-name"
	OptNumThreads               OptionID = "num-threads"
	OptDisableBridgingPCH       OptionID = "disable-bridging-pch"
	OptImportObjCHeader         OptionID = "import-objc-header"
	OptEnableExplicitModules    OptionID = "explicit-module-build"
	OptCacheCompileJob          OptionID = "cache-compile-job"
	OptChainBridgingHeader      OptionID = "emit-clang-header-path-chained"
	OptLTO                      OptionID = "lto"
)

// Options is a minimal, order-preserving bag of parsed flags, indexed
// by OptionID. Each ID may carry zero or more string values (most flags
// carry exactly one; some, like input search paths, may repeat).
type Options struct {
	values map[OptionID][]string
}

// NewOptions builds an empty Options bag.
func NewOptions() *Options {
	return &Options{values: make(map[OptionID][]string)}
}

// Set records one more occurrence of id with the given value ("" for a
// boolean-only flag).
func (o *Options) Set(id OptionID, value string) *Options {
	o.values[id] = append(o.values[id], value)
	return o
}

// Has reports whether id was supplied at all.
func (o *Options) Has(id OptionID) bool {
	_, ok := o.values[id]
	return ok
}

// Value returns the last value supplied for id, and whether it was present.
func (o *Options) Value(id OptionID) (string, bool) {
	vs, ok := o.values[id]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

// Int parses the last value for id as a base-10 integer.
func (o *Options) Int(id OptionID) (int, bool, error) {
	v, ok := o.Value(id)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}

// Clear removes id entirely, used when one mutually-exclusive option
// is chosen over another and the loser must be erased (spec §4.A step 3).
func (o *Options) Clear(id OptionID) {
	delete(o.values, id)
}
