// Package explicitmodule implements the Explicit Module Build Planner
// (spec §4.D): turning a scanner-produced module dependency graph into
// one compile-from-interface or generate-precompiled-module job per
// reachable dependency, plus the shared command-line additions every
// consumer of those modules needs.
package explicitmodule

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aster-lang/asterc-driver/internal/diagnostics"
	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/modulegraph"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// PrefixMapPair is one (from, to) remap entry (spec §4.D step 4).
type PrefixMapPair struct {
	From string
	To   string
}

// Capabilities are the toolchain feature flags the planner branches on
// (spec §4.D "capability flags").
type Capabilities struct {
	SupportsExplicitInterfaceBuild  bool
	SupportsScannerPrefixMapPaths   bool
	SupportsBridgingPCHCommand      bool
}

// Config bundles everything the planner needs for one main module.
type Config struct {
	Graph              *modulegraph.Graph
	MainModule         modulegraph.ModuleID
	ContentAddressedStore bool // true when a CAS handle is available
	PrefixMap          []PrefixMapPair
	Capabilities       Capabilities
	IntegratedDriver   bool
	CompilerTool       typedpath.TypedPath
	PCMGeneratorTool   typedpath.TypedPath
}

// SwiftModuleArtifactInfo is one entry of the explicit-module-dependency
// manifest for a Swift dependency (spec §4.D, §6).
type SwiftModuleArtifactInfo struct {
	Name          string
	ModulePath    string
	IsFramework   bool
	CacheKey      string
	HeaderDeps    []string
}

// ClangModuleArtifactInfo is the Clang-dependency manifest entry.
type ClangModuleArtifactInfo struct {
	Name                     string
	ModulePath               string
	ModuleMapPath            string
	CacheKey                 string
	IsBridgingHeaderDependency bool
}

// Plan is the result of planning one main module's explicit-module
// dependency jobs.
type Plan struct {
	Jobs []*job.Job
	// ManifestPath or ManifestStoreID names where the serialized
	// artifact-info JSON lives, depending on ContentAddressedStore.
	ManifestPath    string
	ManifestStoreID string
	ManifestJob     *job.Job // job producing/writing the manifest, if a temp file was used
}

// Build implements spec §4.D end to end for one main module.
func Build(cfg Config) (*Plan, error) {
	reachable, err := cfg.Graph.ReachableFrom(cfg.MainModule)
	if err != nil {
		return nil, err
	}

	bridgingDeps, err := bridgingHeaderClosure(cfg.Graph, cfg.MainModule, reachable)
	if err != nil {
		return nil, err
	}

	var jobs []*job.Job
	var swiftArtifacts []SwiftModuleArtifactInfo
	var clangArtifacts []ClangModuleArtifactInfo
	var manifestInputs []typedpath.TypedPath

	pcmJobsByCommandLine := make(map[string]*job.Job)

	for _, id := range reachable {
		if id == cfg.MainModule {
			continue
		}
		info, ok := cfg.Graph.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("internal error: %s reachable but missing from graph", id)
		}

		switch id.Kind {
		case modulegraph.KindSwiftPlaceholder:
			return nil, diagnostics.New(diagnostics.KindMissingExternalDependency, id.Name)

		case modulegraph.KindSwift, modulegraph.KindSwiftPrebuiltExternal:
			if info.SwiftTextual == nil {
				return nil, diagnostics.New(diagnostics.KindMalformedModuleDependency, id.Name, "missing moduleInterfacePath")
			}
			if info.SwiftTextual.ModuleInterfacePath == "" {
				return nil, diagnostics.New(diagnostics.KindMalformedModuleDependency, id.Name, "missing moduleInterfacePath")
			}
			cacheKey := info.SwiftTextual.CacheKey
			if cacheKey == "" && !cfg.IntegratedDriver {
				return nil, diagnostics.New(diagnostics.KindMissingContextHashOnSwiftDependency, id.Name)
			}

			additions, err := explicitModuleDependencyAdditions(cfg, id)
			if err != nil {
				return nil, err
			}

			j := buildSwiftDependencyJob(cfg, id, info, additions)
			jobs = append(jobs, j)

			swiftArtifacts = append(swiftArtifacts, SwiftModuleArtifactInfo{
				Name:        id.Name,
				ModulePath:  j.Outputs[0].Location.Path,
				IsFramework: info.SwiftTextual.IsFramework,
				CacheKey:    cacheKey,
			})
			manifestInputs = append(manifestInputs, j.Outputs[0])

		case modulegraph.KindClang:
			if info.Clang == nil {
				return nil, diagnostics.New(diagnostics.KindMalformedModuleDependency, id.Name, "missing clang details")
			}
			additions, err := explicitModuleDependencyAdditions(cfg, id)
			if err != nil {
				return nil, err
			}
			key := pcmCommandLineKey(info.Clang.CommandLine, info.Clang.ContextHash)
			j, ok := pcmJobsByCommandLine[key]
			if !ok {
				j = buildClangDependencyJob(cfg, id, info, additions)
				pcmJobsByCommandLine[key] = j
				jobs = append(jobs, j)
			}
			clangArtifacts = append(clangArtifacts, ClangModuleArtifactInfo{
				Name:                       id.Name,
				ModulePath:                 j.Outputs[0].Location.Path,
				ModuleMapPath:              info.Clang.ModuleMapPath,
				CacheKey:                   info.Clang.CacheKey,
				IsBridgingHeaderDependency: bridgingDeps[id],
			})
			manifestInputs = append(manifestInputs, j.Outputs[0])
		}
	}

	sort.Slice(swiftArtifacts, func(i, j int) bool { return swiftArtifacts[i].Name < swiftArtifacts[j].Name })
	sort.Slice(clangArtifacts, func(i, j int) bool { return clangArtifacts[i].Name < clangArtifacts[j].Name })

	manifestBytes, err := serializeManifest(swiftArtifacts, clangArtifacts)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Jobs: jobs}
	if cfg.ContentAddressedStore {
		plan.ManifestStoreID = contentAddress(manifestBytes)
	} else {
		manifestPath := fmt.Sprintf("explicit-module-map-%s.json", contentAddress(manifestBytes)[:16])
		manifestTyped := typedpath.TemporaryWithContents(manifestPath, manifestBytes, typedpath.FileTypeJSONArtifacts)
		plan.ManifestPath = manifestTyped.Location.Path
		manifestJob := &job.Job{
			Kind:    job.KindEmitModule,
			Outputs: []typedpath.TypedPath{manifestTyped},
			Inputs:  manifestInputs,
		}
		plan.ManifestJob = manifestJob
	}

	return plan, nil
}

// explicitModuleDependencyAdditions implements the shared subroutine of
// spec §4.D: the command-line fragments every consumer of target's
// transitive dependency set needs. It returns flags only; no inputs are
// added.
func explicitModuleDependencyAdditions(cfg Config, target modulegraph.ModuleID) ([]job.Arg, error) {
	reachable, err := cfg.Graph.ReachableFrom(target)
	if err != nil {
		return nil, err
	}

	var args []job.Arg
	args = append(args, job.Flag("-disable-implicit-swift-modules"))
	args = append(args, job.Flag("-Xcc"), job.Flag("-fno-implicit-modules"))
	args = append(args, job.Flag("-Xcc"), job.Flag("-fno-implicit-module-maps"))

	for _, pair := range cfg.PrefixMap {
		args = append(args, job.Flag("-cache-replay-prefix-map"))
		if cfg.Capabilities.SupportsScannerPrefixMapPaths {
			args = append(args, job.Flag(pair.To), job.Flag(pair.From))
		} else {
			args = append(args, job.Flag(pair.To+"="+pair.From))
		}
	}

	_ = reachable // reachability already validated by the caller's own ReachableFrom call
	return args, nil
}

func buildSwiftDependencyJob(cfg Config, id modulegraph.ModuleID, info modulegraph.ModuleInfo, additions []job.Arg) *job.Job {
	st := info.SwiftTextual
	iface := typedpath.Absolute(st.ModuleInterfacePath, typedpath.FileTypeInterface)
	inputs := []typedpath.TypedPath{iface}
	for _, c := range st.CompiledModuleCandidates {
		inputs = append(inputs, typedpath.Absolute(c, typedpath.FileTypeModule))
	}

	outPath := info.ModuleFilePath
	if outPath == "" {
		outPath = id.Name + ".swiftmodule"
	}
	out := typedpath.Absolute(outPath, typedpath.FileTypeModule)

	var args []job.Arg
	for _, flag := range st.CommandLine {
		args = append(args, job.Flag(flag))
	}
	args = append(args, additions...)

	outputCacheKeys := map[string]string{}
	if st.CacheKey != "" {
		outputCacheKeys[out.Key()] = st.CacheKey
	}

	return &job.Job{
		Kind:            job.KindCompileModuleFromInterface,
		Tool:            cfg.CompilerTool,
		Inputs:          inputs,
		DisplayInputs:   []typedpath.TypedPath{iface},
		Outputs:         []typedpath.TypedPath{out},
		CommandLine:     args,
		OutputCacheKeys: outputCacheKeys,
	}
}

func buildClangDependencyJob(cfg Config, id modulegraph.ModuleID, info modulegraph.ModuleInfo, additions []job.Arg) *job.Job {
	moduleMap := typedpath.Absolute(info.Clang.ModuleMapPath, typedpath.FileTypeNone)

	outPath := info.ModuleFilePath
	if outPath == "" {
		name := id.Name
		if info.Clang.ContextHash != "" {
			name = fmt.Sprintf("%s-%s", id.Name, info.Clang.ContextHash)
		}
		outPath = name + ".pcm"
	}
	out := typedpath.Absolute(outPath, typedpath.FileTypePrecompiledModule)

	var args []job.Arg
	for _, flag := range info.Clang.CommandLine {
		args = append(args, job.Flag(flag))
	}
	args = append(args, additions...)

	outputCacheKeys := map[string]string{}
	if info.Clang.CacheKey != "" {
		outputCacheKeys[out.Key()] = info.Clang.CacheKey
	}

	return &job.Job{
		Kind:            job.KindGeneratePrecompiledModule,
		Tool:            cfg.PCMGeneratorTool,
		Inputs:          []typedpath.TypedPath{moduleMap},
		DisplayInputs:   []typedpath.TypedPath{moduleMap},
		Outputs:         []typedpath.TypedPath{out},
		CommandLine:     args,
		OutputCacheKeys: outputCacheKeys,
	}
}

// pcmCommandLineKey identifies a distinct Clang-module build: spec §4.D
// says the planner emits one generate-PCM job per distinct command
// line (the modern, scanner-supplied-per-module path); this key
// realizes "distinct" as the joined command line plus context hash.
func pcmCommandLineKey(commandLine []string, contextHash string) string {
	h := sha256.New()
	for _, a := range commandLine {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	h.Write([]byte(contextHash))
	return hex.EncodeToString(h.Sum(nil))
}

// bridgingHeaderClosure implements the BFS of spec §4.D: starting from
// the main module's bridgingHeaderDependencies plus every reachable
// Swift-binary dep's headerDependencyModuleDependencies, collect every
// Clang module id reached.
func bridgingHeaderClosure(g *modulegraph.Graph, main modulegraph.ModuleID, reachable []modulegraph.ModuleID) (map[modulegraph.ModuleID]bool, error) {
	marked := make(map[modulegraph.ModuleID]bool)

	var seeds []modulegraph.ModuleID
	if info, ok := g.Lookup(main); ok && info.SwiftTextual != nil {
		seeds = append(seeds, info.SwiftTextual.BridgingHeaderDependencies...)
	}
	for _, id := range reachable {
		if info, ok := g.Lookup(id); ok && info.SwiftBinary != nil {
			seeds = append(seeds, info.SwiftBinary.HeaderDependencyModuleDependencies...)
		}
	}

	queue := append([]modulegraph.ModuleID(nil), seeds...)
	visited := make(map[modulegraph.ModuleID]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		if id.Kind == modulegraph.KindClang {
			marked[id] = true
		}
		if info, ok := g.Lookup(id); ok {
			queue = append(queue, info.Dependencies...)
		}
	}
	return marked, nil
}

func serializeManifest(swift []SwiftModuleArtifactInfo, clang []ClangModuleArtifactInfo) ([]byte, error) {
	type swiftEntry struct {
		ModuleName            string   `json:"moduleName"`
		ModulePath            string   `json:"modulePath"`
		IsFramework           bool     `json:"isFramework"`
		ModuleCacheKey        string   `json:"moduleCacheKey,omitempty"`
		PrebuiltHeaderDeps    []string `json:"prebuiltHeaderDependencyPaths,omitempty"`
	}
	type clangEntry struct {
		ModuleName                 string `json:"moduleName"`
		ClangModulePath             string `json:"clangModulePath"`
		ClangModuleMapPath          string `json:"clangModuleMapPath"`
		IsFramework                 bool   `json:"isFramework"`
		IsBridgingHeaderDependency  bool   `json:"isBridgingHeaderDependency"`
		ClangModuleCacheKey         string `json:"clangModuleCacheKey,omitempty"`
	}

	var entries []any
	for _, s := range swift {
		entries = append(entries, swiftEntry{
			ModuleName:         s.Name,
			ModulePath:         s.ModulePath,
			IsFramework:        s.IsFramework,
			ModuleCacheKey:     s.CacheKey,
			PrebuiltHeaderDeps: s.HeaderDeps,
		})
	}
	for _, c := range clang {
		entries = append(entries, clangEntry{
			ModuleName:                c.Name,
			ClangModulePath:            c.ModulePath,
			ClangModuleMapPath:         c.ModuleMapPath,
			IsBridgingHeaderDependency: c.IsBridgingHeaderDependency,
			ClangModuleCacheKey:        c.CacheKey,
		})
	}
	return json.MarshalIndent(entries, "", "  ")
}

func contentAddress(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
