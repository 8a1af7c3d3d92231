package modulegraph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// wireGraph mirrors the scanner's JSON product (spec §6): a flat
// "mainModuleName" plus a "modules" array of {id, info} pairs, id
// encoded as "<tag>:<name>".
type wireGraph struct {
	MainModuleName string       `json:"mainModuleName"`
	Modules        []wireModule `json:"modules"`
}

type wireModule struct {
	ID   string        `json:"id"`
	Info wireModuleInfo `json:"info"`
}

type wireModuleInfo struct {
	ModuleFilePath string   `json:"modulePath,omitempty"`
	SourceFiles    []string `json:"sourceFiles,omitempty"`
	Dependencies   []string `json:"directDependencies,omitempty"`
	LinkLibraries  []string `json:"linkLibraries,omitempty"`

	SwiftTextual     *wireSwiftTextual     `json:"swiftTextualDetails,omitempty"`
	SwiftBinary      *wireSwiftBinary      `json:"swiftBinaryDetails,omitempty"`
	SwiftPlaceholder *wireSwiftPlaceholder `json:"swiftPlaceholderDetails,omitempty"`
	Clang            *wireClang            `json:"clangDetails,omitempty"`
}

type wireSwiftTextual struct {
	ModuleInterfacePath        string   `json:"moduleInterfacePath"`
	CompiledModuleCandidates   []string `json:"compiledModuleCandidates,omitempty"`
	BridgingHeaderPath         string   `json:"bridgingHeaderPath,omitempty"`
	BridgingHeaderDependencies []string `json:"bridgingHeaderDependencies,omitempty"`
	CommandLine                []string `json:"commandLine,omitempty"`
	BridgingPCHCommandLine     []string `json:"bridgingPchCommandLine,omitempty"`
	ContextHash                string   `json:"contextHash,omitempty"`
	IsFramework                bool     `json:"isFramework,omitempty"`
	SwiftOverlayDependencies   []string `json:"swiftOverlayDependencies,omitempty"`
	CacheKey                   string   `json:"moduleCacheKey,omitempty"`
	ChainedBridgingHeaderPath  string   `json:"chainedBridgingHeaderPath,omitempty"`
	ChainedBridgingHeaderBytes []byte   `json:"chainedBridgingHeaderContent,omitempty"`
	ExtraPCMArgs               []string `json:"extraPcmArgs,omitempty"`
}

type wireSwiftBinary struct {
	CompiledModulePath                 string   `json:"compiledModulePath"`
	ModuleDocPath                      string   `json:"moduleDocPath,omitempty"`
	ModuleSourceInfoPath               string   `json:"moduleSourceInfoPath,omitempty"`
	HeaderDependencies                 []string `json:"headerDependencies,omitempty"`
	HeaderDependencyModuleDependencies []string `json:"headerDependenciesModuleDependencies,omitempty"`
	IsFramework                        bool     `json:"isFramework,omitempty"`
	CacheKey                           string   `json:"moduleCacheKey,omitempty"`
}

type wireSwiftPlaceholder struct {
	ModuleDocPath        string `json:"moduleDocPath,omitempty"`
	ModuleSourceInfoPath string `json:"moduleSourceInfoPath,omitempty"`
}

type wireClang struct {
	ModuleMapPath string   `json:"moduleMapPath"`
	ContextHash   string   `json:"contextHash,omitempty"`
	CommandLine   []string `json:"commandLine,omitempty"`
	CacheKey      string   `json:"moduleCacheKey,omitempty"`
}

func encodeID(id ModuleID) string {
	return id.String()
}

func decodeID(s string) (ModuleID, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			kind, ok := moduleKindFromTag(s[:i])
			if !ok {
				return ModuleID{}, fmt.Errorf("unknown module id tag %q in %q", s[:i], s)
			}
			return ModuleID{Kind: kind, Name: s[i+1:]}, nil
		}
	}
	return ModuleID{}, fmt.Errorf("malformed module id %q: missing tag separator", s)
}

func encodeIDs(ids []ModuleID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = encodeID(id)
	}
	return out
}

func decodeIDs(ss []string) ([]ModuleID, error) {
	if ss == nil {
		return nil, nil
	}
	out := make([]ModuleID, len(ss))
	for i, s := range ss {
		id, err := decodeID(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// DecodeGraph parses the scanner's JSON product and applies the
// module-alias table (spec §6) to both keys and every dependency list.
func DecodeGraph(data []byte, aliases map[string]string) (*Graph, error) {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding module dependency graph: %w", err)
	}

	g := NewGraph(w.MainModuleName)
	for _, m := range w.Modules {
		id, err := decodeID(m.ID)
		if err != nil {
			return nil, err
		}
		deps, err := decodeIDs(m.Info.Dependencies)
		if err != nil {
			return nil, err
		}
		info := ModuleInfo{
			ModuleFilePath: m.Info.ModuleFilePath,
			SourceFiles:    m.Info.SourceFiles,
			Dependencies:   deps,
			LinkLibraries:  m.Info.LinkLibraries,
		}
		if w := m.Info.SwiftTextual; w != nil {
			bridgingDeps, err := decodeIDs(w.BridgingHeaderDependencies)
			if err != nil {
				return nil, err
			}
			overlayDeps, err := decodeIDs(w.SwiftOverlayDependencies)
			if err != nil {
				return nil, err
			}
			info.SwiftTextual = &SwiftTextualDetails{
				ModuleInterfacePath:        w.ModuleInterfacePath,
				CompiledModuleCandidates:   w.CompiledModuleCandidates,
				BridgingHeaderPath:         w.BridgingHeaderPath,
				BridgingHeaderDependencies: bridgingDeps,
				CommandLine:                w.CommandLine,
				BridgingPCHCommandLine:     w.BridgingPCHCommandLine,
				ContextHash:                w.ContextHash,
				IsFramework:                w.IsFramework,
				SwiftOverlayDependencies:   overlayDeps,
				CacheKey:                   w.CacheKey,
				ChainedBridgingHeaderPath:  w.ChainedBridgingHeaderPath,
				ChainedBridgingHeaderBytes: w.ChainedBridgingHeaderBytes,
				ExtraPCMArgs:               w.ExtraPCMArgs,
			}
		}
		if w := m.Info.SwiftBinary; w != nil {
			headerModDeps, err := decodeIDs(w.HeaderDependencyModuleDependencies)
			if err != nil {
				return nil, err
			}
			info.SwiftBinary = &SwiftBinaryDetails{
				CompiledModulePath:                 w.CompiledModulePath,
				ModuleDocPath:                       w.ModuleDocPath,
				ModuleSourceInfoPath:                w.ModuleSourceInfoPath,
				HeaderDependencies:                  w.HeaderDependencies,
				HeaderDependencyModuleDependencies: headerModDeps,
				IsFramework:                         w.IsFramework,
				CacheKey:                            w.CacheKey,
			}
		}
		if w := m.Info.SwiftPlaceholder; w != nil {
			info.SwiftPlaceholder = &SwiftPlaceholderDetails{
				ModuleDocPath:        w.ModuleDocPath,
				ModuleSourceInfoPath: w.ModuleSourceInfoPath,
			}
		}
		if w := m.Info.Clang; w != nil {
			info.Clang = &ClangDetails{
				ModuleMapPath: w.ModuleMapPath,
				ContextHash:   w.ContextHash,
				CommandLine:   w.CommandLine,
				CacheKey:      w.CacheKey,
			}
		}
		g.Modules[id] = info
	}

	g.ApplyAliases(aliases)
	return g, nil
}

// EncodeGraph serializes g back to the scanner's wire format; module
// iteration is sorted by id string so encode output is reproducible
// across runs (mirrors the determinism requirement in spec §4.C,
// applied here to every JSON boundary per spec §6).
func EncodeGraph(g *Graph) ([]byte, error) {
	w := wireGraph{MainModuleName: g.MainModuleName}

	ids := make([]ModuleID, 0, len(g.Modules))
	for id := range g.Modules {
		ids = append(ids, id)
	}
	sortModuleIDs(ids)

	for _, id := range ids {
		info := g.Modules[id]
		wm := wireModule{
			ID: encodeID(id),
			Info: wireModuleInfo{
				ModuleFilePath: info.ModuleFilePath,
				SourceFiles:    info.SourceFiles,
				Dependencies:   encodeIDs(info.Dependencies),
				LinkLibraries:  info.LinkLibraries,
			},
		}
		if info.SwiftTextual != nil {
			st := info.SwiftTextual
			wm.Info.SwiftTextual = &wireSwiftTextual{
				ModuleInterfacePath:        st.ModuleInterfacePath,
				CompiledModuleCandidates:   st.CompiledModuleCandidates,
				BridgingHeaderPath:         st.BridgingHeaderPath,
				BridgingHeaderDependencies: encodeIDs(st.BridgingHeaderDependencies),
				CommandLine:                st.CommandLine,
				BridgingPCHCommandLine:     st.BridgingPCHCommandLine,
				ContextHash:                st.ContextHash,
				IsFramework:                st.IsFramework,
				SwiftOverlayDependencies:   encodeIDs(st.SwiftOverlayDependencies),
				CacheKey:                   st.CacheKey,
				ChainedBridgingHeaderPath:  st.ChainedBridgingHeaderPath,
				ChainedBridgingHeaderBytes: st.ChainedBridgingHeaderBytes,
				ExtraPCMArgs:               st.ExtraPCMArgs,
			}
		}
		if info.SwiftBinary != nil {
			sb := info.SwiftBinary
			wm.Info.SwiftBinary = &wireSwiftBinary{
				CompiledModulePath:                 sb.CompiledModulePath,
				ModuleDocPath:                       sb.ModuleDocPath,
				ModuleSourceInfoPath:                sb.ModuleSourceInfoPath,
				HeaderDependencies:                  sb.HeaderDependencies,
				HeaderDependencyModuleDependencies: encodeIDs(sb.HeaderDependencyModuleDependencies),
				IsFramework:                         sb.IsFramework,
				CacheKey:                            sb.CacheKey,
			}
		}
		if info.SwiftPlaceholder != nil {
			sp := info.SwiftPlaceholder
			wm.Info.SwiftPlaceholder = &wireSwiftPlaceholder{
				ModuleDocPath:        sp.ModuleDocPath,
				ModuleSourceInfoPath: sp.ModuleSourceInfoPath,
			}
		}
		if info.Clang != nil {
			c := info.Clang
			wm.Info.Clang = &wireClang{
				ModuleMapPath: c.ModuleMapPath,
				ContextHash:   c.ContextHash,
				CommandLine:   c.CommandLine,
				CacheKey:      c.CacheKey,
			}
		}
		w.Modules = append(w.Modules, wm)
	}

	return json.MarshalIndent(w, "", "  ")
}

func sortModuleIDs(ids []ModuleID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
