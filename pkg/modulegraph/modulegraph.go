// Package modulegraph holds the inter-module dependency graph (spec §3)
// the dependency scanner produces and the Explicit Module Build Planner
// consumes, plus its JSON codec (spec §6).
package modulegraph

import "fmt"

// ModuleKind tags the four flavors of module id (spec §3).
type ModuleKind int

const (
	KindSwift ModuleKind = iota
	KindSwiftPrebuiltExternal
	KindSwiftPlaceholder
	KindClang
)

func (k ModuleKind) jsonTag() string {
	switch k {
	case KindSwift:
		return "swiftTextual"
	case KindSwiftPrebuiltExternal:
		return "swiftBinary"
	case KindSwiftPlaceholder:
		return "swiftPlaceholder"
	case KindClang:
		return "clang"
	default:
		return "unknown"
	}
}

func moduleKindFromTag(tag string) (ModuleKind, bool) {
	switch tag {
	case "swiftTextual":
		return KindSwift, true
	case "swiftBinary":
		return KindSwiftPrebuiltExternal, true
	case "swiftPlaceholder":
		return KindSwiftPlaceholder, true
	case "clang":
		return KindClang, true
	default:
		return 0, false
	}
}

// ModuleID identifies one node of the graph.
type ModuleID struct {
	Kind ModuleKind
	Name string
}

// String renders the wire form, e.g. "swiftTextual:Lib".
func (id ModuleID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind.jsonTag(), id.Name)
}

// SwiftTextualDetails is the Swift(-textual) variant of ModuleInfo.details.
type SwiftTextualDetails struct {
	ModuleInterfacePath        string
	CompiledModuleCandidates   []string
	BridgingHeaderPath         string
	BridgingHeaderDependencies []ModuleID
	CommandLine                []string
	BridgingPCHCommandLine     []string
	ContextHash                string
	IsFramework                bool
	SwiftOverlayDependencies   []ModuleID
	CacheKey                   string
	ChainedBridgingHeaderPath  string
	ChainedBridgingHeaderBytes []byte
	ExtraPCMArgs               []string
}

// SwiftBinaryDetails is the Swift-binary (prebuilt) variant.
type SwiftBinaryDetails struct {
	CompiledModulePath               string
	ModuleDocPath                    string
	ModuleSourceInfoPath             string
	HeaderDependencies               []string
	HeaderDependencyModuleDependencies []ModuleID
	IsFramework                      bool
	CacheKey                         string
}

// SwiftPlaceholderDetails is the Swift-placeholder variant; any instance
// surviving to plan time is a fatal error (spec §3, §4.D).
type SwiftPlaceholderDetails struct {
	ModuleDocPath        string
	ModuleSourceInfoPath string
}

// ClangDetails is the Clang variant.
type ClangDetails struct {
	ModuleMapPath string
	ContextHash   string
	CommandLine   []string
	CacheKey      string
}

// ModuleInfo is the value half of the graph (spec §3).
type ModuleInfo struct {
	ModuleFilePath string
	SourceFiles    []string
	Dependencies   []ModuleID
	LinkLibraries  []string

	SwiftTextual    *SwiftTextualDetails
	SwiftBinary     *SwiftBinaryDetails
	SwiftPlaceholder *SwiftPlaceholderDetails
	Clang           *ClangDetails
}

// Graph is the full mapping from module id to module info, plus the
// name of the main module the reachability map is rooted at.
type Graph struct {
	MainModuleName string
	Modules        map[ModuleID]ModuleInfo
}

// NewGraph builds an empty graph rooted at mainModuleName.
func NewGraph(mainModuleName string) *Graph {
	return &Graph{MainModuleName: mainModuleName, Modules: make(map[ModuleID]ModuleInfo)}
}

// MainModuleID is the Swift module id for the root of the graph.
func (g *Graph) MainModuleID() ModuleID {
	return ModuleID{Kind: KindSwift, Name: g.MainModuleName}
}

// Lookup resolves an id, applying no aliasing (callers apply the
// module-alias table before calling Lookup; see ApplyAliases).
func (g *Graph) Lookup(id ModuleID) (ModuleInfo, bool) {
	info, ok := g.Modules[id]
	return info, ok
}

// ApplyAliases rewrites every module id (keys and the dependency lists
// inside every ModuleInfo) through the name->real-name alias table, as
// spec §6 requires of the decoder.
func (g *Graph) ApplyAliases(aliases map[string]string) {
	resolve := func(id ModuleID) ModuleID {
		if real, ok := aliases[id.Name]; ok {
			id.Name = real
		}
		return id
	}

	rewritten := make(map[ModuleID]ModuleInfo, len(g.Modules))
	for id, info := range g.Modules {
		newID := resolve(id)
		newDeps := make([]ModuleID, len(info.Dependencies))
		for i, d := range info.Dependencies {
			newDeps[i] = resolve(d)
		}
		info.Dependencies = newDeps
		if info.SwiftTextual != nil {
			st := *info.SwiftTextual
			for i, d := range st.BridgingHeaderDependencies {
				st.BridgingHeaderDependencies[i] = resolve(d)
			}
			for i, d := range st.SwiftOverlayDependencies {
				st.SwiftOverlayDependencies[i] = resolve(d)
			}
			info.SwiftTextual = &st
		}
		if info.SwiftBinary != nil {
			sb := *info.SwiftBinary
			for i, d := range sb.HeaderDependencyModuleDependencies {
				sb.HeaderDependencyModuleDependencies[i] = resolve(d)
			}
			info.SwiftBinary = &sb
		}
		rewritten[newID] = info
	}
	if real, ok := aliases[g.MainModuleName]; ok {
		g.MainModuleName = real
	}
	g.Modules = rewritten
}

// ReachableFrom computes the transitive closure of direct dependencies
// starting at root, erroring on a dependency cycle (spec §4.D).
func (g *Graph) ReachableFrom(root ModuleID) ([]ModuleID, error) {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[ModuleID]int)
	var order []ModuleID

	var visit func(id ModuleID) error
	visit = func(id ModuleID) error {
		state[id] = visiting
		info, ok := g.Modules[id]
		if ok {
			for _, dep := range info.Dependencies {
				switch state[dep] {
				case visiting:
					return fmt.Errorf("dependency cycle in module graph: %s depends (transitively) on itself through %s", id, dep)
				case unvisited:
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}
		state[id] = visited
		order = append(order, id)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}
