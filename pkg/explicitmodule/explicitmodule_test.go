package explicitmodule

import (
	"strings"
	"testing"

	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/modulegraph"
)

// S4 — Explicit module build: App -> Lib (swift, cache key K) -> C (clang).
func buildS4Graph() *modulegraph.Graph {
	g := modulegraph.NewGraph("App")
	app := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"}
	lib := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "Lib"}
	c := modulegraph.ModuleID{Kind: modulegraph.KindClang, Name: "C"}

	g.Modules[app] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{lib}}
	g.Modules[lib] = modulegraph.ModuleInfo{
		Dependencies: []modulegraph.ModuleID{c},
		SwiftTextual: &modulegraph.SwiftTextualDetails{
			ModuleInterfacePath: "/sdk/Lib.swiftinterface",
			CommandLine:         []string{"-compile-module-from-interface"},
			CacheKey:            "K",
		},
	}
	g.Modules[c] = modulegraph.ModuleInfo{
		Clang: &modulegraph.ClangDetails{
			ModuleMapPath: "/sdk/C.modulemap",
			CommandLine:   []string{"-emit-pcm"},
		},
	}
	return g
}

func TestBuildS4EmitsOneJobPerDependency(t *testing.T) {
	g := buildS4Graph()
	cfg := Config{
		Graph:      g,
		MainModule: modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"},
	}

	plan, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(plan.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2 (compile-from-interface, generate-pcm): %v", len(plan.Jobs), plan.Jobs)
	}

	var sawInterface, sawPCM bool
	var cacheKey string
	for _, j := range plan.Jobs {
		switch j.Kind {
		case job.KindCompileModuleFromInterface:
			sawInterface = true
			cacheKey = j.OutputCacheKeys[j.Outputs[0].Key()]
		case job.KindGeneratePrecompiledModule:
			sawPCM = true
		}
	}
	if !sawInterface || !sawPCM {
		t.Fatalf("expected one compile-from-interface and one generate-pcm job, got %v", plan.Jobs)
	}
	if cacheKey != "K" {
		t.Errorf("got cache key %q, want K", cacheKey)
	}
}

func TestBuildManifestSortedSwiftFirstThenName(t *testing.T) {
	g := buildS4Graph()
	cfg := Config{
		Graph:      g,
		MainModule: modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"},
	}
	plan, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if plan.ManifestJob == nil {
		t.Fatal("expected a manifest job when no content-addressed store is configured")
	}
	manifestBytes := plan.ManifestJob.Outputs[0].Location.Contents
	text := string(manifestBytes)
	libIdx := strings.Index(text, `"Lib"`)
	cIdx := strings.Index(text, `"C"`)
	if libIdx < 0 || cIdx < 0 || libIdx > cIdx {
		t.Errorf("expected Lib before C in manifest, got %s", text)
	}
}

func TestBuildRejectsMalformedSwiftDependency(t *testing.T) {
	g := modulegraph.NewGraph("App")
	app := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"}
	lib := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "Lib"}
	g.Modules[app] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{lib}}
	g.Modules[lib] = modulegraph.ModuleInfo{} // no SwiftTextual details

	cfg := Config{Graph: g, MainModule: app}
	if _, err := Build(cfg); err == nil {
		t.Fatal("expected MalformedModuleDependency for a Swift dep with no interface path")
	}
}

func TestBuildRejectsSurvivingPlaceholder(t *testing.T) {
	g := modulegraph.NewGraph("App")
	app := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"}
	ph := modulegraph.ModuleID{Kind: modulegraph.KindSwiftPlaceholder, Name: "Ghost"}
	g.Modules[app] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{ph}}
	g.Modules[ph] = modulegraph.ModuleInfo{SwiftPlaceholder: &modulegraph.SwiftPlaceholderDetails{}}

	cfg := Config{Graph: g, MainModule: app}
	if _, err := Build(cfg); err == nil {
		t.Fatal("expected an error for a surviving placeholder module")
	}
}

func TestClangDependencyJobsDedupeByCommandLine(t *testing.T) {
	g := modulegraph.NewGraph("App")
	app := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "App"}
	libA := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "LibA"}
	libB := modulegraph.ModuleID{Kind: modulegraph.KindSwift, Name: "LibB"}
	c := modulegraph.ModuleID{Kind: modulegraph.KindClang, Name: "C"}

	g.Modules[app] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{libA, libB}}
	swiftDetails := func() *modulegraph.SwiftTextualDetails {
		return &modulegraph.SwiftTextualDetails{
			ModuleInterfacePath: "/sdk/Lib.swiftinterface",
			CommandLine:         []string{"-compile-module-from-interface"},
			CacheKey:            "K",
		}
	}
	g.Modules[libA] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{c}, SwiftTextual: swiftDetails()}
	g.Modules[libB] = modulegraph.ModuleInfo{Dependencies: []modulegraph.ModuleID{c}, SwiftTextual: swiftDetails()}
	g.Modules[c] = modulegraph.ModuleInfo{
		Clang: &modulegraph.ClangDetails{ModuleMapPath: "/sdk/C.modulemap", CommandLine: []string{"-emit-pcm"}},
	}

	cfg := Config{Graph: g, MainModule: app}
	plan, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	pcmCount := 0
	for _, j := range plan.Jobs {
		if j.Kind == job.KindGeneratePrecompiledModule {
			pcmCount++
		}
	}
	if pcmCount != 1 {
		t.Errorf("got %d generate-pcm jobs, want 1 (deduped by command line)", pcmCount)
	}
}
