package modulegraph

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := NewGraph("App")
	g.Modules[ModuleID{Kind: KindSwift, Name: "App"}] = ModuleInfo{
		ModuleFilePath: "/build/App.swiftmodule",
		Dependencies:   []ModuleID{{Kind: KindSwift, Name: "Lib"}},
	}
	g.Modules[ModuleID{Kind: KindSwift, Name: "Lib"}] = ModuleInfo{
		Dependencies: []ModuleID{{Kind: KindClang, Name: "C"}},
		SwiftTextual: &SwiftTextualDetails{
			ModuleInterfacePath: "/sdk/Lib.swiftinterface",
			ContextHash:         "abc123",
			CacheKey:            "K",
		},
	}
	g.Modules[ModuleID{Kind: KindClang, Name: "C"}] = ModuleInfo{
		Clang: &ClangDetails{ModuleMapPath: "/sdk/C.modulemap"},
	}

	data, err := EncodeGraph(g)
	if err != nil {
		t.Fatalf("EncodeGraph failed: %v", err)
	}

	decoded, err := DecodeGraph(data, nil)
	if err != nil {
		t.Fatalf("DecodeGraph failed: %v", err)
	}
	if decoded.MainModuleName != "App" {
		t.Errorf("got main module %q", decoded.MainModuleName)
	}
	lib, ok := decoded.Lookup(ModuleID{Kind: KindSwift, Name: "Lib"})
	if !ok {
		t.Fatal("expected Lib to round-trip")
	}
	if lib.SwiftTextual == nil || lib.SwiftTextual.CacheKey != "K" {
		t.Errorf("got swift-textual details %+v", lib.SwiftTextual)
	}
}

func TestApplyAliasesRewritesDependencies(t *testing.T) {
	g := NewGraph("App")
	g.Modules[ModuleID{Kind: KindSwift, Name: "App"}] = ModuleInfo{
		Dependencies: []ModuleID{{Kind: KindSwift, Name: "LibAlias"}},
	}
	g.Modules[ModuleID{Kind: KindSwift, Name: "LibAlias"}] = ModuleInfo{}

	g.ApplyAliases(map[string]string{"LibAlias": "Lib"})

	app, ok := g.Lookup(ModuleID{Kind: KindSwift, Name: "App"})
	if !ok {
		t.Fatal("expected App to survive aliasing")
	}
	if len(app.Dependencies) != 1 || app.Dependencies[0].Name != "Lib" {
		t.Errorf("got dependencies %+v, want [Lib]", app.Dependencies)
	}
	if _, ok := g.Lookup(ModuleID{Kind: KindSwift, Name: "Lib"}); !ok {
		t.Error("expected Lib entry to exist under its real name")
	}
}

func TestReachableFromDetectsCycle(t *testing.T) {
	g := NewGraph("App")
	a := ModuleID{Kind: KindSwift, Name: "App"}
	b := ModuleID{Kind: KindSwift, Name: "B"}
	g.Modules[a] = ModuleInfo{Dependencies: []ModuleID{b}}
	g.Modules[b] = ModuleInfo{Dependencies: []ModuleID{a}}

	if _, err := g.ReachableFrom(a); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestDecodeIDRejectsMalformed(t *testing.T) {
	if _, err := decodeID("no-colon-here"); err == nil {
		t.Fatal("expected an error for a module id with no tag separator")
	}
}
