package mode

import (
	"testing"

	"github.com/aster-lang/asterc-driver/internal/diagnostics"
	"github.com/aster-lang/asterc-driver/pkg/config"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

func TestResolveStandardCompile(t *testing.T) {
	opts := config.NewOptions()
	res, err := Resolve(opts, DriverBatch, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindStandardCompile {
		t.Errorf("got %v, want standard-compile", res.Mode.Kind)
	}
}

func TestResolveEmitLibraryDynamicByDefault(t *testing.T) {
	opts := config.NewOptions().Set(config.OptEmitLibrary, "")
	res, err := Resolve(opts, DriverBatch, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.OutputTypes.Linker != typedpath.FileTypeDynamicLibrary {
		t.Errorf("got linker output %v, want dynamic-library", res.OutputTypes.Linker)
	}
}

func TestResolveEmitLibraryStaticWithOptStatic(t *testing.T) {
	opts := config.NewOptions().Set(config.OptEmitLibrary, "").Set(config.OptStatic, "")
	res, err := Resolve(opts, DriverBatch, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.OutputTypes.Linker != typedpath.FileTypeStaticLibrary {
		t.Errorf("got linker output %v, want static-library", res.OutputTypes.Linker)
	}
}

func TestResolveSingleCompileWMO(t *testing.T) {
	opts := config.NewOptions().Set(config.OptWholeModuleOptimization, "")
	res, err := Resolve(opts, DriverBatch, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindSingleCompile {
		t.Errorf("got %v, want single-compile", res.Mode.Kind)
	}
	if !res.Mode.IsSingleCompilation() {
		t.Error("expected IsSingleCompilation true")
	}
}

func TestResolveBatchCompileSubOptions(t *testing.T) {
	opts := config.NewOptions().
		Set(config.OptEnableBatchMode, "").
		Set(config.OptBatchCount, "2").
		Set(config.OptBatchSeed, "7")
	res, err := Resolve(opts, DriverBatch, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindBatchCompile {
		t.Fatalf("got %v, want batch-compile", res.Mode.Kind)
	}
	if res.Mode.Batch.Count != 2 || res.Mode.Batch.Seed != 7 {
		t.Errorf("got batch params %+v", res.Mode.Batch)
	}
	if !res.Mode.IsBatch() {
		t.Error("expected IsBatch true")
	}
}

func TestResolveDumpASTWinsOverWMO(t *testing.T) {
	var warned []string
	opts := config.NewOptions().
		Set(config.OptWholeModuleOptimization, "").
		Set(config.OptDumpAST, "")
	res, err := Resolve(opts, DriverBatch, true, func(k diagnostics.Kind, args ...any) {
		warned = append(warned, k.String())
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindStandardCompile {
		t.Errorf("got %v, want standard-compile (dump-ast wins)", res.Mode.Kind)
	}
	if opts.Has(config.OptWholeModuleOptimization) {
		t.Error("expected whole-module-optimization to be erased")
	}
}

func TestResolveInteractiveNoInputsIsIntro(t *testing.T) {
	opts := config.NewOptions()
	res, err := Resolve(opts, DriverInteractive, false, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindIntro {
		t.Errorf("got %v, want intro", res.Mode.Kind)
	}
}

func TestResolveInteractiveWithInputsIsImmediate(t *testing.T) {
	opts := config.NewOptions()
	res, err := Resolve(opts, DriverInteractive, true, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Mode.Kind != KindImmediate {
		t.Errorf("got %v, want immediate", res.Mode.Kind)
	}
}

func TestResolveIntegratedReplRemoved(t *testing.T) {
	opts := config.NewOptions().Set(config.OptIntegratedRepl, "")
	if _, err := Resolve(opts, DriverBatch, false, nil); err == nil {
		t.Fatal("expected an error for the removed integrated REPL option")
	}
}
