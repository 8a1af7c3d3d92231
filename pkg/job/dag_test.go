package job

import (
	"testing"

	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

func compileJob(src, obj string) *Job {
	srcPath := typedpath.Absolute(src, typedpath.FileTypeSource)
	objPath := typedpath.Absolute(obj, typedpath.FileTypeObject)
	return &Job{
		Kind:          KindCompile,
		Inputs:        []typedpath.TypedPath{srcPath},
		PrimaryInputs: []typedpath.TypedPath{srcPath},
		Outputs:       []typedpath.TypedPath{objPath},
	}
}

func linkJob(objs []string, exe string) *Job {
	var inputs []typedpath.TypedPath
	for _, o := range objs {
		inputs = append(inputs, typedpath.Absolute(o, typedpath.FileTypeObject))
	}
	return &Job{
		Kind:    KindLink,
		Inputs:  inputs,
		Outputs: []typedpath.TypedPath{typedpath.Absolute(exe, typedpath.FileTypeExecutable)},
	}
}

func TestBuildGraphRejectsDuplicateOutputs(t *testing.T) {
	a := compileJob("a.as", "out.o")
	b := compileJob("b.as", "out.o")
	if _, err := BuildGraph([]*Job{a, b}); err == nil {
		t.Fatal("expected an error when two jobs declare the same output")
	}
}

func TestBuildGraphRejectsMultipleInPlaceJobs(t *testing.T) {
	a := &Job{Kind: KindRepl, RequiresInPlaceExecution: true}
	b := &Job{Kind: KindVersionRequest, RequiresInPlaceExecution: true}
	if _, err := BuildGraph([]*Job{a, b}); err == nil {
		t.Fatal("expected an error with two in-place jobs")
	}
}

func TestTopologicalOrderRespectsEdges(t *testing.T) {
	a := compileJob("a.as", "a.o")
	b := compileJob("b.as", "b.o")
	link := linkJob([]string{"a.o", "b.o"}, "prog")

	g, err := BuildGraph([]*Job{link, b, a})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder failed: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(order))
	}
	if order[2] != link {
		t.Errorf("expected link job last, got %v", order[2])
	}
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	a := compileJob("a.as", "a.o")
	b := compileJob("b.as", "b.o")
	link := linkJob([]string{"a.o", "b.o"}, "prog")

	g1, _ := BuildGraph([]*Job{link, a, b})
	order1, _ := g1.TopologicalOrder()

	g2, _ := BuildGraph([]*Job{b, link, a})
	order2, _ := g2.TopologicalOrder()

	if len(order1) != len(order2) {
		t.Fatal("orders differ in length")
	}
	for i := range order1 {
		if !order1[i].Equal(order2[i]) {
			t.Errorf("position %d: %v != %v", i, order1[i], order2[i])
		}
	}
}

func TestDetectCyclesFindsSelfLoop(t *testing.T) {
	obj := typedpath.Absolute("a.o", typedpath.FileTypeObject)
	a := &Job{Kind: KindCompile, Inputs: []typedpath.TypedPath{obj}, Outputs: []typedpath.TypedPath{obj}}
	g, err := BuildGraph([]*Job{a})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	if err := g.DetectCycles(); err == nil {
		t.Fatal("expected a cycle to be detected")
	}
}
