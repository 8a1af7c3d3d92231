package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

type recordingDelegate struct {
	started    []string
	finished   []string
	skipped    []string
	startPIDs  []int
	finishPIDs []int
	realPIDs   map[int]bool
}

func (d *recordingDelegate) JobStarted(j *job.Job, args []string, pid, realPID int) {
	d.started = append(d.started, j.String())
	d.startPIDs = append(d.startPIDs, pid)
	if d.realPIDs == nil {
		d.realPIDs = make(map[int]bool)
	}
	d.realPIDs[realPID] = true
}
func (d *recordingDelegate) JobFinished(j *job.Job, result ProcessResult, pid, realPID int) {
	d.finished = append(d.finished, j.String())
	d.finishPIDs = append(d.finishPIDs, pid)
	if d.realPIDs == nil {
		d.realPIDs = make(map[int]bool)
	}
	d.realPIDs[realPID] = true
}
func (d *recordingDelegate) JobSkipped(j *job.Job) {
	d.skipped = append(d.skipped, j.String())
}

func echoJob(out string) *job.Job {
	outPath := typedpath.Absolute(out, typedpath.FileTypeObject)
	return &job.Job{
		Kind:          job.KindCompile,
		Tool:          typedpath.Absolute("/bin/echo", typedpath.FileTypeNone),
		CommandLine:   []job.Arg{job.Flag("hello")},
		Outputs:       []typedpath.TypedPath{outPath},
		DisplayInputs: []typedpath.TypedPath{},
	}
}

func failJob(out string, dep typedpath.TypedPath) *job.Job {
	outPath := typedpath.Absolute(out, typedpath.FileTypeObject)
	return &job.Job{
		Kind:          job.KindCompile,
		Tool:          typedpath.Absolute("/bin/false", typedpath.FileTypeNone),
		CommandLine:   []job.Arg{},
		Inputs:        []typedpath.TypedPath{dep},
		Outputs:       []typedpath.TypedPath{outPath},
		DisplayInputs: []typedpath.TypedPath{dep},
	}
}

func TestRunExecutesIndependentJobs(t *testing.T) {
	j1 := echoJob("a.o")
	j2 := echoJob("b.o")

	g, err := job.BuildGraph([]*job.Job{j1, j2})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	delegate := &recordingDelegate{}
	ex := New(g, delegate)
	ex.NumParallelJobs = 2

	result, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Results) != 2 {
		t.Errorf("got %d results, want 2", len(result.Results))
	}
	if len(delegate.started) != 2 {
		t.Errorf("got %d started events, want 2", len(delegate.started))
	}
}

func TestRunSkipsDependentsOfFailedJob(t *testing.T) {
	upstream := failJob("a.o", typedpath.Absolute("a.as", typedpath.FileTypeSource))
	downstream := &job.Job{
		Kind:          job.KindLink,
		Tool:          typedpath.Absolute("/bin/echo", typedpath.FileTypeNone),
		CommandLine:   []job.Arg{},
		Inputs:        []typedpath.TypedPath{upstream.Outputs[0]},
		Outputs:       []typedpath.TypedPath{typedpath.Absolute("prog", typedpath.FileTypeExecutable)},
		DisplayInputs: []typedpath.TypedPath{upstream.Outputs[0]},
	}

	g, err := job.BuildGraph([]*job.Job{upstream, downstream})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	delegate := &recordingDelegate{}
	ex := New(g, delegate)

	result, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure since upstream job exits non-zero")
	}
	if len(delegate.skipped) != 1 {
		t.Fatalf("got %d skipped jobs, want 1 (downstream link), skipped=%v", len(delegate.skipped), delegate.skipped)
	}
}

func TestRunContinuesAfterErrorsWhenRequested(t *testing.T) {
	failing := failJob("a.o", typedpath.Absolute("a.as", typedpath.FileTypeSource))
	independent := echoJob("b.o")

	g, err := job.BuildGraph([]*job.Job{failing, independent})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	ex := New(g, &recordingDelegate{})
	ex.ContinueBuildingAfterErrors = true

	result, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Success {
		t.Fatal("expected overall failure")
	}
	if _, ok := result.Results[independent.String()]; !ok {
		t.Error("expected the independent job to still run under continueBuildingAfterErrors")
	}
}

func TestExitStatusSuccess(t *testing.T) {
	s := ExitStatus{Kind: ExitTerminated, Code: 0}
	if !s.Success() {
		t.Error("exit(0) should be success")
	}
	s2 := ExitStatus{Kind: ExitTerminated, Code: 1}
	if s2.Success() {
		t.Error("exit(1) should not be success")
	}
}

func TestQuasiPIDsDecreaseMonotonically(t *testing.T) {
	g, _ := job.BuildGraph(nil)
	ex := New(g, nil)
	a := ex.nextQuasiPID()
	b := ex.nextQuasiPID()
	if a != -1000 || b != -1001 {
		t.Errorf("got %d, %d, want -1000, -1001", a, b)
	}
}

func batchJob(out string, primaries int) *job.Job {
	outPath := typedpath.Absolute(out, typedpath.FileTypeObject)
	prims := make([]typedpath.TypedPath, primaries)
	for i := range prims {
		prims[i] = typedpath.Absolute(fmt.Sprintf("in%d.as", i), typedpath.FileTypeSource)
	}
	return &job.Job{
		Kind:          job.KindCompile,
		Tool:          typedpath.Absolute("/bin/echo", typedpath.FileTypeNone),
		CommandLine:   []job.Arg{job.Flag("hello")},
		PrimaryInputs: prims,
		Outputs:       []typedpath.TypedPath{outPath},
		DisplayInputs: prims,
	}
}

func TestRunEmitsExactlyOneEventPairPerPrimaryForBatchJobs(t *testing.T) {
	j := batchJob("batch.o", 3)

	g, err := job.BuildGraph([]*job.Job{j})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	delegate := &recordingDelegate{}
	ex := New(g, delegate)

	result, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	if len(delegate.started) != 3 {
		t.Fatalf("got %d started events, want exactly 3 (one per primary)", len(delegate.started))
	}
	if len(delegate.finished) != 3 {
		t.Fatalf("got %d finished events, want exactly 3 (one per primary)", len(delegate.finished))
	}

	if len(delegate.realPIDs) != 1 {
		t.Fatalf("expected all events to share one real PID, got %d distinct", len(delegate.realPIDs))
	}

	seen := make(map[int]bool)
	for _, pid := range delegate.startPIDs {
		if pid >= 0 {
			t.Errorf("quasi-PID %d should be negative", pid)
		}
		if seen[pid] {
			t.Errorf("quasi-PID %d reused across primaries", pid)
		}
		seen[pid] = true
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	j1 := echoJob("a.o")
	g, err := job.BuildGraph([]*job.Job{j1})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	ex := New(g, nil)
	if _, err := ex.Run(ctx); err != nil {
		t.Fatalf("Run should not itself error on a short-lived context: %v", err)
	}
}
