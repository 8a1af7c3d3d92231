// Package executor implements the Job Executor (spec §4.E, §5):
// bounded-parallelism scheduling over the job DAG, delegate event
// streaming, batch quasi-PIDs, cancellation, response-file fallback,
// and in-place execution promotion.
package executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/aster-lang/asterc-driver/internal/dlog"
	"github.com/aster-lang/asterc-driver/pkg/job"
	"github.com/aster-lang/asterc-driver/pkg/respfile"
)

var logger = dlog.New("executor")

// ExitStatusKind tags the three shapes a finished job's exit can take.
type ExitStatusKind int

const (
	ExitTerminated ExitStatusKind = iota // normal exit(code)
	ExitSignalled                       // killed by signal (POSIX)
	ExitAbnormal                        // Windows abnormal termination
)

// ExitStatus is the process-result exit shape (spec §4.E, §6).
type ExitStatus struct {
	Kind   ExitStatusKind
	Code   int // exit code for Terminated/Abnormal
	Signal int // signal number for Signalled
}

func (s ExitStatus) Success() bool {
	return s.Kind == ExitTerminated && s.Code == 0
}

func (s ExitStatus) String() string {
	switch s.Kind {
	case ExitTerminated:
		return fmt.Sprintf("exit(%d)", s.Code)
	case ExitSignalled:
		return fmt.Sprintf("signal(%d)", s.Signal)
	case ExitAbnormal:
		return fmt.Sprintf("abnormal(%d)", s.Code)
	default:
		return "unknown"
	}
}

// ProcessResult is what a finished job reports (spec §4.E).
type ProcessResult struct {
	ExitStatus ExitStatus
	Stdout     []byte
	Stderr     []byte
}

// Delegate receives the job lifecycle events, all serialized on a
// single queue (spec §4.E "never reentrant").
type Delegate interface {
	JobStarted(j *job.Job, resolvedArguments []string, pid, realPID int)
	JobFinished(j *job.Job, result ProcessResult, pid, realPID int)
	JobSkipped(j *job.Job)
}

// NopDelegate discards every event; useful as a default or in tests
// that only care about the final Result.
type NopDelegate struct{}

func (NopDelegate) JobStarted(*job.Job, []string, int, int)       {}
func (NopDelegate) JobFinished(*job.Job, ProcessResult, int, int) {}
func (NopDelegate) JobSkipped(*job.Job)                           {}

// Executor runs a job.Graph to completion (spec §4.E, §5).
type Executor struct {
	Graph *job.Graph

	NumParallelJobs             int
	ContinueBuildingAfterErrors bool
	TerminateTimeout            time.Duration

	Delegate Delegate

	// RunID namespaces the temporary directory and response-file names
	// for one executor invocation.
	RunID string

	// CommandLineLengthLimit triggers the response-file fallback when
	// exceeded; 0 disables the fallback.
	CommandLineLengthLimit int
	TempDir                string

	// SaveTemps keeps the temporary directory after a successful run.
	SaveTemps bool

	mu            sync.Mutex
	liveChildren  map[int]*exec.Cmd // keyed by real PID
	interruptFlag bool
	quasiPIDCount int64
}

// Result is the outcome of one Run.
type Result struct {
	Success     bool
	Interrupted bool
	Results     map[string]ProcessResult // keyed by job.String()
}

// New builds an Executor with spec-default field values filled in.
func New(g *job.Graph, delegate Delegate) *Executor {
	if delegate == nil {
		delegate = NopDelegate{}
	}
	return &Executor{
		Graph:            g,
		NumParallelJobs:  1,
		TerminateTimeout: 5 * time.Second,
		Delegate:         delegate,
		RunID:            uuid.New().String(),
		liveChildren:     make(map[int]*exec.Cmd),
		quasiPIDCount:    -1000,
	}
}

// Run executes the graph to completion following the readiness rule: a
// job runs once every input in the producer map has succeeded (spec
// §4.E). Execution proceeds in topologically-ready waves, each wave
// bounded to NumParallelJobs concurrent children via a conc pool —
// this realizes the same observable semantics as a single shared
// bounded queue (ordering guarantees of spec §5) without the
// dependency-blocks-a-pool-slot deadlock a single flat pool would risk.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopSignals := e.watchSignals(cancel)
	defer stopSignals()

	inDegree := make(map[*job.Job]int, len(e.Graph.Jobs))
	dependents := make(map[*job.Job][]*job.Job)
	for _, j := range e.Graph.Jobs {
		deps := e.Graph.Dependencies(j)
		inDegree[j] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], j)
		}
	}

	var inPlaceJob *job.Job
	for _, j := range e.Graph.Jobs {
		if j.RequiresInPlaceExecution {
			inPlaceJob = j
		}
	}

	var ready []*job.Job
	for _, j := range e.Graph.Jobs {
		if inDegree[j] == 0 {
			ready = append(ready, j)
		}
	}

	succeeded := make(map[*job.Job]bool)
	result := &Result{Success: true, Results: make(map[string]ProcessResult)}
	inPlaceReady := false

	maxGoroutines := e.NumParallelJobs
	if maxGoroutines < 1 {
		maxGoroutines = 1
	}

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].String() < ready[j].String() })
		wave := ready
		ready = nil

		if inPlaceJob != nil {
			filtered := wave[:0:0]
			for _, j := range wave {
				if j == inPlaceJob {
					inPlaceReady = true
					continue
				}
				filtered = append(filtered, j)
			}
			wave = filtered
			if len(wave) == 0 {
				continue
			}
		}

		if e.interrupted() {
			for _, j := range wave {
				e.Delegate.JobSkipped(j)
			}
			result.Success = false
			break
		}

		type waveOutcome struct {
			j      *job.Job
			pr     ProcessResult
			ran    bool
			failed bool
		}

		p := pool.NewWithResults[waveOutcome]().WithMaxGoroutines(maxGoroutines)
		for _, j := range wave {
			j := j
			depsFailed := false
			for _, dep := range e.Graph.Dependencies(j) {
				if !succeeded[dep] {
					depsFailed = true
					break
				}
			}
			if depsFailed {
				p.Go(func() waveOutcome {
					e.Delegate.JobSkipped(j)
					return waveOutcome{j: j, failed: true}
				})
				continue
			}
			p.Go(func() waveOutcome {
				pr, err := e.runJob(ctx, j)
				if err != nil {
					logger.Printf("job %s failed to start: %v", j, err)
					return waveOutcome{j: j, failed: true}
				}
				return waveOutcome{j: j, pr: pr, ran: true, failed: !pr.ExitStatus.Success()}
			})
		}
		outcomes := p.Wait()

		for _, o := range outcomes {
			if o.ran {
				result.Results[o.j.String()] = o.pr
			}
			if o.failed {
				result.Success = false
				if !e.ContinueBuildingAfterErrors {
					e.interrupt()
				}
				continue
			}
			succeeded[o.j] = true
		}

		for _, o := range outcomes {
			for _, dependent := range dependents[o.j] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
	}

	if e.interrupted() {
		result.Interrupted = true
		result.Success = false
	}

	if inPlaceReady && result.Success {
		e.cleanupTempDir(true)
		return result, e.execInPlace(inPlaceJob)
	}

	e.cleanupTempDir(result.Success)
	return result, nil
}

func (e *Executor) interrupted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interruptFlag
}

func (e *Executor) interrupt() {
	e.mu.Lock()
	e.interruptFlag = true
	e.mu.Unlock()
}

func (e *Executor) registerChild(pid int, cmd *exec.Cmd) {
	e.mu.Lock()
	e.liveChildren[pid] = cmd
	e.mu.Unlock()
}

func (e *Executor) unregisterChild(pid int) {
	e.mu.Lock()
	delete(e.liveChildren, pid)
	e.mu.Unlock()
}

func (e *Executor) snapshotChildren() []*exec.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := make([]*exec.Cmd, 0, len(e.liveChildren))
	for _, c := range e.liveChildren {
		cmds = append(cmds, c)
	}
	return cmds
}

func (e *Executor) cleanupTempDir(success bool) {
	if e.TempDir == "" {
		return
	}
	if !success || e.SaveTemps {
		return
	}
	_ = os.RemoveAll(e.TempDir)
}

// nextQuasiPID returns the next negative quasi-PID, decrementing under
// lock (spec §4.E: "incremented only on the delegate queue" — realized
// here as a single mutex-guarded counter since Go has no single-queue
// actor primitive as direct as the teacher's serialization queue idiom).
func (e *Executor) nextQuasiPID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	pid := e.quasiPIDCount
	e.quasiPIDCount--
	return pid
}

// resolveCommandLine renders a job's Arg sequence to plain strings,
// substituting a response file when the rendered length exceeds
// CommandLineLengthLimit and the job supports it (spec §6).
func (e *Executor) resolveCommandLine(j *job.Job) ([]string, error) {
	args := make([]string, 0, len(j.CommandLine))
	total := 0
	for _, a := range j.CommandLine {
		s := a.Render()
		args = append(args, s)
		total += len(s) + 1
	}

	if !j.SupportsResponseFiles || e.CommandLineLengthLimit <= 0 || total <= e.CommandLineLengthLimit {
		return args, nil
	}

	respText := respfile.Write(args)
	respPath, err := writeResponseFile(e.TempDir, e.RunID, j, respText)
	if err != nil {
		return nil, err
	}
	return []string{"@" + respPath}, nil
}

// writeResponseFile materializes resp under TempDir, lazily creating the
// directory on first use (spec §4.E temp-directory lifecycle).
func writeResponseFile(tempDir, runID string, j *job.Job, resp string) (string, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "asterc-"+runID)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("creating response-file directory: %w", err)
	}
	name := fmt.Sprintf("%s-%x.resp", j.Kind, sha256.Sum256([]byte(j.String())))
	path := filepath.Join(tempDir, name)
	if err := os.WriteFile(path, []byte(resp), 0o644); err != nil {
		return "", fmt.Errorf("writing response file: %w", err)
	}
	return path, nil
}

// runJob resolves, starts, and awaits one job's child process, reporting
// the delegate events in order. Batch compile jobs (more than one
// primary input) report one began/finished event pair per primary,
// each tagged with a quasi-PID, in place of the real-PID pair other
// jobs report (spec §4.E).
func (e *Executor) runJob(ctx context.Context, j *job.Job) (ProcessResult, error) {
	args, err := e.resolveCommandLine(j)
	if err != nil {
		return ProcessResult{}, err
	}

	cmd := exec.CommandContext(ctx, j.Tool.Location.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return ProcessResult{}, fmt.Errorf("starting %s: %w", j, err)
	}
	realPID := cmd.Process.Pid
	e.registerChild(realPID, cmd)
	defer e.unregisterChild(realPID)

	isBatch := len(j.PrimaryInputs) >= 2
	var quasiPIDs []int64
	if isBatch {
		quasiPIDs = e.emitBatchStarted(j, realPID)
	} else {
		e.Delegate.JobStarted(j, args, realPID, realPID)
	}

	waitErr := cmd.Wait()
	status := decodeExitStatus(cmd, waitErr)
	result := ProcessResult{ExitStatus: status, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if isBatch {
		e.emitBatchFinished(j, quasiPIDs, result, realPID)
	} else {
		e.Delegate.JobFinished(j, result, realPID, realPID)
	}

	return result, nil
}

// emitBatchStarted reports one JobStarted per primary input, each under
// its own quasi-PID sharing the one real child process, when j is a
// batch sub-compilation (spec §4.E, §8 invariant 6: exactly one
// began/finished pair per primary, never k+1).
func (e *Executor) emitBatchStarted(j *job.Job, realPID int) []int64 {
	quasiPIDs := make([]int64, len(j.PrimaryInputs))
	for i := range j.PrimaryInputs {
		quasiPIDs[i] = e.nextQuasiPID()
		e.Delegate.JobStarted(j, nil, int(quasiPIDs[i]), realPID)
	}
	return quasiPIDs
}

func (e *Executor) emitBatchFinished(j *job.Job, quasiPIDs []int64, result ProcessResult, realPID int) {
	for _, pid := range quasiPIDs {
		e.Delegate.JobFinished(j, result, int(pid), realPID)
	}
}
