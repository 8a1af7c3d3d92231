package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
	"github.com/aster-lang/asterc-driver/pkg/executor"
	"github.com/aster-lang/asterc-driver/pkg/job"
)

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build [inputs...]",
		Short:   "Plan and execute a build",
		GroupID: "execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args)
		},
	}
	commonFlags(cmd)
	cmd.Flags().Bool("json", false, "stream newline-delimited JSON job events to stdout instead of progress text to stderr")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "maximum number of jobs to run in parallel")
	cmd.Flags().Bool("continue-building-after-errors", false, "keep building unrelated jobs after a failure")
	cmd.Flags().Duration("terminate-timeout", 5*time.Second, "grace period between a soft and a hard cancellation signal")
	cmd.Flags().Bool("save-temps", false, "keep the executor's temporary directory after a successful build")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	result, jobs, err := resolveAndPlan(cmd, args)
	if err != nil {
		return err
	}

	graph, err := job.BuildGraph(jobs)
	if err != nil {
		return err
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	numParallel, _ := cmd.Flags().GetInt("jobs")
	terminateTimeout, _ := cmd.Flags().GetDuration("terminate-timeout")
	saveTemps, _ := cmd.Flags().GetBool("save-temps")

	// Batch mode implies building through errors unless the caller
	// explicitly said otherwise (spec §4.E).
	continueAfterErrors := result.Mode.IsBatch()
	if cmd.Flags().Changed("continue-building-after-errors") {
		continueAfterErrors, _ = cmd.Flags().GetBool("continue-building-after-errors")
	}

	ex := executor.New(graph, newCLIDelegate(jsonMode))
	ex.NumParallelJobs = numParallel
	ex.ContinueBuildingAfterErrors = continueAfterErrors
	ex.TerminateTimeout = terminateTimeout
	ex.SaveTemps = saveTemps

	buildResult, err := ex.Run(context.Background())
	if err != nil {
		return err
	}
	if !buildResult.Success {
		if buildResult.Interrupted {
			return fmt.Errorf("build interrupted")
		}
		return fmt.Errorf("build failed")
	}
	if !jsonMode {
		fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("build succeeded"))
	}
	return nil
}

// cliDelegate bridges executor.Delegate events to either the
// parseable-output JSON stream (stdout, one event per line) or
// human-readable progress text (stderr via internal/console).
type cliDelegate struct {
	jsonMode bool
	enc      *json.Encoder
}

func newCLIDelegate(jsonMode bool) *cliDelegate {
	d := &cliDelegate{jsonMode: jsonMode}
	if jsonMode {
		d.enc = json.NewEncoder(os.Stdout)
	}
	return d
}

type jobEvent struct {
	Event  string `json:"event"`
	Job    string `json:"job"`
	PID    int    `json:"pid,omitempty"`
	Status string `json:"status,omitempty"`
}

func (d *cliDelegate) JobStarted(j *job.Job, resolvedArguments []string, pid, realPID int) {
	if d.jsonMode {
		_ = d.enc.Encode(jobEvent{Event: "started", Job: j.String(), PID: pid})
		return
	}
	fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("started %s", j)))
}

func (d *cliDelegate) JobFinished(j *job.Job, result executor.ProcessResult, pid, realPID int) {
	if d.jsonMode {
		_ = d.enc.Encode(jobEvent{Event: "finished", Job: j.String(), PID: pid, Status: result.ExitStatus.String()})
		return
	}
	if result.ExitStatus.Success() {
		fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf("finished %s", j)))
	} else {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(fmt.Sprintf("failed %s: %s", j, result.ExitStatus)))
		if len(result.Stderr) > 0 {
			fmt.Fprintln(os.Stderr, string(result.Stderr))
		}
	}
}

func (d *cliDelegate) JobSkipped(j *job.Job) {
	if d.jsonMode {
		_ = d.enc.Encode(jobEvent{Event: "skipped", Job: j.String()})
		return
	}
	fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("skipped %s", j)))
}
