//go:build !windows

package executor

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aster-lang/asterc-driver/pkg/job"
)

// watchSignals installs a handler that forwards SIGINT/SIGTERM to every
// live child with SIGTERM, then escalates to SIGKILL after
// TerminateTimeout if any child is still alive (spec §4.E cancellation:
// "soft signal then hard signal after terminateTimeout"). It returns a
// stop function the caller must defer.
func (e *Executor) watchSignals(cancel context.CancelFunc) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-ch:
			e.interrupt()
			cancel()
			e.signalChildren(unix.SIGTERM)

			timer := time.NewTimer(e.terminateTimeout())
			defer timer.Stop()
			select {
			case <-timer.C:
				e.signalChildren(unix.SIGKILL)
			case <-done:
			}
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(ch)
	}
}

func (e *Executor) signalChildren(sig unix.Signal) {
	for _, cmd := range e.snapshotChildren() {
		if cmd.Process == nil {
			continue
		}
		_ = unix.Kill(cmd.Process.Pid, sig)
	}
}

func (e *Executor) terminateTimeout() time.Duration {
	if e.TerminateTimeout <= 0 {
		return 5 * time.Second
	}
	return e.TerminateTimeout
}

// execInPlace replaces the current process image with j's tool
// invocation (spec §4.E in-place execution promotion: REPL, immediate
// mode, and version-request jobs run as the terminal step of the plan
// rather than as a child the driver waits on).
func (e *Executor) execInPlace(j *job.Job) error {
	args, err := e.resolveCommandLine(j)
	if err != nil {
		return err
	}
	argv := append([]string{j.Tool.Location.Path}, args...)
	return syscall.Exec(j.Tool.Location.Path, argv, os.Environ())
}

// decodeExitStatus renders a finished child's wait result into the
// spec's Terminated/Signalled exit shape (spec §4.E, §6).
func decodeExitStatus(cmd *exec.Cmd, waitErr error) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{Kind: ExitAbnormal, Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			return ExitStatus{Kind: ExitSignalled, Signal: int(ws.Signal())}
		}
		return ExitStatus{Kind: ExitTerminated, Code: ws.ExitStatus()}
	}
	return ExitStatus{Kind: ExitTerminated, Code: state.ExitCode()}
}
