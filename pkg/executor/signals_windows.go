//go:build windows

package executor

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"golang.org/x/sys/windows"

	"github.com/aster-lang/asterc-driver/pkg/job"
)

// watchSignals mirrors the Unix soft-then-hard cancellation sequence
// (spec §4.E), substituted with Windows process termination since POSIX
// signal delivery has no equivalent there: os.Interrupt sends every
// child a CTRL_BREAK_EVENT, and any child still alive after
// TerminateTimeout is killed with Process.Kill.
func (e *Executor) watchSignals(cancel context.CancelFunc) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})

	go func() {
		select {
		case <-ch:
			e.interrupt()
			cancel()
			e.signalChildrenSoft()

			timer := time.NewTimer(e.terminateTimeout())
			defer timer.Stop()
			select {
			case <-timer.C:
				e.killChildren()
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

// signalChildrenSoft asks each child to exit via CTRL_BREAK_EVENT, the
// closest Windows equivalent to a Unix SIGTERM.
func (e *Executor) signalChildrenSoft() {
	for _, cmd := range e.snapshotChildren() {
		if cmd.Process == nil {
			continue
		}
		_ = windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
	}
}

func (e *Executor) killChildren() {
	for _, cmd := range e.snapshotChildren() {
		if cmd.Process == nil {
			continue
		}
		_ = cmd.Process.Kill()
	}
}

func (e *Executor) terminateTimeout() time.Duration {
	if e.TerminateTimeout <= 0 {
		return 5 * time.Second
	}
	return e.TerminateTimeout
}

// execInPlace has no true process-replacement primitive on Windows, so
// it spawns j's tool as a child, waits for it, and exits the driver
// with the child's code — observably equivalent to in-place execution
// from the caller's perspective (spec §4.E).
func (e *Executor) execInPlace(j *job.Job) error {
	args, err := e.resolveCommandLine(j)
	if err != nil {
		return err
	}
	cmd := exec.Command(j.Tool.Location.Path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	os.Exit(0)
	return nil
}

// decodeExitStatus renders a finished child's wait result using the
// Windows abnormal-termination shape: a process that exits via an
// unhandled exception reports a non-zero exit code with no POSIX signal
// number, so it is surfaced as Abnormal rather than Signalled (spec §6).
func decodeExitStatus(cmd *exec.Cmd, waitErr error) ExitStatus {
	state := cmd.ProcessState
	if state == nil {
		return ExitStatus{Kind: ExitAbnormal, Code: -1}
	}
	code := state.ExitCode()
	if code < 0 || uint32(code)&0xC0000000 == 0xC0000000 {
		return ExitStatus{Kind: ExitAbnormal, Code: code}
	}
	return ExitStatus{Kind: ExitTerminated, Code: code}
}
