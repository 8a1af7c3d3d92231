// Package job implements the core's Job Model (spec §3, §4.B): an
// immutable description of one child-process invocation, its typed
// inputs and outputs, and the producer map that turns a job list into a
// DAG.
package job

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aster-lang/asterc-driver/pkg/typedpath"
)

// Kind is the closed set of job kinds the Planner emits and the
// Executor reports (spec §4.B).
type Kind int

const (
	KindScanDependencies Kind = iota
	KindGeneratePrecompiledModule
	KindCompileModuleFromInterface
	KindCompile
	KindEmitModule
	KindMergeModule
	KindGeneratePCH
	KindLink
	KindArchive
	KindAutolinkExtract
	KindRepl
	KindVerifyInterface
	KindVersionRequest
)

func (k Kind) String() string {
	switch k {
	case KindScanDependencies:
		return "scan-dependencies"
	case KindGeneratePrecompiledModule:
		return "generate-precompiled-module"
	case KindCompileModuleFromInterface:
		return "compile-module-from-interface"
	case KindCompile:
		return "compile"
	case KindEmitModule:
		return "emit-module"
	case KindMergeModule:
		return "merge-module"
	case KindGeneratePCH:
		return "generate-pch"
	case KindLink:
		return "link"
	case KindArchive:
		return "archive"
	case KindAutolinkExtract:
		return "autolink-extract"
	case KindRepl:
		return "repl"
	case KindVerifyInterface:
		return "verify-interface"
	case KindVersionRequest:
		return "version-request"
	default:
		return "unknown"
	}
}

// Arg is an argument-template token on a Job's command line. The
// Executor never interprets these beyond handing the sequence to the
// (external) argument-resolution collaborator.
type Arg interface {
	isArg()
	Render() string // best-effort textual form, for logging and tests
}

// Flag is a bare command-line token.
type Flag string

func (Flag) isArg()          {}
func (f Flag) Render() string { return string(f) }

// Path is a typed-path argument; the resolver turns it into a string.
type Path struct{ TypedPath typedpath.TypedPath }

func (Path) isArg()          {}
func (p Path) Render() string { return p.TypedPath.Location.Path }

// ResponseFilePath marks a path as eligible to be referenced via "@path"
// when a job's resolved command line is rewritten into a response file.
type ResponseFilePath struct{ TypedPath typedpath.TypedPath }

func (ResponseFilePath) isArg()          {}
func (p ResponseFilePath) Render() string { return "@" + p.TypedPath.Location.Path }

// JoinedOptionAndPath renders as a single token, "<prefix><path>".
type JoinedOptionAndPath struct {
	Prefix    string
	TypedPath typedpath.TypedPath
}

func (JoinedOptionAndPath) isArg() {}
func (j JoinedOptionAndPath) Render() string {
	return j.Prefix + j.TypedPath.Location.Path
}

// Job is an immutable description of one child-process invocation
// (spec §3, §4.B).
type Job struct {
	Kind Kind

	Tool        typedpath.TypedPath
	CommandLine []Arg

	Inputs        []typedpath.TypedPath
	DisplayInputs []typedpath.TypedPath
	PrimaryInputs []typedpath.TypedPath
	Outputs       []typedpath.TypedPath

	ExtraEnv map[string]string

	// RequiresInPlaceExecution marks a job that wants to replace the
	// driver process as the terminal step of the plan (REPL, immediate,
	// version-request). At most one per plan (spec §8 invariant 2).
	RequiresInPlaceExecution bool

	SupportsResponseFiles bool

	// OutputCacheKeys maps an output's Key() to a cache key supplied by
	// an upstream scanner/cache, when one is available.
	OutputCacheKeys map[string]string
}

// outputKeys returns the sorted Key() of every output, used for content
// equality.
func (j *Job) outputKeys() []string {
	keys := make([]string, len(j.Outputs))
	for i, o := range j.Outputs {
		keys[i] = o.Key()
	}
	sort.Strings(keys)
	return keys
}

func (j *Job) inputKeys() []string {
	keys := make([]string, len(j.Inputs))
	for i, in := range j.Inputs {
		keys[i] = in.Key()
	}
	sort.Strings(keys)
	return keys
}

func (j *Job) renderCommandLine() string {
	parts := make([]string, len(j.CommandLine))
	for i, a := range j.CommandLine {
		parts[i] = a.Render()
	}
	return strings.Join(parts, " ")
}

// Equal reports whether two jobs are content-equal: same kind, tool,
// command line, and input/output sets. Plan determinism (spec §8
// invariant 4) is checked by comparing two planned job lists
// element-wise with Equal.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	if j.Kind != other.Kind {
		return false
	}
	if j.Tool.Key() != other.Tool.Key() {
		return false
	}
	if j.renderCommandLine() != other.renderCommandLine() {
		return false
	}
	if strings.Join(j.inputKeys(), "\x00") != strings.Join(other.inputKeys(), "\x00") {
		return false
	}
	if strings.Join(j.outputKeys(), "\x00") != strings.Join(other.outputKeys(), "\x00") {
		return false
	}
	return true
}

// String renders a one-line summary, e.g. "compile(a.as -> a.o)".
func (j *Job) String() string {
	ins := make([]string, len(j.DisplayInputs))
	for i, in := range j.DisplayInputs {
		ins[i] = in.Location.Path
	}
	outs := make([]string, len(j.Outputs))
	for i, o := range j.Outputs {
		outs[i] = o.Location.Path
	}
	return fmt.Sprintf("%s(%s -> %s)", j.Kind, strings.Join(ins, ", "), strings.Join(outs, ", "))
}
