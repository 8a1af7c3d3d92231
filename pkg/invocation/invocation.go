// Package invocation implements invocation-run-mode detection (spec
// §6): deciding, from argv alone, whether the process should behave as
// the normal driver or re-exec as one of its subcommand executables.
package invocation

import (
	"os"
	"path/filepath"
	"strings"
)

// Dispatch is the outcome of detection: either "run the driver
// normally" (Subcommand == "") or "exec a different executable".
type Dispatch struct {
	// Subcommand is the bare name to exec, e.g. "aster-frontend" or
	// "aster-build", or "" for normal driver invocation.
	Subcommand string
	// Argv is the argument vector to use for the dispatched process
	// (driverExecutable when Subcommand == "").
	Argv []string
}

// driverBasenames are the names (minus any platform executable suffix)
// that trigger subcommand dispatch, per spec §6. Detect matches the
// basename of argv[0] against this package-level table.
var driverBasenames = map[string]bool{
	"aster":  true,
	"asterc": true,
}

// Detect implements the spec §6 dispatch table given the full argv and
// the path to the driver's own executable (used to look for an adjacent
// subcommand binary).
func Detect(argv []string, driverExecutablePath string) Dispatch {
	if len(argv) == 0 {
		return Dispatch{Argv: argv}
	}

	base := trimExeSuffix(filepath.Base(argv[0]))
	if !driverBasenames[base] {
		return Dispatch{Argv: argv}
	}
	if len(argv) < 2 {
		return Dispatch{Argv: argv}
	}

	first := argv[1]
	switch {
	case first == "-frontend" || first == "-modulewrap":
		return Dispatch{Subcommand: "aster-frontend", Argv: argv[1:]}

	case strings.HasPrefix(first, "-") || strings.HasPrefix(first, "/") || strings.Contains(first, "."):
		return Dispatch{Argv: argv}

	case first == "repl":
		rewritten := append([]string{argv[0], "-repl"}, argv[2:]...)
		return Dispatch{Argv: rewritten}

	default:
		return Dispatch{Subcommand: "aster-" + first, Argv: argv[1:]}
	}
}

func trimExeSuffix(name string) string {
	return strings.TrimSuffix(name, ".exe")
}

// ResolveAdjacent looks for subcommand next to driverExecutablePath,
// returning its full path if found; callers fall back to searching PATH
// (via exec.LookPath) when ok is false.
func ResolveAdjacent(driverExecutablePath, subcommand string) (path string, ok bool) {
	dir := filepath.Dir(driverExecutablePath)
	candidate := filepath.Join(dir, subcommand)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	return "", false
}
