// Package diagnostics defines the closed set of error kinds the driver
// core can raise (spec §7) and the Sink interface the core reports
// through. Textual rendering of a Diagnostic lives one layer up, in
// internal/console; this package only carries the tagged data.
package diagnostics

import "fmt"

// Kind is a closed enumeration of the error kinds named in spec §7.
type Kind int

const (
	KindInvalidDriverName Kind = iota
	KindSubcommandPassedToDriver
	KindUnknownOrMissingSubcommand
	KindInvalidInput
	KindNoInputFiles
	KindTwoFilesSameName
	KindInvalidArgumentValue
	KindConflictingOptions
	KindOptionRequiresAnother
	KindCannotSpecifyOForMultipleOutputs
	KindUnableToLoadOutputFileMap
	KindMalformedModuleDependency
	KindMissingModuleDependency
	KindMissingContextHashOnSwiftDependency
	KindMissingExternalDependency
	KindDependencyScanningFailure
	KindUnableToDecodeFrontendTargetInfo
	KindFailedToRetrieveFrontendTargetInfo
	KindUnableToReadFrontendTargetInfo
	KindFailedToRunFrontendToRetrieveTargetInfo
	KindBaselineGenerationRequiresTopLevelModule
	KindMissingProfilingData
	KindConditionalCompilationFlagHasRedundantPrefix
	KindConditionalCompilationFlagIsNotValidIdentifier
	KindRelativeFrontendPath
	KindIntegratedReplRemoved
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDriverName:
		return "InvalidDriverName"
	case KindSubcommandPassedToDriver:
		return "SubcommandPassedToDriver"
	case KindUnknownOrMissingSubcommand:
		return "UnknownOrMissingSubcommand"
	case KindInvalidInput:
		return "InvalidInput"
	case KindNoInputFiles:
		return "NoInputFiles"
	case KindTwoFilesSameName:
		return "TwoFilesSameName"
	case KindInvalidArgumentValue:
		return "InvalidArgumentValue"
	case KindConflictingOptions:
		return "ConflictingOptions"
	case KindOptionRequiresAnother:
		return "OptionRequiresAnother"
	case KindCannotSpecifyOForMultipleOutputs:
		return "CannotSpecifyOForMultipleOutputs"
	case KindUnableToLoadOutputFileMap:
		return "UnableToLoadOutputFileMap"
	case KindMalformedModuleDependency:
		return "MalformedModuleDependency"
	case KindMissingModuleDependency:
		return "MissingModuleDependency"
	case KindMissingContextHashOnSwiftDependency:
		return "MissingContextHashOnSwiftDependency"
	case KindMissingExternalDependency:
		return "MissingExternalDependency"
	case KindDependencyScanningFailure:
		return "DependencyScanningFailure"
	case KindUnableToDecodeFrontendTargetInfo:
		return "UnableToDecodeFrontendTargetInfo"
	case KindFailedToRetrieveFrontendTargetInfo:
		return "FailedToRetrieveFrontendTargetInfo"
	case KindUnableToReadFrontendTargetInfo:
		return "UnableToReadFrontendTargetInfo"
	case KindFailedToRunFrontendToRetrieveTargetInfo:
		return "FailedToRunFrontendToRetrieveTargetInfo"
	case KindBaselineGenerationRequiresTopLevelModule:
		return "BaselineGenerationRequiresTopLevelModule"
	case KindMissingProfilingData:
		return "MissingProfilingData"
	case KindConditionalCompilationFlagHasRedundantPrefix:
		return "ConditionalCompilationFlagHasRedundantPrefix"
	case KindConditionalCompilationFlagIsNotValidIdentifier:
		return "ConditionalCompilationFlagIsNotValidIdentifier"
	case KindRelativeFrontendPath:
		return "RelativeFrontendPath"
	case KindIntegratedReplRemoved:
		return "IntegratedReplRemoved"
	default:
		return "Unknown"
	}
}

// Error is a structured driver error: a Kind plus the arguments needed
// to render it (§7 names each kind's payload, e.g.
// TwoFilesSameName(basename, firstPath, secondPath)).
type Error struct {
	Kind Kind
	Args []any
}

func (e *Error) Error() string {
	if len(e.Args) == 0 {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s%v", e.Kind.String(), e.Args)
}

// New constructs an Error of the given kind.
func New(kind Kind, args ...any) *Error {
	return &Error{Kind: kind, Args: args}
}

// Severity distinguishes diagnostics that abort planning from ones that
// are reported and then recovered from with a documented fallback.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one message reported to a Sink during planning.
type Diagnostic struct {
	Severity Severity
	Err      *Error
	Message  string // rendered text, for warnings that have no Kind
}

// Sink is the collaborator the core reports diagnostics through. A Sink
// implementation in the outer layer decides how to render and where to
// send them (spec §1 scopes textual diagnostic formatting out of the
// core).
type Sink interface {
	Report(Diagnostic)
	HasErrors() bool
}

// CollectingSink is a minimal Sink that just accumulates diagnostics,
// useful for tests.
type CollectingSink struct {
	Diagnostics []Diagnostic
}

func (s *CollectingSink) Report(d Diagnostic) {
	s.Diagnostics = append(s.Diagnostics, d)
}

func (s *CollectingSink) HasErrors() bool {
	for _, d := range s.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ReportError is a convenience for Report(Diagnostic{Severity: SeverityError, Err: err}).
func ReportError(sink Sink, err *Error) {
	sink.Report(Diagnostic{Severity: SeverityError, Err: err})
}

// ReportWarning is a convenience for Report(Diagnostic{Severity: SeverityWarning, Message: msg}).
func ReportWarning(sink Sink, msg string) {
	sink.Report(Diagnostic{Severity: SeverityWarning, Message: msg})
}
