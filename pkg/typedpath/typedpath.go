// Package typedpath implements the core's typed path: every file the
// driver references is a pair of a Location and a FileType (spec §3).
package typedpath

import "fmt"

// FileType is a closed enumeration of the file kinds the driver reasons
// about. Only the type carries planning semantics; equality between two
// TypedPaths is on Location alone.
type FileType int

const (
	FileTypeSource FileType = iota
	FileTypeObject
	FileTypeAssembly
	FileTypePrecompiledModule // .pcm
	FileTypeInterface         // .xxinterface
	FileTypePrecompiledHeader // .pch
	FileTypeDependencyList    // .d
	FileTypeModule            // compiled module (.xxmodule)
	FileTypeModuleDoc
	FileTypeModuleSourceInfo
	FileTypeSerializedDiagnostics
	FileTypeOptimizationRecord
	FileTypeJSONDependencies
	FileTypeJSONArtifacts
	FileTypeLLVMBitcode
	FileTypeAutolink
	FileTypeTBD
	FileTypeObjCHeader
	FileTypeSwiftDeps // reference-dependencies file
	FileTypeConstValues
	FileTypeExecutable
	FileTypeDynamicLibrary
	FileTypeStaticLibrary
	FileTypeNone // unknown/untyped
)

// IsDerived reports whether a file of this type is always the output of
// some job in a well-formed plan (spec §8 invariant 3): every input of
// this shape must appear in the producer map.
func (t FileType) IsDerived() bool {
	switch t {
	case FileTypeObject, FileTypePrecompiledHeader, FileTypePrecompiledModule,
		FileTypeModule, FileTypeModuleDoc, FileTypeModuleSourceInfo,
		FileTypeDependencyList, FileTypeSwiftDeps, FileTypeLLVMBitcode,
		FileTypeAssembly, FileTypeExecutable, FileTypeDynamicLibrary,
		FileTypeStaticLibrary:
		return true
	default:
		return false
	}
}

func (t FileType) String() string {
	names := [...]string{
		"source", "object", "assembly", "pcm", "interface", "pch",
		"dependencies", "module", "module-doc", "module-source-info",
		"serialized-diagnostics", "optimization-record", "json-dependencies",
		"json-artifacts", "llvm-bc", "autolink", "tbd", "objc-header",
		"swift-deps", "const-values", "executable", "dynamic-library",
		"static-library", "none",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

// LocationKind tags how a Location's referent is resolved.
type LocationKind int

const (
	LocationAbsolute LocationKind = iota
	LocationRelative
	LocationStandardInput
	LocationStandardOutput
	LocationTemporary
	LocationTemporaryWithContents
	LocationFileList
)

// Location is the typed path's addressing half. Equality between two
// TypedPaths is defined purely in terms of the rendered Key() of their
// Location, regardless of FileType.
type Location struct {
	Kind LocationKind
	// Path holds the filesystem path for Absolute/Relative, or the
	// synthetic name for Temporary/TemporaryWithContents/FileList.
	Path string
	// Contents holds the bytes for TemporaryWithContents and the
	// newline-joined member list for FileList; materialized lazily by
	// the (external) argument-resolution collaborator.
	Contents []byte
}

// Key returns the string used for equality and producer-map lookups.
func (l Location) Key() string {
	switch l.Kind {
	case LocationStandardInput:
		return "<stdin>"
	case LocationStandardOutput:
		return "<stdout>"
	case LocationTemporary, LocationTemporaryWithContents, LocationFileList:
		return "<tmp>/" + l.Path
	default:
		return l.Path
	}
}

func (l Location) String() string {
	return l.Key()
}

// TypedPath is a (location, file-type) pair (spec §3).
type TypedPath struct {
	Location Location
	Type     FileType
}

// Key is the equality key for a TypedPath: the location string alone.
func (p TypedPath) Key() string {
	return p.Location.Key()
}

func (p TypedPath) String() string {
	return fmt.Sprintf("%s:%s", p.Type, p.Location)
}

// Absolute constructs a TypedPath for an absolute on-disk file.
func Absolute(path string, t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationAbsolute, Path: path}, Type: t}
}

// Relative constructs a TypedPath for a path relative to the working directory.
func Relative(path string, t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationRelative, Path: path}, Type: t}
}

// StandardInput constructs the singleton "-" typed path.
func StandardInput(t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationStandardInput}, Type: t}
}

// StandardOutput constructs the singleton stdout typed path.
func StandardOutput(t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationStandardOutput}, Type: t}
}

// Temporary constructs a typed path naming a temp file materialized by
// some job's own execution (e.g. a compile job's intermediate object).
func Temporary(name string, t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationTemporary, Path: name}, Type: t}
}

// TemporaryWithContents constructs a typed path whose bytes are known
// at plan time but not yet written to disk.
func TemporaryWithContents(name string, contents []byte, t FileType) TypedPath {
	return TypedPath{Location: Location{Kind: LocationTemporaryWithContents, Path: name, Contents: contents}, Type: t}
}

// FileList constructs a typed path whose referent is a newline-separated
// list of other paths (spec §3, §4.C file-list threshold).
func FileList(name string, members []TypedPath) TypedPath {
	var contents []byte
	for i, m := range members {
		if i > 0 {
			contents = append(contents, '\n')
		}
		contents = append(contents, []byte(m.Location.Path)...)
	}
	return TypedPath{Location: Location{Kind: LocationFileList, Path: name, Contents: contents}, Type: FileTypeNone}
}
