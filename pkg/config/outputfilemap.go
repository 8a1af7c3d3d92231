package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// singleInputKey is the canonical sentinel decode collapses the
// empty-string wire key to, and encode restores back to "" (spec §6).
const singleInputKey = "\x00single-input\x00"

// OutputFileMap is the per-input, per-file-type output path table (spec
// §3, §6). Keys are input source paths; "" (collapsed to
// singleInputKey internally) denotes the single-input/no-primary entry.
type OutputFileMap struct {
	entries map[string]map[string]string // input path -> file-type name -> output path
}

// NewOutputFileMap builds an empty map.
func NewOutputFileMap() *OutputFileMap {
	return &OutputFileMap{entries: make(map[string]map[string]string)}
}

func canonicalKey(inputPath string) string {
	if inputPath == "" {
		return singleInputKey
	}
	return inputPath
}

// Set records the output path for (inputPath, fileType).
func (m *OutputFileMap) Set(inputPath, fileType, outputPath string) {
	key := canonicalKey(inputPath)
	if m.entries[key] == nil {
		m.entries[key] = make(map[string]string)
	}
	m.entries[key][fileType] = outputPath
}

// Lookup returns the recorded output path for (inputPath, fileType),
// applying the inference rules (spec §6) when no explicit entry exists:
// swiftdoc/swiftsourceinfo default to the swiftmodule path with its
// extension replaced; json-api-baseline/json-abi-baseline default to
// the swiftsourceinfo path with its extension replaced.
func (m *OutputFileMap) Lookup(inputPath, fileType string) (string, bool) {
	key := canonicalKey(inputPath)
	if entry, ok := m.entries[key]; ok {
		if path, ok := entry[fileType]; ok {
			return path, true
		}
	}
	switch fileType {
	case "swiftdoc", "swiftsourceinfo":
		if base, ok := m.Lookup(inputPath, "swiftmodule"); ok {
			return replaceExt(base, fileType), true
		}
	case "json-api-baseline", "json-abi-baseline":
		if base, ok := m.Lookup(inputPath, "swiftsourceinfo"); ok {
			return replaceExt(base, fileType), true
		}
	case "object":
		// object outputs may be inferred from the entry keyed by the
		// corresponding swift source itself, which Lookup already does
		// via the direct entries[key] check above; nothing further.
	}
	return "", false
}

func replaceExt(path, newExt string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i+1] + newExt
	}
	return path + "." + newExt
}

// wireOutputFileMap is the JSON shape: object of input-path -> object of
// file-type -> output-path.
type wireOutputFileMap map[string]map[string]string

// DecodeOutputFileMap parses the JSON form, collapsing the empty wire
// key to the canonical single-input sentinel (spec §6).
func DecodeOutputFileMap(data []byte) (*OutputFileMap, error) {
	var wire wireOutputFileMap
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unable to load output file map: %w", err)
	}
	m := NewOutputFileMap()
	for inputPath, byType := range wire {
		key := canonicalKey(inputPath)
		dst := make(map[string]string, len(byType))
		for ft, path := range byType {
			dst[ft] = path
		}
		m.entries[key] = dst
	}
	return m, nil
}

// EncodeOutputFileMap serializes m back to JSON, restoring the
// single-input sentinel to the empty string wire key (spec §6).
func EncodeOutputFileMap(m *OutputFileMap) ([]byte, error) {
	wire := make(wireOutputFileMap, len(m.entries))
	for key, byType := range m.entries {
		wireKey := key
		if key == singleInputKey {
			wireKey = ""
		}
		wire[wireKey] = byType
	}
	return json.MarshalIndent(wire, "", "  ")
}
