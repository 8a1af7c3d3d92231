package config

import "testing"

func TestOutputFileMapRoundTrip(t *testing.T) {
	data := []byte(`{"": {"swiftmodule": "/t/M.swiftmodule"}, "/src/a.swift": {"object": "/t/a.o"}}`)
	m, err := DecodeOutputFileMap(data)
	if err != nil {
		t.Fatalf("DecodeOutputFileMap failed: %v", err)
	}

	if path, ok := m.Lookup("", "swiftmodule"); !ok || path != "/t/M.swiftmodule" {
		t.Errorf("got (%q, %v), want /t/M.swiftmodule", path, ok)
	}
	if path, ok := m.Lookup("/src/a.swift", "object"); !ok || path != "/t/a.o" {
		t.Errorf("got (%q, %v), want /t/a.o", path, ok)
	}

	encoded, err := EncodeOutputFileMap(m)
	if err != nil {
		t.Fatalf("EncodeOutputFileMap failed: %v", err)
	}
	roundTripped, err := DecodeOutputFileMap(encoded)
	if err != nil {
		t.Fatalf("re-decoding encoded map failed: %v", err)
	}
	if path, ok := roundTripped.Lookup("", "swiftmodule"); !ok || path != "/t/M.swiftmodule" {
		t.Errorf("round trip lost single-input entry: got (%q, %v)", path, ok)
	}
}

func TestOutputFileMapInfersSwiftdoc(t *testing.T) {
	m := NewOutputFileMap()
	m.Set("", "swiftmodule", "/t/M.swiftmodule")
	path, ok := m.Lookup("", "swiftdoc")
	if !ok || path != "/t/M.swiftdoc" {
		t.Errorf("got (%q, %v), want /t/M.swiftdoc", path, ok)
	}
}

func TestOutputFileMapInfersJSONAPIBaseline(t *testing.T) {
	m := NewOutputFileMap()
	m.Set("", "swiftmodule", "/t/M.swiftmodule")
	path, ok := m.Lookup("", "json-api-baseline")
	if !ok || path != "/t/M.json-api-baseline" {
		t.Errorf("got (%q, %v), want /t/M.json-api-baseline", path, ok)
	}
}

func TestOutputFileMapMissingEntryIsNotOK(t *testing.T) {
	m := NewOutputFileMap()
	if _, ok := m.Lookup("/src/a.swift", "object"); ok {
		t.Error("expected no entry for an unrecorded input")
	}
}
