package typedpath

import "testing"

func TestEqualityIsOnLocationOnly(t *testing.T) {
	a := Absolute("/tmp/a.o", FileTypeObject)
	b := Absolute("/tmp/a.o", FileTypeSource)
	if a.Key() != b.Key() {
		t.Fatal("expected equal keys for same location regardless of type")
	}
}

func TestStandardInputOutputKeysAreSingletons(t *testing.T) {
	if StandardInput(FileTypeSource).Key() != StandardInput(FileTypeSource).Key() {
		t.Fatal("stdin typed paths should share a key")
	}
	if StandardInput(FileTypeSource).Key() == StandardOutput(FileTypeObject).Key() {
		t.Fatal("stdin and stdout keys must differ")
	}
}

func TestFileListJoinsMemberPaths(t *testing.T) {
	members := []TypedPath{
		Absolute("/a.swift", FileTypeSource),
		Absolute("/b.swift", FileTypeSource),
	}
	fl := FileList("inputs", members)
	want := "/a.swift\n/b.swift"
	if string(fl.Location.Contents) != want {
		t.Errorf("got %q, want %q", fl.Location.Contents, want)
	}
}

func TestIsDerived(t *testing.T) {
	if !FileTypeObject.IsDerived() {
		t.Error("object files are always derived")
	}
	if FileTypeSource.IsDerived() {
		t.Error("source files are never derived")
	}
}
