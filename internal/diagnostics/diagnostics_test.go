package diagnostics

import "testing"

func TestCollectingSinkHasErrors(t *testing.T) {
	sink := &CollectingSink{}
	if sink.HasErrors() {
		t.Fatal("empty sink should report no errors")
	}

	ReportWarning(sink, "harmless")
	if sink.HasErrors() {
		t.Fatal("a warning-only sink should report no errors")
	}

	ReportError(sink, New(KindNoInputFiles))
	if !sink.HasErrors() {
		t.Fatal("expected HasErrors to be true after an error-severity diagnostic")
	}
	if len(sink.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(sink.Diagnostics))
	}
}

func TestErrorKindString(t *testing.T) {
	err := New(KindTwoFilesSameName, "a.as", "/x/a.as", "/y/a.as")
	if err.Kind.String() != "TwoFilesSameName" {
		t.Errorf("unexpected kind string: %s", err.Kind.String())
	}
	if err.Error() == "" {
		t.Error("expected non-empty error text")
	}
}
