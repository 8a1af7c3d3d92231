package console

import (
	"strings"
	"testing"
)

func TestFormatDiagnosticWithPosition(t *testing.T) {
	d := Diagnostic{
		Position: ErrorPosition{File: "main.as", Line: 3, Column: 5},
		Severity: "error",
		Message:  "unexpected token",
	}
	got := FormatDiagnostic(d)
	if !strings.Contains(got, "main.as:3:5:") {
		t.Errorf("expected position prefix, got %q", got)
	}
	if !strings.Contains(got, "unexpected token") {
		t.Errorf("expected message, got %q", got)
	}
}

func TestFormatDiagnosticWithoutPosition(t *testing.T) {
	got := FormatDiagnostic(Diagnostic{Severity: "warning", Message: "deprecated flag"})
	if strings.Contains(got, ":0:0:") {
		t.Errorf("did not expect a zero-value position prefix, got %q", got)
	}
	if !strings.Contains(got, "deprecated flag") {
		t.Errorf("expected message, got %q", got)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if got := RenderTable(TableConfig{}); got != "" {
		t.Errorf("expected empty output for no headers, got %q", got)
	}
}
