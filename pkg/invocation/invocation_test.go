package invocation

import "testing"

func TestDetectFrontendDispatch(t *testing.T) {
	d := Detect([]string{"asterc", "-frontend", "-c", "a.as"}, "/usr/bin/asterc")
	if d.Subcommand != "aster-frontend" {
		t.Errorf("got subcommand %q, want aster-frontend", d.Subcommand)
	}
}

func TestDetectFlagShapedArgumentIsNormal(t *testing.T) {
	d := Detect([]string{"asterc", "-c", "a.as"}, "/usr/bin/asterc")
	if d.Subcommand != "" {
		t.Errorf("got subcommand %q, want normal invocation", d.Subcommand)
	}
}

func TestDetectDottedArgumentIsNormal(t *testing.T) {
	d := Detect([]string{"asterc", "a.as"}, "/usr/bin/asterc")
	if d.Subcommand != "" {
		t.Errorf("got subcommand %q, want normal invocation", d.Subcommand)
	}
}

func TestDetectReplSpecialCase(t *testing.T) {
	d := Detect([]string{"asterc", "repl"}, "/usr/bin/asterc")
	if d.Subcommand != "" {
		t.Fatalf("got subcommand %q, want normal invocation with -repl", d.Subcommand)
	}
	if len(d.Argv) != 2 || d.Argv[1] != "-repl" {
		t.Errorf("got argv %v, want [asterc -repl]", d.Argv)
	}
}

func TestDetectUnknownTokenDispatchesSubcommand(t *testing.T) {
	d := Detect([]string{"asterc", "build"}, "/usr/bin/asterc")
	if d.Subcommand != "aster-build" {
		t.Errorf("got subcommand %q, want aster-build", d.Subcommand)
	}
}

func TestDetectNonDriverNameIsUnaffected(t *testing.T) {
	d := Detect([]string{"other-tool", "build"}, "/usr/bin/other-tool")
	if d.Subcommand != "" {
		t.Errorf("expected non-driver argv[0] to pass through unaffected, got %q", d.Subcommand)
	}
}
