package respfile

import (
	"reflect"
	"testing"
)

func TestTokenizeIdempotent(t *testing.T) {
	tokens := []string{"-o", "a b.o", `with"quote`, "plain"}
	written := Write(tokens)
	got := Tokenize(written)
	if !reflect.DeepEqual(got, tokens) {
		t.Errorf("round trip mismatch: got %q, want %q", got, tokens)
	}
}

func TestTokenizeSkipsCommentLines(t *testing.T) {
	text := "// this is a comment\n-o out.o\n"
	got := Tokenize(text)
	want := []string{"-o", "out.o"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenizeQuotedWhitespace(t *testing.T) {
	got := Tokenize(`"a b" c`)
	want := []string{"a b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenizeWindowsBackslashRules(t *testing.T) {
	// Two backslashes before a quote halve to one literal backslash and
	// the quote toggles quoting (even run).
	got := TokenizeWindows(`a\\"b c"`)
	want := []string{`a\b c`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenizeWindowsOddBackslashRunEmitsLiteralQuote(t *testing.T) {
	// One backslash before a quote halves to zero backslashes and emits
	// a literal quote character (odd run), staying in the same token.
	got := TokenizeWindows(`a\"b`)
	want := []string{`a"b`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInclusionGuardWarnsOnRepeat(t *testing.T) {
	g := NewInclusionGuard()
	key := FileKey{Device: 1, Inode: 42}
	first, warn := g.Visit(key, "a.resp")
	if !first || warn != "" {
		t.Fatalf("expected first visit clean, got first=%v warn=%q", first, warn)
	}
	second, warn := g.Visit(key, "a.resp")
	if second || warn == "" {
		t.Fatalf("expected repeat visit to warn, got first=%v warn=%q", second, warn)
	}
}
