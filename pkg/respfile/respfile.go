// Package respfile implements the response file format the Job Executor
// falls back to when a resolved command line exceeds the platform
// argv length limit (spec §6, §9): whitespace-separated tokens with
// shell-style quoting, "//" comment lines, and recursive @file
// inclusion guarded by a (device, inode) visited set.
package respfile

import (
	"fmt"
	"strings"
)

// Write renders tokens into response-file text: one double-quoted,
// backslash-escaped token per line is not required by the format, but
// this writer emits one token per line for readability, matching the
// driver's own output style.
func Write(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(quote(tok))
		b.WriteByte('\n')
	}
	return b.String()
}

// quote wraps tok in double quotes and backslash-escapes embedded
// quotes and backslashes if tok contains whitespace, a quote or a
// backslash; otherwise it is written bare.
func quote(tok string) string {
	if tok == "" {
		return `""`
	}
	needsQuoting := strings.ContainsAny(tok, " \t\n\"\\")
	if !needsQuoting {
		return tok
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range tok {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Tokenize splits response-file text into arguments: whitespace
// separates tokens outside quotes, double quotes group a token
// (including embedded whitespace), backslash escapes the next
// character, and a line whose first non-whitespace run is "//" is a
// comment and contributes no tokens.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	inToken := false
	inQuotes := false

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "//") {
			continue
		}
		runes := []rune(line)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			switch {
			case r == '\\' && i+1 < len(runes):
				cur.WriteRune(runes[i+1])
				inToken = true
				i++
			case r == '"':
				inQuotes = !inQuotes
				inToken = true
			case (r == ' ' || r == '\t') && !inQuotes:
				if inToken {
					tokens = append(tokens, cur.String())
					cur.Reset()
					inToken = false
				}
			default:
				cur.WriteRune(r)
				inToken = true
			}
		}
		if inToken && !inQuotes {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// TokenizeWindows applies the Microsoft backslash-before-quote rules
// (spec §6) instead of the POSIX shell rules Tokenize uses. Runs of
// backslashes immediately preceding a double quote halve (and the quote
// then toggles quoting) when the run length is even, or
// halve-and-emit-a-literal-quote (consuming the trailing quote) when
// the run length is odd; backslashes elsewhere are literal.
func TokenizeWindows(text string) []string {
	var tokens []string
	var cur strings.Builder
	inToken := false
	inQuotes := false

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "//") {
			continue
		}
		runes := []rune(line)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if r == '\\' {
				n := 0
				for i < len(runes) && runes[i] == '\\' {
					n++
					i++
				}
				if i < len(runes) && runes[i] == '"' {
					cur.WriteString(strings.Repeat(`\`, n/2))
					inToken = true
					if n%2 == 1 {
						cur.WriteByte('"')
					} else {
						inQuotes = !inQuotes
					}
					continue
				}
				cur.WriteString(strings.Repeat(`\`, n))
				inToken = true
				i--
				continue
			}
			switch {
			case r == '"':
				inQuotes = !inQuotes
				inToken = true
			case (r == ' ' || r == '\t') && !inQuotes:
				if inToken {
					tokens = append(tokens, cur.String())
					cur.Reset()
					inToken = false
				}
			default:
				cur.WriteRune(r)
				inToken = true
			}
		}
		if inToken && !inQuotes {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// FileKey identifies a response file by (device, inode) for recursive
// @file-inclusion cycle detection.
type FileKey struct {
	Device uint64
	Inode  uint64
}

// InclusionGuard tracks visited response files across one recursive
// expansion; Visit reports a repeat and returns the warning text for it.
type InclusionGuard struct {
	seen map[FileKey]bool
}

// NewInclusionGuard builds an empty guard.
func NewInclusionGuard() *InclusionGuard {
	return &InclusionGuard{seen: make(map[FileKey]bool)}
}

// Visit records key and reports whether this is the first visit. A
// false return means the caller must warn and skip re-reading the file.
func (g *InclusionGuard) Visit(key FileKey, path string) (firstVisit bool, warning string) {
	if g.seen[key] {
		return false, fmt.Sprintf("response file %q included recursively, skipping", path)
	}
	g.seen[key] = true
	return true, ""
}
