package tui

import (
	"strings"
	"testing"
)

func TestFitLines(t *testing.T) {
	out := fitLines("ab\ncdef\ng", 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "ab  " || lines[1] != "cdef" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	padded := strings.Split(fitLines("x", 2, 3), "\n")
	if len(padded) != 3 || padded[2] != "  " {
		t.Fatalf("unexpected padding: %q", padded)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
