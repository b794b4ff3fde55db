package display

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	if got := truncate("hold steady", 40); got != "hold steady" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}

func TestTruncateEndsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("本", 20)
	got := truncate(s, 10)

	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 10 {
		t.Fatalf("expected at most 10 bytes, got %d", len(got))
	}
}

func TestTruncateASCII(t *testing.T) {
	got := truncate("a very long rationale about market structure", 20)
	if got != "a very long ratio..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(got))
	}
}
