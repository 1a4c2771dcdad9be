package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want TicketSeverity
	}{
		{"minor", TicketSeverityMinor},
		{"major", TicketSeverityMajor},
		{"critical", TicketSeverityCritical},
		{"urgent", TicketSeverityMinor},
		{"", TicketSeverityMinor},
	}
	for _, tt := range tests {
		if got := NormalizeSeverity(tt.raw); got != tt.want {
			t.Errorf("NormalizeSeverity(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	short := "router keeps rebooting"
	if got := Snippet(short); got != short {
		t.Errorf("Snippet(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("x", SnippetMaxLen+50)
	got := Snippet(long)
	if len(got) != SnippetMaxLen {
		t.Errorf("Snippet length = %d, want %d", len(got), SnippetMaxLen)
	}
	if !strings.HasPrefix(long, got) {
		t.Error("Snippet must be a prefix of the input")
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// A multi-byte rune straddling the cap must be dropped whole, not split.
	input := strings.Repeat("a", SnippetMaxLen-1) + "é"
	got := Snippet(input)
	if !utf8.ValidString(got) {
		t.Errorf("Snippet produced invalid UTF-8: %q", got)
	}
	if len(got) != SnippetMaxLen-1 {
		t.Errorf("Snippet length = %d, want %d", len(got), SnippetMaxLen-1)
	}

	multi := strings.Repeat("é", 100)
	got = Snippet(multi)
	if !utf8.ValidString(got) {
		t.Errorf("Snippet produced invalid UTF-8: %q", got)
	}
	if len(got) != SnippetMaxLen {
		t.Errorf("Snippet length = %d, want %d", len(got), SnippetMaxLen)
	}
}

func TestIsClosed(t *testing.T) {
	open := &Ticket{Status: TicketStatusOpen}
	if open.IsClosed() {
		t.Error("open ticket reported closed")
	}
	fixed := &Ticket{Status: TicketStatusFixed}
	if !fixed.IsClosed() {
		t.Error("fixed ticket reported open")
	}
}
