package lyrics

import (
	"strings"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "00:00.00"},
		{1230, "00:01.23"},
		{61234, "01:01.23"},
		{59996, "01:00.00"},
		{3723456, "62:03.46"},
		{-40, "00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatTimestamp(tt.ms); got != tt.expected {
				t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.ms, got, tt.expected)
			}
		})
	}
}

func TestRenderSynced(t *testing.T) {
	lines := []Line{
		{StartMs: 1000, Words: "first"},
		{StartMs: 2000, Words: "   "},
		{StartMs: 3500, Words: " second "},
	}

	got := RenderSynced(lines, "Lrclib")
	want := "[00:01.00]first\n[00:03.50]second\n\nSource: Lrclib"
	if got != want {
		t.Errorf("RenderSynced() = %q, want %q", got, want)
	}
}

func TestRenderSynced_AllBlank(t *testing.T) {
	if got := RenderSynced([]Line{{StartMs: 0, Words: ""}}, "X"); got != "" {
		t.Errorf("Expected absent result for blank lines, got %q", got)
	}
}

func TestRenderPlain(t *testing.T) {
	got := RenderPlain("line one\r\n\r\n  line two\n\n", "Genius")
	want := "line one\nline two\n\nSource: Genius"
	if got != want {
		t.Errorf("RenderPlain() = %q, want %q", got, want)
	}
}

func TestSelect(t *testing.T) {
	both := Result{Synced: "s", Unsynced: "u"}
	onlyUnsynced := Result{Unsynced: "u"}
	onlySynced := Result{Synced: "s"}

	tests := []struct {
		name   string
		result Result
		mode   FetchMode
		want   string
		ok     bool
	}{
		{"synced only with both", both, SyncedOnly, "s", true},
		{"synced only without synced", onlyUnsynced, SyncedOnly, "", false},
		{"unsynced only with both", both, UnsyncedOnly, "u", true},
		{"unsynced only without unsynced", onlySynced, UnsyncedOnly, "", false},
		{"fallback prefers synced", both, SyncedWithFallback, "s", true},
		{"fallback uses unsynced", onlyUnsynced, SyncedWithFallback, "u", true},
		{"fallback empty", Result{}, SyncedWithFallback, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.result, tt.mode)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Select() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseFetchMode(t *testing.T) {
	tests := map[string]FetchMode{
		"0":                    SyncedOnly,
		"synced":               SyncedOnly,
		"1":                    UnsyncedOnly,
		"Unsynced":             UnsyncedOnly,
		"2":                    SyncedWithFallback,
		"synced_with_fallback": SyncedWithFallback,
	}
	for in, want := range tests {
		got, err := ParseFetchMode(in)
		if err != nil {
			t.Fatalf("ParseFetchMode(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFetchMode(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseFetchMode("karaoke"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestParseLRC(t *testing.T) {
	content := strings.Join([]string{
		"[ar:Artist]",
		"[ti:Title]",
		"[00:12.34]Hello",
		"[00:15.5]Short fraction",
		"[01:02:030]Colon separated",
		"[00:20.00][00:40.00]Chorus",
		"no timestamp",
		"[65:00.00]Long song",
	}, "\n")

	lines := ParseLRC(content)
	expected := []Line{
		{12340, "Hello"},
		{15500, "Short fraction"},
		{62030, "Colon separated"},
		{20000, "Chorus"},
		{40000, "Chorus"},
		{3900000, "Long song"},
	}

	if len(lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d: %+v", len(expected), len(lines), lines)
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want)
		}
	}
}
