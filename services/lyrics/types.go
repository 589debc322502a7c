package lyrics

import (
	"fmt"
	"strings"
)

// Track is the local metadata a song is resolved against. Missing tags are empty strings.
type Track struct {
	Title  string
	Artist string
	Album  string
}

func (t Track) String() string {
	return fmt.Sprintf("%q by %q (%q)", t.Title, t.Artist, t.Album)
}

// FetchMode selects which half of a Result satisfies a resolution
type FetchMode int

const (
	SyncedOnly FetchMode = iota
	UnsyncedOnly
	SyncedWithFallback
)

func (m FetchMode) String() string {
	switch m {
	case SyncedOnly:
		return "synced"
	case UnsyncedOnly:
		return "unsynced"
	case SyncedWithFallback:
		return "synced_with_fallback"
	default:
		return fmt.Sprintf("FetchMode(%d)", int(m))
	}
}

// ParseFetchMode accepts the mode names as well as their numeric form (0, 1, 2).
func ParseFetchMode(s string) (FetchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "synced", "synced_only":
		return SyncedOnly, nil
	case "1", "unsynced", "unsynced_only":
		return UnsyncedOnly, nil
	case "2", "", "synced_with_fallback", "fallback":
		return SyncedWithFallback, nil
	}
	return SyncedWithFallback, fmt.Errorf("unknown fetch mode %q", s)
}

// Result is the (synced, unsynced) pair a provider produces. An empty string means absent.
// Both halves already carry their provenance line.
type Result struct {
	Synced   string
	Unsynced string
}

// Empty reports whether neither half is present
func (r Result) Empty() bool {
	return r.Synced == "" && r.Unsynced == ""
}

// Select applies the fetch mode to a result and returns the acceptable text, if any.
func Select(r Result, mode FetchMode) (string, bool) {
	switch mode {
	case SyncedOnly:
		return r.Synced, r.Synced != ""
	case UnsyncedOnly:
		return r.Unsynced, r.Unsynced != ""
	default:
		if r.Synced != "" {
			return r.Synced, true
		}
		return r.Unsynced, r.Unsynced != ""
	}
}
