package lyrics

import (
	"fmt"
	"strings"
)

// Line is one provider line with its start offset in milliseconds
type Line struct {
	StartMs int64
	Words   string
}

// FormatTimestamp renders ms as MM:SS.ss. Minutes are not wrapped at 60.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := (ms + 5) / 10
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs%6000)/100, cs%100)
}

// RenderSynced renders lines as [MM:SS.ss]text followed by the provenance line.
// Returns "" when no line has text.
func RenderSynced(lines []Line, provider string) string {
	var b strings.Builder
	for _, l := range lines {
		words := strings.TrimSpace(l.Words)
		if words == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + FormatTimestamp(l.StartMs) + "]" + words)
	}
	return withProvenance(b.String(), provider)
}

// RenderUnsynced joins the non-blank lines and appends the provenance line.
func RenderUnsynced(lines []string, provider string) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return withProvenance(strings.Join(kept, "\n"), provider)
}

// RenderPlain is RenderUnsynced for a newline separated blob.
func RenderPlain(text, provider string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return RenderUnsynced(strings.Split(text, "\n"), provider)
}

// Provenance returns the attribution line appended to every result
func Provenance(provider string) string {
	return "Source: " + provider
}

func withProvenance(body, provider string) string {
	if body == "" {
		return ""
	}
	return body + "\n\n" + Provenance(provider)
}
