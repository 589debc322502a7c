package matching

import (
	"regexp"
	"strings"
)

var (
	parentheticalRegex = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketedRegex     = regexp.MustCompile(`\s*\[[^\]]*\]`)

	// Everything except letters, marks, digits, whitespace and ÷ becomes a space.
	// Marks are kept so Indic and other combining scripts survive intact.
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s÷]`)

	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// compilationCredits are the boilerplate artist credits of compilation releases
var compilationCredits = []string{
	"various artists",
	"various interprets",
	"verschiedene interpreten",
	"varios artistas",
	"vários artistas",
	"artistes divers",
	"artisti vari",
}

// Clean canonicalizes free-text metadata for comparison and searching.
// Clean(Clean(s)) == Clean(s) for every s.
func Clean(s string) string {
	s = strings.ToLower(s)
	s = parentheticalRegex.ReplaceAllString(s, "")
	s = bracketedRegex.ReplaceAllString(s, "")
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = collapse(s)
	s = stripCompilationCredits(s)
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// stripCompilationCredits removes whole-word credit phrases until none remain.
// s must already be collapsed to single spaces.
func stripCompilationCredits(s string) string {
	padded := " " + s + " "
	for {
		before := padded
		for _, phrase := range compilationCredits {
			padded = strings.ReplaceAll(padded, " "+phrase+" ", " ")
		}
		if padded == before {
			return padded
		}
	}
}
