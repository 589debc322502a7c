package matching

import (
	"github.com/hbollon/go-edlib"
)

// Ratio is the normalized indel similarity of a and b in [0,100].
func Ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}
	return 200 * float64(edlib.LCS(a, b)) / float64(total)
}

// PartialRatio scores the shorter string against its best aligned window of the
// longer one, so a title buried in a verbose description still scores 100.
// An empty operand scores 0.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	m, n := len(short), len(long)
	needle := string(short)
	best := 0.0
	score := func(window []rune) bool {
		if r := Ratio(needle, string(window)); r > best {
			best = r
		}
		return best >= 100
	}

	// windows hanging off the left edge
	for i := 1; i < m; i++ {
		if score(long[:i]) {
			return 100
		}
	}
	for i := 0; i+m <= n; i++ {
		if score(long[i : i+m]) {
			return 100
		}
	}
	// and off the right edge
	for i := n - m + 1; i < n; i++ {
		if score(long[i:]) {
			return 100
		}
	}
	return best
}
