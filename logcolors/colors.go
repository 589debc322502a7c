package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"

	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightRed     = "\033[91m"
)

// Run/Init log prefixes
const (
	LogRun     = Green + "[Run]" + Reset
	LogSummary = Green + "[Summary]" + Reset
	LogConfig  = Cyan + "[Config]" + Reset
	LogStats   = Blue + "[Stats]" + Reset
	LogOutput  = Blue + "[Output]" + Reset
	LogTags    = Cyan + "[Tags]" + Reset
	LogTools   = Cyan + "[Tools]" + Reset
)

// Session and transport log prefixes
const (
	LogRateLimit   = Purple + "[RateLimit]" + Reset
	LogRetry       = Purple + "[Retry]" + Reset
	LogPacing      = Cyan + "[Pacing]" + Reset
	LogAccessToken = Cyan + "[Access Token]" + Reset
	LogBrowser     = Cyan + "[Browser]" + Reset
)

// Provider/pipeline log prefixes
const (
	LogSearch     = Blue + "[Search]" + Reset
	LogMatch      = Green + "[Match]" + Reset
	LogNoMatch    = Red + "[No Match]" + Reset
	LogSuccess    = Green + "[Success]" + Reset
	LogFailure    = Red + "[Failure]" + Reset
	LogLyrics     = Blue + "[Lyrics]" + Reset
	LogFallback   = Cyan + "[Fallback]" + Reset
	LogTrackScore = Cyan + "[Track Score]" + Reset
	LogSessionHit = Green + "[Session Cache]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// SessionPrefix returns a colored session prefix for the named provider
func SessionPrefix(name string) string {
	return Purple + "[Session:" + name + "]" + Reset
}

var providerColors = []string{
	Green, Blue, Purple, Cyan, Red,
	BrightGreen, BrightBlue, BrightMagenta, BrightCyan, BrightRed,
}

// Provider returns a colored provider name. The same name always gets the same color.
func Provider(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	return providerColors[hash%len(providerColors)] + name + Reset
}
