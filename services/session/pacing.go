package session

import (
	"math/rand/v2"
	"time"
)

// Pacer produces human-like gaps between requests: a gaussian around Mean with a
// standard deviation of Jitter*Mean, never shorter than Floor.
type Pacer struct {
	Mean   time.Duration
	Jitter float64
	Floor  time.Duration
}

// NewPacer returns a Pacer from seconds-based settings
func NewPacer(meanSecs, jitter, floorSecs float64) *Pacer {
	return &Pacer{
		Mean:   time.Duration(meanSecs * float64(time.Second)),
		Jitter: jitter,
		Floor:  time.Duration(floorSecs * float64(time.Second)),
	}
}

// Next returns the next delay
func (p *Pacer) Next() time.Duration {
	mean := float64(p.Mean)
	d := time.Duration(mean + rand.NormFloat64()*mean*p.Jitter)
	return max(d, p.Floor)
}

// DefaultUserAgents is the pool a session draws its user agent from
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}
