package stats

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Run holds the counters of a single batch run
type Run struct {
	StartTime time.Time

	Processed atomic.Int64 // Songs attempted, including ones whose tags could not be read
	Found     atomic.Int64 // Songs an .lrc was written for
	Synced    atomic.Int64
	Unsynced  atomic.Int64
	TagErrors atomic.Int64

	// Per-source hit counts
	sourceHits sync.Map // map[string]*atomic.Int64
}

// NewRun starts counting at the given time
func NewRun(start time.Time) *Run {
	return &Run{StartTime: start}
}

// RecordProcessed counts one attempted song
func (r *Run) RecordProcessed() {
	r.Processed.Add(1)
}

// RecordTagError counts a song skipped because its tags were unreadable
func (r *Run) RecordTagError() {
	r.TagErrors.Add(1)
}

// RecordFound counts a written song and credits the source that produced it
func (r *Run) RecordFound(source string, synced bool) {
	r.Found.Add(1)
	if synced {
		r.Synced.Add(1)
	} else {
		r.Unsynced.Add(1)
	}
	counter, _ := r.sourceHits.LoadOrStore(source, &atomic.Int64{})
	counter.(*atomic.Int64).Add(1)
}

// SourceHits returns a snapshot of per-source hit counts
func (r *Run) SourceHits() map[string]int64 {
	result := make(map[string]int64)
	r.sourceHits.Range(func(key, value interface{}) bool {
		result[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return result
}

// SuccessRate returns found/processed as a percentage
func (r *Run) SuccessRate() float64 {
	processed := r.Processed.Load()
	if processed == 0 {
		return 0
	}
	return float64(r.Found.Load()) / float64(processed) * 100
}

// Summary is the run-end line, e.g. "Success Rate: 66.67% | 2/3"
func (r *Run) Summary() string {
	return fmt.Sprintf("Success Rate: %.2f%% | %d/%d", r.SuccessRate(), r.Found.Load(), r.Processed.Load())
}

// Snapshot freezes the counters into a record for the store
func (r *Run) Snapshot(end time.Time, directory, mode string) Record {
	return Record{
		Start:       r.StartTime,
		End:         end,
		Directory:   directory,
		Mode:        mode,
		Processed:   r.Processed.Load(),
		Found:       r.Found.Load(),
		Synced:      r.Synced.Load(),
		Unsynced:    r.Unsynced.Load(),
		TagErrors:   r.TagErrors.Load(),
		SourceHits:  r.SourceHits(),
		SuccessRate: r.SuccessRate(),
	}
}

// FormatElapsed renders a duration as "00hrs:01min:02sec,345ms"
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02dhrs:%02dmin:%02dsec,%03dms", hours, minutes, seconds, millis)
}

// FormatSourceHits renders per-source counts in a stable order, e.g. "genius=1 lrclib=3"
func FormatSourceHits(hits map[string]int64) string {
	names := make([]string, 0, len(hits))
	for name := range hits {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", name, hits[name])
	}
	return out
}
