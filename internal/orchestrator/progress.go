package orchestrator

import (
	"sync"
	"time"
)

const (
	progressWindow = 5 * time.Second
	progressTick   = 500 * time.Millisecond
)

// sample is one (timestamp, bytes) observation fed into the rolling
// throughput window (spec §4.4 "Progress monitor").
type sample struct {
	at    time.Time
	bytes uint64
}

// progressMonitor aggregates a rolling 5-second window of byte samples
// and computes bytes/sec and ETA on a 500ms cadence. It runs as a
// dedicated goroutine fed through addBytes; a missed tick never blocks
// workers (spec §5: "soft cadence").
type progressMonitor struct {
	total uint64
	now   func() time.Time

	mu         sync.Mutex
	downloaded uint64
	samples    []sample
}

func newProgressMonitor(total uint64, now func() time.Time) *progressMonitor {
	if now == nil {
		now = time.Now
	}
	return &progressMonitor{total: total, now: now}
}

// addBytes records a completed write of n bytes. Safe for concurrent use
// by every worker (spec §5: "progress channel send" is a suspension
// point, but the counters themselves only need a mutex, not a channel,
// since the monitor goroutine only reads on its own ticks).
func (m *progressMonitor) addBytes(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloaded += n
	m.samples = append(m.samples, sample{at: m.now(), bytes: n})
}

// snapshot computes the current ProgressSnapshot from the rolling window.
func (m *progressMonitor) snapshot() ProgressSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-progressWindow)
	kept := m.samples[:0:0]
	var windowBytes uint64
	var oldest time.Time
	for _, s := range m.samples {
		if s.at.Before(cutoff) {
			continue
		}
		kept = append(kept, s)
		windowBytes += s.bytes
		if oldest.IsZero() || s.at.Before(oldest) {
			oldest = s.at
		}
	}
	m.samples = kept

	var bps float64
	if !oldest.IsZero() {
		elapsed := m.now().Sub(oldest).Seconds()
		if elapsed < 1 {
			elapsed = 1
		}
		bps = float64(windowBytes) / elapsed
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.downloaded) / float64(m.total) * 100
	}

	var eta float64
	if bps > 0 && m.total > m.downloaded {
		eta = float64(m.total-m.downloaded) / bps
	}

	return ProgressSnapshot{
		Percentage:     pct,
		BytesPerSecond: bps,
		ETASeconds:     eta,
		Downloaded:     m.downloaded,
		Total:          m.total,
	}
}

// run emits a Progress event on events every progressTick until stop is
// closed. Intended to run in its own goroutine.
func (m *progressMonitor) run(events chan<- Event, stop <-chan struct{}) {
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sendEvent(events, Event{Kind: EventProgress, Progress: m.snapshot()})
		case <-stop:
			return
		}
	}
}

// sendEvent delivers e on events, blocking while the buffered channel is
// full; a nil events channel drops the event. There is no panic
// recovery: Run waits for the monitor goroutine to return before it
// sends Completed and closes events.
func sendEvent(events chan<- Event, e Event) {
	if events == nil {
		return
	}
	events <- e
}
