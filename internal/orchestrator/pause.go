package orchestrator

import (
	"context"
	"sync"
)

// PauseSignal is a single-producer broadcast boolean (spec §4.4
// "Pause/resume", §9 "Pause signal shape"). A boolean broadcast is
// sufficient because the protocol has a single active run; a
// ticket-based cancel token would allow multi-run semantics but is not
// required here.
type PauseSignal struct {
	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}
}

// NewPauseSignal returns a signal in the not-paused state.
func NewPauseSignal() *PauseSignal {
	return &PauseSignal{resumeCh: make(chan struct{})}
}

// Pause sets the signal true. Workers mid-chunk finish that chunk;
// pause granularity is one chunk (spec §4.4).
func (p *PauseSignal) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resumeCh = make(chan struct{})
	}
}

// Resume releases any workers blocked in Wait.
func (p *PauseSignal) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resumeCh)
	}
}

// Paused reports the current state.
func (p *PauseSignal) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Wait blocks until the signal goes false, ctx is cancelled, or the
// signal is not currently paused. This is the dequeue-time suspension
// point every worker awaits before pulling its next ChunkWork (spec §5).
func (p *PauseSignal) Wait(ctx context.Context) error {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	ch := p.resumeCh
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
