// Package eventtest provides a publisher that records events for assertions.
package eventtest

import (
	"context"
	"sync"

	"github.com/fastygo/bizdesk/domain"
)

// Recorder stores every successfully published event. When Err is set every
// Publish call fails with it and nothing is recorded.
type Recorder struct {
	mu       sync.Mutex
	events   []*domain.Event
	attempts int

	Err error
}

func (r *Recorder) Publish(_ context.Context, evt *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.Type()
	}
	return out
}

// Last returns the most recent event, or nil.
func (r *Recorder) Last() *domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// Attempts counts Publish calls, including failed ones.
func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.attempts = 0
	r.Err = nil
}
