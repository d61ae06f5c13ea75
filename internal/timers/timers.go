// Package timers mirrors the controller's timers so the satellite can show
// them and ring when one finishes.
package timers

import (
	"sort"
	"sync"
	"time"

	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/observability"
)

// Timer is one controller-side timer. Remaining time is derived from the
// creation time rather than counted down.
type Timer struct {
	ID        string
	Name      string
	Total     time.Duration
	CreatedAt time.Time
	IsActive  bool

	// remaining while paused
	frozen time.Duration
}

// Remaining returns the time left at now, never negative.
func (t Timer) Remaining(now time.Time) time.Duration {
	if !t.IsActive {
		return t.frozen
	}
	left := t.Total - now.Sub(t.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}

func fromEvent(ev *api.VoiceAssistantTimerEventResponse, now time.Time) Timer {
	total := time.Duration(ev.TotalSeconds) * time.Second
	left := time.Duration(ev.SecondsLeft) * time.Second
	return Timer{
		ID:        ev.TimerID,
		Name:      ev.Name,
		Total:     total,
		CreatedAt: now.Add(left - total),
		IsActive:  ev.IsActive,
		frozen:    left,
	}
}

// Model holds the pending timers and the single ringing slot.
type Model struct {
	mu      sync.Mutex
	pending map[string]Timer
	ringing *Timer
}

func NewModel() *Model {
	return &Model{pending: make(map[string]Timer)}
}

// Apply updates the model for one timer event. It reports whether the event
// put a timer into the empty ringing slot, in which case the caller starts
// the alert. A finish while another timer rings only removes it from pending.
func (m *Model) Apply(ev *api.VoiceAssistantTimerEventResponse, now time.Time) (startAlert bool) {
	observability.RecordTimerEvent(ev.EventType.String())

	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.EventType {
	case api.VoiceAssistantTimerStarted, api.VoiceAssistantTimerUpdated:
		m.pending[ev.TimerID] = fromEvent(ev, now)
	case api.VoiceAssistantTimerCancelled:
		delete(m.pending, ev.TimerID)
	case api.VoiceAssistantTimerFinished:
		t, ok := m.pending[ev.TimerID]
		if !ok {
			t = fromEvent(ev, now)
		}
		delete(m.pending, ev.TimerID)
		if m.ringing == nil {
			t.IsActive = false
			t.frozen = 0
			m.ringing = &t
			return true
		}
	}
	return false
}

// Ringing returns the timer in the ringing slot.
func (m *Model) Ringing() (Timer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ringing == nil {
		return Timer{}, false
	}
	return *m.ringing, true
}

// IsRinging reports whether a timer is ringing.
func (m *Model) IsRinging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ringing != nil
}

// StopRinging empties the ringing slot and reports whether it was occupied.
func (m *Model) StopRinging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.ringing != nil
	m.ringing = nil
	return was
}

// Clear drops every timer, including the ringing one.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[string]Timer)
	m.ringing = nil
}

// Pending returns the pending timers, soonest to finish first.
func (m *Model) Pending(now time.Time) []Timer {
	m.mu.Lock()
	out := make([]Timer, 0, len(m.pending))
	for _, t := range m.pending {
		out = append(out, t)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Remaining(now), out[j].Remaining(now)
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
