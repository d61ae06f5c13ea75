package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/audio/media"
)

type recordingSink struct {
	mu      sync.Mutex
	opened  int
	samples []int16
}

func (s *recordingSink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	return nil
}

func (s *recordingSink) FrameSize() int { return 4 }

func (s *recordingSink) Write(frame []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, frame...)
	return nil
}

func (s *recordingSink) written() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int16(nil), s.samples...)
}

type mapSource struct {
	clips map[string]*media.Clip
	block chan struct{} // when set, Load waits for it or for cancellation
}

func (m *mapSource) Load(ctx context.Context, ref string) (*media.Clip, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	clip, ok := m.clips[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return clip, nil
}

func clip(samples ...int16) *media.Clip {
	return &media.Clip{Samples: samples, SampleRate: 48000}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for completion")
	}
}

func TestPlayer_PlaysItemsInOrder(t *testing.T) {
	sink := &recordingSink{}
	source := &mapSource{clips: map[string]*media.Clip{
		"a": clip(1, 2, 3, 4, 5),
		"b": clip(6, 7),
	}}
	p := New(zerolog.Nop(), "tts", sink, source)

	var mu sync.Mutex
	var states []audio.PlayerState
	p.OnStateChange = func(s audio.PlayerState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	done := make(chan struct{})
	p.Play([]string{"a", "b"}, func() { close(done) })
	waitFor(t, done)

	got := sink.written()
	if len(got) != 7 {
		t.Fatalf("Expected 7 samples, got %d", len(got))
	}
	if got[6] != 7 {
		t.Errorf("Expected last sample 7, got %d", got[6])
	}
	if p.State() != audio.PlayerIdle {
		t.Errorf("Expected idle after completion, got %v", p.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != audio.PlayerPlaying || states[1] != audio.PlayerIdle {
		t.Errorf("Expected [playing idle], got %v", states)
	}
}

func TestPlayer_LoadFailureCompletes(t *testing.T) {
	p := New(zerolog.Nop(), "tts", &recordingSink{}, &mapSource{clips: map[string]*media.Clip{}})

	done := make(chan struct{})
	p.Play([]string{"missing"}, func() { close(done) })
	waitFor(t, done)

	if p.State() != audio.PlayerIdle {
		t.Errorf("Expected idle, got %v", p.State())
	}
}

func TestPlayer_StopDropsCompletion(t *testing.T) {
	source := &mapSource{clips: map[string]*media.Clip{"a": clip(1)}, block: make(chan struct{})}
	p := New(zerolog.Nop(), "tts", &recordingSink{}, source)

	completed := make(chan struct{}, 1)
	p.Play([]string{"a"}, func() { completed <- struct{}{} })
	if p.State() != audio.PlayerPlaying {
		t.Errorf("Expected playing, got %v", p.State())
	}
	p.Stop()
	if p.State() != audio.PlayerIdle {
		t.Errorf("Expected idle after stop, got %v", p.State())
	}

	select {
	case <-completed:
		t.Error("Completion ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayer_ReplacingPlayDropsOldCompletion(t *testing.T) {
	block := make(chan struct{})
	source := &mapSource{clips: map[string]*media.Clip{"a": clip(1), "b": clip(2)}, block: block}
	p := New(zerolog.Nop(), "tts", &recordingSink{}, source)

	first := make(chan struct{}, 1)
	p.Play([]string{"a"}, func() { first <- struct{}{} })

	second := make(chan struct{})
	p.Play([]string{"b"}, func() { close(second) })
	close(block)
	waitFor(t, second)

	select {
	case <-first:
		t.Error("Replaced playback still completed")
	default:
	}
}

func TestPlayer_PauseUnpause(t *testing.T) {
	source := &mapSource{clips: map[string]*media.Clip{"a": clip(1)}, block: make(chan struct{})}
	p := New(zerolog.Nop(), "media", &recordingSink{}, source)

	p.Pause()
	if p.State() != audio.PlayerIdle {
		t.Errorf("Expected pause on idle player to be ignored, got %v", p.State())
	}

	p.Play([]string{"a"}, nil)
	p.Pause()
	if p.State() != audio.PlayerPaused {
		t.Errorf("Expected paused, got %v", p.State())
	}
	p.Unpause()
	if p.State() != audio.PlayerPlaying {
		t.Errorf("Expected playing, got %v", p.State())
	}
	p.Stop()
}

func TestPlayer_VolumeScalesOutput(t *testing.T) {
	sink := &recordingSink{}
	p := New(zerolog.Nop(), "media", sink, &mapSource{clips: map[string]*media.Clip{"a": clip(16384)}})

	p.SetVolume(1.5)
	if p.Volume() != 1.0 {
		t.Errorf("Expected volume clamped to 1, got %f", p.Volume())
	}
	p.SetVolume(0.5)

	done := make(chan struct{})
	p.Play([]string{"a"}, func() { close(done) })
	waitFor(t, done)

	got := sink.written()
	if len(got) != 1 || got[0] != 8192 {
		t.Errorf("Expected [8192], got %v", got)
	}
}

func TestPlayer_InitOpensSink(t *testing.T) {
	sink := &recordingSink{}
	New(zerolog.Nop(), "tts", sink, &mapSource{}).Init()
	if sink.opened != 1 {
		t.Errorf("Expected sink opened once, got %d", sink.opened)
	}
}
