package satellite

import (
	"sync"
	"testing"

	"github.com/lexiqai/voice-satellite/internal/audio"
)

type stubPlayer struct {
	mu         sync.Mutex
	volume     float32
	state      audio.PlayerState
	played     [][]string
	stops      int
	inits      int
	completion func()
}

func (p *stubPlayer) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
}

func (p *stubPlayer) Play(urls []string, onCompletion func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, urls)
	p.completion = onCompletion
	p.state = audio.PlayerPlaying
}

func (p *stubPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = audio.PlayerPaused
}

func (p *stubPlayer) Unpause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = audio.PlayerPlaying
}

func (p *stubPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.completion = nil
	p.state = audio.PlayerIdle
}

func (p *stubPlayer) Volume() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *stubPlayer) SetVolume(volume float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

func (p *stubPlayer) State() audio.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// complete finishes the current playback the way a real player would.
func (p *stubPlayer) complete() {
	p.mu.Lock()
	fn := p.completion
	p.completion = nil
	p.state = audio.PlayerIdle
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *stubPlayer) plays() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.played...)
}

func (p *stubPlayer) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

func TestPlayer_DuckLowersOnlyMedia(t *testing.T) {
	tts, media := &stubPlayer{}, &stubPlayer{}
	p := NewPlayer(tts, media, 0.8, 0.5)

	if tts.Volume() != 0.8 || media.Volume() != 0.8 {
		t.Fatalf("Expected initial volume 0.8, got tts=%f media=%f", tts.Volume(), media.Volume())
	}

	p.Duck()
	if media.Volume() != 0.4 {
		t.Errorf("Expected ducked media volume 0.4, got %f", media.Volume())
	}
	if tts.Volume() != 0.8 {
		t.Errorf("Expected tts volume unchanged, got %f", tts.Volume())
	}

	p.Unduck()
	if media.Volume() != 0.8 {
		t.Errorf("Expected media volume restored to 0.8, got %f", media.Volume())
	}
}

func TestPlayer_SetVolumeWhileDucked(t *testing.T) {
	tts, media := &stubPlayer{}, &stubPlayer{}
	p := NewPlayer(tts, media, 1.0, 0.5)
	var saved float32
	p.OnVolumeChanged = func(v float32) { saved = v }

	p.Duck()
	p.SetVolume(0.6)
	if media.Volume() != 0.3 || tts.Volume() != 0.6 {
		t.Errorf("Expected media 0.3 and tts 0.6, got media=%f tts=%f", media.Volume(), tts.Volume())
	}
	if p.Volume() != 0.6 || saved != 0.6 {
		t.Errorf("Expected volume 0.6 reported and saved, got %f/%f", p.Volume(), saved)
	}
}

func TestPlayer_MuteSilencesBoth(t *testing.T) {
	tts, media := &stubPlayer{}, &stubPlayer{}
	p := NewPlayer(tts, media, 1.0, 0.5)

	p.SetMuted(true)
	if tts.Volume() != 0 || media.Volume() != 0 {
		t.Errorf("Expected both muted, got tts=%f media=%f", tts.Volume(), media.Volume())
	}
	p.Duck()
	p.SetVolume(0.5)
	if media.Volume() != 0 {
		t.Errorf("Expected media to stay muted, got %f", media.Volume())
	}

	p.SetMuted(false)
	if tts.Volume() != 0.5 || media.Volume() != 0.25 {
		t.Errorf("Expected tts 0.5 and ducked media 0.25, got tts=%f media=%f", tts.Volume(), media.Volume())
	}
	if !p.Ducked() || p.Muted() {
		t.Error("Expected ducked and unmuted")
	}
}

func TestPlayer_MediaCommandsGoToMediaPlayer(t *testing.T) {
	tts, media := &stubPlayer{}, &stubPlayer{}
	p := NewPlayer(tts, media, 1.0, 0.5)

	p.PlayMedia("http://radio")
	if got := media.plays(); len(got) != 1 || got[0][0] != "http://radio" {
		t.Errorf("Expected media to play http://radio, got %v", got)
	}
	if p.MediaState() != audio.PlayerPlaying {
		t.Errorf("Expected playing, got %v", p.MediaState())
	}
	p.Pause()
	if p.MediaState() != audio.PlayerPaused {
		t.Errorf("Expected paused, got %v", p.MediaState())
	}
	p.Stop()
	if media.stopCount() != 1 || tts.stopCount() != 0 {
		t.Errorf("Expected only media stopped, got media=%d tts=%d", media.stopCount(), tts.stopCount())
	}
}
