package satellite

import (
	"sync"

	"github.com/lexiqai/voice-satellite/internal/audio"
)

// Player pairs the voice output (wake sounds, responses, alerts) with the
// background media player. Background media is ducked while the voice
// output is in use. It implements device.MediaBackend.
type Player struct {
	tts        audio.Player
	media      audio.Player
	multiplier float32

	// OnVolumeChanged runs after SetVolume, for persistence.
	OnVolumeChanged func(volume float32)

	mu     sync.Mutex
	volume float32
	muted  bool
	ducked bool
}

// NewPlayer applies volume to both outputs. multiplier scales background
// media while ducked.
func NewPlayer(tts, media audio.Player, volume, multiplier float32) *Player {
	p := &Player{tts: tts, media: media, multiplier: multiplier, volume: volume}
	p.apply()
	return p
}

// TTS returns the voice output.
func (p *Player) TTS() audio.Player { return p.tts }

func (p *Player) PlayMedia(url string) { p.media.Play([]string{url}, nil) }
func (p *Player) Pause()               { p.media.Pause() }
func (p *Player) Unpause()             { p.media.Unpause() }
func (p *Player) Stop()                { p.media.Stop() }

func (p *Player) MediaState() audio.PlayerState { return p.media.State() }

func (p *Player) Volume() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) SetVolume(volume float32) {
	p.mu.Lock()
	p.volume = volume
	p.applyLocked()
	p.mu.Unlock()
	if p.OnVolumeChanged != nil {
		p.OnVolumeChanged(volume)
	}
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// SetMuted silences both outputs without forgetting the volume.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.applyLocked()
	p.mu.Unlock()
}

func (p *Player) Duck() {
	p.mu.Lock()
	p.ducked = true
	p.applyLocked()
	p.mu.Unlock()
}

func (p *Player) Unduck() {
	p.mu.Lock()
	p.ducked = false
	p.applyLocked()
	p.mu.Unlock()
}

func (p *Player) Ducked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ducked
}

func (p *Player) apply() {
	p.mu.Lock()
	p.applyLocked()
	p.mu.Unlock()
}

func (p *Player) applyLocked() {
	if p.muted {
		p.tts.SetVolume(0)
		p.media.SetVolume(0)
		return
	}
	p.tts.SetVolume(p.volume)
	if p.ducked {
		p.media.SetVolume(p.volume * p.multiplier)
	} else {
		p.media.SetVolume(p.volume)
	}
}
