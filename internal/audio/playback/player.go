// Package playback plays decoded media clips on an output sink.
package playback

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/audio/media"
	"github.com/lexiqai/voice-satellite/internal/observability"
)

// Sink is an output device that accepts fixed-size frames of mono PCM16.
type Sink interface {
	Open() error
	FrameSize() int
	// Write blocks until the frame has been queued. Short frames are padded.
	Write(frame []int16) error
}

// Source resolves a media reference into a clip at the sink's rate.
type Source interface {
	Load(ctx context.Context, ref string) (*media.Clip, error)
}

// Player implements audio.Player. Each Play starts a goroutine that loads
// and writes the items in order; Stop or a newer Play cancels it.
type Player struct {
	logger zerolog.Logger
	name   string
	sink   Sink
	source Source

	// OnStateChange runs after every state transition, outside the lock.
	OnStateChange func(audio.PlayerState)

	mu      sync.Mutex
	writeMu sync.Mutex
	state   audio.PlayerState
	volume  float32
	gen     uint64
	cancel  context.CancelFunc
	resume  chan struct{} // non-nil while paused
}

// New creates an idle player at full volume.
func New(logger zerolog.Logger, name string, sink Sink, source Source) *Player {
	return &Player{
		logger: logger.With().Str("component", "player").Str("player", name).Logger(),
		name:   name,
		sink:   sink,
		source: source,
		volume: 1.0,
	}
}

// Init opens the sink ahead of the first Play so playback starts without delay.
func (p *Player) Init() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.sink.Open(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to open output")
	}
}

func (p *Player) Play(urls []string, onCompletion func()) {
	p.mu.Lock()
	p.stopLocked()
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	changed := p.setStateLocked(audio.PlayerPlaying)
	p.mu.Unlock()
	p.notify(changed)

	p.logger.Debug().Strs("urls", urls).Msg("Playing")
	go p.run(ctx, gen, urls, onCompletion)
}

func (p *Player) run(ctx context.Context, gen uint64, urls []string, onCompletion func()) {
	for _, url := range urls {
		clip, err := p.source.Load(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error().Err(err).Str("url", url).Msg("Error opening media")
			observability.RecordError("media_load", "player")
			break
		}
		if !p.playClip(ctx, clip) {
			return
		}
	}
	p.finish(gen, onCompletion)
}

// playClip writes clip frame by frame. It returns false if playback was
// cancelled.
func (p *Player) playClip(ctx context.Context, clip *media.Clip) bool {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.sink.Open(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to open output")
		return true
	}
	size := p.sink.FrameSize()

	for off := 0; off < len(clip.Samples); off += size {
		if !p.waitWhilePaused(ctx) {
			return false
		}
		end := min(off+size, len(clip.Samples))
		frame := audio.SamplesToFloat(clip.Samples[off:end])
		audio.ApplyGain(frame, float64(p.Volume()))
		if err := p.sink.Write(audio.FloatToSamples(frame)); err != nil {
			p.logger.Error().Err(err).Msg("Output write failed")
			return true
		}
	}
	return ctx.Err() == nil
}

func (p *Player) waitWhilePaused(ctx context.Context) bool {
	p.mu.Lock()
	resume := p.resume
	p.mu.Unlock()
	if resume != nil {
		select {
		case <-resume:
		case <-ctx.Done():
		}
	}
	return ctx.Err() == nil
}

func (p *Player) finish(gen uint64, onCompletion func()) {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.cancel = nil
	changed := p.setStateLocked(audio.PlayerIdle)
	p.mu.Unlock()
	p.notify(changed)

	if onCompletion != nil {
		onCompletion()
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	changed := false
	if p.state == audio.PlayerPlaying {
		p.resume = make(chan struct{})
		changed = p.setStateLocked(audio.PlayerPaused)
	}
	p.mu.Unlock()
	p.notify(changed)
}

func (p *Player) Unpause() {
	p.mu.Lock()
	changed := false
	if p.state == audio.PlayerPaused {
		close(p.resume)
		p.resume = nil
		changed = p.setStateLocked(audio.PlayerPlaying)
	}
	p.mu.Unlock()
	p.notify(changed)
}

// Stop cancels playback. The pending completion callback is dropped.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.gen++
	changed := p.setStateLocked(audio.PlayerIdle)
	p.mu.Unlock()
	p.notify(changed)
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.resume != nil {
		close(p.resume)
		p.resume = nil
	}
}

func (p *Player) Volume() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume clamps volume to [0, 1]. It applies from the next frame.
func (p *Player) SetVolume(volume float32) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
}

func (p *Player) State() audio.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) setStateLocked(state audio.PlayerState) bool {
	if p.state == state {
		return false
	}
	p.state = state
	return true
}

func (p *Player) notify(changed bool) {
	if !changed || p.OnStateChange == nil {
		return
	}
	p.OnStateChange(p.State())
}
