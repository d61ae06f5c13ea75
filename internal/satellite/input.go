package satellite

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/wakeword"
)

// InputEventKind discriminates InputEvent.
type InputEventKind int

const (
	InputAudio InputEventKind = iota
	InputWake
	InputStop
)

// InputEvent is produced by the input loop for the orchestrator.
type InputEvent struct {
	Kind   InputEventKind
	Audio  []byte
	WordID string
	Phrase string
}

// WordSet selects which directory a detector is built from.
type WordSet int

const (
	WakeWords WordSet = iota
	StopWords
)

// Detector is the part of wakeword.Detector the loop uses.
type Detector interface {
	Detect(pcm []byte) []wakeword.Detection
	Close() error
}

// DetectorFactory builds a detector for the given word ids of set.
type DetectorFactory func(set WordSet, ids []string) Detector

const micRetryDelay = time.Second

// InputLoop reads the microphone, optionally forwards the audio, and runs the
// wake and stop word detectors on every frame.
type InputLoop struct {
	logger      zerolog.Logger
	mic         audio.Microphone
	newDetector DetectorFactory
	events      chan InputEvent
	changed     chan struct{}
	streaming   atomic.Bool

	mu        sync.Mutex
	wakeWords []string
	stopWords []string
	muted     bool
}

func NewInputLoop(logger zerolog.Logger, mic audio.Microphone, factory DetectorFactory, wakeWords, stopWords []string, muted bool) *InputLoop {
	return &InputLoop{
		logger:      logger.With().Str("component", "input").Logger(),
		mic:         mic,
		newDetector: factory,
		events:      make(chan InputEvent, 64),
		changed:     make(chan struct{}, 1),
		wakeWords:   slices.Clone(wakeWords),
		stopWords:   slices.Clone(stopWords),
		muted:       muted,
	}
}

// Events delivers audio and detections. It is never closed.
func (l *InputLoop) Events() <-chan InputEvent {
	return l.events
}

// SetStreaming controls whether frames are forwarded as InputAudio events.
func (l *InputLoop) SetStreaming(streaming bool) {
	l.streaming.Store(streaming)
}

func (l *InputLoop) Streaming() bool {
	return l.streaming.Load()
}

func (l *InputLoop) ActiveWakeWords() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.wakeWords)
}

func (l *InputLoop) SetActiveWakeWords(ids []string) {
	l.mu.Lock()
	l.wakeWords = slices.Clone(ids)
	l.mu.Unlock()
	l.notify()
}

func (l *InputLoop) ActiveStopWords() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.stopWords)
}

func (l *InputLoop) Muted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.muted
}

// SetMuted stops capture entirely while muted.
func (l *InputLoop) SetMuted(muted bool) {
	l.mu.Lock()
	l.muted = muted
	l.mu.Unlock()
	l.notify()
}

func (l *InputLoop) notify() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

type inputConfig struct {
	wakeWords []string
	stopWords []string
	muted     bool
}

func (l *InputLoop) config() inputConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return inputConfig{wakeWords: l.wakeWords, stopWords: l.stopWords, muted: l.muted}
}

// Run captures until ctx is done. While muted the microphone is closed and
// the loop waits for a configuration change.
func (l *InputLoop) Run(ctx context.Context) error {
	for {
		if l.config().muted {
			l.logger.Debug().Msg("Muted, microphone closed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.changed:
			}
			continue
		}

		if err := l.capture(ctx); err != nil {
			l.logger.Error().Err(err).Msg("Audio capture failed, retrying")
			observability.RecordError("capture", "input")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(micRetryDelay):
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// capture runs until ctx is done, the loop is muted or the microphone fails.
func (l *InputLoop) capture(ctx context.Context) error {
	if err := l.mic.Start(); err != nil {
		return err
	}
	defer l.mic.Stop()

	cfg := l.config()
	wake := l.newDetector(WakeWords, cfg.wakeWords)
	stop := l.newDetector(StopWords, cfg.stopWords)
	defer func() {
		wake.Close()
		stop.Close()
	}()
	l.logger.Info().Strs("wake_words", cfg.wakeWords).Strs("stop_words", cfg.stopWords).Msg("Audio capture started")

	for ctx.Err() == nil {
		next := l.config()
		if next.muted {
			return nil
		}
		if !slices.Equal(next.wakeWords, cfg.wakeWords) {
			wake.Close()
			wake = l.newDetector(WakeWords, next.wakeWords)
		}
		if !slices.Equal(next.stopWords, cfg.stopWords) {
			stop.Close()
			stop = l.newDetector(StopWords, next.stopWords)
		}
		cfg = next

		frame, err := l.mic.Read()
		if err != nil {
			return err
		}

		if l.streaming.Load() {
			if !l.emit(ctx, InputEvent{Kind: InputAudio, Audio: frame}) {
				return nil
			}
		}

		// Detection runs on every frame so the sliding windows stay current.
		for _, d := range wake.Detect(frame) {
			if slices.Contains(cfg.wakeWords, d.WordID) {
				observability.RecordDetection("wake", d.WordID)
				l.emit(ctx, InputEvent{Kind: InputWake, WordID: d.WordID, Phrase: d.Phrase})
			}
		}
		for _, d := range stop.Detect(frame) {
			if slices.Contains(cfg.stopWords, d.WordID) {
				observability.RecordDetection("stop", d.WordID)
				l.emit(ctx, InputEvent{Kind: InputStop, WordID: d.WordID, Phrase: d.Phrase})
			}
		}

		runtime.Gosched()
	}
	return nil
}

func (l *InputLoop) emit(ctx context.Context, ev InputEvent) bool {
	select {
	case l.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
