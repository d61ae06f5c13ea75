package audio

import "errors"

// ErrMicrophoneNotStarted is the panic value of Read on a microphone that was never started.
var ErrMicrophoneNotStarted = errors.New("audio: microphone not started")

// Microphone produces 16 kHz mono PCM16 frames.
type Microphone interface {
	Start() error
	// Read blocks until one frame of FrameBytes is available.
	Read() ([]byte, error)
	Stop() error
}

// PlayerState is the coarse state of a Player.
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerPlaying
	PlayerPaused
)

func (s PlayerState) String() string {
	switch s {
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	}
	return "idle"
}

// Player plays an ordered list of media URLs or file paths.
//
// onCompletion runs once after the last item finishes, or when an item cannot
// be opened. It does not run after Stop.
type Player interface {
	Init()
	Play(urls []string, onCompletion func())
	Pause()
	Unpause()
	Stop()
	Volume() float32
	SetVolume(volume float32)
	State() PlayerState
}
