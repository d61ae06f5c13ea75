// Package portaudio connects the satellite to the default sound devices.
package portaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/lexiqai/voice-satellite/internal/audio"
)

// Initialize must be called before any stream is opened.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}
	return nil
}

// Terminate releases the library. Streams must be closed first.
func Terminate() error {
	return portaudio.Terminate()
}

// Microphone captures 10 ms frames from the default input device.
type Microphone struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
}

func NewMicrophone() *Microphone {
	return &Microphone{}
}

func (m *Microphone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return nil
	}
	buf := make([]int16, audio.FrameSamples)
	stream, err := portaudio.OpenDefaultStream(audio.Channels, 0, audio.SampleRate, len(buf), buf)
	if err != nil {
		return fmt.Errorf("portaudio: open input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start input: %w", err)
	}
	m.stream, m.buf = stream, buf
	return nil
}

// Read panics with audio.ErrMicrophoneNotStarted if Start has not succeeded.
func (m *Microphone) Read() ([]byte, error) {
	m.mu.Lock()
	stream, buf := m.stream, m.buf
	m.mu.Unlock()
	if stream == nil {
		panic(audio.ErrMicrophoneNotStarted)
	}
	if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("portaudio: read: %w", err)
	}
	return audio.SamplesToBytes(buf), nil
}

func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	err := m.stream.Stop()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	m.stream = nil
	return err
}

// Speaker is a playback.Sink on the default output device.
type Speaker struct {
	mu     sync.Mutex
	rate   int
	stream *portaudio.Stream
	buf    []int16
}

// NewSpeaker plays mono audio at rate in 20 ms frames.
func NewSpeaker(rate int) *Speaker {
	return &Speaker{rate: rate, buf: make([]int16, rate/50)}
}

func (s *Speaker) FrameSize() int { return len(s.buf) }

// Open opens and starts the output stream once. Later calls are no-ops.
func (s *Speaker) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(s.rate), len(s.buf), s.buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start output: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *Speaker) Write(frame []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return errors.New("portaudio: output not open")
	}
	n := copy(s.buf, frame)
	clear(s.buf[n:])
	if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
		return fmt.Errorf("portaudio: write: %w", err)
	}
	return nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	s.stream = nil
	return err
}
