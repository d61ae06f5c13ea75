// Package settings persists the user-facing satellite settings in a YAML file.
package settings

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Settings is the persisted state.
type Settings struct {
	MACAddress               string  `yaml:"mac_address"`
	WakeWord                 string  `yaml:"wake_word"`
	SecondWakeWord           string  `yaml:"second_wake_word"`
	StopWord                 string  `yaml:"stop_word"`
	Muted                    bool    `yaml:"muted"`
	Volume                   float32 `yaml:"volume"`
	EnableWakeSound          bool    `yaml:"enable_wake_sound"`
	WakeSound                string  `yaml:"wake_sound"`
	TimerFinishedSound       string  `yaml:"timer_finished_sound"`
	RepeatTimerFinishedSound bool    `yaml:"repeat_timer_finished_sound"`
}

// Defaults returns the settings of a fresh install, without a MAC address.
func Defaults() Settings {
	return Settings{
		WakeWord:                 "okay_nabu",
		StopWord:                 "stop",
		Volume:                   1.0,
		EnableWakeSound:          true,
		WakeSound:                "sounds/wake_word_triggered.wav",
		TimerFinishedSound:       "sounds/timer_finished.wav",
		RepeatTimerFinishedSound: true,
	}
}

// WakeWords returns the configured wake word ids, skipping empty ones.
func (s Settings) WakeWords() []string {
	var ids []string
	for _, id := range []string{s.WakeWord, s.SecondWakeWord} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Store reads and writes Settings. Every update is written through.
type Store struct {
	logger zerolog.Logger
	fs     afero.Fs
	path   string

	mu      sync.RWMutex
	current Settings
}

// Open loads path, creating it with defaults and a new MAC address when it
// does not exist.
func Open(logger zerolog.Logger, fs afero.Fs, path string) (*Store, error) {
	s := &Store{
		logger:  logger.With().Str("component", "settings").Logger(),
		fs:      fs,
		path:    path,
		current: Defaults(),
	}

	data, err := afero.ReadFile(fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info().Str("path", path).Msg("Settings file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s.current); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	if s.current.MACAddress == "" {
		mac, err := NewMACAddress()
		if err != nil {
			return nil, err
		}
		s.current.MACAddress = mac
		if err := s.save(s.current); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the settings and persists the result. The
// in-memory settings only change if the write succeeds.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)
	if err := s.save(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

func (s *Store) SaveWakeWord(id string) error {
	return s.Update(func(st *Settings) { st.WakeWord = id })
}

func (s *Store) SaveMuted(muted bool) error {
	return s.Update(func(st *Settings) { st.Muted = muted })
}

func (s *Store) SaveVolume(volume float32) error {
	return s.Update(func(st *Settings) { st.Volume = volume })
}

// save writes to a temporary file and renames it over the target.
func (s *Store) save(st Settings) error {
	data, err := yaml.Marshal(&st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	s.logger.Debug().Str("path", s.path).Msg("Settings saved")
	return nil
}

// NewMACAddress returns a random unicast, locally administered MAC address.
func NewMACAddress() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate mac address: %w", err)
	}
	b[0] = (b[0] | 0x02) &^ 0x01
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5]), nil
}
