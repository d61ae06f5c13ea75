// Package wakeword turns a 16 kHz PCM stream into wake and stop word
// detections. Audio is converted into spectral feature frames, every loaded
// model scores each frame, and a per-model sliding window of probabilities
// decides when a phrase was heard.
package wakeword

import "errors"

// ErrNoModel is returned when a word's model reference cannot be resolved.
var ErrNoModel = errors.New("wakeword: model not found")

// WakeWord describes one installed wake or stop word.
type WakeWord struct {
	ID                string
	Phrase            string
	Languages         []string
	Model             string // reference understood by the Provider
	ProbabilityCutoff float32
	SlidingWindowSize int
}

// Detection is one word heard during a Detect call.
type Detection struct {
	WordID string
	Phrase string
}

// Provider lists installed words and loads their model bytes.
type Provider interface {
	Words() ([]WakeWord, error)
	LoadModel(ref string) ([]byte, error)
}

// Find returns the word with the given id.
func Find(words []WakeWord, id string) (WakeWord, bool) {
	for _, w := range words {
		if w.ID == id {
			return w, true
		}
	}
	return WakeWord{}, false
}
