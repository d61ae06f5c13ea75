package wakeword

import (
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/audio"
)

// Detector runs a set of models over a PCM stream. Audio is processed in
// 10 ms chunks; leftover samples are kept for the next call.
type Detector struct {
	logger   zerolog.Logger
	frontend *Frontend
	buf      *audio.RingBuffer
	chunk    []byte
	models   []*Model
}

// NewDetector takes ownership of models.
func NewDetector(logger zerolog.Logger, models []*Model) *Detector {
	return &Detector{
		logger:   logger.With().Str("component", "detector").Logger(),
		frontend: NewFrontend(nil),
		buf:      audio.NewRingBuffer(audio.FrameBytes + 1),
		chunk:    make([]byte, audio.FrameBytes),
		models:   models,
	}
}

// Words returns the ids of the models still active.
func (d *Detector) Words() []string {
	ids := make([]string, len(d.models))
	for i, m := range d.models {
		ids[i] = m.ID
	}
	return ids
}

// Detect feeds pcm through every model. Each word appears at most once in
// the result even if it fired on several chunks.
func (d *Detector) Detect(pcm []byte) []Detection {
	var detections []Detection
	for {
		n := d.buf.Write(pcm)
		pcm = pcm[n:]
		if d.buf.Available() < audio.FrameBytes {
			return detections
		}

		d.buf.Peek(d.chunk)
		features, read := d.frontend.Process(audio.BytesToSamples(d.chunk))
		d.buf.Discard(read * audio.SampleBytes)
		if features == nil {
			continue
		}
		detections = d.score(features, detections)
	}
}

// score runs every model, including ones the caller does not care about, so
// each sliding window sees every frame.
func (d *Detector) score(features []float32, detections []Detection) []Detection {
	active := d.models[:0]
	for _, m := range d.models {
		detected, err := m.Process(features)
		if err != nil {
			d.logger.Error().Err(err).Str("wake_word", m.ID).Msg("Wake word model failed, disabling it")
			m.Close()
			continue
		}
		active = append(active, m)
		if detected && !contains(detections, m.ID) {
			detections = append(detections, Detection{WordID: m.ID, Phrase: m.Phrase})
		}
	}
	d.models = active
	return detections
}

// Close releases every model.
func (d *Detector) Close() error {
	var first error
	for _, m := range d.models {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	d.models = nil
	d.buf.Clear()
	return first
}

func contains(detections []Detection, id string) bool {
	for _, det := range detections {
		if det.WordID == id {
			return true
		}
	}
	return false
}
