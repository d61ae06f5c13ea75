package wakeword

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/observability"
)

// InterpreterFactory builds an Interpreter from model bytes.
type InterpreterFactory func(model []byte) (Interpreter, error)

// Model scores feature frames for one word and smooths the result.
type Model struct {
	ID     string
	Phrase string

	scorer *Scorer
	window *SlidingWindow
}

// NewModel wraps interp for word.
func NewModel(word WakeWord, interp Interpreter) (*Model, error) {
	scorer, err := NewScorer(interp)
	if err != nil {
		return nil, err
	}
	return &Model{
		ID:     word.ID,
		Phrase: word.Phrase,
		scorer: scorer,
		window: NewSlidingWindow(word.SlidingWindowSize, word.ProbabilityCutoff),
	}, nil
}

// Process scores one feature vector and reports whether the word was detected.
func (m *Model) Process(features []float32) (bool, error) {
	p, ok, err := m.scorer.Score(features)
	if err != nil || !ok {
		return false, err
	}
	return m.window.Push(p), nil
}

// Close releases the model's interpreter.
func (m *Model) Close() error {
	return m.scorer.Close()
}

// LoadModels loads the given words in order. A word that fails to load is
// logged and left out.
func LoadModels(logger zerolog.Logger, provider Provider, factory InterpreterFactory, words []WakeWord) []*Model {
	models := make([]*Model, 0, len(words))
	for _, word := range words {
		m, err := loadModel(provider, factory, word)
		if err != nil {
			logger.Error().Err(err).Str("wake_word", word.ID).Msg("Error loading wake word")
			observability.RecordModelLoadFailure(word.ID)
			continue
		}
		models = append(models, m)
	}
	return models
}

func loadModel(provider Provider, factory InterpreterFactory, word WakeWord) (*Model, error) {
	data, err := provider.LoadModel(word.Model)
	if err != nil {
		return nil, err
	}
	interp, err := factory(data)
	if err != nil {
		return nil, fmt.Errorf("create interpreter: %w", err)
	}
	m, err := NewModel(word, interp)
	if err != nil {
		interp.Close()
		return nil, err
	}
	return m, nil
}
