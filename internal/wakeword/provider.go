package wakeword

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const manifestExt = ".json"

// manifest is the microWakeWord JSON descriptor installed next to each model.
type manifest struct {
	WakeWord         string   `json:"wake_word"`
	Model            string   `json:"model"`
	TrainedLanguages []string `json:"trained_languages"`
	Micro            struct {
		ProbabilityCutoff float32 `json:"probability_cutoff"`
		SlidingWindowSize int     `json:"sliding_window_size"`
	} `json:"micro"`
}

// DirProvider reads manifests and models from one directory. The word id is
// the manifest file name without its extension.
type DirProvider struct {
	fs     afero.Fs
	dir    string
	logger zerolog.Logger
}

// NewDirProvider creates a provider rooted at dir on fs.
func NewDirProvider(fs afero.Fs, dir string, logger zerolog.Logger) *DirProvider {
	return &DirProvider{
		fs:     fs,
		dir:    dir,
		logger: logger.With().Str("component", "wakeword_provider").Str("dir", dir).Logger(),
	}
}

// Words returns every readable manifest in the directory, sorted by id.
// Unreadable manifests are logged and skipped; a missing directory yields no words.
func (p *DirProvider) Words() ([]WakeWord, error) {
	exists, err := afero.DirExists(p.fs, p.dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p.dir, err)
	}
	if !exists {
		p.logger.Warn().Msg("Wake word directory does not exist")
		return nil, nil
	}

	entries, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.dir, err)
	}

	var words []WakeWord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, manifestExt) {
			continue
		}
		word, err := p.readManifest(name)
		if err != nil {
			p.logger.Error().Err(err).Str("file", name).Msg("Error loading wake word")
			continue
		}
		words = append(words, word)
	}

	sort.Slice(words, func(i, j int) bool { return words[i].ID < words[j].ID })
	return words, nil
}

func (p *DirProvider) readManifest(name string) (WakeWord, error) {
	data, err := afero.ReadFile(p.fs, filepath.Join(p.dir, name))
	if err != nil {
		return WakeWord{}, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return WakeWord{}, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Model == "" {
		return WakeWord{}, errors.New("manifest has no model")
	}
	return WakeWord{
		ID:                strings.TrimSuffix(name, manifestExt),
		Phrase:            m.WakeWord,
		Languages:         m.TrainedLanguages,
		Model:             m.Model,
		ProbabilityCutoff: m.Micro.ProbabilityCutoff,
		SlidingWindowSize: m.Micro.SlidingWindowSize,
	}, nil
}

// LoadModel reads a model file relative to the directory.
func (p *DirProvider) LoadModel(ref string) ([]byte, error) {
	if ref == "" || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("%w: %q", ErrNoModel, ref)
	}
	data, err := afero.ReadFile(p.fs, filepath.Join(p.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoModel, ref, err)
	}
	return data, nil
}
