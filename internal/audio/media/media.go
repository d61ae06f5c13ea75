// Package media fetches and decodes the clips the satellite plays: TTS
// responses and announcements over HTTP, and local sound files.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/lexiqai/voice-satellite/internal/audio"
	"github.com/lexiqai/voice-satellite/internal/observability"
	"github.com/lexiqai/voice-satellite/internal/resilience"
)

// ErrUnsupportedFormat is returned for media that is not PCM WAV.
var ErrUnsupportedFormat = errors.New("media: unsupported format")

const maxMediaBytes = 32 << 20

// Clip is decoded mono PCM16 audio.
type Clip struct {
	Samples    []int16
	SampleRate int
}

// Duration of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// LoaderConfig holds fetch and decode settings.
type LoaderConfig struct {
	OutputRate      int // target sample rate; 0 keeps the source rate
	RequestTimeout  time.Duration
	Retry           *resilience.RetryConfig
	BreakerFailures int
	BreakerReset    time.Duration
}

// DefaultLoaderConfig returns defaults for a 48 kHz output device.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		OutputRate:      48000,
		RequestTimeout:  30 * time.Second,
		Retry:           resilience.DefaultRetryConfig(),
		BreakerFailures: 5,
		BreakerReset:    30 * time.Second,
	}
}

// Loader resolves a media reference into a Clip at the output rate.
// References starting with http:// or https:// are fetched; anything else is
// read from the filesystem.
type Loader struct {
	logger  zerolog.Logger
	fs      afero.Fs
	client  *http.Client
	config  *LoaderConfig
	breaker *resilience.CircuitBreaker
}

// NewLoader creates a loader. A nil config selects the defaults.
func NewLoader(logger zerolog.Logger, fs afero.Fs, config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	l := &Loader{
		logger:  logger.With().Str("component", "media").Logger(),
		fs:      fs,
		client:  &http.Client{Timeout: config.RequestTimeout},
		config:  config,
		breaker: resilience.NewCircuitBreaker("media", config.BreakerFailures, config.BreakerReset),
	}
	l.breaker.OnStateChange = func(name string, state resilience.CircuitState) {
		l.logger.Warn().Str("breaker", name).Stringer("state", state).Msg("Media circuit breaker changed state")
		observability.SetBreakerState(name, int(state))
	}
	return l
}

// Healthy reports whether remote fetches are currently allowed. It fails
// while the circuit breaker is open.
func (l *Loader) Healthy(ctx context.Context) (bool, error) {
	if l.breaker.GetState() != resilience.StateOpen {
		return true, nil
	}
	_, requests, failures, rate := l.breaker.GetStats()
	return false, fmt.Errorf("media fetches failing: %d of %d requests (%.0f%%)", failures, requests, rate)
}

// Load fetches, decodes and resamples ref.
func (l *Loader) Load(ctx context.Context, ref string) (*Clip, error) {
	data, err := l.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	clip, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	if l.config.OutputRate > 0 {
		if clip, err = Resample(clip, l.config.OutputRate); err != nil {
			return nil, fmt.Errorf("resample %s: %w", ref, err)
		}
	}
	return clip, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		data, err := afero.ReadFile(l.fs, strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ref, err)
		}
		return data, nil
	}

	var data []byte
	err := l.breaker.Call(func() error {
		return resilience.Retry(ctx, func() error {
			var err error
			data, err = l.get(ctx, ref)
			return err
		}, l.config.Retry, resilience.IsRetryableNetworkError)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, resilience.NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resilience.IsRetryableHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewRetryableError(err)
		}
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, resilience.NewRetryableError(err)
	}
	l.logger.Debug().Str("url", url).Int("bytes", len(data)).Msg("Fetched media")
	return data, nil
}

// Decode parses a PCM WAV file and mixes it down to mono 16-bit.
func Decode(data []byte) (*Clip, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, ErrUnsupportedFormat
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, ErrUnsupportedFormat
	}
	return &Clip{
		Samples:    mixDown(buf, int(d.BitDepth)),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

func mixDown(buf *goaudio.IntBuffer, bitDepth int) []int16 {
	channels := buf.Format.NumChannels
	shift := bitDepth - 16
	out := make([]int16, len(buf.Data)/channels)
	for i := range out {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		v := sum / channels
		switch {
		case bitDepth == 8:
			v = (v - 128) << 8
		case shift > 0:
			v >>= shift
		}
		out[i] = int16(v)
	}
	return out
}

// Resample converts clip to rate.
func Resample(clip *Clip, rate int) (*Clip, error) {
	if clip.SampleRate == rate || len(clip.Samples) == 0 {
		return &Clip{Samples: clip.Samples, SampleRate: rate}, nil
	}
	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(clip.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	// Pad with 50 ms of silence so the filter delay does not swallow the tail.
	input := append(audio.SamplesToFloat(clip.Samples), make([]float64, clip.SampleRate/20)...)
	output, err := r.Process(input)
	if err != nil {
		return nil, err
	}

	want := len(clip.Samples) * rate / clip.SampleRate
	if len(output) > want {
		output = output[:want]
	}
	samples := audio.FloatToSamples(output)
	return &Clip{Samples: samples, SampleRate: rate}, nil
}
