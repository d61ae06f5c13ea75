package wakeword

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/lexiqai/voice-satellite/internal/audio"
)

// FrontendConfig controls spectral feature extraction. Defaults follow the
// microWakeWord feature layout: 30 ms windows every 10 ms, 40 mel channels.
type FrontendConfig struct {
	SampleRate  int
	WindowSize  int // samples per analysis window
	StepSize    int // samples between windows
	FFTSize     int
	NumChannels int
	LowerHz     float64
	UpperHz     float64

	// Per-channel noise estimate smoothing, even and odd channels.
	EvenSmoothing      float64
	OddSmoothing       float64
	MinSignalRemaining float64

	// Per-channel amplitude normalization.
	PCANStrength float64
	PCANOffset   float64

	LogScale float64
}

// DefaultFrontendConfig returns the standard 16 kHz configuration.
func DefaultFrontendConfig() *FrontendConfig {
	return &FrontendConfig{
		SampleRate:         audio.SampleRate,
		WindowSize:         480,
		StepSize:           audio.FrameSamples,
		FFTSize:            512,
		NumChannels:        40,
		LowerHz:            125,
		UpperHz:            7500,
		EvenSmoothing:      0.025,
		OddSmoothing:       0.06,
		MinSignalRemaining: 0.05,
		PCANStrength:       0.95,
		PCANOffset:         80,
		LogScale:           64 * 0.0390625,
	}
}

// Frontend converts PCM samples into one feature vector per step. It keeps
// the trailing window of samples and the noise estimate across calls.
type Frontend struct {
	config  *FrontendConfig
	window  []float64
	filters []melFilter

	samples []float64
	filled  int
	frame   []float64
	noise   []float64
}

// melFilter is one triangular filter over a contiguous range of FFT bins.
type melFilter struct {
	start   int
	weights []float64
}

// NewFrontend creates a frontend. A nil config selects the defaults.
func NewFrontend(config *FrontendConfig) *Frontend {
	if config == nil {
		config = DefaultFrontendConfig()
	}
	return &Frontend{
		config:  config,
		window:  window.Hann(config.WindowSize),
		filters: melFilterBank(config.NumChannels, config.FFTSize, config.SampleRate, config.LowerHz, config.UpperHz),
		samples: make([]float64, config.WindowSize),
		frame:   make([]float64, config.FFTSize),
		noise:   make([]float64, config.NumChannels),
	}
}

// Process consumes samples until the analysis window is full and returns how
// many it read. When the window fills, it also returns a feature vector and
// slides the window forward by one step.
func (f *Frontend) Process(samples []int16) (features []float32, read int) {
	need := f.config.WindowSize - f.filled
	read = len(samples)
	if read > need {
		read = need
	}
	for i := 0; i < read; i++ {
		f.samples[f.filled+i] = float64(samples[i])
	}
	f.filled += read

	if f.filled < f.config.WindowSize {
		return nil, read
	}

	features = f.compute()

	step := f.config.StepSize
	copy(f.samples, f.samples[step:])
	f.filled -= step
	return features, read
}

func (f *Frontend) compute() []float32 {
	cfg := f.config
	for i := range f.frame {
		if i < cfg.WindowSize {
			f.frame[i] = f.samples[i] * f.window[i]
		} else {
			f.frame[i] = 0
		}
	}
	spectrum := fft.FFTReal(f.frame)

	features := make([]float32, cfg.NumChannels)
	for ch, filter := range f.filters {
		energy := 0.0
		for k, w := range filter.weights {
			c := spectrum[filter.start+k]
			energy += w * (real(c)*real(c) + imag(c)*imag(c))
		}
		signal := math.Sqrt(energy)

		// Noise reduction.
		smoothing := cfg.EvenSmoothing
		if ch%2 == 1 {
			smoothing = cfg.OddSmoothing
		}
		f.noise[ch] += smoothing * (signal - f.noise[ch])
		floor := signal * cfg.MinSignalRemaining
		signal -= f.noise[ch]
		if signal < floor {
			signal = floor
		}

		// PCAN gain control against the noise estimate.
		gain := 1 / math.Pow(f.noise[ch]+1, cfg.PCANStrength)
		signal = math.Sqrt(signal*gain+cfg.PCANOffset) - math.Sqrt(cfg.PCANOffset)

		features[ch] = float32(math.Log1p(signal) * cfg.LogScale)
	}
	return features
}

func hzToMel(hz float64) float64 {
	return 1127.0 * math.Log1p(hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Exp(mel/1127.0) - 1.0)
}

// melFilterBank builds numChannels triangular filters spaced evenly on the
// mel scale between lowHz and highHz.
func melFilterBank(numChannels, fftSize, sampleRate int, lowHz, highHz float64) []melFilter {
	halfFFT := fftSize/2 + 1
	lowMel := hzToMel(lowHz)
	step := (hzToMel(highHz) - lowMel) / float64(numChannels+1)

	bins := make([]int, numChannels+2)
	for i := range bins {
		hz := melToHz(lowMel + float64(i)*step)
		bin := int(math.Round(hz * float64(fftSize) / float64(sampleRate)))
		if bin >= halfFFT {
			bin = halfFFT - 1
		}
		if i > 0 && bin <= bins[i-1] {
			bin = bins[i-1] + 1
		}
		bins[i] = bin
	}

	filters := make([]melFilter, numChannels)
	for m := range filters {
		left, center, right := bins[m], bins[m+1], bins[m+2]
		weights := make([]float64, right-left+1)
		for k := left; k <= right; k++ {
			switch {
			case k < center:
				weights[k-left] = float64(k-left) / float64(center-left)
			default:
				weights[k-left] = float64(right-k) / float64(right-center)
			}
		}
		filters[m] = melFilter{start: left, weights: weights}
	}
	return filters
}
