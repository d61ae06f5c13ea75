package audio

import "math"

// Capture format shared by the microphone, the detectors and the controller.
const (
	SampleRate   = 16000
	Channels     = 1
	SampleBytes  = 2
	FrameSamples = SampleRate / 100 // 10 ms
	FrameBytes   = FrameSamples * SampleBytes
)

// BytesToSamples decodes little-endian 16-bit PCM. A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes encodes samples as little-endian 16-bit PCM.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// SamplesToFloat scales int16 samples to [-1, 1).
func SamplesToFloat(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// FloatToSamples converts [-1, 1] floats back to int16 with clipping.
func FloatToSamples(in []float64) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		v = math.Round(v * 32767.0)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}

// ApplyGain scales float samples in place, clipping to [-1, 1].
func ApplyGain(samples []float64, gain float64) {
	for i, s := range samples {
		v := s * gain
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = v
	}
}
