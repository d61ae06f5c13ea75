package wakeword

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// TensorType is the element type of an interpreter tensor.
type TensorType int

const (
	TensorFloat32 TensorType = iota
	TensorUInt8
	TensorInt8
)

func (t TensorType) String() string {
	switch t {
	case TensorFloat32:
		return "float32"
	case TensorUInt8:
		return "uint8"
	case TensorInt8:
		return "int8"
	}
	return fmt.Sprintf("TensorType(%d)", int(t))
}

func (t TensorType) size() int {
	if t == TensorFloat32 {
		return 4
	}
	return 1
}

// TensorInfo describes a tensor's layout and quantization.
type TensorInfo struct {
	Type      TensorType
	Shape     []int
	Scale     float32
	ZeroPoint int32
}

// Elements is the product of the shape.
func (t TensorInfo) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Interpreter runs a quantized classifier with one input and one output
// tensor. Invoke takes the raw input bytes and returns the raw output bytes.
type Interpreter interface {
	Input() TensorInfo
	Output() TensorInfo
	Invoke(input []byte) ([]byte, error)
	Close() error
}

var errUnsupportedTensor = errors.New("wakeword: unsupported tensor type")

// Scorer feeds feature vectors into an Interpreter. Features accumulate in the
// input tensor until it is full; each full tensor yields one probability.
type Scorer struct {
	interp Interpreter
	input  TensorInfo
	output TensorInfo
	buf    []byte
	pos    int
}

// NewScorer validates the interpreter's tensors and creates a scorer.
func NewScorer(interp Interpreter) (*Scorer, error) {
	in, out := interp.Input(), interp.Output()
	for _, t := range []TensorInfo{in, out} {
		switch t.Type {
		case TensorFloat32, TensorUInt8, TensorInt8:
		default:
			return nil, fmt.Errorf("%w: %s", errUnsupportedTensor, t.Type)
		}
	}
	if in.Elements() <= 0 {
		return nil, fmt.Errorf("wakeword: empty input tensor %v", in.Shape)
	}
	return &Scorer{
		interp: interp,
		input:  in,
		output: out,
		buf:    make([]byte, in.Elements()*in.Type.size()),
	}, nil
}

// Score appends features to the pending input. ok is false until the input
// tensor is complete.
func (s *Scorer) Score(features []float32) (probability float32, ok bool, err error) {
	if len(features) == 0 {
		return 0, false, nil
	}
	size := s.input.Type.size()
	if s.pos+len(features)*size > len(s.buf) {
		return 0, false, fmt.Errorf("wakeword: %d features overflow input tensor %v", len(features), s.input.Shape)
	}
	for _, v := range features {
		s.put(v)
	}
	if s.pos < len(s.buf) {
		return 0, false, nil
	}
	s.pos = 0

	raw, err := s.interp.Invoke(s.buf)
	if err != nil {
		return 0, false, fmt.Errorf("invoke: %w", err)
	}
	if len(raw) < s.output.Type.size() {
		return 0, false, fmt.Errorf("wakeword: short output tensor (%d bytes)", len(raw))
	}
	return s.dequantize(raw), true, nil
}

// Close releases the interpreter.
func (s *Scorer) Close() error {
	return s.interp.Close()
}

func (s *Scorer) put(v float32) {
	switch s.input.Type {
	case TensorFloat32:
		binary.LittleEndian.PutUint32(s.buf[s.pos:], math.Float32bits(quantize(v, s.input)))
		s.pos += 4
	case TensorUInt8:
		s.buf[s.pos] = byte(clampRound(quantize(v, s.input), 0, math.MaxUint8))
		s.pos++
	case TensorInt8:
		s.buf[s.pos] = byte(int8(clampRound(quantize(v, s.input), math.MinInt8, math.MaxInt8)))
		s.pos++
	}
}

func (s *Scorer) dequantize(raw []byte) float32 {
	switch s.output.Type {
	case TensorFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(raw))
	case TensorInt8:
		return (float32(int8(raw[0])) - float32(s.output.ZeroPoint)) * s.output.Scale
	default:
		return (float32(raw[0]) - float32(s.output.ZeroPoint)) * s.output.Scale
	}
}

// quantize maps v to value/scale + zeroPoint. An unquantized tensor has scale 0.
func quantize(v float32, t TensorInfo) float32 {
	if t.Scale == 0 {
		return v
	}
	return v/t.Scale + float32(t.ZeroPoint)
}

func clampRound(v float32, lo, hi int) int {
	r := int(math.Round(float64(v)))
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}
