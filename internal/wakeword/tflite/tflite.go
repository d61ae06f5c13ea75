// Package tflite runs microWakeWord models with the TensorFlow Lite C API.
package tflite

import (
	"errors"
	"fmt"

	"github.com/mattn/go-tflite"

	"github.com/lexiqai/voice-satellite/internal/wakeword"
)

var errStatus = errors.New("tflite: non-ok status")

// Interpreter adapts a TensorFlow Lite interpreter to wakeword.Interpreter.
type Interpreter struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
	input   wakeword.TensorInfo
	output  wakeword.TensorInfo
	out     []byte
}

// New loads a flatbuffer model and allocates its tensors.
func New(model []byte) (wakeword.Interpreter, error) {
	m := tflite.NewModel(model)
	if m == nil {
		return nil, errors.New("tflite: cannot parse model")
	}
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(1)

	interp := tflite.NewInterpreter(m, options)
	if interp == nil {
		options.Delete()
		m.Delete()
		return nil, errors.New("tflite: cannot create interpreter")
	}
	i := &Interpreter{model: m, options: options, interp: interp}

	if status := interp.AllocateTensors(); status != tflite.OK {
		i.Close()
		return nil, fmt.Errorf("allocate tensors: %w", errStatus)
	}

	var err error
	if i.input, err = describe(interp.GetInputTensor(0)); err != nil {
		i.Close()
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	if i.output, err = describe(interp.GetOutputTensor(0)); err != nil {
		i.Close()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	i.out = make([]byte, interp.GetOutputTensor(0).ByteSize())
	return i, nil
}

func (i *Interpreter) Input() wakeword.TensorInfo  { return i.input }
func (i *Interpreter) Output() wakeword.TensorInfo { return i.output }

// Invoke copies input into the input tensor, runs the model and returns the
// output tensor bytes. The returned slice is reused by the next call.
func (i *Interpreter) Invoke(input []byte) ([]byte, error) {
	if status := i.interp.GetInputTensor(0).CopyFromBuffer(input); status != tflite.OK {
		return nil, fmt.Errorf("copy input: %w", errStatus)
	}
	if status := i.interp.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("invoke: %w", errStatus)
	}
	if status := i.interp.GetOutputTensor(0).CopyToBuffer(i.out); status != tflite.OK {
		return nil, fmt.Errorf("copy output: %w", errStatus)
	}
	return i.out, nil
}

func (i *Interpreter) Close() error {
	if i.interp != nil {
		i.interp.Delete()
		i.interp = nil
	}
	if i.options != nil {
		i.options.Delete()
		i.options = nil
	}
	if i.model != nil {
		i.model.Delete()
		i.model = nil
	}
	return nil
}

func describe(t *tflite.Tensor) (wakeword.TensorInfo, error) {
	if t == nil {
		return wakeword.TensorInfo{}, errors.New("missing tensor")
	}
	var typ wakeword.TensorType
	switch t.Type() {
	case tflite.Float32:
		typ = wakeword.TensorFloat32
	case tflite.UInt8:
		typ = wakeword.TensorUInt8
	case tflite.Int8:
		typ = wakeword.TensorInt8
	default:
		return wakeword.TensorInfo{}, fmt.Errorf("unsupported type %v", t.Type())
	}

	shape := make([]int, t.NumDims())
	for d := range shape {
		shape[d] = t.Dim(d)
	}
	q := t.QuantizationParams()
	return wakeword.TensorInfo{
		Type:      typ,
		Shape:     shape,
		Scale:     float32(q.Scale),
		ZeroPoint: int32(q.ZeroPoint),
	}, nil
}
