package api

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encoders follow proto3 rules: scalar fields holding their zero value are omitted.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendUint32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendFixed32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, v)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

// appendEmbedded always writes the field, even for an empty sub-message,
// since each element of a repeated field must be present.
func appendEmbedded(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

// field is one decoded tag plus its raw value bytes.
type field struct {
	num protowire.Number
	typ protowire.Type
	val []byte
}

func (f field) expect(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("field %d: unexpected wire type %d", f.num, f.typ)
	}
	return nil
}

func (f field) varint() (uint64, error) {
	if err := f.expect(protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(f.val)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return v, nil
}

func (f field) boolean() (bool, error) {
	v, err := f.varint()
	return protowire.DecodeBool(v), err
}

func (f field) uint32() (uint32, error) {
	v, err := f.varint()
	return uint32(v), err
}

func (f field) fixed32() (uint32, error) {
	if err := f.expect(protowire.Fixed32Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed32(f.val)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return v, nil
}

func (f field) float32() (float32, error) {
	v, err := f.fixed32()
	return math.Float32frombits(v), err
}

func (f field) bytes() ([]byte, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(f.val)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return append([]byte(nil), v...), nil
}

func (f field) string() (string, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return "", err
	}
	v, n := protowire.ConsumeBytes(f.val)
	if n < 0 {
		return "", protowire.ParseError(n)
	}
	return string(v), nil
}

// walk calls fn for every field in b. Unknown field numbers are the caller's
// to ignore; malformed input stops the walk.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		if err := fn(field{num: num, typ: typ, val: b[:m]}); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}
