package api

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	preamblePlaintext = 0x00
	preambleNoise     = 0x01

	// MaxFrameSize bounds the payload of a single inbound frame.
	MaxFrameSize = 1 << 20
)

var (
	// ErrEncryptionUnsupported is returned when the peer opens a noise-encrypted session.
	ErrEncryptionUnsupported = errors.New("api: encrypted frames are not supported")
	// ErrFrameTooLarge is returned for frames above MaxFrameSize.
	ErrFrameTooLarge = errors.New("api: frame too large")
	// ErrBadPreamble is returned when a frame does not start with a known preamble byte.
	ErrBadPreamble = errors.New("api: bad frame preamble")
	// ErrMalformedPayload is returned when a complete frame holds a payload
	// that does not decode. The stream stays aligned, so readers may skip it.
	ErrMalformedPayload = errors.New("api: malformed payload")
)

// ReadFrame reads one plaintext frame and decodes its payload.
func ReadFrame(r *bufio.Reader) (Message, error) {
	preamble, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch preamble {
	case preamblePlaintext:
	case preambleNoise:
		return nil, ErrEncryptionUnsupported
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadPreamble, preamble)
	}

	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, unexpectedEOF(err)
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	msgType, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, unexpectedEOF(err)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, unexpectedEOF(err)
	}
	return Decode(MessageType(msgType), payload)
}

// AppendFrame appends the framed encoding of msg to b.
func AppendFrame(b []byte, msg Message) []byte {
	payload := Encode(msg)
	b = append(b, preamblePlaintext)
	b = binary.AppendUvarint(b, uint64(len(payload)))
	b = binary.AppendUvarint(b, uint64(msg.Type()))
	return append(b, payload...)
}

// WriteFrame writes msg as one frame with a single Write call.
func WriteFrame(w io.Writer, msg Message) error {
	_, err := w.Write(AppendFrame(nil, msg))
	return err
}

// A frame cut short after its preamble is a truncated stream, not a clean close.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
