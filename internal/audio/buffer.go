package audio

import (
	"sync"
)

// RingBuffer is a thread-safe ring buffer for PCM bytes. One slot is kept
// free to tell full from empty, so it holds at most size-1 bytes.
type RingBuffer struct {
	buffer []byte
	size   int
	read   int
	write  int
	mu     sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the specified size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write appends as much of data as fits and returns the byte count.
// Excess bytes are dropped; callers drain the buffer before it fills.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(data)
	if space := rb.size - 1 - rb.available(); n > space {
		n = space
	}
	first := copy(rb.buffer[rb.write:], data[:n])
	copy(rb.buffer, data[first:n])
	rb.write = (rb.write + n) % rb.size
	return n
}

// Peek copies up to len(data) bytes without consuming them.
func (rb *RingBuffer) Peek(data []byte) int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.peek(data)
}

func (rb *RingBuffer) peek(data []byte) int {
	n := 0
	for pos := rb.read; n < len(data) && pos != rb.write; pos = (pos + 1) % rb.size {
		data[n] = rb.buffer[pos]
		n++
	}
	return n
}

// Discard drops up to n bytes from the read side and returns how many were dropped.
func (rb *RingBuffer) Discard(n int) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if avail := rb.available(); n > avail {
		n = avail
	}
	rb.read = (rb.read + n) % rb.size
	return n
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.available()
}

func (rb *RingBuffer) available() int {
	if rb.write >= rb.read {
		return rb.write - rb.read
	}
	return rb.size - rb.read + rb.write
}

// Clear drops everything buffered.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.read = 0
	rb.write = 0
}
