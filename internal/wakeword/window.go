package wakeword

// SlidingWindow holds the last N probabilities of one word. A detection needs
// a full window whose mean exceeds the cutoff.
type SlidingWindow struct {
	size   int
	cutoff float32
	values []float32
	next   int
	count  int
}

// NewSlidingWindow creates a window of size entries (at least 1).
func NewSlidingWindow(size int, cutoff float32) *SlidingWindow {
	if size < 1 {
		size = 1
	}
	return &SlidingWindow{
		size:   size,
		cutoff: cutoff,
		values: make([]float32, size),
	}
}

// Push records p, evicting the oldest value once full, and reports whether
// the window now signals a detection.
func (w *SlidingWindow) Push(p float32) bool {
	w.values[w.next] = p
	w.next = (w.next + 1) % w.size
	if w.count < w.size {
		w.count++
	}
	return w.Full() && w.Mean() > w.cutoff
}

// Mean of the values currently held.
func (w *SlidingWindow) Mean() float32 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += float64(w.values[i])
	}
	return float32(sum / float64(w.count))
}

// Full reports whether N values have been seen.
func (w *SlidingWindow) Full() bool {
	return w.count == w.size
}
