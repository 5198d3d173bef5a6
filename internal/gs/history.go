package gs

// History is the selection index log. With a capacity it keeps the most
// recent entries in a circular buffer, otherwise it grows without bound.
type History struct {
	buffer   []int
	capacity int
	iPtr     int // next write position once the ring is full
	full     bool
}

// NewHistory creates a history keeping at most capacity entries. A capacity
// of 0 keeps everything.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{
		buffer:   make([]int, 0, capacity),
		capacity: capacity,
	}
}

// Add records one selection index, overwriting the oldest entry when a
// bounded history is full.
func (h *History) Add(index int) {
	if h.capacity == 0 || len(h.buffer) < h.capacity {
		h.buffer = append(h.buffer, index)
		h.full = h.capacity > 0 && len(h.buffer) == h.capacity
		return
	}

	h.buffer[h.iPtr] = index
	h.iPtr++
	if h.iPtr == h.capacity {
		h.iPtr = 0
	}
}

// Values returns the recorded indices, oldest first.
func (h *History) Values() []int {
	out := make([]int, 0, len(h.buffer))
	if !h.full {
		return append(out, h.buffer...)
	}
	out = append(out, h.buffer[h.iPtr:]...)
	return append(out, h.buffer[:h.iPtr]...)
}

// Last returns the most recent index, or false when empty.
func (h *History) Last() (int, bool) {
	if len(h.buffer) == 0 {
		return 0, false
	}
	if !h.full || h.iPtr == 0 {
		return h.buffer[len(h.buffer)-1], true
	}
	return h.buffer[h.iPtr-1], true
}

// Len returns the number of stored indices.
func (h *History) Len() int { return len(h.buffer) }

// Capacity returns the bound, 0 for unbounded.
func (h *History) Capacity() int { return h.capacity }

// Clear drops every entry.
func (h *History) Clear() {
	h.buffer = h.buffer[:0]
	h.iPtr = 0
	h.full = false
}
