package scope

import "time"

// Point is one plotted value with its arrival time.
type Point struct {
	T time.Time
	V float64
}

// History is a fixed-size circular buffer of plotted points. It only
// serves the display: the acquisition core keeps its own buffer.
type History struct {
	data  []Point
	size  int
	head  int // next write position
	count int // number of valid points
}

// NewHistory creates a History holding up to size points.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{
		data: make([]Point, size),
		size: size,
	}
}

// Push adds a point, overwriting the oldest once full.
func (h *History) Push(p Point) {
	h.data[h.head] = p
	h.head = (h.head + 1) % h.size
	if h.count < h.size {
		h.count++
	}
}

// Len returns the number of valid points.
func (h *History) Len() int {
	return h.count
}

// Points appends all valid points to dst in chronological order (oldest
// first) and returns the result, reusing dst's capacity when possible.
func (h *History) Points(dst []Point) []Point {
	dst = dst[:0]
	if h.count == 0 {
		return dst
	}
	start := (h.head - h.count + h.size) % h.size
	for i := 0; i < h.count; i++ {
		dst = append(dst, h.data[(start+i)%h.size])
	}
	return dst
}
