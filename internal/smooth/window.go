package smooth

// Window is a fixed-size moving average buffer.
type Window struct {
	size   int
	values []float64
}

// NewWindow creates a Window holding at most size values.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, values: make([]float64, 0, size)}
}

// Push appends v, evicting the oldest value when full, and returns the new mean.
func (w *Window) Push(v float64) float64 {
	if len(w.values) == w.size {
		copy(w.values, w.values[1:])
		w.values = w.values[:w.size-1]
	}
	w.values = append(w.values, v)
	return w.Mean()
}

// Mean returns the arithmetic mean of the buffered values, or 0 if empty.
func (w *Window) Mean() float64 {
	return Mean(w.values)
}

// Len returns the number of buffered values.
func (w *Window) Len() int { return len(w.values) }

// Size returns the capacity of the window.
func (w *Window) Size() int { return w.size }

// Reset empties the window.
func (w *Window) Reset() {
	w.values = w.values[:0]
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
