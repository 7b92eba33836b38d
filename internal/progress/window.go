package progress

import (
	"math"
	"sort"
)

// window keeps the most recent per-file rates in a fixed-size ring.
type window struct {
	values []float64
	next   int
	full   bool
}

func newWindow(size int) *window {
	if size <= 0 {
		size = 1
	}
	return &window{values: make([]float64, size)}
}

func (w *window) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return
	}
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.next == 0 {
		w.full = true
	}
}

func (w *window) Len() int {
	if w.full {
		return len(w.values)
	}
	return w.next
}

// Median returns the middle recorded rate, or 0 when nothing was recorded.
func (w *window) Median() float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	cp := append([]float64(nil), w.values[:n]...)
	sort.Float64s(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}
