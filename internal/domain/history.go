package domain

// DefaultHistoryCapacity is the number of prices kept when no capacity is configured.
const DefaultHistoryCapacity = 5000

// History is a fixed-capacity ring of prices in chronological order.
// Once full, every Append evicts the oldest price.
type History struct {
	values []float64
	start  int
	size   int
}

// NewHistory creates an empty history holding at most capacity prices.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{values: make([]float64, capacity)}
}

// Append adds a price, evicting the oldest one when the buffer is full.
func (h *History) Append(v float64) {
	c := len(h.values)
	if h.size == c {
		h.values[h.start] = v
		h.start = (h.start + 1) % c
		return
	}
	h.values[(h.start+h.size)%c] = v
	h.size++
}

// Clear drops every stored price.
func (h *History) Clear() {
	h.start = 0
	h.size = 0
}

// Restore replaces the contents with values, keeping only the most recent Cap() of them.
func (h *History) Restore(values []float64) {
	h.Clear()
	if extra := len(values) - len(h.values); extra > 0 {
		values = values[extra:]
	}
	for _, v := range values {
		h.Append(v)
	}
}

// Snapshot returns a copy of the stored prices, oldest first.
func (h *History) Snapshot() []float64 {
	out := make([]float64, h.size)
	c := len(h.values)
	for i := 0; i < h.size; i++ {
		out[i] = h.values[(h.start+i)%c]
	}
	return out
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.values) }

// Last returns the most recent price.
func (h *History) Last() (float64, bool) {
	return h.fromEnd(1)
}

// Previous returns the price recorded just before the most recent one.
func (h *History) Previous() (float64, bool) {
	return h.fromEnd(2)
}

func (h *History) fromEnd(n int) (float64, bool) {
	if h.size < n {
		return 0, false
	}
	return h.values[(h.start+h.size-n)%len(h.values)], true
}
