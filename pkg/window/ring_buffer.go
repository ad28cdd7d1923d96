package window

import (
	"sync"
)

// RingBuffer is a circular buffer of outcomes with fixed capacity
type RingBuffer struct {
	data     []float64
	capacity int
	size     int
	head     int // points to the next write position
	mu       sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		data:     make([]float64, capacity),
		capacity: capacity,
	}
}

// Push adds an outcome to the buffer
// If the buffer is full, the oldest outcome is overwritten
func (rb *RingBuffer) Push(v float64) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.head] = v
	rb.head = (rb.head + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

// Size returns the current number of elements in the buffer
func (rb *RingBuffer) Size() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

// IsFull returns true if the buffer is at capacity
func (rb *RingBuffer) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size == rb.capacity
}

// Capacity returns the maximum capacity of the buffer
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// ToSlice returns all outcomes in chronological order (oldest first)
func (rb *RingBuffer) ToSlice() []float64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]float64, rb.size)
	if rb.size == 0 {
		return result
	}

	start := 0
	if rb.size == rb.capacity {
		start = rb.head
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(start+i)%rb.capacity]
	}

	return result
}

// Last returns the most recent outcome and false if the buffer is empty
func (rb *RingBuffer) Last() (float64, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 {
		return 0, false
	}
	return rb.data[(rb.head-1+rb.capacity)%rb.capacity], true
}

// Clear empties the buffer
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.size = 0
	rb.head = 0
}
