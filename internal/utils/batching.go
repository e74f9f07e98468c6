package utils

import (
	"sync"
)

// BatchBuffer accumulates items until the caller drains it.
type BatchBuffer[T any] struct {
	buffer     []T
	capacity   int
	bufferLock sync.Mutex
}

func NewBatchBuffer[T any](capacity int) *BatchBuffer[T] {
	return &BatchBuffer[T]{
		buffer:   make([]T, 0, capacity),
		capacity: capacity,
	}
}

func (b *BatchBuffer[T]) Add(items ...T) {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	b.buffer = append(b.buffer, items...)
}

// GetAndClear returns the buffered items and resets the buffer. It returns nil when empty.
func (b *BatchBuffer[T]) GetAndClear() []T {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()

	if len(b.buffer) == 0 {
		return nil
	}

	batch := b.buffer
	b.buffer = make([]T, 0, b.capacity)
	return batch
}

func (b *BatchBuffer[T]) Size() int {
	b.bufferLock.Lock()
	defer b.bufferLock.Unlock()
	return len(b.buffer)
}

// Full reports whether the buffer holds at least its configured capacity.
func (b *BatchBuffer[T]) Full() bool {
	return b.Size() >= b.capacity
}

func (b *BatchBuffer[T]) HasData() bool {
	return b.Size() > 0
}
