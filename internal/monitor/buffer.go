// Package monitor buffers recent prediction traffic and runs the periodic
// drift checks that score it against the active model's baseline.
package monitor

import (
	"sync"
	"time"

	"github.com/inferstack/mlserve/pkg/models"
)

// PredictionBuffer is a fixed-capacity ring over recent prediction events.
// When full, appends evict the oldest event. All methods are safe for
// concurrent use.
type PredictionBuffer struct {
	mu       sync.RWMutex
	events   []models.PredictionEvent
	capacity int
	head     int
	size     int
	total    uint64
}

// BufferStatistics is a point-in-time summary of the buffer's contents.
type BufferStatistics struct {
	Count       int           `json:"count"`
	Capacity    int           `json:"capacity"`
	Utilization float64       `json:"utilization"`
	OldestEvent *time.Time    `json:"oldest_event,omitempty"`
	NewestEvent *time.Time    `json:"newest_event,omitempty"`
	TimeSpan    time.Duration `json:"time_span"`
}

// NewPredictionBuffer creates a buffer holding at most capacity events.
func NewPredictionBuffer(capacity int) *PredictionBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &PredictionBuffer{
		events:   make([]models.PredictionEvent, capacity),
		capacity: capacity,
	}
}

// Append records an event, evicting the oldest when the buffer is full.
func (b *PredictionBuffer) Append(event models.PredictionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[(b.head+b.size)%b.capacity] = event
	b.total++
	if b.size < b.capacity {
		b.size++
	} else {
		b.head = (b.head + 1) % b.capacity
	}
}

// TotalAppended returns the monotonic count of events ever appended,
// including evicted ones. Clear does not reset it.
func (b *PredictionBuffer) TotalAppended() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Count returns the number of buffered events.
func (b *PredictionBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of events the buffer can hold.
func (b *PredictionBuffer) Capacity() int {
	return b.capacity
}

// Snapshot returns up to n most recent events, oldest first, as deep copies.
// Mutating the returned events does not affect the buffer. n <= 0 returns
// everything buffered.
func (b *PredictionBuffer) Snapshot(n int) []models.PredictionEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.size {
		n = b.size
	}
	out := make([]models.PredictionEvent, n)
	start := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.events[(b.head+start+i)%b.capacity].Clone()
	}
	return out
}

// Clear drops all buffered events.
func (b *PredictionBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// Statistics reports occupancy and the timestamp range of buffered events.
func (b *PredictionBuffer) Statistics() BufferStatistics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := BufferStatistics{
		Count:       b.size,
		Capacity:    b.capacity,
		Utilization: float64(b.size) / float64(b.capacity),
	}
	if b.size > 0 {
		oldest := b.events[b.head].Timestamp
		newest := b.events[(b.head+b.size-1)%b.capacity].Timestamp
		stats.OldestEvent = &oldest
		stats.NewestEvent = &newest
		stats.TimeSpan = newest.Sub(oldest)
	}
	return stats
}
