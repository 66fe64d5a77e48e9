package probe

import (
	"sync"
	"time"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// MaxDeliveryAttempts is how many retries one buffered payload gets before
// it is dropped for good.
const MaxDeliveryAttempts = 5

// BackoffDelay is the wait before the next retry of an entry that has
// already failed `attempts` retries: 2, 4, 8, 16, 32 seconds.
func BackoffDelay(attempts int) time.Duration {
	return time.Duration(1<<(attempts+1)) * time.Second
}

// RetryBuffer is the bounded FIFO holding undelivered payloads. When full,
// the oldest entry is evicted to make room; that loss is explicit and
// logged, never silent.
type RetryBuffer struct {
	mu       sync.Mutex
	entries  []*models.BufferedPayload
	capacity int
}

func NewRetryBuffer(capacity int) *RetryBuffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &RetryBuffer{capacity: capacity}
}

// Enqueue buffers one undelivered payload with its first retry scheduled
// BackoffDelay(0) from now.
func (b *RetryBuffer) Enqueue(payload models.ProbePayload, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= b.capacity {
		evicted := b.entries[0]
		b.entries = b.entries[1:]
		utils.Logline("retry buffer full, evicting oldest payload", evicted.Payload.ProbeId, evicted.Payload.Timestamp, "attempts", evicted.Attempts)
	}

	b.entries = append(b.entries, &models.BufferedPayload{
		Payload:     payload,
		Attempts:    0,
		NextRetryAt: now.Add(BackoffDelay(0)),
		EnqueuedAt:  now,
	})
}

// Due returns the entries whose retry time has elapsed, oldest first.
func (b *RetryBuffer) Due(now time.Time) []*models.BufferedPayload {
	b.mu.Lock()
	defer b.mu.Unlock()

	var due []*models.BufferedPayload
	for _, entry := range b.entries {
		if !entry.NextRetryAt.After(now) {
			due = append(due, entry)
		}
	}
	return due
}

// Remove destroys one entry after successful delivery.
func (b *RetryBuffer) Remove(entry *models.BufferedPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, candidate := range b.entries {
		if candidate == entry {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// MarkFailed bumps the attempt counter after a failed retry. Once the entry
// has used up MaxDeliveryAttempts it is dropped and logged; otherwise the
// next retry is scheduled with the entry's own exponential backoff.
// Returns false when the entry was dropped.
func (b *RetryBuffer) MarkFailed(entry *models.BufferedPayload, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry.Attempts++
	if entry.Attempts >= MaxDeliveryAttempts {
		for i, candidate := range b.entries {
			if candidate == entry {
				b.entries = append(b.entries[:i], b.entries[i+1:]...)
				break
			}
		}
		utils.Logline("dropping payload after max delivery attempts", entry.Payload.ProbeId, entry.Payload.Timestamp, "attempts", entry.Attempts)
		return false
	}

	entry.NextRetryAt = now.Add(BackoffDelay(entry.Attempts))
	return true
}

func (b *RetryBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *RetryBuffer) Capacity() int {
	return b.capacity
}
