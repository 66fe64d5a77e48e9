package probe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWPramod/ems-platform-sub002/models"
)

func payloadAt(ts time.Time) models.ProbePayload {
	return models.ProbePayload{ProbeId: "probe-1", Timestamp: ts}
}

func TestBackoffDelaySchedule(t *testing.T) {
	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for attempts, delay := range want {
		assert.Equal(t, delay, BackoffDelay(attempts), "attempts=%d", attempts)
	}
}

func TestEnqueueSchedulesFirstRetry(t *testing.T) {
	buffer := NewRetryBuffer(10)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	buffer.Enqueue(payloadAt(now), now)

	require.Equal(t, 1, buffer.Size())
	assert.Empty(t, buffer.Due(now))
	assert.Empty(t, buffer.Due(now.Add(time.Second)))

	due := buffer.Due(now.Add(2 * time.Second))
	require.Len(t, due, 1)
	assert.Equal(t, 0, due[0].Attempts)
	assert.Equal(t, now, due[0].EnqueuedAt)
}

func TestBufferEvictsOldestAtCapacity(t *testing.T) {
	buffer := NewRetryBuffer(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		buffer.Enqueue(models.ProbePayload{ProbeId: fmt.Sprintf("p%d", i), Timestamp: now}, now)
		assert.LessOrEqual(t, buffer.Size(), 3)
	}

	require.Equal(t, 3, buffer.Size())
	due := buffer.Due(now.Add(time.Minute))
	require.Len(t, due, 3)
	// p0 and p1 were evicted, the newest three survive in order
	assert.Equal(t, "p2", due[0].Payload.ProbeId)
	assert.Equal(t, "p3", due[1].Payload.ProbeId)
	assert.Equal(t, "p4", due[2].Payload.ProbeId)
}

func TestMarkFailedBacksOffPerEntry(t *testing.T) {
	buffer := NewRetryBuffer(10)
	now := time.Now()
	buffer.Enqueue(payloadAt(now), now)
	entry := buffer.Due(now.Add(time.Minute))[0]

	retained := buffer.MarkFailed(entry, now)
	assert.True(t, retained)
	assert.Equal(t, 1, entry.Attempts)
	assert.Equal(t, now.Add(4*time.Second), entry.NextRetryAt)

	retained = buffer.MarkFailed(entry, now)
	assert.True(t, retained)
	assert.Equal(t, now.Add(8*time.Second), entry.NextRetryAt)
}

func TestMarkFailedDropsAfterMaxAttempts(t *testing.T) {
	buffer := NewRetryBuffer(10)
	now := time.Now()
	buffer.Enqueue(payloadAt(now), now)
	entry := buffer.Due(now.Add(time.Minute))[0]

	for i := 1; i < MaxDeliveryAttempts; i++ {
		require.True(t, buffer.MarkFailed(entry, now), "attempt %d", i)
		require.Equal(t, 1, buffer.Size())
	}

	// fifth failure drops the entry for good
	assert.False(t, buffer.MarkFailed(entry, now))
	assert.Equal(t, 0, buffer.Size())
}

func TestRemoveDeletesExactEntry(t *testing.T) {
	buffer := NewRetryBuffer(10)
	now := time.Now()
	buffer.Enqueue(models.ProbePayload{ProbeId: "a", Timestamp: now}, now)
	buffer.Enqueue(models.ProbePayload{ProbeId: "b", Timestamp: now}, now)

	due := buffer.Due(now.Add(time.Minute))
	require.Len(t, due, 2)

	buffer.Remove(due[0])
	assert.Equal(t, 1, buffer.Size())
	remaining := buffer.Due(now.Add(time.Minute))
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].Payload.ProbeId)

	// removing twice is harmless
	buffer.Remove(due[0])
	assert.Equal(t, 1, buffer.Size())
}

func TestDueFiltersByRetryTime(t *testing.T) {
	buffer := NewRetryBuffer(10)
	base := time.Now()
	buffer.Enqueue(models.ProbePayload{ProbeId: "early", Timestamp: base}, base)
	buffer.Enqueue(models.ProbePayload{ProbeId: "late", Timestamp: base}, base.Add(10*time.Second))

	due := buffer.Due(base.Add(3 * time.Second))
	require.Len(t, due, 1)
	assert.Equal(t, "early", due[0].Payload.ProbeId)
}
