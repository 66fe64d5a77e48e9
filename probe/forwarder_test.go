package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWPramod/ems-platform-sub002/models"
)

// ingestServer is a fake center endpoint that can be flipped between
// accepting and rejecting.
type ingestServer struct {
	mu       sync.Mutex
	failing  bool
	received []models.ProbePayload
	server   *httptest.Server
}

func newIngestServer(t *testing.T) *ingestServer {
	t.Helper()
	s := &ingestServer{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var payload models.ProbePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.received = append(s.received, payload)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *ingestServer) setFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *ingestServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func testForwarder(s *ingestServer, capacity int) (*Forwarder, *time.Time) {
	f := NewForwarder(s.server.URL+"/api/v1/probe/ingest", capacity)
	clock := time.Now()
	f.now = func() time.Time { return clock }
	return f, &clock
}

func TestSendDeliversDirectly(t *testing.T) {
	server := newIngestServer(t)
	forwarder, _ := testForwarder(server, 10)

	forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: time.Now()})

	assert.Equal(t, 1, server.count())
	assert.Equal(t, 0, forwarder.Buffer.Size())
	assert.True(t, forwarder.ApiReachable())
}

func TestSendBuffersOnFailure(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	forwarder, _ := testForwarder(server, 10)

	forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: time.Now()})

	assert.Equal(t, 0, server.count())
	assert.Equal(t, 1, forwarder.Buffer.Size())
	assert.False(t, forwarder.ApiReachable())
}

func TestDrainDeliversAfterRecovery(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	forwarder, clock := testForwarder(server, 10)

	forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: time.Now()})
	require.Equal(t, 1, forwarder.Buffer.Size())

	// not due yet, drain is a no-op
	forwarder.Drain(context.Background())
	assert.Equal(t, 1, forwarder.Buffer.Size())

	server.setFailing(false)
	*clock = clock.Add(3 * time.Second)
	forwarder.Drain(context.Background())

	assert.Equal(t, 1, server.count())
	assert.Equal(t, 0, forwarder.Buffer.Size())
	assert.True(t, forwarder.ApiReachable())
}

func TestDrainBacksOffFailedEntries(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	forwarder, clock := testForwarder(server, 10)

	forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: time.Now()})

	// first retry fails, next one is 4s out
	*clock = clock.Add(3 * time.Second)
	forwarder.Drain(context.Background())
	require.Equal(t, 1, forwarder.Buffer.Size())

	*clock = clock.Add(3 * time.Second)
	forwarder.Drain(context.Background())
	entry := forwarder.Buffer.Due(clock.Add(time.Hour))[0]
	assert.Equal(t, 1, entry.Attempts)
}

func TestDrainDropsEntryAfterMaxAttempts(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	forwarder, clock := testForwarder(server, 10)

	forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: time.Now()})

	// ride the full backoff ladder: 2, 4, 8, 16, 32 seconds
	for i := 0; i < MaxDeliveryAttempts; i++ {
		*clock = clock.Add(40 * time.Second)
		forwarder.Drain(context.Background())
	}

	assert.Equal(t, 0, forwarder.Buffer.Size())
	assert.Equal(t, 0, server.count())
}

func TestSendEvictsOldestWhenBufferFull(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	forwarder, clock := testForwarder(server, 2)

	base := time.Now()
	for i := 0; i < 3; i++ {
		forwarder.Send(context.Background(), models.ProbePayload{ProbeId: "probe-1", Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	require.Equal(t, 2, forwarder.Buffer.Size())

	server.setFailing(false)
	*clock = clock.Add(time.Minute)
	forwarder.Drain(context.Background())

	// the first payload was evicted, the remaining two arrive in order
	server.mu.Lock()
	defer server.mu.Unlock()
	require.Len(t, server.received, 2)
	assert.Equal(t, base.Add(time.Minute).Unix(), server.received[0].Timestamp.Unix())
	assert.Equal(t, base.Add(2*time.Minute).Unix(), server.received[1].Timestamp.Unix())
}
