package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// Forwarder pushes telemetry batches to the center and owns the retry
// buffer for batches the center did not take.
type Forwarder struct {
	IngestUrl string
	Client    *http.Client
	Buffer    *RetryBuffer

	// test seam
	now func() time.Time

	drainRunning atomic.Bool

	mu           sync.Mutex
	apiReachable bool
}

func NewForwarder(ingestUrl string, bufferCapacity int) *Forwarder {
	return &Forwarder{
		IngestUrl:    ingestUrl,
		Client:       &http.Client{Timeout: 10 * time.Second},
		Buffer:       NewRetryBuffer(bufferCapacity),
		now:          time.Now,
		apiReachable: true,
	}
}

// Send attempts immediate delivery; a failed batch goes into the buffer
// instead of being dropped.
func (f *Forwarder) Send(ctx context.Context, payload models.ProbePayload) {
	if err := f.deliver(ctx, payload); err != nil {
		f.setReachable(false, err)
		f.Buffer.Enqueue(payload, f.now())
		return
	}
	f.setReachable(true, nil)
}

// Drain retries every due buffered entry once. Runs on its own faster tick;
// an overlapping tick is skipped.
func (f *Forwarder) Drain(ctx context.Context) {
	if !f.drainRunning.CompareAndSwap(false, true) {
		return
	}
	defer f.drainRunning.Store(false)

	for _, entry := range f.Buffer.Due(f.now()) {
		if err := f.deliver(ctx, entry.Payload); err != nil {
			f.setReachable(false, err)
			f.Buffer.MarkFailed(entry, f.now())
			continue
		}
		f.setReachable(true, nil)
		f.Buffer.Remove(entry)
	}
}

func (f *Forwarder) deliver(ctx context.Context, payload models.ProbePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.IngestUrl, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}

// setReachable logs reachable/unreachable exactly once per transition, not
// per attempt.
func (f *Forwarder) setReachable(reachable bool, cause error) {
	f.mu.Lock()
	changed := f.apiReachable != reachable
	f.apiReachable = reachable
	f.mu.Unlock()

	if !changed {
		return
	}
	if reachable {
		utils.Logline("ingest api reachable again")
	} else {
		utils.Logline("ingest api unreachable, buffering telemetry", cause)
	}
}

func (f *Forwarder) ApiReachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apiReachable
}
