package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

const defaultBatchSize = 20

// JobStore keeps every discovery job for the process lifetime plus a
// pointer to the most recently created one. No eviction: jobs double as the
// audit trail. A bounded or persistent backend can replace this type
// without touching the engine.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*models.DiscoveryJob
	latestId string
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*models.DiscoveryJob)}
}

func (s *JobStore) put(job *models.DiscoveryJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobId] = job
	s.latestId = job.JobId
}

// update runs fn on the live job under the store lock.
func (s *JobStore) update(jobId string, fn func(job *models.DiscoveryJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobId]; ok {
		fn(job)
	}
}

// Get returns a snapshot of one job, or nil when unknown.
func (s *JobStore) Get(jobId string) *models.DiscoveryJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobId]; ok {
		return snapshotJob(job)
	}
	return nil
}

// Latest returns a snapshot of the most recently created job, or nil when
// none was ever started.
func (s *JobStore) Latest() *models.DiscoveryJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[s.latestId]; ok {
		return snapshotJob(job)
	}
	return nil
}

func (s *JobStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func snapshotJob(job *models.DiscoveryJob) *models.DiscoveryJob {
	copied := *job
	copied.Devices = append([]models.DiscoveredDevice(nil), job.Devices...)
	return &copied
}

// DiscoveryEngine validates a request synchronously, then runs the scan in
// the background in fixed-size concurrent batches.
type DiscoveryEngine struct {
	Store            *JobStore
	Prober           DeviceProber
	Reconciler       *Reconciler
	BatchSize        int
	DefaultCommunity string
	DefaultSubnets   []string
	SkipIfWalk       bool
}

func NewDiscoveryEngine(store *JobStore, prober DeviceProber, reconciler *Reconciler, community string) *DiscoveryEngine {
	return &DiscoveryEngine{
		Store:            store,
		Prober:           prober,
		Reconciler:       reconciler,
		BatchSize:        defaultBatchSize,
		DefaultCommunity: community,
	}
}

// StartDiscovery is the synchronous half: a validation failure produces no
// job at all. On success the caller gets the job id back immediately while
// the scan runs in its own goroutine.
func (e *DiscoveryEngine) StartDiscovery(req models.DiscoveryRequest) (*models.DiscoveryStarted, error) {
	targets, err := utils.ResolveTargets(req.Subnets, req.Ips)
	if err != nil {
		return nil, err
	}

	community := req.Community
	if community == "" {
		community = e.DefaultCommunity
	}
	if community == "" {
		community = "public"
	}

	descriptor := strings.Join(req.Subnets, ",")
	if descriptor == "" {
		descriptor = strings.Join(req.Ips, ",")
	}

	job := &models.DiscoveryJob{
		JobId:        uuid.NewString(),
		Status:       models.JobPending,
		TotalTargets: len(targets),
		Targets:      descriptor,
		Community:    community,
		StartedAt:    time.Now(),
	}
	e.Store.put(job)

	go e.run(job.JobId, targets, community)

	return &models.DiscoveryStarted{JobId: job.JobId, TotalTargets: len(targets)}, nil
}

// TriggerDefault starts a scan over the configured default subnets,
// fire-and-forget.
func (e *DiscoveryEngine) TriggerDefault() {
	if len(e.DefaultSubnets) == 0 {
		utils.Logline("discovery trigger ignored, no default subnets configured")
		return
	}
	if _, err := e.StartDiscovery(models.DiscoveryRequest{Subnets: e.DefaultSubnets}); err != nil {
		utils.Logline("error starting triggered discovery", err)
	}
}

func (e *DiscoveryEngine) batchSize() int {
	if e.BatchSize > 0 {
		return e.BatchSize
	}
	return defaultBatchSize
}

func (e *DiscoveryEngine) run(jobId string, targets []string, community string) {
	defer func() {
		// an unexpected panic fails the whole job, error retained for inspection
		if rec := recover(); rec != nil {
			utils.Logline("recovered from panic <<discovery>>: %v", rec)
			e.Store.update(jobId, func(job *models.DiscoveryJob) {
				job.Status = models.JobFailed
				job.Error = fmt.Sprintf("unexpected error: %v", rec)
				now := time.Now()
				job.CompletedAt = &now
			})
		}
	}()

	e.Store.update(jobId, func(job *models.DiscoveryJob) {
		job.Status = models.JobRunning
	})
	utils.Logline("discovery job started", jobId, len(targets), "targets")

	size := e.batchSize()
	for start := 0; start < len(targets); start += size {
		end := start + size
		if end > len(targets) {
			end = len(targets)
		}
		batch := targets[start:end]

		found := e.probeBatch(batch, community)

		// reconcile the batch results before reporting progress
		for i := range found {
			e.Reconciler.ReconcileDevice(context.Background(), &found[i])
		}

		// progress is batch-granular on purpose
		e.Store.update(jobId, func(job *models.DiscoveryJob) {
			job.ScannedTargets += len(batch)
			job.DevicesFound += len(found)
			job.Devices = append(job.Devices, found...)
			job.Progress = utils.ProgressPercent(job.ScannedTargets, job.TotalTargets)
		})
	}

	e.Store.update(jobId, func(job *models.DiscoveryJob) {
		job.Status = models.JobCompleted
		job.Progress = 100
		now := time.Now()
		job.CompletedAt = &now
		utils.Logline("discovery job completed", jobId, job.DevicesFound, "devices found of", job.TotalTargets, "targets")
	})
}

// probeBatch fans out over one batch and waits for the whole batch. Absent
// hosts contribute nothing; results within a batch are unordered.
func (e *DiscoveryEngine) probeBatch(batch []string, community string) []models.DiscoveredDevice {
	var mu sync.Mutex
	var found []models.DiscoveredDevice

	var wg sync.WaitGroup
	for _, ip := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					utils.Logline("recovered from panic probing", ip, rec)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			device, err := e.Prober.ProbeDevice(ctx, ip, community)
			if err != nil || device == nil {
				return
			}

			if !e.SkipIfWalk {
				walk := e.Prober.WalkInterfaces(ctx, ip, community)
				device.Interfaces = walk.Interfaces
				if !walk.Complete {
					utils.Logline("interface walk incomplete, keeping partial results", ip)
				}
			}

			mu.Lock()
			found = append(found, *device)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return found
}
