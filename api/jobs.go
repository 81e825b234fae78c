/*
jobs.go - Background simulation job manager

PURPOSE:
  Owns the lifecycle of simulation runs. The engines themselves are
  synchronous and single-threaded; this layer wraps one run in a
  goroutine, feeds it progress/cancellation hooks, and exposes a
  pollable state machine:

    pending -> running -> completed | cancelled | failed

MUTUAL EXCLUSION:
  Only one simulation runs at a time. Both engines assume exclusive
  ownership of their hierarchy and per-user state, so a second run is
  rejected with ErrJobRunning rather than queued.

CANCELLATION:
  Cancel flips a flag the engine polls through its Cancelled hook. The
  engine unwinds cooperatively with sim.ErrCancelled and the job lands
  in the cancelled state with no partial result.

SEE ALSO:
  - sim/types.go: Hooks, the engine side of this contract
  - handlers.go: HTTP surface over the manager
*/
package api

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lattice/comp-engine/sim"
)

// JobStatus is one state of the job lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobFailed
}

// ErrJobRunning is returned by Start while another simulation is active.
var ErrJobRunning = errors.New("a simulation is already running")

// ErrJobNotFound is returned when no job matches the requested id.
var ErrJobNotFound = errors.New("job not found")

// RunFunc is one simulation run. It honors the hooks and returns the
// result to surface on completion.
type RunFunc func(hooks sim.Hooks) (any, error)

// Job is a snapshot of one run's state, safe to hold after the call that
// produced it returns.
type Job struct {
	ID          string     `json:"id"`
	Program     string     `json:"program"`
	Status      JobStatus  `json:"status"`
	Stage       string     `json:"stage,omitempty"`
	Progress    int        `json:"progress"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// jobState is the manager's mutable record for one job.
type jobState struct {
	job       Job
	cancelled bool
}

// JobManager runs simulations in the background, one at a time.
type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]*jobState
	latest  map[string]string // program -> most recent job id
	running string            // id of the active job, "" when idle
}

// NewJobManager creates an idle manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:   make(map[string]*jobState),
		latest: make(map[string]string),
	}
}

// Start launches run in the background under a fresh job id. It fails
// with ErrJobRunning if another job is still active.
func (m *JobManager) Start(program string, run RunFunc) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running != "" {
		return Job{}, ErrJobRunning
	}

	state := &jobState{job: Job{
		ID:        uuid.NewString(),
		Program:   program,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
	}}
	m.jobs[state.job.ID] = state
	m.latest[program] = state.job.ID
	m.running = state.job.ID

	log.Printf("[Jobs] Started %s job %s", program, state.job.ID)
	go m.execute(state, run)

	return state.job, nil
}

func (m *JobManager) execute(state *jobState, run RunFunc) {
	m.mu.Lock()
	state.job.Status = JobRunning
	m.mu.Unlock()

	hooks := sim.Hooks{
		Progress: func(stage string, pct int) {
			m.mu.Lock()
			state.job.Stage = stage
			state.job.Progress = pct
			m.mu.Unlock()
		},
		Cancelled: func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			return state.cancelled
		},
	}

	result, err := run(hooks)
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case errors.Is(err, sim.ErrCancelled):
		state.job.Status = JobCancelled
		state.job.Stage = "Cancelled"
		log.Printf("[Jobs] Job %s cancelled", state.job.ID)
	case err != nil:
		state.job.Status = JobFailed
		state.job.Error = err.Error()
		log.Printf("[Jobs] Job %s failed: %v", state.job.ID, err)
	default:
		state.job.Status = JobCompleted
		state.job.Result = result
		state.job.Progress = 100
		log.Printf("[Jobs] Job %s completed in %v", state.job.ID, now.Sub(state.job.StartedAt))
	}
	state.job.CompletedAt = &now
	m.running = ""
}

// Get returns a snapshot of the job with the given id.
func (m *JobManager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return state.job, nil
}

// Latest returns a snapshot of the most recent job for a program.
func (m *JobManager) Latest(program string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.latest[program]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return m.jobs[id].job, nil
}

// Cancel requests a cooperative stop of the given job. Cancelling a job
// that already finished is a no-op reported through the returned
// snapshot's status.
func (m *JobManager) Cancel(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	if !state.job.Status.Terminal() {
		state.cancelled = true
		log.Printf("[Jobs] Cancellation requested for job %s", id)
	}
	return state.job, nil
}

// Busy reports whether a job is currently active.
func (m *JobManager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running != ""
}
