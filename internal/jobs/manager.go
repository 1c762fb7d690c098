// Package jobs tracks batch runs submitted through the job server. State is
// process-local and in-memory; a restart forgets finished jobs, matching the
// no-persistence stance of the pipeline itself.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
)

// Status describes a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Request is a job submission: the run parameters a client may supply over
// HTTP. Zero rpm/max_workers fall back to server defaults.
type Request struct {
	Inputs     []string               `json:"inputs"`
	Output     string                 `json:"output"`
	RPM        int                    `json:"rpm"`
	MaxWorkers int                    `json:"max_workers"`
	Model      *config.ModelConfig    `json:"model,omitempty"`
	Workflow   *config.WorkflowConfig `json:"workflow,omitempty"`
}

// ToConfig converts the request into a run configuration.
func (r *Request) ToConfig() *config.Config {
	cfg := &config.Config{
		Inputs:     r.Inputs,
		OutputRoot: r.Output,
		RPM:        r.RPM,
		MaxWorkers: r.MaxWorkers,
	}
	if cfg.RPM == 0 {
		cfg.RPM = 60
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = config.DefaultMaxWorkers
	}
	if r.Model != nil {
		cfg.Model = *r.Model
	}
	if r.Workflow != nil {
		cfg.Workflow = *r.Workflow
	}
	return cfg
}

// Job is one tracked batch run.
type Job struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	Request     Request          `json:"request"`
	Summary     *core.RunSummary `json:"summary,omitempty"`
	Error       string           `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
}

// Runner executes a validated batch configuration.
type Runner interface {
	Run(ctx context.Context, cfg *config.Config) (*core.RunSummary, error)
}

// Manager owns the job registry and launches submitted runs.
type Manager struct {
	runner Runner
	logger *zap.Logger
	clock  func() time.Time

	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
}

// NewManager builds a manager that executes jobs with the given runner.
func NewManager(runner Runner, logger *zap.Logger) *Manager {
	return &Manager{
		runner: runner,
		logger: logger,
		clock:  time.Now,
		jobs:   make(map[string]*Job),
	}
}

// Submit validates the request, registers a job, and launches the run in the
// background. Validation failures are returned to the caller and no job is
// recorded.
func (m *Manager) Submit(req Request) (*Job, error) {
	cfg := req.ToConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	job := &Job{
		ID:          uuid.New().String(),
		Status:      StatusPending,
		Request:     req,
		SubmittedAt: m.clock(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	snapshot := *job
	m.mu.Unlock()

	go m.run(job.ID, cfg)

	return &snapshot, nil
}

func (m *Manager) run(id string, cfg *config.Config) {
	started := m.clock()
	m.update(id, func(job *Job) {
		job.Status = StatusRunning
		job.StartedAt = &started
	})

	if m.logger != nil {
		m.logger.Info("job started", zap.String("job_id", id))
	}

	summary, err := m.runner.Run(context.Background(), cfg)

	finished := m.clock()
	m.update(id, func(job *Job) {
		job.FinishedAt = &finished
		if err != nil {
			job.Status = StatusFailed
			job.Error = err.Error()
			return
		}
		job.Status = StatusSucceeded
		job.Summary = summary
	})

	if m.logger != nil {
		if err != nil {
			m.logger.Error("job failed", zap.String("job_id", id), zap.Error(err))
		} else if summary != nil {
			m.logger.Info("job finished", zap.String("job_id", id),
				zap.Int("records", summary.TotalRecords()),
				zap.Int("failures", summary.TotalFailures()))
		}
	}
}

func (m *Manager) update(id string, apply func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		apply(job)
	}
}

// CheckHealth reports whether the manager can accept jobs.
func (m *Manager) CheckHealth(ctx context.Context) error {
	if m.runner == nil {
		return errors.New("job manager has no runner")
	}
	return nil
}

// Get returns a snapshot of the job with the given id.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// List returns snapshots of all jobs in submission order.
func (m *Manager) List() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]*Job, 0, len(m.order))
	for _, id := range m.order {
		snapshot := *m.jobs[id]
		jobs = append(jobs, &snapshot)
	}
	return jobs
}
