package pipeline

import (
	"sort"
	"sync"
	"time"
)

// JobStatus represents the state of a pipeline job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one queued pipeline run.
type Job struct {
	mu sync.Mutex

	ID      string `json:"job_id"`
	Project string `json:"project"`
	Date    string `json:"date"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	stages []StageResult
	errors []string
}

// NewJob returns a queued job for project on date (YYYYMMDD).
func NewJob(project, date string) *Job {
	now := time.Now()
	return &Job{
		ID:        NewID(),
		Project:   project,
		Date:      date,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	out := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Counts returns the number of jobs per status.
func (s *JobStore) Counts() map[JobStatus]int {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	counts := make(map[JobStatus]int)
	for _, j := range jobs {
		j.mu.Lock()
		counts[j.Status]++
		j.mu.Unlock()
	}
	return counts
}

// Cleanup removes finished jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status != StatusQueued && job.Status != StatusRunning && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// AddStage records a finished stage and moves the phase on.
func (j *Job) AddStage(sr StageResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stages = append(j.stages, sr)
	j.Phase = sr.Name
	if sr.Status == StageError {
		j.errors = append(j.errors, sr.Name+": "+sr.Message)
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	Project   string        `json:"project"`
	Date      string        `json:"date"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Stages    []StageResult `json:"stages"`
	Errors    []string      `json:"errors"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	stages := append([]StageResult{}, j.stages...)
	errs := append([]string{}, j.errors...)
	return JobSnapshot{
		ID:        j.ID,
		Project:   j.Project,
		Date:      j.Date,
		Status:    j.Status,
		Phase:     j.Phase,
		Stages:    stages,
		Errors:    errs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
