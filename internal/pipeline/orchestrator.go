package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/workspace"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator runs queued pipeline jobs on a fixed pool of workers.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	runner *Runner
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, runner *Runner, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		runner: runner,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a job. The job stays visible as failed when the queue
// is full.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return ErrQueueFull
	}
}

func (o *Orchestrator) process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "project", job.Project, "date", job.Date)

	ws, err := workspace.Parse(o.cfg.WorkRoot, job.Project, job.Date)
	if err != nil {
		log.Error("invalid job", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "workspace")
		return
	}
	m, err := workspace.LoadManifest(ws.Dir())
	if err != nil {
		log.Error("manifest unreadable", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "manifest")
		return
	}
	ws = ws.WithInputs(m.Inputs)

	job.SetStatus(StatusRunning, "starting")
	res := o.runner.run(ctx, ws, m, job.AddStage)
	job.SetStatus(res.Status, "done")
	log.Info("job finished", "status", res.Status)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns snapshots of all known jobs, newest first.
func (o *Orchestrator) Jobs() []JobSnapshot {
	return o.jobs.List()
}

// JobCounts returns the number of jobs per status.
func (o *Orchestrator) JobCounts() map[JobStatus]int {
	return o.jobs.Counts()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
