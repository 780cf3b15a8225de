package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/workspace"
)

func TestSubmitQueueFull(t *testing.T) {
	cfg := config.Config{MaxQueueSize: 1, WorkerCount: 1, JobTTL: time.Hour, WorkRoot: t.TempDir()}
	o := NewOrchestrator(cfg, NewRunner(cfg, nil), nil)

	if err := o.Submit(NewJob("a", "20250101")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewJob("b", "20250101")
	if err := o.Submit(second); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if snap := o.GetJob(second.ID).Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected rejected job to be failed/queue_full, got %s/%s", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func waitForJob(t *testing.T, o *Orchestrator, id string) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.GetJob(id).Snapshot()
		if snap.Status != StatusQueued && snap.Status != StatusRunning {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return JobSnapshot{}
}

func TestOrchestratorRunsJobs(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{MaxQueueSize: 4, WorkerCount: 2, JobTTL: time.Hour, WorkRoot: root}
	runner := NewRunner(cfg, nil,
		WithAnalysts(func(Task, *workspace.Manifest) (Analyst, error) { return &fakeAnalyst{}, nil }),
		WithBackoff(noBackoff),
	)
	o := NewOrchestrator(cfg, runner, nil)
	o.Start(context.Background())
	defer o.Stop()

	ws, err := workspace.Parse(root, "泗泾", "20250101")
	if err != nil {
		t.Fatal(err)
	}
	writeInputs(t, ws)

	job := NewJob("泗泾", "20250101")
	if err := o.Submit(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := waitForJob(t, o, job.ID)
	if snap.Status != StatusPartial {
		t.Errorf("expected partial without land or supply workbook, got %q", snap.Status)
	}
	if len(snap.Stages) != len(StageNames()) {
		t.Errorf("expected %d stages, got %d", len(StageNames()), len(snap.Stages))
	}

	bad := NewJob("../escape", "20250101")
	if err := o.Submit(bad); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap = waitForJob(t, o, bad.ID)
	if snap.Status != StatusFailed || snap.Phase != "workspace" {
		t.Errorf("expected workspace failure, got %s/%s", snap.Status, snap.Phase)
	}

	if counts := o.JobCounts(); counts[StatusPartial] != 1 || counts[StatusFailed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if jobs := o.Jobs(); len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}
