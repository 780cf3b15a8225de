package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("泗泾", "20250101")
	if len(job.ID) != 26 {
		t.Errorf("expected 26-char id, got %q", job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestEncode(t *testing.T) {
	var b [16]byte
	if got := encode(b); got != "00000000000000000000000000" {
		t.Errorf("expected all zeros, got %q", got)
	}
	for i := range b {
		b[i] = 0xFF
	}
	if got := encode(b); got != "7ZZZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Errorf("expected max ulid, got %q", got)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("p", "20250101")

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusRunning, "starting"},
		{StatusRunning, StageHousing},
		{StatusPartial, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddStage(t *testing.T) {
	job := NewJob("p", "20250101")
	job.AddStage(StageResult{Name: StageHousing, Status: StageSuccess})
	job.AddStage(StageResult{Name: StageLand, Status: StageError, Message: "missing file"})

	snap := job.Snapshot()
	if len(snap.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(snap.Stages))
	}
	if snap.Phase != StageLand {
		t.Errorf("expected phase %q, got %q", StageLand, snap.Phase)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "land_data: missing file" {
		t.Errorf("unexpected errors %v", snap.Errors)
	}
}

func TestJob_SnapshotIsCopy(t *testing.T) {
	job := NewJob("p", "20250101")
	job.AddError("first")
	snap := job.Snapshot()
	job.AddError("second")
	if len(snap.Errors) != 1 {
		t.Errorf("expected snapshot to keep 1 error, got %d", len(snap.Errors))
	}
	if snap.Stages == nil {
		t.Error("expected empty stages slice, got nil")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("p", "20250101")
	store.Put(job)

	got := store.Get(job.ID)
	if got != job {
		t.Error("expected to retrieve the same job pointer")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for unknown job ID")
	}
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	store := NewJobStore(time.Hour)
	older := NewJob("a", "20250101")
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := NewJob("b", "20250101")
	store.Put(older)
	store.Put(newer)

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	if list[0].ID != newer.ID {
		t.Errorf("expected newest job first, got %q", list[0].Project)
	}
}

func TestJobStore_Counts(t *testing.T) {
	store := NewJobStore(time.Hour)
	a := NewJob("a", "20250101")
	b := NewJob("b", "20250101")
	b.SetStatus(StatusCompleted, "done")
	store.Put(a)
	store.Put(b)

	counts := store.Counts()
	if counts[StatusQueued] != 1 || counts[StatusCompleted] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestJobStore_Cleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	old := NewJob("old", "20250101")
	old.Status = StatusCompleted
	old.UpdatedAt = time.Now().Add(-time.Second)
	store.Put(old)

	queued := NewJob("queued", "20250101")
	queued.UpdatedAt = time.Now().Add(-time.Second)
	store.Put(queued)

	fresh := NewJob("fresh", "20250101")
	fresh.Status = StatusFailed
	store.Put(fresh)

	store.Cleanup()

	if store.Get(old.ID) != nil {
		t.Error("expected expired job to be removed")
	}
	if store.Get(queued.ID) == nil {
		t.Error("expected queued job to survive cleanup")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}
