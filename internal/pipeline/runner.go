package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gemdale/reportkit/internal/config"
	"github.com/gemdale/reportkit/internal/llm"
	"github.com/gemdale/reportkit/internal/retry"
	"github.com/gemdale/reportkit/internal/workspace"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageError   StageStatus = "error"
)

// StageResult records one stage of a run.
type StageResult struct {
	Name     string        `json:"name"`
	Status   StageStatus   `json:"status"`
	Message  string        `json:"message,omitempty"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// RunResult is written to processed_data/pipeline_result.json.
type RunResult struct {
	Project    string        `json:"project"`
	Date       string        `json:"date"`
	Status     JobStatus     `json:"status"`
	Stages     []StageResult `json:"stages"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Task names the LLM job a client is built for.
type Task string

const (
	TaskSurroundings Task = "surroundings"
	TaskKaipan       Task = "kaipan"
	TaskCustomer     Task = "customer"
	TaskFloorPlan    Task = "floor_plan"
)

// Analyst is the LLM surface the stages depend on. *llm.Client
// implements it.
type Analyst interface {
	SummarizeSurroundings(ctx context.Context, text string) (string, error)
	KaipanSentence(ctx context.Context, text string) (string, error)
	CustomerAnalysis(ctx context.Context, project, address string) (string, error)
	ReviewFloorPlan(ctx context.Context, image string) (string, error)
}

// AnalystFactory builds the client for a task. It returns an error when
// the task's provider has no credentials.
type AnalystFactory func(task Task, m *workspace.Manifest) (Analyst, error)

// Runner executes the project pipeline stage by stage.
type Runner struct {
	cfg      config.Config
	log      *slog.Logger
	stats    *llm.Stats
	analysts AnalystFactory
	backoff  func(attempt int) time.Duration
	now      func() time.Time
}

type Option func(*Runner)

// WithStats records LLM latency and token usage into s.
func WithStats(s *llm.Stats) Option {
	return func(r *Runner) { r.stats = s }
}

// WithAnalysts replaces the config-driven LLM clients.
func WithAnalysts(f AnalystFactory) Option {
	return func(r *Runner) { r.analysts = f }
}

// WithBackoff replaces retry.Backoff between stage attempts.
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(r *Runner) { r.backoff = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(cfg config.Config, log *slog.Logger, opts ...Option) *Runner {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{
		cfg:     cfg,
		log:     log,
		backoff: retry.Backoff,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.analysts == nil {
		r.analysts = r.configAnalyst
	}
	return r
}

// configAnalyst builds SiliconFlow clients for the summaries and a
// Moonshot client for customer analysis. Manifest models win over the
// configured defaults.
func (r *Runner) configAnalyst(task Task, m *workspace.Manifest) (Analyst, error) {
	var opts []llm.Option
	if r.stats != nil {
		opts = append(opts, llm.WithStats(r.stats))
	}
	switch task {
	case TaskCustomer:
		model := r.cfg.MoonshotModel
		if m != nil && m.Models.Customer != "" {
			model = m.Models.Customer
		}
		c, err := llm.NewClient(r.cfg.MoonshotAPIKey, r.cfg.MoonshotBaseURL, model, r.log, opts...)
		if err != nil {
			return nil, fmt.Errorf("moonshot: %w", err)
		}
		return c, nil
	default:
		model := r.cfg.SiliconFlowModel
		if m != nil {
			if task == TaskSurroundings && m.Models.Surroundings != "" {
				model = m.Models.Surroundings
			}
			if task == TaskKaipan && m.Models.Kaipan != "" {
				model = m.Models.Kaipan
			}
			if task == TaskFloorPlan && m.Models.FloorPlan != "" {
				model = m.Models.FloorPlan
			}
		}
		if task == TaskFloorPlan {
			vision := r.cfg.SiliconFlowVisionModel
			if m != nil && m.Models.Vision != "" {
				vision = m.Models.Vision
			}
			opts = append(opts, llm.WithVisionModel(vision))
		}
		c, err := llm.NewClient(r.cfg.SiliconFlowAPIKey, r.cfg.SiliconFlowBaseURL, model, r.log, opts...)
		if err != nil {
			return nil, fmt.Errorf("siliconflow: %w", err)
		}
		return c, nil
	}
}

// Run executes every stage in order. A failed stage is recorded and the
// run moves on. The result is also written to ws.Result().
func (r *Runner) Run(ctx context.Context, ws workspace.Workspace, m *workspace.Manifest) *RunResult {
	return r.run(ctx, ws, m, nil)
}

func (r *Runner) run(ctx context.Context, ws workspace.Workspace, m *workspace.Manifest, onStage func(StageResult)) *RunResult {
	if m == nil {
		m = &workspace.Manifest{}
	}
	log := r.log.With("project", ws.Project, "date", ws.Date)
	res := &RunResult{Project: ws.Project, Date: ws.Date, StartedAt: r.now()}

	if err := ws.Ensure(); err != nil {
		log.Error("workspace unavailable", "error", err)
		res.Status = StatusFailed
		res.Stages = []StageResult{{Name: "workspace", Status: StageError, Message: err.Error()}}
		res.FinishedAt = r.now()
		return res
	}

	st := &runState{ws: ws, manifest: m}
	for _, s := range r.stages() {
		sr := StageResult{Name: s.name}
		if err := ctx.Err(); err != nil {
			sr.Status = StageError
			sr.Message = err.Error()
		} else {
			log.Info("stage started", "stage", s.name)
			start := time.Now()
			out, err := s.fn(ctx, st)
			sr.Duration = time.Since(start)
			sr.Output = out
			if err != nil {
				sr.Status = StageError
				sr.Message = err.Error()
				log.Error("stage failed", "stage", s.name, "error", err, "duration_ms", sr.Duration.Milliseconds())
			} else {
				sr.Status = StageSuccess
				log.Info("stage completed", "stage", s.name, "duration_ms", sr.Duration.Milliseconds())
			}
		}
		res.Stages = append(res.Stages, sr)
		if onStage != nil {
			onStage(sr)
		}
	}

	res.Status = overallStatus(res.Stages)
	res.FinishedAt = r.now()
	if err := writeResult(ws.Result(), res); err != nil {
		log.Warn("write pipeline result", "error", err)
	}
	log.Info("pipeline finished", "status", res.Status)
	return res
}

func overallStatus(stages []StageResult) JobStatus {
	ok := 0
	for _, s := range stages {
		if s.Status == StageSuccess {
			ok++
		}
	}
	switch {
	case ok == len(stages):
		return StatusCompleted
	case ok == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

func writeResult(path string, res *RunResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// withRetry runs fn up to retry.MaxRetries times while it fails with a
// retryable error.
func (r *Runner) withRetry(ctx context.Context, stage string, fn func() error) error {
	var err error
	for attempt := range retry.MaxRetries {
		err = fn()
		if err == nil || !retry.IsRetryable(err) {
			return err
		}
		r.log.Warn("retryable stage error", "stage", stage, "attempt", attempt, "error", err)
		if attempt == retry.MaxRetries-1 {
			break
		}
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
