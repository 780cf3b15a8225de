package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORK_ROOT", "WORKER_COUNT", "MINERU_POLL_INTERVAL", "SILICONFLOW_MODEL", "SILICONFLOW_VISION_MODEL", "JOB_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port %q, got %q", "8090", cfg.Port)
	}
	if cfg.WorkRoot != "resources/working_data" {
		t.Errorf("expected work root %q, got %q", "resources/working_data", cfg.WorkRoot)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MinerUPollInterval != 3*time.Second {
		t.Errorf("expected 3s poll interval, got %s", cfg.MinerUPollInterval)
	}
	if cfg.SiliconFlowModel != "deepseek-ai/DeepSeek-R1" {
		t.Errorf("expected model %q, got %q", "deepseek-ai/DeepSeek-R1", cfg.SiliconFlowModel)
	}
	if cfg.SiliconFlowVisionModel != "Qwen/Qwen2.5-VL-32B-Instruct" {
		t.Errorf("expected vision model %q, got %q", "Qwen/Qwen2.5-VL-32B-Instruct", cfg.SiliconFlowVisionModel)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job ttl, got %s", cfg.JobTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MINERU_MAX_POLLS", "7")
	t.Setenv("MINERU_POLL_INTERVAL", "250ms")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected non-positive worker count to reset to 2, got %d", cfg.WorkerCount)
	}
	if cfg.MinerUMaxPolls != 7 {
		t.Errorf("expected 7 polls, got %d", cfg.MinerUMaxPolls)
	}
	if cfg.MinerUPollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.MinerUPollInterval)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback to be disabled")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Config{WorkRoot: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api key")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
