package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Working data root, one directory per project run.
	WorkRoot string

	// MinerU document parsing
	MinerUToken        string
	MinerUBaseURL      string
	MinerUModelVersion string
	MinerUMaxPolls     int
	MinerUPollInterval time.Duration

	// SiliconFlow (surrounding summary, opening sentence)
	SiliconFlowAPIKey  string
	SiliconFlowBaseURL string
	SiliconFlowModel   string

	// Vision model for floor plan images, on the SiliconFlow endpoint
	SiliconFlowVisionModel string

	// Moonshot (customer analysis with web search)
	MoonshotAPIKey  string
	MoonshotBaseURL string
	MoonshotModel   string

	// LibreOffice binary; searched on PATH when empty.
	LibreOfficePath string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("REPORTKIT_API_KEY"),

		WorkRoot: envOr("WORK_ROOT", "resources/working_data"),

		MinerUToken:        os.Getenv("MINERU_TOKEN"),
		MinerUBaseURL:      envOr("MINERU_BASE_URL", "https://mineru.net/api/v4"),
		MinerUModelVersion: envOr("MINERU_MODEL_VERSION", "vlm"),
		MinerUMaxPolls:     envInt("MINERU_MAX_POLLS", 100),
		MinerUPollInterval: envDuration("MINERU_POLL_INTERVAL", 3*time.Second),

		SiliconFlowAPIKey:  os.Getenv("SILICONFLOW_API_KEY"),
		SiliconFlowBaseURL: envOr("SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1"),
		SiliconFlowModel:   envOr("SILICONFLOW_MODEL", "deepseek-ai/DeepSeek-R1"),

		SiliconFlowVisionModel: envOr("SILICONFLOW_VISION_MODEL", "Qwen/Qwen2.5-VL-32B-Instruct"),

		MoonshotAPIKey:  os.Getenv("MOONSHOT_API_KEY"),
		MoonshotBaseURL: envOr("MOONSHOT_BASE_URL", "https://api.moonshot.cn/v1"),
		MoonshotModel:   envOr("MOONSHOT_MODEL", "kimi-k2-0905-preview"),

		LibreOfficePath: os.Getenv("LIBREOFFICE_PATH"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MinerUMaxPolls <= 0 {
		cfg.MinerUMaxPolls = 100
	}
	if cfg.MinerUPollInterval <= 0 {
		cfg.MinerUPollInterval = 3 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks what the HTTP server needs. CLI commands check their
// own credentials at the point of use.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("REPORTKIT_API_KEY is required")
	}
	if c.WorkRoot == "" {
		return fmt.Errorf("WORK_ROOT must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
