package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// AIConfig holds the DeepSeek analysis client configuration.
type AIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	RequestTimeout  time.Duration
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	MaxSectionChars int // section text sent for metadata analysis is truncated to this
	SampleChars     int // per-page excerpt length for sectioning suggestions
	MaxSections     int
}

// OCRConfig holds coverage-analysis thresholds and OCR rendering parameters.
// The thresholds are heuristics tuned on Turkish regulatory PDFs; they are
// deliberately configurable rather than constants.
type OCRConfig struct {
	DPI          int
	Languages    []string
	SamplePages  int
	MinCoverage  float64 // below this fraction of text-bearing pages, OCR kicks in
	MinAvgChars  float64 // average chars/page below this means headings-only scans
	MinPageChars int     // a page "has text" above this many trimmed chars
}

// SectioningConfig holds page-range sectioning bounds.
type SectioningConfig struct {
	MinPages         int
	MaxPages         int
	FallbackMinPages int
	FallbackParts    int
}

// MongoConfig holds MongoDB connectivity for the portal metadata inventory.
type MongoConfig struct {
	URI                string
	Database           string
	MetadataCollection string
	ConnectTimeout     time.Duration
}

// PortalAPIConfig holds the remote document API (first inventory + upload target).
type PortalAPIConfig struct {
	BaseURL       string
	Email         string
	Password      string
	PageLimit     int
	MaxListPages  int
	ListTimeout   time.Duration
	UploadTimeout time.Duration
}

// BunnyConfig holds Bunny.net storage settings.
type BunnyConfig struct {
	APIKey      string
	StorageZone string
	RegionHost  string
	CDNEndpoint string
	Folder      string
	Timeout     time.Duration
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
	RedisURL     string
	Stream       string
	Group        string
	PollInterval time.Duration
}

// ScraperConfig holds the portal scraper HTTP settings.
type ScraperConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging    LoggingConfig
	Axiom      AxiomConfig
	AI         AIConfig
	OCR        OCRConfig
	Sectioning SectioningConfig
	Mongo      MongoConfig
	PortalAPI  PortalAPIConfig
	Bunny      BunnyConfig
	Queue      QueueConfig
	Scraper    ScraperConfig
	OutputDir  string
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/regproc.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_regproc",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.AI = AIConfig{
		APIKey:          getEnv("DEEPSEEK_API_KEY", ""),
		BaseURL:         getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		Model:           getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		RequestTimeout:  parseDuration(getEnv("AI_REQUEST_TIMEOUT", "120s"), 120*time.Second),
		MaxAttempts:     parseInt(getEnv("AI_MAX_ATTEMPTS", "3"), 3),
		RetryBaseDelay:  parseDuration(getEnv("AI_RETRY_BASE_DELAY", "2s"), 2*time.Second),
		MaxSectionChars: parseInt(getEnv("AI_MAX_SECTION_CHARS", "8000"), 8000),
		SampleChars:     parseInt(getEnv("AI_SAMPLE_CHARS", "500"), 500),
		MaxSections:     parseInt(getEnv("AI_MAX_SECTIONS", "15"), 15),
	}

	cfg.OCR = OCRConfig{
		DPI:          parseInt(getEnv("OCR_DPI", "300"), 300),
		Languages:    splitList(getEnv("OCR_LANGUAGES", "tur,eng")),
		SamplePages:  parseInt(getEnv("COVERAGE_SAMPLE_PAGES", "10"), 10),
		MinCoverage:  parseFloat(getEnv("COVERAGE_MIN_RATIO", "0.3"), 0.3),
		MinAvgChars:  parseFloat(getEnv("COVERAGE_MIN_AVG_CHARS", "300"), 300),
		MinPageChars: parseInt(getEnv("COVERAGE_MIN_PAGE_CHARS", "10"), 10),
	}

	cfg.Sectioning = SectioningConfig{
		MinPages:         parseInt(getEnv("SECTION_MIN_PAGES", "3"), 3),
		MaxPages:         parseInt(getEnv("SECTION_MAX_PAGES", "10"), 10),
		FallbackMinPages: parseInt(getEnv("SECTION_FALLBACK_MIN_PAGES", "5"), 5),
		FallbackParts:    parseInt(getEnv("SECTION_FALLBACK_PARTS", "5"), 5),
	}

	cfg.Mongo = MongoConfig{
		URI:                getEnv("MONGODB_CONNECTION_STRING", ""),
		Database:           getEnv("MONGODB_DATABASE", "mevzuatgpt"),
		MetadataCollection: getEnv("MONGODB_METADATA_COLLECTION", "metadata"),
		ConnectTimeout:     parseDuration(getEnv("MONGODB_CONNECT_TIMEOUT", "5s"), 5*time.Second),
	}

	cfg.PortalAPI = PortalAPIConfig{
		BaseURL:       getEnv("PORTAL_API_BASE_URL", ""),
		Email:         getEnv("PORTAL_ADMIN_EMAIL", ""),
		Password:      getEnv("PORTAL_ADMIN_PASSWORD", ""),
		PageLimit:     parseInt(getEnv("PORTAL_API_PAGE_LIMIT", "100"), 100),
		MaxListPages:  parseInt(getEnv("PORTAL_API_MAX_LIST_PAGES", "50"), 50),
		ListTimeout:   parseDuration(getEnv("PORTAL_API_LIST_TIMEOUT", "60s"), 60*time.Second),
		UploadTimeout: parseDuration(getEnv("PORTAL_API_UPLOAD_TIMEOUT", "300s"), 300*time.Second),
	}

	cfg.Bunny = BunnyConfig{
		APIKey:      getEnv("BUNNY_STORAGE_API_KEY", ""),
		StorageZone: getEnv("BUNNY_STORAGE_ZONE", "mevzuatgpt"),
		RegionHost:  getEnv("BUNNY_STORAGE_REGION", "storage.bunnycdn.com"),
		CDNEndpoint: getEnv("BUNNY_STORAGE_ENDPOINT", "https://cdn.mevzuatgpt.org"),
		Folder:      getEnv("BUNNY_STORAGE_FOLDER", "portal"),
		Timeout:     parseDuration(getEnv("BUNNY_TIMEOUT", "60s"), 60*time.Second),
	}

	cfg.Queue = QueueConfig{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		Stream:       getEnv("QUEUE_STREAM", "jobs:portal:process"),
		Group:        getEnv("QUEUE_GROUP", "workers:portal"),
		PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
	}

	cfg.Scraper = ScraperConfig{
		UserAgent: getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		Timeout:   parseDuration(getEnv("SCRAPER_TIMEOUT", "60s"), 60*time.Second),
	}

	cfg.OutputDir = getEnv("OUTPUT_DIR", "pdf_output")

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
