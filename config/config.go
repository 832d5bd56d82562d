package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration derived from environment variables and
// an optional YAML config file. Environment variables win over file values.
type Config struct {
	HTTPPort     string
	DBPath       string
	StrictConfig bool

	QueueSize     int
	WorkerCount   int
	JobTimeoutSec int

	LLM       LLMConfig
	Translate TranslateConfig
	Geo       GeoConfig
	Data      DataConfig
	Cache     CacheConfig

	MemoryTurns int

	Keywords      KeywordConfig
	ConfigPath    string
	WatchKeywords bool
}

// LLMConfig captures generation-capability settings. An empty APIKey is a
// legitimate state: the client answers with a fixed demo-mode response.
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	TimeoutSec  int
}

// TranslateConfig points at the translation endpoint. Translation always
// fails open, so a bad endpoint degrades to English-only operation.
type TranslateConfig struct {
	BaseURL    string
	TimeoutSec int
}

// GeoConfig controls location resolution.
type GeoConfig struct {
	GeocodeBaseURL string
	TimeoutSec     int
	FallbackLat    float64
	FallbackLon    float64
	FallbackLabel  string
}

// DataConfig controls the satellite dataset fetchers.
type DataConfig struct {
	PowerBaseURL string
	LiveEnabled  bool
	LookbackDays int
	TimeoutSec   int
}

// CacheConfig holds per-concern TTLs in seconds.
type CacheConfig struct {
	FastDatasetTTLSec int
	SlowDatasetTTLSec int
	TranslationTTLSec int
	LocationTTLSec    int
	AnswerTTLSec      int
}

type fileConfig struct {
	HTTPPort string        `json:"http_port" yaml:"http_port"`
	DBPath   string        `json:"db_path" yaml:"db_path"`
	Keywords KeywordConfig `json:"keywords" yaml:"keywords"`
}

const (
	defaultPort          = ":8080"
	defaultDBFile        = "interactions.db"
	minQueueSize         = 1
	defaultQueueSize     = 100
	maxQueueSize         = 1024
	defaultWorkerCount   = 2
	defaultJobTimeoutSec = 30
	defaultMemoryTurns   = 5
	defaultLookbackDays  = 30
)

func defaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL:     "https://api.groq.com/openai",
		Model:       "openai/gpt-oss-120b",
		Temperature: 0.9,
		TimeoutSec:  45,
	}
}

func defaultCacheConfig() CacheConfig {
	return CacheConfig{
		FastDatasetTTLSec: 3600,
		SlowDatasetTTLSec: 7200,
		TranslationTTLSec: 86400,
		LocationTTLSec:    86400,
		AnswerTTLSec:      1800,
	}
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (Config, error) {
	cfg := Config{
		QueueSize:     defaultQueueSize,
		WorkerCount:   defaultWorkerCount,
		JobTimeoutSec: defaultJobTimeoutSec,
		MemoryTurns:   defaultMemoryTurns,
		StrictConfig:  parseBoolEnv("STRICT_CONFIG"),
		WatchKeywords: parseBoolEnvDefault("WATCH_KEYWORDS", true),
		LLM:           defaultLLMConfig(),
		Cache:         defaultCacheConfig(),
		Translate: TranslateConfig{
			BaseURL:    getEnv("TRANSLATE_BASE_URL", "https://translate.googleapis.com"),
			TimeoutSec: 10,
		},
		Geo: GeoConfig{
			GeocodeBaseURL: getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			TimeoutSec:     5,
			FallbackLat:    23.8103,
			FallbackLon:    90.4125,
			FallbackLabel:  "Dhaka, Bangladesh",
		},
		Data: DataConfig{
			PowerBaseURL: getEnv("NASA_POWER_BASE_URL", "https://power.larc.nasa.gov"),
			LiveEnabled:  parseBoolEnv("NASA_LIVE_ENABLED"),
			LookbackDays: defaultLookbackDays,
			TimeoutSec:   15,
		},
	}

	cfg.LLM.APIKey = firstNonEmpty(os.Getenv("GROQ_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	cfg.LLM.BaseURL = firstNonEmpty(os.Getenv("LLM_BASE_URL"), os.Getenv("OPENAI_BASE_URL"), cfg.LLM.BaseURL)
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		cfg.LLM.Model = v
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	cfg.ConfigPath = configPath

	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.HTTPPort = firstNonEmpty(os.Getenv("HTTP_PORT"), os.Getenv("PORT"), fileCfg.HTTPPort, defaultPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	} else if fileCfg.DBPath != "" {
		cfg.DBPath = fileCfg.DBPath
	} else {
		cfg.DBPath = defaultDBFile
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("invalid WORKER_COUNT=%q, using default %d", v, defaultWorkerCount)
			n = defaultWorkerCount
		}
		cfg.WorkerCount = n
	}

	if v := os.Getenv("JOB_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid JOB_QUEUE_SIZE=%q, using default %d", v, defaultQueueSize)
			n = defaultQueueSize
		}
		if n < minQueueSize {
			n = minQueueSize
		}
		if n > maxQueueSize {
			log.Printf("JOB_QUEUE_SIZE capped at %d (was %d)", maxQueueSize, n)
			n = maxQueueSize
		}
		cfg.QueueSize = n
	}
	if cfg.QueueSize < cfg.WorkerCount {
		cfg.QueueSize = maxInt(defaultQueueSize, cfg.WorkerCount)
	}

	if v, ok, err := parseIntEnv("JOB_TIMEOUT_SEC"); err != nil {
		return cfg, fmt.Errorf("invalid JOB_TIMEOUT_SEC: %w", err)
	} else if ok && v > 0 {
		cfg.JobTimeoutSec = v
	}

	if v, ok, err := parseIntEnv("MEMORY_TURNS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid MEMORY_TURNS: %w", err)
		}
		log.Printf("invalid MEMORY_TURNS: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.MemoryTurns = v
	}

	if v, ok, err := parseIntEnv("DATA_LOOKBACK_DAYS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid DATA_LOOKBACK_DAYS: %w", err)
		}
		log.Printf("invalid DATA_LOOKBACK_DAYS: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.Data.LookbackDays = v
	}

	if v, ok, err := parseFloatEnv("FALLBACK_LAT"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid FALLBACK_LAT: %w", err)
		}
		log.Printf("invalid FALLBACK_LAT: %v (using default)", err)
	} else if ok {
		cfg.Geo.FallbackLat = v
	}
	if v, ok, err := parseFloatEnv("FALLBACK_LON"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid FALLBACK_LON: %w", err)
		}
		log.Printf("invalid FALLBACK_LON: %v (using default)", err)
	} else if ok {
		cfg.Geo.FallbackLon = v
	}
	if v := strings.TrimSpace(os.Getenv("FALLBACK_LABEL")); v != "" {
		cfg.Geo.FallbackLabel = v
	}

	kw, err := LoadKeywordConfig(configPath)
	if err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("keyword config load failed (%s): %w", configPath, err)
		}
		log.Printf("keyword config load failed (%s): %v (using defaults)", configPath, err)
		kw = DefaultKeywordConfig()
	}
	cfg.Keywords = kw

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.HTTPPort) == "" {
		return errors.New("HTTP_PORT is required")
	}
	if cfg.Data.LookbackDays <= 0 {
		return errors.New("data lookback days must be positive")
	}
	if cfg.MemoryTurns <= 0 {
		return errors.New("memory turns must be positive")
	}
	if len(cfg.Keywords.Categories) == 0 {
		return errors.New("keyword config must define at least one category")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}

func parseFloatEnv(key string) (float64, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, true, err
}
