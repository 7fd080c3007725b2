package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Redis (optional: rate limiting + session cache)
	Redis RedisConfig

	// External sources
	Naver NaverConfig

	// Screening defaults
	Screen ScreenConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// NaverConfig holds Naver Finance source configuration
type NaverConfig struct {
	BaseURL     string // HTML pages (finance.naver.com)
	APIBaseURL  string // JSON APIs (stock.naver.com)
	ChartURL    string // fchart.stock.naver.com
	HTTPTimeout time.Duration
}

// ScreenConfig holds screening run defaults
// 런타임에 immutable screen.Config로 스냅샷됨
type ScreenConfig struct {
	Workers         int     // concurrent analysis workers (2/8/15 typical)
	TopN            int     // market-cap top N symbols per run
	Variant         string  // fair value variant: blend | multiple
	SortBy          string  // gap | fundamental | deep_discount
	MinTradingValue float64 // 억 단위, 0이면 비활성
	HighlightGapPct float64 // 괴리율 강조 기준 (strict >)

	// Scheduled run ("serve" command)
	ScheduleEnabled bool
	ScheduleSpec    string // cron spec with seconds
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External sources
		Naver: NaverConfig{
			BaseURL:     getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			APIBaseURL:  getEnv("NAVER_API_BASE_URL", "https://stock.naver.com"),
			ChartURL:    getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			HTTPTimeout: getEnvAsDuration("NAVER_HTTP_TIMEOUT", "5s"),
		},

		// Screening defaults
		Screen: ScreenConfig{
			Workers:         getEnvAsInt("SCREEN_WORKERS", 8),
			TopN:            getEnvAsInt("SCREEN_TOP_N", 200),
			Variant:         getEnv("SCREEN_VARIANT", "blend"),
			SortBy:          getEnv("SCREEN_SORT_BY", "gap"),
			MinTradingValue: getEnvAsFloat("SCREEN_MIN_TRADING_VALUE", 0),
			HighlightGapPct: getEnvAsFloat("SCREEN_HIGHLIGHT_GAP_PCT", 20),
			ScheduleEnabled: getEnvAsBool("SCREEN_SCHEDULE_ENABLED", false),
			ScheduleSpec:    getEnv("SCREEN_SCHEDULE_SPEC", "0 0 18 * * MON-FRI"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screen.Workers < 1 || c.Screen.Workers > 32 {
		return fmt.Errorf("SCREEN_WORKERS must be between 1 and 32")
	}

	if c.Screen.TopN < 1 {
		return fmt.Errorf("SCREEN_TOP_N must be positive")
	}

	switch c.Screen.Variant {
	case "blend", "multiple":
	default:
		return fmt.Errorf("SCREEN_VARIANT must be one of: blend, multiple")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
