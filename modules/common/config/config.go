package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"style-transform-server/modules/common/logger"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port               string
	AllowedOrigin      string
	MaxRequestBodySize int64

	// Gemini API
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBackend string

	// Vertex AI (GEMINI_BACKEND=vertex 일 때만 사용)
	VertexProject         string
	VertexLocation        string
	VertexCredentialsJSON string
	VertexCredentialsPath string

	// Transform
	TransformTimeout time.Duration

	LogLevel string
}

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		logger.Debug("⚠️  .env file not found, using environment variables")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "*"),
		MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 20*1024*1024),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "nano-banana-pro-preview"),
		GeminiBackend: strings.ToLower(getEnv("GEMINI_BACKEND", BackendGemini)),

		VertexProject:         getEnv("VERTEX_PROJECT", ""),
		VertexLocation:        getEnv("VERTEX_LOCATION", "us-central1"),
		VertexCredentialsJSON: getEnv("VERTEXAI_CREDENTIALS_JSON", ""),
		VertexCredentialsPath: getEnv("VERTEXAI_CREDENTIALS_PATH", ""),

		TransformTimeout: getEnvDuration("TRANSFORM_TIMEOUT", 120*time.Second),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// API 키가 없어도 서버는 뜨고, 변환 요청마다 500 으로 알려준다
	if cfg.GeminiBackend == BackendGemini && cfg.GeminiAPIKey == "" {
		logger.Warn("⚠️  GEMINI_API_KEY is not set, every transform request will fail until it is configured")
	}

	logger.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"model":   cfg.GeminiModel,
		"backend": cfg.GeminiBackend,
		"timeout": cfg.TransformTimeout.String(),
	}).Info("✅ Configuration loaded successfully")

	return cfg, nil
}

// validate - 형식 검증 (필수값 누락은 요청 시점에 처리)
func (c *Config) validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.TransformTimeout <= 0 {
		return fmt.Errorf("TRANSFORM_TIMEOUT must be > 0 (got %s)", c.TransformTimeout)
	}
	switch c.GeminiBackend {
	case BackendGemini:
	case BackendVertex:
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT is required when GEMINI_BACKEND=vertex")
		}
	default:
		return fmt.Errorf("unknown GEMINI_BACKEND: %q", c.GeminiBackend)
	}
	return nil
}

// ListenAddr - HTTP 서버 주소
func (c *Config) ListenAddr() string {
	return ":" + strings.TrimSpace(c.Port)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration - "90s", "2m" 형식 또는 초 단위 정수
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
