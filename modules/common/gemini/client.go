package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"style-transform-server/modules/common/config"
	"style-transform-server/modules/common/logger"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrMissingAPIKey - GEMINI_API_KEY 미설정
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is not set")

// NewClient - 설정된 backend 에 맞는 genai 클라이언트 생성
func NewClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	if cfg.GeminiBackend == config.BackendVertex {
		return newVertexClient(ctx, cfg)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.WithField("model", cfg.GeminiModel).Info("✅ [Gemini] Client initialized")
	return client, nil
}

// newVertexClient - Vertex AI backend (환경 변수 자동 처리)
func newVertexClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	credsJSON, err := vertexCredentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		Project:  cfg.VertexProject,
		Location: cfg.VertexLocation,
		Backend:  genai.BackendVertexAI,
	}

	if credsJSON != nil {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes:          []string{cloudPlatformScope},
			CredentialsJSON: credsJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load Vertex AI credentials: %w", err)
		}
		clientConfig.Credentials = creds
	} else {
		// Application Default Credentials (ADC) 사용
		logger.Warn("⚠️  [Gemini] No explicit Vertex AI credentials found, using Application Default Credentials")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"project":  cfg.VertexProject,
		"location": cfg.VertexLocation,
	}).Info("✅ [Gemini] Vertex AI client initialized")
	return client, nil
}

// vertexCredentialsJSON - JSON 환경변수 우선, 없으면 파일 경로, 둘 다 없으면 nil
func vertexCredentialsJSON(cfg *config.Config) ([]byte, error) {
	if cfg.VertexCredentialsJSON != "" {
		return []byte(cfg.VertexCredentialsJSON), nil
	}
	if cfg.VertexCredentialsPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(cfg.VertexCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON credentials: %w", err)
	}
	return data, nil
}
