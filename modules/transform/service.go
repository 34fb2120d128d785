package transform

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/config"
	"style-transform-server/modules/common/gemini"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/common/utils"
)

const noResponsePlaceholder = "no response"

// Generator - 서비스가 사용하는 *genai.Models 의 부분 집합
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Service struct {
	generator Generator
	model     string
	timeout   time.Duration
	initErr   error
}

// NewService - 설정으로 genai 클라이언트를 만든다. 실패해도 서버는 뜨고 요청마다 500 을 돌려준다
func NewService(ctx context.Context, cfg *config.Config) *Service {
	s := &Service{
		model:   cfg.GeminiModel,
		timeout: cfg.TransformTimeout,
	}

	client, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("❌ [Transform] Failed to create Genai client")
		s.initErr = err
		return s
	}

	s.generator = client.Models
	logger.Info("✅ [Transform] Service initialized")
	return s
}

// NewServiceWithGenerator - 업스트림을 직접 주입 (테스트, 다른 backend)
func NewServiceWithGenerator(generator Generator, model string, timeout time.Duration) *Service {
	return &Service{
		generator: generator,
		model:     model,
		timeout:   timeout,
	}
}

// Transform - 이미지 + 스타일 지시문을 모델에 보내고 첫 번째 inline 이미지를 돌려준다
func (s *Service) Transform(ctx context.Context, image []byte, mimeType, styleInstruction string) (*ImageArtifact, error) {
	if s.initErr != nil {
		return nil, apperr.NewConfig(s.initErr.Error(), s.initErr)
	}
	if len(image) == 0 || mimeType == "" || styleInstruction == "" {
		return nil, apperr.NewMissingParam("required parameter is missing (imageBase64, mimeType, stylePrompt)")
	}

	prompt := ComposeInstruction(styleInstruction)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	logger.WithFields(map[string]interface{}{
		"model":  s.model,
		"mime":   mimeType,
		"bytes":  len(image),
		"prompt": utils.Preview(styleInstruction, 50),
	}).Info("🎨 [Transform] Calling upstream model")

	start := time.Now()
	resp, err := s.generate(ctx, contents, genConfig)
	if err != nil {
		return nil, err
	}

	artifact, err := NormalizeResponse(resp)
	if err != nil {
		logger.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds()).
			Warn("⚠️  [Transform] Upstream returned no image")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"mime":        artifact.MimeType,
		"bytes":       len(artifact.Data),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("✅ [Transform] Image generated")
	return artifact, nil
}

// generate - timeout 이 지나면 in-flight 호출을 취소하고 바로 504 로 돌아간다
func (s *Service) generate(ctx context.Context, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		resp *genai.GenerateContentResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.generator.GenerateContent(callCtx, s.model, contents, genConfig)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.resp, nil
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, timeoutError(r.err, s.timeout)
		}
		logger.WithError(r.err).Error("❌ [Transform] Gemini API error")
		return nil, apperr.NewUpstreamError(upstreamMessage(r.err), r.err)
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, timeoutError(callCtx.Err(), s.timeout)
		}
		return nil, apperr.NewUpstreamError("request was cancelled", callCtx.Err())
	}
}

func timeoutError(cause error, timeout time.Duration) error {
	logger.WithField("timeout", timeout.String()).Warn("⏱️  [Transform] Upstream call timed out")
	return apperr.NewUpstreamTimeout("the request timed out. please try again", cause)
}

func upstreamMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "an unknown error occurred"
}

// NormalizeResponse - 첫 번째 candidate 의 parts 에서 첫 inline 이미지를 찾는다
// parts 자체가 없으면 UpstreamEmpty, 이미지 없이 텍스트만 있으면 UpstreamTextOnly
func NormalizeResponse(resp *genai.GenerateContentResponse) (*ImageArtifact, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil ||
		resp.Candidates[0].Content == nil || resp.Candidates[0].Content.Parts == nil {
		return nil, apperr.NewUpstreamEmpty("could not find any content in the AI response")
	}

	parts := resp.Candidates[0].Content.Parts
	for _, part := range parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &ImageArtifact{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}, nil
		}
	}

	text := noResponsePlaceholder
	for _, part := range parts {
		if part != nil && part.Text != "" {
			text = part.Text
			break
		}
	}
	return nil, apperr.NewUpstreamTextOnly("image generation failed. AI response: " + text)
}
