package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/transform"
)

// DefaultClientTimeout - 서버 쪽 120초 제한보다 길게
const DefaultClientTimeout = 150 * time.Second

const genericTransformFailure = "failed to transform the image"

// LocalTransformer - 같은 프로세스의 transform.Service 를 직접 호출 (웹소켓 세션용)
type LocalTransformer struct {
	Service *transform.Service
}

func (l LocalTransformer) Transform(ctx context.Context, req transform.TransformRequest) (*transform.TransformResponse, error) {
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, apperr.NewValidation(apperr.ReasonMalformed, "imageBase64 is not valid base64")
	}

	artifact, err := l.Service.Transform(ctx, image, req.MimeType, req.StylePrompt)
	if err != nil {
		return nil, err
	}
	return &transform.TransformResponse{
		Image:    base64.StdEncoding.EncodeToString(artifact.Data),
		MimeType: artifact.MimeType,
	}, nil
}

// RemoteError - 변환 서버가 2xx 가 아닌 응답을 준 경우
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("transform server returned %d: %s", e.StatusCode, e.Message)
}

// HTTPTransformer - POST {baseURL}/api/transform
type HTTPTransformer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTransformer(baseURL string, client *http.Client) *HTTPTransformer {
	if client == nil {
		client = &http.Client{Timeout: DefaultClientTimeout}
	}
	return &HTTPTransformer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (h *HTTPTransformer) Transform(ctx context.Context, req transform.TransformRequest) (*transform.TransformResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/transform", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transform request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out transform.TransformResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = genericTransformFailure
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out.Error != "" {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}
