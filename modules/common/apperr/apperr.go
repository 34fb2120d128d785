package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind - 에러 분류
type Kind string

const (
	KindValidation       Kind = "validation"
	KindDecode           Kind = "decode"
	KindLoad             Kind = "load"
	KindEncode           Kind = "encode"
	KindMissingParam     Kind = "missing_param"
	KindUpstreamTimeout  Kind = "upstream_timeout"
	KindUpstreamEmpty    Kind = "upstream_empty"
	KindUpstreamTextOnly Kind = "upstream_text_only"
	KindUpstreamError    Kind = "upstream_error"
	KindConfig           Kind = "config"
)

// Reason - validation 에러의 세부 원인
type Reason string

const (
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonTooLarge        Reason = "too_large"
	ReasonMalformed       Reason = "malformed"
)

// AppError - 경계에서 사용자 메시지 하나로 바뀌는 구조화된 에러
type AppError struct {
	Kind       Kind
	Reason     Reason
	Message    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable - 같은 입력으로 다시 시도해볼 만한 에러인지
func (e *AppError) Retryable() bool {
	switch e.Kind {
	case KindValidation, KindMissingParam, KindConfig:
		return false
	default:
		return true
	}
}

func newError(kind Kind, status int, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, StatusCode: status, Cause: cause}
}

func NewValidation(reason Reason, message string) *AppError {
	e := newError(KindValidation, http.StatusBadRequest, message, nil)
	e.Reason = reason
	return e
}

func NewDecode(message string, cause error) *AppError {
	return newError(KindDecode, http.StatusUnprocessableEntity, message, cause)
}

func NewLoad(message string, cause error) *AppError {
	return newError(KindLoad, http.StatusUnprocessableEntity, message, cause)
}

func NewEncode(message string, cause error) *AppError {
	return newError(KindEncode, http.StatusInternalServerError, message, cause)
}

func NewMissingParam(message string) *AppError {
	return newError(KindMissingParam, http.StatusBadRequest, message, nil)
}

func NewUpstreamTimeout(message string, cause error) *AppError {
	return newError(KindUpstreamTimeout, http.StatusGatewayTimeout, message, cause)
}

func NewUpstreamEmpty(message string) *AppError {
	return newError(KindUpstreamEmpty, http.StatusInternalServerError, message, nil)
}

func NewUpstreamTextOnly(message string) *AppError {
	return newError(KindUpstreamTextOnly, http.StatusInternalServerError, message, nil)
}

func NewUpstreamError(message string, cause error) *AppError {
	return newError(KindUpstreamError, http.StatusInternalServerError, message, cause)
}

func NewConfig(message string, cause error) *AppError {
	return newError(KindConfig, http.StatusInternalServerError, message, cause)
}

// As - err 체인에서 AppError 찾기
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf - AppError 가 아니면 빈 문자열
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

// StatusCode - HTTP 상태 코드 추출 (기본 500)
func StatusCode(err error) int {
	if appErr, ok := As(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage - 네트워크 경계를 넘어가는 메시지 (Cause 는 포함하지 않음)
func UserMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "unexpected error occurred"
}
