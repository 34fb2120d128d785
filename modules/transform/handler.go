package transform

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/logger"
)

type Handler struct {
	service     *Service
	maxBodySize int64
}

func NewHandler(service *Service, maxBodySize int64) *Handler {
	return &Handler{
		service:     service,
		maxBodySize: maxBodySize,
	}
}

// HandleTransform - POST /api/transform
// 이미지 + 스타일 프롬프트를 받아 변환된 이미지(base64)를 돌려준다
func (h *Handler) HandleTransform(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()
	log := logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"ip":         r.RemoteAddr,
	})

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("❌ [Transform] Invalid request")
		writeJSON(w, http.StatusBadRequest, TransformResponse{Error: "invalid request format"})
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			log.WithError(err).Warn("❌ [Transform] imageBase64 is not valid base64")
			writeError(w, apperr.NewValidation(apperr.ReasonMalformed, "imageBase64 is not valid base64"))
			return
		}
		image = decoded
	}

	artifact, err := h.service.Transform(r.Context(), image, req.MimeType, req.StylePrompt)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"kind":        apperr.KindOf(err),
			"status_code": apperr.StatusCode(err),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("❌ [Transform] Request failed")
		writeError(w, err)
		return
	}

	log.WithFields(logrus.Fields{
		"mime":        artifact.MimeType,
		"bytes":       len(artifact.Data),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("✅ [Transform] Response sent")

	writeJSON(w, http.StatusOK, TransformResponse{
		Image:    base64.StdEncoding.EncodeToString(artifact.Data),
		MimeType: artifact.MimeType,
	})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.StatusCode(err), TransformResponse{Error: apperr.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
