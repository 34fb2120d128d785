package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"style-transform-server/modules/common/config"
	"style-transform-server/modules/studio"
	"style-transform-server/modules/style"
	"style-transform-server/modules/transform"
)

const serviceName = "style-transform-server"

// NewRouter - 전체 라우트 설정
func NewRouter(cfg *config.Config, transformService *transform.Service, sessions *studio.SessionManager) *mux.Router {
	transformHandler := transform.NewHandler(transformService, cfg.MaxRequestBodySize)

	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS(cfg.AllowedOrigin))

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/styles", style.HandleList).Methods("GET", "OPTIONS")
	api.HandleFunc("/transform", transformHandler.HandleTransform).Methods("POST", "OPTIONS")

	// 웹소켓 스튜디오 세션
	r.HandleFunc("/ws", sessions.HandleWebSocket)
	r.HandleFunc("/session/{sessionId}", sessions.HandleSessionInfo).Methods("GET")
	r.HandleFunc("/metrics", sessions.HandleMetrics).Methods("GET")

	return r
}

// CORS 헤더 추가
func enableCORS(allowedOrigin string) mux.MiddlewareFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}
