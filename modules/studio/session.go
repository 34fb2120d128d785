package studio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/imageprep"
)

const (
	writeWait = 10 * time.Second
	// 10MB 원본의 base64 + JSON 여유분
	maxMessageSize = 16 * 1024 * 1024

	SessionIdleTimeout     = 30 * time.Minute
	SessionCleanupInterval = 5 * time.Minute
)

// 클라이언트 → 서버: upload, select_style, retry_style, transform, reset, download
// 서버 → 클라이언트: session, state, download, error
const (
	MsgUpload      = "upload"
	MsgSelectStyle = "select_style"
	MsgRetryStyle  = "retry_style"
	MsgTransform   = "transform"
	MsgReset       = "reset"
	MsgDownload    = "download"
	MsgSession     = "session"
	MsgState       = "state"
	MsgError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message - 웹소켓 메시지
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Data      string `json:"data,omitempty"` // base64 (upload 원본 / download JPG)
	StyleID   int    `json:"styleId,omitempty"`
	State     *State `json:"state,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"` // error 일 때 같은 입력으로 다시 시도해볼 만한지
}

// Session - 웹소켓 연결 하나 = Controller 하나
type Session struct {
	id         string
	conn       *websocket.Conn
	controller *Controller
	send       chan Message
	done       chan struct{}
	closeOnce  sync.Once
	ctx        context.Context
	cancel     context.CancelFunc

	createdAt    time.Time
	mutex        sync.RWMutex
	lastActivity time.Time
}

// MetricsSnapshot - /metrics 응답
type MetricsSnapshot struct {
	TotalSessions   int       `json:"totalSessions"`
	ActiveSessions  int       `json:"activeSessions"`
	ExpiredSessions int       `json:"expiredSessions"`
	StartTime       time.Time `json:"startTime"`
	Uptime          string    `json:"uptime"`
}

type metrics struct {
	mutex           sync.Mutex
	totalSessions   int
	expiredSessions int
	startTime       time.Time
}

// SessionManager - 활성 세션 관리
type SessionManager struct {
	transformer Transformer
	sessions    map[string]*Session
	mutex       sync.RWMutex
	metrics     *metrics
	idleTimeout time.Duration
}

func NewSessionManager(transformer Transformer) *SessionManager {
	return &SessionManager{
		transformer: transformer,
		sessions:    make(map[string]*Session),
		metrics:     &metrics{startTime: time.Now()},
		idleTimeout: SessionIdleTimeout,
	}
}

// HandleWebSocket - GET /ws
func (sm *SessionManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("❌ [Studio] WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	session := sm.newSession(conn)
	sm.addSession(session)

	logger.WithFields(logrus.Fields{
		"session_id": session.id,
		"ip":         r.RemoteAddr,
	}).Info("🔍 [Studio] New WebSocket connection")

	go session.writePump()

	st := session.controller.Snapshot()
	session.push(Message{Type: MsgSession, SessionID: session.id, State: &st})

	go session.readPump(sm)
}

func (sm *SessionManager) newSession(conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	s := &Session{
		id:           uuid.NewString(),
		conn:         conn,
		controller:   NewController(sm.transformer),
		send:         make(chan Message, 16),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		createdAt:    now,
		lastActivity: now,
	}
	s.controller.OnChange(func(st State) {
		s.push(Message{Type: MsgState, State: &st})
	})
	return s
}

func (sm *SessionManager) addSession(s *Session) {
	sm.mutex.Lock()
	sm.sessions[s.id] = s
	sm.mutex.Unlock()

	sm.metrics.mutex.Lock()
	sm.metrics.totalSessions++
	sm.metrics.mutex.Unlock()
}

func (sm *SessionManager) removeSession(id string) {
	sm.mutex.Lock()
	delete(sm.sessions, id)
	remaining := len(sm.sessions)
	sm.mutex.Unlock()

	logger.WithFields(logrus.Fields{
		"session_id": id,
		"remaining":  remaining,
	}).Info("👋 [Studio] Session closed")
}

// ActiveSessions - 현재 연결된 세션 수
func (sm *SessionManager) ActiveSessions() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.sessions)
}

// StartCleanupRoutine - 일정 시간 아무 메시지가 없는 세션 정리
func (sm *SessionManager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(SessionCleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.cleanupExpiredSessions()
			}
		}
	}()
	logger.WithField("idle_timeout", sm.idleTimeout.String()).Info("🔄 [Studio] Started session cleanup routine")
}

func (sm *SessionManager) cleanupExpiredSessions() int {
	sm.mutex.RLock()
	expired := make([]*Session, 0)
	for _, s := range sm.sessions {
		if s.idleFor() > sm.idleTimeout {
			expired = append(expired, s)
		}
	}
	sm.mutex.RUnlock()

	for _, s := range expired {
		logger.WithField("session_id", s.id).Info("🧹 [Studio] Closing idle session")
		s.close()
	}

	if len(expired) > 0 {
		sm.metrics.mutex.Lock()
		sm.metrics.expiredSessions += len(expired)
		sm.metrics.mutex.Unlock()
	}
	return len(expired)
}

// Shutdown - 모든 세션 종료
func (sm *SessionManager) Shutdown() {
	sm.mutex.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mutex.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}

// HandleSessionInfo - GET /session/{sessionId}
func (sm *SessionManager) HandleSessionInfo(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	sm.mutex.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mutex.RUnlock()

	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	st := session.controller.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"stage":     st.Stage,
		"createdAt": session.createdAt,
		"age":       time.Since(session.createdAt).String(),
		"inactive":  session.idleFor().String(),
	})
}

// HandleMetrics - GET /metrics
func (sm *SessionManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sm.Metrics())
}

func (sm *SessionManager) Metrics() MetricsSnapshot {
	sm.metrics.mutex.Lock()
	snap := MetricsSnapshot{
		TotalSessions:   sm.metrics.totalSessions,
		ExpiredSessions: sm.metrics.expiredSessions,
		StartTime:       sm.metrics.startTime,
		Uptime:          time.Since(sm.metrics.startTime).Round(time.Second).String(),
	}
	sm.metrics.mutex.Unlock()

	snap.ActiveSessions = sm.ActiveSessions()
	return snap
}

// 클라이언트로부터 메시지 읽기
func (s *Session) readPump(sm *SessionManager) {
	defer func() {
		s.close()
		sm.removeSession(s.id)
	}()

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).WithField("session_id", s.id).Warn("⚠️ [Studio] WebSocket read error")
			}
			return
		}
		s.touch()
		s.handle(msg)
	}
}

func (s *Session) handle(msg Message) {
	log := logger.WithFields(logrus.Fields{
		"session_id": s.id,
		"type":       msg.Type,
	})

	switch msg.Type {
	case MsgUpload:
		data, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			s.pushError(apperr.NewValidation(apperr.ReasonMalformed, "image data is not valid base64"))
			return
		}
		src := imageprep.Source{Name: msg.FileName, MimeType: msg.MimeType, Data: data}
		// 준비는 오래 걸릴 수 있으므로 읽기 루프를 막지 않는다
		go func() {
			if _, err := s.controller.Upload(s.ctx, src); err != nil && !errors.Is(err, ErrSuperseded) {
				log.WithError(err).Warn("❌ [Studio] Upload rejected")
				s.pushError(err)
			}
		}()

	case MsgSelectStyle:
		if err := s.controller.SelectStyle(msg.StyleID); err != nil {
			s.pushError(err)
		}

	case MsgRetryStyle:
		if err := s.controller.RetryWithNewStyle(msg.StyleID); err != nil {
			s.pushError(err)
		}

	case MsgTransform:
		go func() {
			_, err := s.controller.Transform(s.ctx)
			// 변환 실패 자체는 state(failed) 로 전달됨
			if errors.Is(err, ErrBusy) || errors.Is(err, ErrNotReady) || errors.Is(err, ErrInvalidStage) {
				s.pushError(err)
			}
		}()

	case MsgReset:
		s.controller.Reset()

	case MsgDownload:
		file, err := s.controller.Download()
		if err != nil {
			log.WithError(err).Warn("❌ [Studio] Download failed")
			s.pushError(err)
			return
		}
		s.push(Message{
			Type:     MsgDownload,
			FileName: file.Name,
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(file.Data),
		})
		log.WithField("file", file.Name).Info("💾 [Studio] Download prepared")

	default:
		s.pushError(apperr.NewValidation(apperr.ReasonMalformed, "unknown message type: "+msg.Type))
	}
}

// 클라이언트로 메시지 쓰기. conn 에 쓰는 곳은 여기 하나
func (s *Session) writePump() {
	defer s.conn.Close()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				logger.WithError(err).WithField("session_id", s.id).Warn("⚠️ [Studio] WebSocket write error")
				s.close()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (s *Session) push(msg Message) {
	select {
	case s.send <- msg:
	case <-s.done:
	}
}

func (s *Session) pushError(err error) {
	s.push(Message{Type: MsgError, Error: errorMessage(err), Retryable: retryable(err)})
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
}

func (s *Session) touch() {
	s.mutex.Lock()
	s.lastActivity = time.Now()
	s.mutex.Unlock()
}

func (s *Session) idleFor() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return time.Since(s.lastActivity)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
