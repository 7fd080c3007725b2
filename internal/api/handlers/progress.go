package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wonny/valuescan/backend/pkg/logger"
)

// ProgressEvent is one completed/total update pushed to subscribers
type ProgressEvent struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressHub broadcasts screening progress over websocket
// ⭐ SSOT: 진행률 브로드캐스트는 여기서만
type ProgressHub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewProgressHub creates a progress hub
func NewProgressHub(log *logger.Logger) *ProgressHub {
	return &ProgressHub{
		logger: log.WithField("module", "progress_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 결과는 공개 스크리닝 데이터라 origin 제한 없음
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeWS upgrades the connection and registers a subscriber
func (h *ProgressHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	h.logger.Debug("Progress subscriber connected")

	// Reader loop: 클라이언트가 끊으면 해제
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a progress event to every subscriber.
// 느린/끊긴 클라이언트는 제거만 하고 배치는 계속된다.
func (h *ProgressHub) Broadcast(done, total int) {
	event := ProgressEvent{Done: done, Total: total}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// remove drops one subscriber
func (h *ProgressHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.clients, conn)
}
