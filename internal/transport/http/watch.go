package http

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/internal/pkg/logger"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dev tooling connects from arbitrary local origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes compile outcomes to subscribed watch clients. The IR stays
// out of the stream; a watcher fetches it from the registry endpoints.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

type watchEvent struct {
	Event          string            `json:"event"`
	Name           string            `json:"name,omitempty"`
	State          string            `json:"state"`
	FailedStage    string            `json:"failedStage,omitempty"`
	DescriptorHash string            `json:"descriptorHash"`
	ContentHash    string            `json:"contentHash,omitempty"`
	ExitCode       int               `json:"exitCode"`
	Diagnostics    []diag.Diagnostic `json:"diagnostics"`
}

func (h *Hub) BroadcastCompile(name string, resp port.CompileResponse) {
	if h == nil {
		return
	}
	h.broadcast(watchEvent{
		Event:          "compile",
		Name:           name,
		State:          resp.State,
		FailedStage:    resp.FailedStage,
		DescriptorHash: resp.DescriptorHash,
		ContentHash:    resp.ContentHash,
		ExitCode:       resp.ExitCode,
		Diagnostics:    resp.Diagnostics,
	})
}

func (h *Hub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Watch upgrades the connection and streams compile outcomes until the
// client goes away.
func (h *Hub) Watch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.From(r.Context()).Warn("watch upgrade failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	go h.reader(conn)
}

// reader drains the connection so close frames are seen promptly.
func (h *Hub) reader(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount reports active watchers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
