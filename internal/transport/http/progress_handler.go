package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"assessment-scoring-service/internal/app"
	"assessment-scoring-service/internal/domain"
)

// ProgressHandler streams per-participant recalculation progress to admin
// clients over WebSocket.
type ProgressHandler struct {
	service  *app.RecalcService
	upgrader websocket.Upgrader
}

func NewProgressHandler(service *app.RecalcService) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type progressMessage struct {
	Type    string           `json:"type"`
	Payload domain.RunUpdate `json:"payload"`
}

// ServeWS upgrades the request and forwards run updates until the client
// disconnects. An optional runId query parameter narrows the stream to one
// run.
func (h *ProgressHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("runId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	// Reader loop only detects disconnects; the stream is one-way.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if runID != "" && update.RunID != runID {
				continue
			}
			msgType := "progress"
			if update.Done {
				msgType = "report"
			}
			if err := conn.WriteJSON(progressMessage{Type: msgType, Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
