package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"faceguard/internal/analyzer"
	"faceguard/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades GET /ws/detections/{videoId} into a socket that streams
// the same progress/results/error records analyzer.Run produces, as a
// transport alternative to the NDJSON endpoint.
type Handler struct {
	store    *store.Store
	analyzer *analyzer.Analyzer
}

// NewHandler builds a Handler over the given store and analyzer.
func NewHandler(st *store.Store, an *analyzer.Analyzer) *Handler {
	return &Handler{store: st, analyzer: an}
}

// ServeHTTP handles the WebSocket upgrade. Expected path format:
// /ws/detections/{videoId}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/ws/detections/"), "/")
	if videoID == "" {
		http.Error(w, "videoId required", http.StatusBadRequest)
		return
	}

	sampleRate := 1
	if raw := r.URL.Query().Get("sample_rate"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			sampleRate = n
		}
	}

	asset, err := h.store.Get(videoID)
	if err == store.ErrNotFound {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	_ = h.store.Touch(videoID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	go h.run(conn, videoID, asset.InputPath, sampleRate)
}

// run drives one analysis over the socket's lifetime: a writer goroutine
// streams analyzer.Record frames while readPump watches for a cancel
// control frame or disconnection.
func (h *Handler) run(conn *websocket.Conn, videoID, inputPath string, sampleRate int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer conn.Close()

	go h.readPump(conn, cancel)

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	records := h.analyzer.Run(ctx, inputPath, sampleRate)
	for rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			log.Printf("[WS] marshal record for %s: %v", videoID, err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			cancel()
			return
		}
	}
}

// readPump watches for {"type":"cancel"} control frames or a closed
// connection, cancelling the in-flight analysis either way, with the usual
// ping/pong keepalive deadline management.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			return
		}
		var msg controlMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == controlTypeCancel {
			cancel()
			return
		}
	}
}
