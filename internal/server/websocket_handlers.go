package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the reverse proxy in deployment.
		return true
	},
}

// WebSocketScanRequest is a scan request sent over the socket. Image holds
// the raw encoded file; encoding/json transports it as base64.
type WebSocketScanRequest struct {
	Image     []byte `json:"image"`
	Filename  string `json:"filename,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WebSocketScanResponse is a scan response sent over the socket.
type WebSocketScanResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Result    *ScanResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// scanWebSocketHandler handles WebSocket connections for interactive
// scanning sessions.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("websocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r, conn)
}

func (s *Server) handleWebSocketConnection(r *http.Request, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(r, conn, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(r *http.Request, conn *websocket.Conn, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", fmt.Sprintf("failed to parse request: %v", err))
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "no image data provided")
		return
	}
	if int64(len(req.Image)) > s.maxUploadMB*1024*1024 {
		s.sendWebSocketError(conn, requestID, "image too large")
		return
	}

	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "processing",
		RequestID: requestID,
	})

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		scanRequestsTotal.WithLabelValues("ws", "error").Inc()
		s.sendWebSocketError(conn, requestID, "invalid image format")
		return
	}

	start := time.Now()
	procResult, err := s.pipeline.Process(r.Context(), img)
	if err != nil {
		scanRequestsTotal.WithLabelValues("ws", "error").Inc()
		s.sendWebSocketError(conn, requestID, fmt.Sprintf("processing failed: %v", err))
		return
	}
	scanProcessingDuration.WithLabelValues("ws").Observe(time.Since(start).Seconds())

	result := &ScanResult{Fields: procResult.Fields, Text: procResult.Text}
	if s.store != nil && !procResult.Fields.IsEmpty() {
		if product, err := s.store.SaveProduct(r.Context(), procResult.Fields); err == nil {
			result.ProductID = product.ID
		}
	}

	scanRequestsTotal.WithLabelValues("ws", "success").Inc()
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "completed",
		Result:    result,
		RequestID: requestID,
	})
}

func (s *Server) sendWebSocketResponse(conn *websocket.Conn, resp WebSocketScanResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal websocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("failed to write websocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn *websocket.Conn, requestID, message string) {
	s.sendWebSocketResponse(conn, WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "error",
		Error:     message,
		RequestID: requestID,
	})
}
