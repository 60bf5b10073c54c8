// Package server exposes the pipeline over a local HTTP control surface and
// streams caption updates to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/caption"
	"github.com/sublive/sublive/internal/types"
	"github.com/sublive/sublive/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Local control surface only; the listener binds loopback.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server serves pipeline control and the caption feed.
type Server struct {
	pipe *pipeline.Pipeline
	http *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]chan types.CaptionUpdate
	meeting *audiosource.MeetingSession
}

// New creates a server bound to addr. Call Subscribe on the renderer before
// starting the pipeline so no updates are missed.
func New(addr string, pipe *pipeline.Pipeline) *Server {
	s := &Server{
		pipe:    pipe,
		clients: make(map[*websocket.Conn]chan types.CaptionUpdate),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("POST /language", s.handleLanguage)
	mux.HandleFunc("GET /captions", s.handleCaptions)
	mux.HandleFunc("POST /meeting/offer", s.handleMeetingOffer)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// AttachMeeting enables the meeting signaling endpoint.
func (s *Server) AttachMeeting(sess *audiosource.MeetingSession) {
	s.mu.Lock()
	s.meeting = sess
	s.mu.Unlock()
}

// Subscribe wires the server into the renderer's update stream.
func (s *Server) Subscribe(r *caption.Renderer) {
	r.OnUpdate(s.broadcast)
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("control server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server and closes all caption feeds.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		close(ch)
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	return s.http.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipe.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.pipe.Start(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pipe.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.pipe.Stop(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNotRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pipe.Status())
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, errors.New("target required"))
		return
	}
	s.pipe.SetTargetLanguage(req.Target)
	writeJSON(w, http.StatusOK, s.pipe.Status())
}

func (s *Server) handleMeetingOffer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess := s.meeting
	s.mu.Unlock()
	if sess == nil {
		writeError(w, http.StatusConflict, errors.New("no meeting audio source configured"))
		return
	}

	var req struct {
		SDP string `json:"sdp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SDP == "" {
		writeError(w, http.StatusBadRequest, errors.New("sdp required"))
		return
	}

	answer, err := sess.Answer(req.SDP)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sdp": answer})
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	ch := make(chan types.CaptionUpdate, 16)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[conn]; ok {
			close(ch)
			delete(s.clients, conn)
		}
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard client messages so pings are answered and closes
	// are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for update := range ch {
		if err := conn.WriteJSON(update); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("caption feed write failed", "error", err)
			}
			return
		}
	}
}

// broadcast fans a renderer update out to every connected client. Slow
// clients drop updates rather than stalling the renderer.
func (s *Server) broadcast(lines []caption.Line) {
	update := types.CaptionUpdate{
		Lines: make([]types.CaptionLine, len(lines)),
		At:    time.Now(),
	}
	for i, l := range lines {
		update.Lines[i] = types.CaptionLine{Text: l.Text, Speaker: l.Speaker}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- update:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
