// Package bridge exposes a connected robot to browser dashboards over HTTP
// and WebSocket.
package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/adapter"
	"github.com/tamandutech/robotble/robot"
)

const pingInterval = 20 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Event is a frame written to WebSocket clients.
type Event struct {
	Type     string `json:"type"`
	Command  string `json:"command,omitempty"`
	CmdExecd string `json:"cmdExecd,omitempty"`
	Data     string `json:"data,omitempty"`
	Message  string `json:"message,omitempty"`
	Action   string `json:"action,omitempty"`
}

const (
	EventMessage  = "message"
	EventResponse = "response"
	EventError    = "error"
)

// CommandRequest is a frame read from WebSocket clients.
type CommandRequest struct {
	Command string `json:"command"`
}

type Server struct {
	adapter *adapter.Adapter
	robot   *robot.Robot
	log     *zap.Logger
}

// NewRouter wires the /api/v1 routes and returns a http.Handler.
func NewRouter(a *adapter.Adapter, r *robot.Robot, log *zap.Logger) http.Handler {
	s := &Server{
		adapter: a,
		robot:   r,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/state", s.getState)
	mux.HandleFunc("GET /api/v1/battery", s.getBattery)
	mux.HandleFunc("POST /api/v1/commands", s.postCommand)
	mux.HandleFunc("GET /api/v1/events", s.eventStream)

	return withLogging(log, mux)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     s.adapter.State(),
		"connected": s.adapter.Client().IsConnected(),
	})
}

func (s *Server) getBattery(w http.ResponseWriter, r *http.Request) {
	status, err := s.robot.BatteryVoltage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		http.Error(w, "invalid command", http.StatusBadRequest)
		return
	}

	msg, err := s.robot.Request(r.Context(), req.Command)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responseEvent(req.Command, msg))
}

func (s *Server) eventStream(w http.ResponseWriter, r *http.Request) {
	msgs := make(chan *robotble.Message, 64)
	failed := make(chan error, 1)
	sub, err := s.robot.Subscribe(func(msg *robotble.Message, err error) {
		if err != nil {
			select {
			case failed <- err:
			default:
			}
			return
		}
		select {
		case msgs <- msg:
		default:
			s.log.Warn("bridge: dropping message for slow client",
				zap.String("cmdExecd", msg.CmdExecd))
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Unsubscribe()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("bridge: ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	out := make(chan *Event, 16)
	done := make(chan struct{})
	go s.readCommands(r, conn, out, done)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		var evt *Event
		select {
		case msg := <-msgs:
			evt = &Event{Type: EventMessage, CmdExecd: msg.CmdExecd, Data: msg.Data}
		case e := <-out:
			evt = e
		case err := <-failed:
			conn.WriteJSON(errorEvent(err)) //nolint:errcheck
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case <-done:
			return
		case <-r.Context().Done():
			return
		}

		if err := conn.WriteJSON(evt); err != nil {
			s.log.Debug("bridge: ws write", zap.Error(err))
			return
		}
	}
}

// readCommands executes the commands sent by the client, one at a time, and
// hands the results to the write loop.
func (s *Server) readCommands(r *http.Request, conn *websocket.Conn, out chan<- *Event, done chan<- struct{}) {
	defer close(done)

	for {
		var req CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				s.log.Debug("bridge: ws read", zap.Error(err))
			}
			return
		}

		var evt *Event
		if req.Command == "" {
			evt = &Event{Type: EventError, Message: "invalid command"}
		} else if msg, err := s.robot.Request(r.Context(), req.Command); err != nil {
			evt = errorEvent(err)
		} else {
			evt = responseEvent(req.Command, msg)
		}

		select {
		case out <- evt:
		case <-r.Context().Done():
			return
		}
	}
}

func responseEvent(command string, msg *robotble.Message) *Event {
	return &Event{
		Type:     EventResponse,
		Command:  command,
		CmdExecd: msg.CmdExecd,
		Data:     msg.Data,
	}
}

func errorEvent(err error) *Event {
	evt := &Event{Type: EventError, Message: err.Error()}
	var e *robotble.Error
	if errors.As(err, &e) {
		evt.Message = e.Message
		evt.Action = e.Action
	}
	return evt
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, robotble.ErrConnection):
		code = http.StatusServiceUnavailable
	case errors.Is(err, robotble.ErrRuntime):
		code = http.StatusBadGateway
	}
	writeJSON(w, code, errorEvent(err))
}

func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rw, r)
		log.Debug("bridge",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.code),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	code int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.code = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
