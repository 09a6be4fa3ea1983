// Package server exposes the websocket endpoints that carry call media
// and the health endpoint behind the standard middleware chain.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dentalline/voicecore/pkg/call"
)

const maxMessageBytes = 1 << 20

// Server routes call media websockets to the orchestrator.
type Server struct {
	Orchestrator *call.Orchestrator
	Registry     *call.Registry
	Logger       *slog.Logger
}

// Handler builds the full route table behind the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("/twilio/stream", s.handleTelephony)
	mux.HandleFunc("/webrtc", s.handleWebRTC)

	var h http.Handler = mux
	h = AccessLog(s.Logger, h)
	h = Recover(s.Logger, h)
	h = RequestID(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleTelephony serves the provider's media-stream websocket. Frames
// before the start event are ignored; the session loop starts on start
// and the read loop only feeds it afterwards.
func (s *Server) handleTelephony(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.Close()

	session := s.readLoop(conn, call.DecodeTelephonyFrame, func(id string) *call.Session {
		ch := call.NewTelephonyChannel(id, conn)
		sess := s.Orchestrator.StartSession(r.Context(), id, call.ChannelTelephony, ch)
		go s.Orchestrator.Run(r.Context(), sess)
		return sess
	})
	if session != nil {
		session.Hangup("transport closed")
		<-session.Done()
	}
}

// handleWebRTC serves the browser signaling websocket.
func (s *Server) handleWebRTC(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.Close()

	session := s.readLoop(conn, call.DecodeWebRTCFrame, func(id string) *call.Session {
		ch := call.NewWebRTCChannel(id, conn)
		sess := s.Orchestrator.StartSession(r.Context(), id, call.ChannelWebRTC, ch)
		go s.Orchestrator.Run(r.Context(), sess)
		return sess
	})
	if session != nil {
		session.Hangup("transport closed")
		<-session.Done()
	}
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return nil, err
	}
	conn.SetReadLimit(maxMessageBytes)
	return conn, nil
}

// readLoop decodes inbound frames and feeds them to the session. The
// session is created lazily on the first start event; the return value is
// nil if the connection closed before one arrived.
func (s *Server) readLoop(conn *websocket.Conn, decode func([]byte) (call.Event, error), start func(id string) *call.Session) *call.Session {
	var session *call.Session

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return session
		}

		ev, err := decode(data)
		if err != nil {
			s.Logger.Debug("bad inbound frame", "error", err)
			continue
		}

		switch ev.Kind {
		case call.EventStart:
			if session == nil {
				session = start(ev.CallID)
				s.Logger.Info("media stream opened", "call_id", ev.CallID)
			}
		case call.EventAudio, call.EventStop:
			if session == nil {
				continue
			}
			if !session.Deliver(ev) {
				s.Logger.Debug("dropped inbound frame", "call_id", session.ID)
			}
			if ev.Kind == call.EventStop {
				// The far end is done sending; wait for teardown.
				select {
				case <-session.Done():
				case <-time.After(15 * time.Second):
				}
				return session
			}
		}
	}
}
