// Package console broadcasts the assistant's spoken lines and heard
// commands over a websocket, so a browser tab can follow a session
// that otherwise only exists as audio.
package console

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one item of session traffic. Kind is "heard", "said" or
// "status".
type Event struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Server struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	httpSrv *http.Server
	ln      net.Listener

	// gorilla/websocket allows one concurrent writer per connection
	wmu sync.Mutex
}

// Start serves the console on addr. The returned server is usable
// immediately; Publish before any client connects is a no-op.
func Start(addr string) (*Server, error) {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		log:     slog.Default().With("part", "console"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s.ln = ln
	s.httpSrv = &http.Server{Handler: mux}
	go s.httpSrv.Serve(ln)

	s.log.Info("console listening", "addr", ln.Addr())
	return s, nil
}

// Addr reports the bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("console client connected", "clients", n)

	// Drain reads so pings and close frames are processed; drop the
	// client on the first read error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Publish sends one event to every connected client. Write failures
// drop the client; they never propagate to the caller.
func (s *Server) Publish(kind, text string) {
	data, err := json.Marshal(Event{Kind: kind, Text: text, At: time.Now()})
	if err != nil {
		return
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Warn("console write failed, dropping client", "err", err)
			s.drop(c)
		}
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	return s.httpSrv.Close()
}
