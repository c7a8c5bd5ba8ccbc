// Package ipc exposes a unix-socket control channel for the running
// daemon. Each connection carries one JSON ControlMessage; the reply,
// if any, is plain text on the same connection.
package ipc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
)

const DefaultSocketPath = "/tmp/aria.sock"

// ControlMessage is one daemon command. Cmd selects the action
// ("inject", "transcribe", "shutdown"); Arg carries its payload (the
// command text to inject, or the audio file path to transcribe).
type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

// Handler processes one control message and returns the text reply.
type Handler func(ControlMessage) string

type Server struct {
	ln   net.Listener
	path string
	log  *slog.Logger
}

// StartServer listens on path and serves control messages until Close.
// A stale socket file from a previous run is removed first.
func StartServer(path string, handler Handler) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}

	s := &Server{ln: ln, path: path, log: slog.Default().With("part", "ipc")}
	go s.accept(handler)

	s.log.Info("control socket ready", "path", path)
	return s, nil
}

func (s *Server) accept(handler Handler) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			// Accept fails permanently once the listener is closed.
			return
		}
		go s.handleConn(conn, handler)
	}
}

func (s *Server) handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.log.Warn("bad control message", "err", err)
		return
	}

	s.log.Info("control message", "cmd", msg.Cmd, "arg", msg.Arg)
	if reply := handler(msg); reply != "" {
		io.WriteString(conn, reply+"\n")
	}
}

func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

// SendCommand connects to the daemon at path, sends one message and
// returns the daemon's reply (empty when the daemon sent none).
func SendCommand(path, cmd, arg string) (string, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd, Arg: arg}); err != nil {
		return "", err
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(reply), nil
}
