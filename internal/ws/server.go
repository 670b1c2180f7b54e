// Package ws accepts host envelopes over a websocket, one envelope per text
// frame.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"goldledger/internal/host"
)

const writeWait = 5 * time.Second

// Submitter queues decoded envelopes for the engine.
type Submitter interface {
	Submit(envs ...host.Envelope) error
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type Server struct {
	bridge   Submitter
	upgrader websocket.Upgrader
	maxBytes int64

	mu      sync.Mutex
	clients map[*Client]bool
}

func NewServer(bridge Submitter, maxMessageKB int) *Server {
	if maxMessageKB <= 0 {
		maxMessageKB = 256
	}
	return &Server{
		bridge:   bridge,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		maxBytes: int64(maxMessageKB) * 1024,
		clients:  map[*Client]bool{},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(s.maxBytes)
	client := &Client{conn: conn, send: make(chan []byte, 8)}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	log.Info().Str("remote", r.RemoteAddr).Msg("host connected")

	go s.writeLoop(client)
	s.readLoop(client)
}

// Clients returns the number of connected hosts.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every host.
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		_ = c.conn.Close()
	}
}

func (s *Server) readLoop(c *Client) {
	defer s.unregister(c)

	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("host connection dropped")
			}
			return
		}
		if typ != websocket.TextMessage {
			s.reply(c, Ack{Error: errTextOnly})
			continue
		}
		env, err := host.DecodeOne(msg)
		if err != nil {
			host.RecordRejected()
			log.Debug().Err(err).Msg("envelope rejected")
			s.reply(c, Ack{Error: errInvalidEnvelope, Detail: err.Error()})
			continue
		}
		if err := s.bridge.Submit(env); err != nil {
			s.reply(c, Ack{Error: errEngineStopped})
			if errors.Is(err, host.ErrClosed) {
				return
			}
			continue
		}
		s.reply(c, Ack{Ok: true})
	}
}

// writeLoop owns closing the connection so queued acks are flushed first.
func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.conn.Close()
		}
	}
	_ = c.conn.Close()
}

func (s *Server) reply(c *Client, ack Ack) {
	b, err := json.Marshal(ack)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
		log.Warn().Msg("host reply dropped: send buffer full")
	}
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clients[c] {
		return
	}
	delete(s.clients, c)
	close(c.send)
	log.Info().Msg("host disconnected")
}
