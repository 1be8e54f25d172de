package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; the stream is one-way
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// serveWebSocket streams the backlog and then live events to one client
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.Info("WebSocket client connected", zap.String("remote_addr", remoteAddr))

	c, backlog := s.hub.subscribe()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		writePump(conn, c, backlog)
	}()

	readPump(conn)
	s.hub.unsubscribe(c)
	logging.Info("WebSocket client disconnected", zap.String("remote_addr", remoteAddr))
}

// readPump discards client messages and keeps the pong deadline fresh. It
// returns when the connection fails or the client closes it.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// writePump owns all writes to conn
func writePump(conn *websocket.Conn, c *client, backlog []Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for _, e := range backlog {
		if err := writeEvent(conn, e); err != nil {
			return
		}
	}

	for {
		select {
		case e, ok := <-c.send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := writeEvent(conn, e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, e Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(e); err != nil {
		logging.Debug("WebSocket write failed", zap.Uint64("seq", e.Seq), zap.Error(err))
		return err
	}
	return nil
}

// Stream is a client connection to a session's event stream
type Stream struct {
	conn *websocket.Conn
}

// Dial connects to the event stream at url (ws://host:port/ws)
func Dial(ctx context.Context, url string) (*Stream, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks for the next event
func (s *Stream) Next() (Event, error) {
	var e Event
	if err := s.conn.ReadJSON(&e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Close closes the connection
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Tail dials url and calls fn for each event until ctx ends or the session
// closes the stream. A normal close by the session returns nil.
func Tail(ctx context.Context, url string, fn func(Event)) error {
	stream, err := Dial(ctx, url)
	if err != nil {
		return err
	}
	defer stream.Close()

	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	for {
		e, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}
		fn(e)
	}
}
