package net

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"pkt.systems/pslog"

	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/protocol"
	"LiveCanvas/internal/room"
)

const (
	// SendBuffer is how many messages may wait for a slow connection before
	// the room drops it.
	SendBuffer = 256

	writeWait       = 10 * time.Second
	maxMessageSize  = 8 << 20
	shutdownTimeout = 5 * time.Second
)

// Server exposes rooms over websockets.
type Server struct {
	rooms    *room.Manager
	log      pslog.Logger
	upgrader websocket.Upgrader
}

func NewServer(rooms *room.Manager, log pslog.Logger) *Server {
	return &Server{
		rooms: rooms,
		log:   logx.OrDefault(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.health)
	r.Methods(http.MethodGet).Path("/rooms/{room}/latest").HandlerFunc(s.latest)
	r.Methods(http.MethodGet).Path("/rooms/{room}/sync").HandlerFunc(s.sync)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.Debug("handled", "method", r.Method, "url", r.URL.String(), "duration", m.Duration, "status", m.Code)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.rooms.Lookup(mux.Vars(r)["room"])
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rm.Records()); err != nil {
		logx.WithRoom(s.log, rm.ID()).Warn("failed to write records", "err", err)
	}
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rm := s.rooms.Room(ctx, mux.Vars(r)["room"])
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.WithRoom(s.log, rm.ID()).Warn("failed to upgrade", "err", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	peer := newPeer(conn, SendBuffer)
	id := rm.Join(peer)
	log := logx.WithConn(logx.WithRoom(s.log, rm.ID()), id)
	go peer.writeLoop(log)
	defer rm.Leave(id)
	defer peer.Close()

	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection read failed", "err", err)
			}
			return
		}
		rm.Handle(id, msg)
	}
}

// wsPeer adapts a websocket connection to room.Peer. Messages are queued and
// written by a dedicated goroutine so the room never waits on the network.
type wsPeer struct {
	conn *websocket.Conn
	send chan protocol.Message
	done chan struct{}
	once sync.Once
}

func newPeer(conn *websocket.Conn, buffer int) *wsPeer {
	return &wsPeer{
		conn: conn,
		send: make(chan protocol.Message, buffer),
		done: make(chan struct{}),
	}
}

func (p *wsPeer) Deliver(msg protocol.Message) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- msg:
		return true
	default:
		return false
	}
}

func (p *wsPeer) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *wsPeer) writeLoop(log pslog.Logger) {
	defer p.conn.Close()
	for {
		select {
		case msg := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				log.Debug("connection write failed", "err", err)
				p.Close()
				return
			}
		case <-p.done:
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// ListenAndServe starts an HTTP server and shuts it down on context cancellation.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, handler)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	logger := pslog.Ctx(ctx)
	server := &http.Server{
		Handler:  handler,
		ErrorLog: pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
