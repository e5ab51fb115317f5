package net

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"pkt.systems/pslog"

	"LiveCanvas/internal/collab"
	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/protocol"
	"LiveCanvas/internal/state"
)

// ErrNotConnected is returned by sends while no room connection is up.
var ErrNotConnected = errors.New("not connected")

// errBackedUp is returned when the outbound queue is full. The connection is
// dropped and the reconnect resyncs the table.
var errBackedUp = errors.New("outbound queue full")

// Poster receives room traffic as session events.
type Poster interface {
	Post(ev collab.Event) bool
}

// Client keeps one websocket connection to a room alive and implements
// collab.Link over it.
type Client struct {
	url       string
	dialer    *websocket.Dialer
	reconnect time.Duration
	log       pslog.Logger

	mu   sync.Mutex
	out  chan protocol.Message
	stop chan struct{}
}

// NewClient creates a client for the sync endpoint of target.
func NewClient(target Target, reconnect time.Duration, log pslog.Logger) *Client {
	if reconnect <= 0 {
		reconnect = 2 * time.Second
	}
	return &Client{
		url:       target.SyncURL(),
		dialer:    websocket.DefaultDialer,
		reconnect: reconnect,
		log:       logx.WithRoom(log, target.Room),
	}
}

func (c *Client) SendOps(ops []state.Op) error {
	return c.send(protocol.Message{Type: protocol.TypeOps, Ops: ops})
}

func (c *Client) SendPresence(p state.PresenceRecord) error {
	return c.send(protocol.Message{Type: protocol.TypePresence, Presence: &p})
}

func (c *Client) SendBroadcast(ev state.ReactionEvent) error {
	return c.send(protocol.Message{Type: protocol.TypeBroadcast, Reaction: &ev})
}

func (c *Client) send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil {
		return ErrNotConnected
	}
	select {
	case c.out <- msg:
		return nil
	default:
	}
	if msg.Durable() {
		c.closeLocked()
	}
	return errBackedUp
}

func (c *Client) closeLocked() {
	if c.stop != nil {
		close(c.stop)
	}
	c.out = nil
	c.stop = nil
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out != nil
}

// Run connects, pumps messages to sink and reconnects until ctx is done.
// Every lost or failed connection is reported as collab.Disconnected.
func (c *Client) Run(ctx context.Context, sink Poster) error {
	for {
		err := c.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Debug("room connection ended", "err", err, "retry", c.reconnect)
		sink.Post(collab.Disconnected{Err: err})

		t := time.NewTimer(c.reconnect)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *Client) session(ctx context.Context, sink Poster) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	out := make(chan protocol.Message, SendBuffer)
	stop := make(chan struct{})
	c.mu.Lock()
	c.out, c.stop = out, stop
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer conn.Close()
		for {
			select {
			case msg := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	c.log.Info("connected to room", "url", c.url)
	err = c.read(conn, sink)

	c.mu.Lock()
	if c.stop == stop {
		c.closeLocked()
	}
	c.mu.Unlock()
	wg.Wait()
	return err
}

func (c *Client) read(conn *websocket.Conn, sink Poster) error {
	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		ev, ok := collab.EventFor(msg)
		if !ok {
			c.log.Debug("message ignored", "type", msg.Type)
			continue
		}
		if !sink.Post(ev) {
			return errors.New("session closed")
		}
	}
}
