package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// sessionState is the per-connection lifecycle. Transitions only move
// forward: Connecting -> Joined -> Closed.
type sessionState int32

const (
	stateConnecting sessionState = iota
	stateJoined
	stateClosed
)

// session is one connected participant's room logic. join authorizes the
// client and registers membership; handleFrame processes one inbound frame
// while Joined.
type session interface {
	roomKey() string
	join() error
	handleFrame(raw []byte)
}

type Client struct {
	id       string
	conn     *websocket.Conn
	srv      *LiveServer
	log      *log.Logger
	user     types.User
	sess     session
	send     chan ServerFrame
	stop     chan struct{}
	stopOnce sync.Once
	state    atomic.Int32
}

func NewClient(user types.User, conn *websocket.Conn, srv *LiveServer, l *log.Logger) *Client {
	id, err := shortid.Generate()
	if err != nil {
		id = "unknown"
	}

	return &Client{
		id:   id,
		conn: conn,
		srv:  srv,
		log:  l,
		user: user,
		send: make(chan ServerFrame, 256),
		stop: make(chan struct{}),
	}
}

// Join runs the session's join handshake. On refusal the connection is
// closed with a policy close code before any membership is registered and
// the client transitions straight to Closed.
func (c *Client) Join(sess session) error {
	c.sess = sess
	if err := sess.join(); err != nil {
		c.log.Printf("client %s (%s): join refused: %v", c.id, c.user.Username, err)
		c.refuse(err)
		return err
	}

	c.state.Store(int32(stateJoined))
	c.srv.registerClient(c)
	return nil
}

func (c *Client) refuse(err error) {
	c.state.Store(int32(stateClosed))

	reason := "unauthorized"
	if errors.Is(err, database.ErrNotFound) {
		reason = "room not found"
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(frame)
			if err != nil {
				c.log.Println("failed to serialize frame:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		if sessionState(c.state.Load()) != stateJoined {
			break
		}

		c.sess.handleFrame(raw)
	}
}

// queueFrame enqueues an outbound frame. Returns false when the send buffer
// is full, leaving the caller to decide the client's fate.
func (c *Client) queueFrame(frame ServerFrame) bool {
	select {
	case c.send <- frame:
	default:
		c.log.Printf("client %s: send buffer full, dropping frame", c.id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup releases room membership and deregisters the client. Runs exactly
// once, on the read pump's exit, whatever the disconnect cause.
func (c *Client) cleanup() {
	if sessionState(c.state.Swap(int32(stateClosed))) == stateJoined {
		c.srv.Registry.Leave(c.sess.roomKey(), c)
		c.srv.deregisterClient(c)
	}
	c.stopClient()
}
