package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reelmatch/chat-service/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. A user may hold several at once;
// each tracks the sessions it has joined so publishes and read receipts
// can be dispatched without a server round trip.
type Client struct {
	conn         *websocket.Conn
	chatServer   *ChatServer
	log          *log.Logger
	user         types.User
	send         chan *ServerMessage
	sessions     map[string]*Session
	sessionsLock sync.RWMutex
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		conn:       conn,
		chatServer: cs,
		log:        l,
		user:       user,
		send:       make(chan *ServerMessage, 256),
		sessions:   make(map[string]*Session),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
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

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *ClientMessage) {
	switch {
	case msg.Join != nil:
		if msg.Join.RoomId == "" {
			c.queueMessage(ErrBadRequest(msg.Id, "room_id is required"))
			return
		}

		select {
		case c.chatServer.joinChan <- msg:
		default:
			c.log.Printf("joinChan full")
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	case msg.Publish != nil:
		if msg.Publish.Content == "" {
			c.queueMessage(ErrBadRequest(msg.Id, "content is required"))
			return
		}
		c.forward(msg.Publish.RoomId, msg)
	case msg.Read != nil:
		if msg.Read.MessageId <= 0 {
			c.queueMessage(ErrBadRequest(msg.Id, "message_id is required"))
			return
		}
		c.forward(msg.Read.RoomId, msg)
	case msg.Typing != nil:
		c.forward(msg.Typing.RoomId, msg)
	case msg.StopTyping != nil:
		c.forward(msg.StopTyping.RoomId, msg)
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// forward hands a message to a session this client has already joined.
func (c *Client) forward(roomId string, msg *ClientMessage) {
	s := c.getSession(roomId)
	if s == nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case s.clientMsgChan <- msg:
	default:
		c.log.Printf("clientMsgChan full for room %q", s.roomId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
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

func (c *Client) cleanup() {
	c.chatServer.deRegisterChan <- c
	c.leaveAllSessions()
	c.stopClient()
}

func (c *Client) leaveAllSessions() {
	c.sessionsLock.RLock()
	defer c.sessionsLock.RUnlock()

	for _, s := range c.sessions {
		s.leaveChan <- &ClientMessage{
			UserId: c.user.Id,
			client: c,
		}
	}
}

func (c *Client) addSession(s *Session) {
	c.sessionsLock.Lock()
	defer c.sessionsLock.Unlock()

	c.sessions[s.roomId] = s
}

func (c *Client) delSession(roomId string) {
	c.sessionsLock.Lock()
	defer c.sessionsLock.Unlock()

	delete(c.sessions, roomId)
}

func (c *Client) getSession(roomId string) *Session {
	c.sessionsLock.RLock()
	defer c.sessionsLock.RUnlock()

	if s, ok := c.sessions[roomId]; ok {
		return s
	}

	return nil
}
