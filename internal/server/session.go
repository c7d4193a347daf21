package server

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/reelmatch/chat-service/internal/chat"
)

const idleSessionTimeout = 30 * time.Second

type exitReq struct {
	done chan struct{}
}

// Session is the per-room actor. It serializes all gateway operations
// for one room: joins, publishes, read receipts, typing signals and bus
// events all pass through its run loop. Moderation and persistence rules
// are enforced by the chat service, never here.
type Session struct {
	roomId        string
	cs            *ChatServer
	joinChan      chan *ClientMessage
	leaveChan     chan *ClientMessage
	clientMsgChan chan *ClientMessage
	eventChan     chan *ServerMessage
	clients       map[*Client]struct{}
	userMap       map[int]map[*Client]struct{}
	clientLock    sync.RWMutex
	log           *log.Logger
	// killTimer unloads the session once no clients remain
	killTimer *time.Timer
	exit      chan exitReq
	done      chan struct{}
}

func newSession(cs *ChatServer, roomId string) *Session {
	return &Session{
		roomId:        roomId,
		cs:            cs,
		joinChan:      make(chan *ClientMessage, 256),
		leaveChan:     make(chan *ClientMessage, 256),
		clientMsgChan: make(chan *ClientMessage, 256),
		eventChan:     make(chan *ServerMessage, 256),
		clients:       make(map[*Client]struct{}),
		userMap:       make(map[int]map[*Client]struct{}),
		log:           cs.log,
		exit:          make(chan exitReq),
		done:          make(chan struct{}),
	}
}

func (s *Session) run() {
	s.log.Printf("starting session for room %q", s.roomId)
	if s.killTimer == nil {
		s.killTimer = time.NewTimer(idleSessionTimeout)
	}

	for {
		select {
		case join := <-s.joinChan:
			s.handleJoin(join)
		case leaveMsg := <-s.leaveChan:
			s.handleLeave(leaveMsg)
		case msg := <-s.clientMsgChan:
			switch {
			case msg.Publish != nil:
				s.handlePublish(msg)
			case msg.Read != nil:
				s.handleRead(msg)
			case msg.Typing != nil:
				s.handleTyping(msg, false)
			case msg.StopTyping != nil:
				s.handleTyping(msg, true)
			}
		case ev := <-s.eventChan:
			s.broadcast(ev)
		case <-s.killTimer.C:
			s.log.Printf("session for room %q timed out", s.roomId)
			s.cs.unloadChan <- s.roomId
		case e, ok := <-s.exit:
			s.log.Printf("session for room %q is exiting", s.roomId)
			if ok && e.done != nil {
				close(e.done)
			}
			close(s.done)
			return
		}
	}
}

func (s *Session) handleJoin(join *ClientMessage) {
	s.killTimer.Stop()

	room, err := s.cs.svc.AuthorizeJoin(s.roomId, join.UserId)
	if err != nil {
		join.client.queueMessage(serviceError(join.Id, err))
		if len(s.clients) == 0 {
			s.killTimer.Reset(idleSessionTimeout)
		}
		return
	}

	s.addClient(join.client)
	join.client.queueMessage(NoErrOK(join.Id, room))
}

// handleLeave detaches a disconnecting client. Leaves are only generated
// by connection cleanup, so no response is sent.
func (s *Session) handleLeave(leaveMsg *ClientMessage) {
	s.removeClient(leaveMsg.client)
}

// handlePublish runs the full send path: moderation checks, content
// filtering and persistence happen in the chat service, and only the
// stored message goes to the bus. Raw client payloads are never relayed.
func (s *Session) handlePublish(msg *ClientMessage) {
	m, err := s.cs.svc.SendMessage(s.roomId, msg.UserId, msg.Publish.Content)
	if err != nil {
		msg.client.queueMessage(serviceError(msg.Id, err))
		return
	}

	msg.client.queueMessage(NoErrOK(msg.Id, m))
	s.cs.stats.Incr("MessagesPublished")

	if err := s.cs.bus.Publish(RoomEvent{RoomId: s.roomId, Message: &m}); err != nil {
		s.log.Printf("publish message event for room %q: %v", s.roomId, err)
		// bus is down, deliver to local clients at least
		s.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Message:     &m,
		})
	}
}

func (s *Session) handleRead(msg *ClientMessage) {
	m, err := s.cs.svc.MarkRead(s.roomId, msg.Read.MessageId, msg.UserId)
	if err != nil {
		msg.client.queueMessage(serviceError(msg.Id, err))
		return
	}

	msg.client.queueMessage(NoErrOK(msg.Id, nil))

	ev := RoomEvent{
		RoomId: s.roomId,
		Notification: &Notification{
			MessageSeen: &MessageSeen{
				RoomId:    s.roomId,
				MessageId: m.Id,
				ReaderId:  msg.UserId,
			},
		},
	}

	if err := s.cs.bus.Publish(ev); err != nil {
		s.log.Printf("publish read event for room %q: %v", s.roomId, err)
		s.broadcast(&ServerMessage{
			BaseMessage:  BaseMessage{Timestamp: Now()},
			Notification: ev.Notification,
		})
	}
}

// handleTyping relays an ephemeral typing signal. Nothing is persisted.
// Only joined clients can reach this, so the participant check already
// happened on join.
func (s *Session) handleTyping(msg *ClientMessage, stopped bool) {
	event := &TypingEvent{
		RoomId:   s.roomId,
		UserId:   msg.UserId,
		Username: msg.client.user.Username,
	}

	notification := &Notification{Typing: event}
	if stopped {
		notification = &Notification{StopTyping: event}
	}

	if err := s.cs.bus.Publish(RoomEvent{RoomId: s.roomId, Notification: notification}); err != nil {
		s.log.Printf("publish typing event for room %q: %v", s.roomId, err)
		s.broadcast(&ServerMessage{
			BaseMessage:  BaseMessage{Timestamp: Now()},
			Notification: notification,
			SkipClient:   msg.client,
		})
	}
}

func (s *Session) addClient(c *Client) {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	s.clients[c] = struct{}{}
	if s.userMap[c.user.Id] == nil {
		s.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	s.userMap[c.user.Id][c] = struct{}{}

	c.addSession(s)
}

func (s *Session) removeClient(c *Client) {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()

	if _, ok := s.clients[c]; !ok {
		return
	}

	delete(s.clients, c)
	c.delSession(s.roomId)

	if userClients, ok := s.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(s.userMap, c.user.Id)
		}
	}

	if len(s.clients) == 0 {
		s.log.Printf("no clients in %q, starting kill timer", s.roomId)
		s.killTimer.Reset(idleSessionTimeout)
	}
}

func (s *Session) broadcast(msg *ServerMessage) {
	s.clientLock.RLock()
	defer s.clientLock.RUnlock()

	for client := range s.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}

// serviceError maps chat service failures to the wire responses clients
// receive for a rejected operation.
func serviceError(id int, err error) *ServerMessage {
	switch {
	case errors.Is(err, chat.ErrBlockedContent),
		errors.Is(err, chat.ErrMessageNotFound):
		return ErrBadRequest(id, err.Error())
	case errors.Is(err, chat.ErrRoomEnded),
		errors.Is(err, chat.ErrRoomFrozen),
		errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, chat.ErrWrongRole):
		return ErrForbidden(id, err.Error())
	case errors.Is(err, chat.ErrRoomNotFound):
		return ErrRoomNotFound(id)
	default:
		return ErrInternalError(id)
	}
}
