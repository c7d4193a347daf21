package server

import (
	"context"
	"log"
	"sync"

	"github.com/reelmatch/chat-service/internal/chat"
	"github.com/reelmatch/chat-service/internal/stats"
	"github.com/reelmatch/chat-service/internal/types"
)

type stopReq struct {
	done chan struct{}
}

// ChatServer owns the gateway state: connected clients, one Session per
// loaded room, and the bridge between the event bus and local sessions.
// Sessions are only touched from the Run loop.
type ChatServer struct {
	log            *log.Logger
	svc            *chat.Service
	bus            EventBus
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	sessions       map[string]*Session
	joinChan       chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	unloadChan     chan string
	stop           chan stopReq
}

func NewChatServer(logger *log.Logger, svc *chat.Service, bus EventBus, sp stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		svc:            svc,
		bus:            bus,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		sessions:       make(map[string]*Session),
		joinChan:       make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		unloadChan:     make(chan string),
		stop:           make(chan stopReq),
	}

	sp.RegisterMetric("ActiveConnections")
	sp.RegisterMetric("ActiveSessions")
	sp.RegisterMetric("MessagesPublished")
	sp.RegisterMetric("EventsDropped")

	return cs, nil
}

func (cs *ChatServer) Run() {
	events := cs.bus.Events()
	for {
		select {
		case joinMsg := <-cs.joinChan:
			s, ok := cs.sessions[joinMsg.Join.RoomId]
			if !ok {
				s = cs.loadSession(joinMsg.Join.RoomId)
			}

			select {
			case s.joinChan <- joinMsg:
			default:
				cs.log.Printf("join channel full on room %q", s.roomId)
				joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			cs.routeEvent(ev)
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection from %q", client.user.Username)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.user.Username)
			cs.removeClient(client)
		case id := <-cs.unloadChan:
			if s, ok := cs.sessions[id]; ok {
				cs.log.Printf("unloading room %q", id)
				delete(cs.sessions, id)
				cs.stats.Decr("ActiveSessions")
				s.exit <- exitReq{}
				<-s.done
			}
		case req := <-cs.stop:
			cs.log.Println("shutting down sessions")
			for _, s := range cs.sessions {
				close(s.exit)
				<-s.done
			}
			cs.sessions = nil

			close(req.done)
			return
		}
	}
}

func (cs *ChatServer) loadSession(roomId string) *Session {
	s := newSession(cs, roomId)
	cs.sessions[roomId] = s
	cs.stats.Incr("ActiveSessions")
	go s.run()

	return s
}

// routeEvent fans a bus event out to the local session for the room, if
// one is loaded. Rooms with no connected clients here are skipped; other
// gateway instances deliver to their own clients.
func (cs *ChatServer) routeEvent(ev RoomEvent) {
	s, ok := cs.sessions[ev.RoomId]
	if !ok {
		return
	}

	msg := &ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		Message:      ev.Message,
		Notification: ev.Notification,
	}

	select {
	case s.eventChan <- msg:
	default:
		cs.stats.Incr("EventsDropped")
		cs.log.Printf("event channel full on room %q", ev.RoomId)
	}
}

// BroadcastMessage publishes a persisted message to the room's
// subscribers on every gateway instance. Used by the REST send path.
func (cs *ChatServer) BroadcastMessage(m types.Message) {
	if err := cs.bus.Publish(RoomEvent{RoomId: m.RoomId, Message: &m}); err != nil {
		cs.log.Printf("publish message event for room %q: %v", m.RoomId, err)
	}
}

// NotifyRoomState publishes a moderation state change so connected
// participants learn about it without polling.
func (cs *ChatServer) NotifyRoomState(roomId string, event RoomStateEvent) {
	ev := RoomEvent{
		RoomId: roomId,
		Notification: &Notification{
			RoomState: &RoomState{RoomId: roomId, Event: event},
		},
	}

	if err := cs.bus.Publish(ev); err != nil {
		cs.log.Printf("publish %s event for room %q: %v", event, roomId, err)
	}
}

// RegisterClient hands a freshly upgraded connection to the Run loop.
func (cs *ChatServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.stats.Incr("ActiveConnections")
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	if _, ok := cs.clients[c]; ok {
		delete(cs.clients, c)
		cs.stats.Decr("ActiveConnections")
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	req := stopReq{done: make(chan struct{})}
	cs.stop <- req

	select {
	case <-req.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return cs.bus.Close()
}
