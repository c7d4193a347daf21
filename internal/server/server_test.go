package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/reelmatch/chat-service/internal/chat"
	"github.com/reelmatch/chat-service/internal/database"
	"github.com/reelmatch/chat-service/internal/stats"
	"github.com/reelmatch/chat-service/internal/testutil"
	"github.com/reelmatch/chat-service/internal/types"
)

// newTestChatServer creates a ChatServer backed by a local bus for testing.
func newTestChatServer(t *testing.T, db database.ChatRepository, su *stats.MockStatsUpdater, bus EventBus) *ChatServer {
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	svc := chat.NewService(logger, db, 20*time.Minute)
	cs, err := NewChatServer(logger, svc, bus, su)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

func TestNewChatServer(t *testing.T) {
	db := &database.MockChatRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(4)

	logger := testutil.TestLogger(t)
	svc := chat.NewService(logger, db, 20*time.Minute)
	cs, err := NewChatServer(logger, svc, NewLocalEventBus(), su)
	assert.NoError(t, err, "expected no error creating ChatServer")
	assert.NotNil(t, cs, "expected ChatServer to be non-nil")
	assert.Equal(t, logger, cs.log, "expected logger to be set")
	assert.Equal(t, svc, cs.svc, "expected chat service to be set")
	assert.NotNil(t, cs.joinChan, "expected joinChan to be initialized")
	assert.NotNil(t, cs.unloadChan, "expected unloadChan to be initialized")
	assert.NotNil(t, cs.stop, "expected stop channel to be initialized")
	assert.NotNil(t, cs.clients, "expected clients map to be initialized")
	assert.NotNil(t, cs.sessions, "expected sessions map to be initialized")
}

func TestChatServerShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockChatRepository{}, &stats.MockStatsUpdater{}, NewLocalEventBus())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		go func() {
			select {
			case req := <-cs.stop:
				assert.NotNil(t, req.done, "expected done channel in stop request")
				close(req.done)
			case <-time.After(100 * time.Millisecond):
				t.Error("expected signal on stop chan")
			}
		}()

		err := cs.Shutdown(ctx)
		assert.NoError(t, err, "expected successful shutdown without error")
	})

	t.Run("fails with context deadline exceeded", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockChatRepository{}, &stats.MockStatsUpdater{}, NewLocalEventBus())

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		go func() {
			select {
			case <-cs.stop:
				// never signal done to simulate a hang
			case <-time.After(time.Second):
				t.Error("expected signal on stop chan")
			}
		}()

		err := cs.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "expected context deadline exceeded error, got %v", err)
	})
}

func TestChatServerShutdown_Integration(t *testing.T) {
	t.Run("successful shutdown with no sessions", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockChatRepository{}, &stats.MockStatsUpdater{}, NewLocalEventBus())
		go cs.Run()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := cs.Shutdown(ctx)
		assert.NoError(t, err, "expected successful shutdown without error")
	})

	t.Run("successful shutdown with active sessions", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		defer su.AssertExpectations(t)

		cs := newTestChatServer(t, &database.MockChatRepository{}, su, NewLocalEventBus())

		s := newSession(cs, "EoGKUXPHgz")
		cs.sessions[s.roomId] = s
		go s.run()

		go cs.Run()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := cs.Shutdown(ctx)
		assert.NoError(t, err, "expected successful shutdown with active sessions")
	})
}

func TestChatServer_addClient_removeClient(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ActiveConnections").Once()
	su.On("Decr", "ActiveConnections").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, &database.MockChatRepository{}, su, NewLocalEventBus())
	client := &Client{user: types.User{Id: 1, Username: "creator"}}
	cs.addClient(client)
	assert.Len(t, cs.clients, 1, "expected 1 client after adding")
	assert.Contains(t, cs.clients, client, "expected client in clients map")

	cs.removeClient(client)
	assert.Len(t, cs.clients, 0, "expected 0 clients after removing")

	// a second remove must not decrement again
	cs.removeClient(client)
}

func TestChatServerRun_joinLoadsSession(t *testing.T) {
	db := &database.MockChatRepository{}
	defer db.AssertExpectations(t)
	db.On("GetRoomByExternalId", "EoGKUXPHgz").Return(database.Room{
		Id:         10,
		ExternalId: "EoGKUXPHgz",
		CreatorId:  1,
		EditorId:   2,
	}, nil).Once()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ActiveSessions").Once()
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su, NewLocalEventBus())
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx))
	}()

	client := NewClient(types.User{Id: 1, Username: "creator"}, nil, cs, cs.log)
	cs.joinChan <- &ClientMessage{
		BaseMessage: BaseMessage{Id: 1},
		Join:        &Join{RoomId: "EoGKUXPHgz"},
		UserId:      1,
		client:      client,
	}

	select {
	case msg := <-client.send:
		assert.NotNil(t, msg.Response, "expected a response message")
		assert.Equal(t, 200, msg.Response.ResponseCode, "expected join to succeed")
		assert.Equal(t, 1, msg.Id, "expected response to carry the request id")
	case <-time.After(time.Second):
		t.Fatal("expected a join response")
	}

	assert.NotNil(t, client.getSession("EoGKUXPHgz"), "expected client to track the joined session")
}

func TestChatServerRun_routesBusEvents(t *testing.T) {
	db := &database.MockChatRepository{}
	defer db.AssertExpectations(t)
	db.On("GetRoomByExternalId", "EoGKUXPHgz").Return(database.Room{
		Id:         10,
		ExternalId: "EoGKUXPHgz",
		CreatorId:  1,
		EditorId:   2,
	}, nil).Once()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", "ActiveSessions").Once()
	defer su.AssertExpectations(t)

	bus := NewLocalEventBus()
	cs := newTestChatServer(t, db, su, bus)
	go cs.Run()

	client := NewClient(types.User{Id: 2, Username: "editor"}, nil, cs, cs.log)
	cs.joinChan <- &ClientMessage{
		BaseMessage: BaseMessage{Id: 1},
		Join:        &Join{RoomId: "EoGKUXPHgz"},
		UserId:      2,
		client:      client,
	}
	<-client.send // join response

	m := types.Message{Id: 5, RoomId: "EoGKUXPHgz", SenderId: 1, Content: "hi"}
	assert.NoError(t, bus.Publish(RoomEvent{RoomId: "EoGKUXPHgz", Message: &m}))

	select {
	case msg := <-client.send:
		assert.NotNil(t, msg.Message, "expected a message broadcast")
		assert.Equal(t, 5, msg.Message.Id, "expected the published message")
	case <-time.After(time.Second):
		t.Fatal("expected the bus event to reach the client")
	}
}

func TestChatServer_BroadcastMessage(t *testing.T) {
	bus := NewLocalEventBus()
	cs := newTestChatServer(t, &database.MockChatRepository{}, &stats.MockStatsUpdater{}, bus)

	m := types.Message{Id: 7, RoomId: "EoGKUXPHgz", SenderId: 1, Content: "hello"}
	cs.BroadcastMessage(m)

	select {
	case ev := <-bus.Events():
		assert.Equal(t, "EoGKUXPHgz", ev.RoomId, "expected event for the message's room")
		assert.Equal(t, &m, ev.Message, "expected the message on the event")
	case <-time.After(time.Second):
		t.Fatal("expected an event on the bus")
	}
}

func TestChatServer_NotifyRoomState(t *testing.T) {
	bus := NewLocalEventBus()
	cs := newTestChatServer(t, &database.MockChatRepository{}, &stats.MockStatsUpdater{}, bus)

	cs.NotifyRoomState("EoGKUXPHgz", EventChatFrozen)

	select {
	case ev := <-bus.Events():
		assert.Equal(t, "EoGKUXPHgz", ev.RoomId, "expected event for the room")
		if assert.NotNil(t, ev.Notification, "expected a notification") &&
			assert.NotNil(t, ev.Notification.RoomState, "expected a room state change") {
			assert.Equal(t, EventChatFrozen, ev.Notification.RoomState.Event, "expected a frozen event")
		}
	case <-time.After(time.Second):
		t.Fatal("expected an event on the bus")
	}
}
