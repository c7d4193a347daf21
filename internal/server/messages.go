package server

import (
	"net/http"
	"time"

	"github.com/reelmatch/chat-service/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Join       *Join    `json:"join,omitempty"`
	Publish    *Publish `json:"publish,omitempty"`
	Read       *Read    `json:"read,omitempty"`
	Typing     *Typing  `json:"typing,omitempty"`
	StopTyping *Typing  `json:"stop_typing,omitempty"`
	UserId     int      `json:"-"`
	client     *Client  `json:"-"`
}

type Join struct {
	RoomId string `json:"room_id"`
}

type Publish struct {
	RoomId  string `json:"room_id"`
	Content string `json:"content"`
}

type Read struct {
	RoomId    string `json:"room_id"`
	MessageId int    `json:"message_id"`
}

type Typing struct {
	RoomId string `json:"room_id"`
}

type ServerMessage struct {
	BaseMessage
	Response     *Response      `json:"response,omitempty"`
	Message      *types.Message `json:"message,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	SkipClient   *Client        `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type Notification struct {
	MessageSeen *MessageSeen `json:"message_seen,omitempty"`
	Typing      *TypingEvent `json:"typing,omitempty"`
	StopTyping  *TypingEvent `json:"stop_typing,omitempty"`
	RoomState   *RoomState   `json:"room_state,omitempty"`
}

type MessageSeen struct {
	RoomId    string `json:"room_id"`
	MessageId int    `json:"message_id"`
	ReaderId  int    `json:"reader_id"`
}

type TypingEvent struct {
	RoomId   string `json:"room_id"`
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
}

// RoomStateEvent names the admin moderation transitions broadcast to a
// room's subscribers.
type RoomStateEvent string

const (
	EventChatFrozen   RoomStateEvent = "chatFrozen"
	EventChatUnfrozen RoomStateEvent = "chatUnfrozen"
	EventChatEnded    RoomStateEvent = "chatEnded"
	EventChatReopened RoomStateEvent = "chatReopened"
)

type RoomState struct {
	RoomId string         `json:"room_id"`
	Event  RoomStateEvent `json:"event"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrForbidden(id int, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusForbidden,
			Error:        reason,
		},
	}
}

func ErrBadRequest(id int, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        reason,
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
