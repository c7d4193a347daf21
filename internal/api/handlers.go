package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/reelmatch/chat-service/internal/chat"
	"github.com/reelmatch/chat-service/internal/server"
	"github.com/reelmatch/chat-service/internal/types"
)

type InitiateChatRequest struct {
	EditorId int `json:"editor_id"`
}

type InitiateChatResponse struct {
	Room  types.Room `json:"room"`
	IsNew bool       `json:"is_new"`
}

type SendMessageRequest struct {
	RoomId  string `json:"room_id"`
	Content string `json:"content"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// chatError maps chat service sentinels to the API error taxonomy.
func chatError(err error) *ApiError {
	switch {
	case errors.Is(err, chat.ErrBlockedContent):
		return NewValidationError(err.Error())
	case errors.Is(err, chat.ErrRoomEnded),
		errors.Is(err, chat.ErrRoomFrozen),
		errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, chat.ErrWrongRole):
		return NewForbiddenError(err.Error())
	case errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrEditorNotFound),
		errors.Is(err, chat.ErrMessageNotFound):
		return NewNotFoundError()
	default:
		return NewInternalServerError(err)
	}
}

func (s *ChatApp) initiateChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req InitiateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.EditorId <= 0 {
		errResp := NewValidationError("editor_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, isNew, err := s.svc.InitiateChat(userId, req.EditorId, sid)
	if err != nil {
		errResp := chatError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("initiate chat:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}

	s.writeJson(w, status, InitiateChatResponse{Room: room, IsNew: isNew})
}

func (s *ChatApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.RoomId == "" || req.Content == "" {
		errResp := NewValidationError("room_id and content are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.svc.SendMessage(req.RoomId, userId, req.Content)
	if err != nil {
		errResp := chatError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("send message:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.BroadcastMessage(msg)

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *ChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("room_id")
	if externalId == "" {
		errResp := NewValidationError("room_id is required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages, err := s.svc.Messages(externalId, userId)
	if err != nil {
		errResp := chatError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("get messages:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *ChatApp) getRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms, err := s.svc.MyRooms(userId)
	if err != nil {
		errResp := chatError(err)
		if errResp.StatusCode == http.StatusInternalServerError {
			s.log.Println("get rooms:", err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(id)
	if err != nil {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(types.User{
		Id:           user.Id,
		Username:     user.Username,
		EmailAddress: user.EmailAddress,
		Role:         user.Role,
	}, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
