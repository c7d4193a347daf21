package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/reelmatch/chat-service/internal/database"
	"github.com/reelmatch/chat-service/internal/server"
	"github.com/reelmatch/chat-service/internal/types"
)

// moderateRoom applies an admin moderation action to a room and notifies
// connected participants through the gateway. Actions are idempotent flag
// sets: repeating one returns the unchanged room.
func (s *ChatApp) moderateRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	admin, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if admin.Role != types.RoleAdmin {
		errResp := NewForbiddenError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var (
		updated database.Room
		event   server.RoomStateEvent
	)

	switch r.PathValue("action") {
	case "freeze":
		updated, err = s.db.SetRoomFrozen(room.Id, true)
		event = server.EventChatFrozen
	case "unfreeze":
		updated, err = s.db.SetRoomFrozen(room.Id, false)
		event = server.EventChatUnfrozen
	case "end":
		updated, err = s.db.SetRoomEnded(room.Id, true)
		event = server.EventChatEnded
	case "reopen":
		updated, err = s.db.SetRoomEnded(room.Id, false)
		event = server.EventChatReopened
	default:
		errResp := NewValidationError("action must be freeze, unfreeze, end or reopen")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err != nil {
		s.log.Printf("moderate room %q: %v", room.ExternalId, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.NotifyRoomState(updated.ExternalId, event)

	s.writeJson(w, http.StatusOK, types.Room{
		Id:         updated.Id,
		ExternalId: updated.ExternalId,
		CreatorId:  updated.CreatorId,
		EditorId:   updated.EditorId,
		IsFrozen:   updated.IsFrozen,
		IsEnded:    updated.IsEnded,
		CreatedAt:  updated.CreatedAt,
		UpdatedAt:  updated.UpdatedAt,
	})
}
