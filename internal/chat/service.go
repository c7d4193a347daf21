package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/reelmatch/chat-service/internal/database"
	"github.com/reelmatch/chat-service/internal/types"
)

// Service mediates message exchange between a room's creator and editor:
// it enforces moderation state and content rules, persists messages and
// derives the deferred email reminders the poller later fires.
type Service struct {
	log   *log.Logger
	db    database.ChatRepository
	delay time.Duration
}

func NewService(logger *log.Logger, db database.ChatRepository, reminderDelay time.Duration) *Service {
	return &Service{
		log:   logger,
		db:    db,
		delay: reminderDelay,
	}
}

// InitiateChat returns the room for the (creator, editor) pair, creating
// it if none exists. The second result reports whether this call created
// the room. Only creator accounts may initiate.
func (s *Service) InitiateChat(creatorId, editorId int, externalId string) (types.Room, bool, error) {
	creator, err := s.db.GetAccountById(creatorId)
	if err != nil {
		return types.Room{}, false, fmt.Errorf("get creator: %w", err)
	}
	if creator.Role != types.RoleCreator {
		return types.Room{}, false, ErrWrongRole
	}

	editor, err := s.db.GetAccountById(editorId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, false, ErrEditorNotFound
		}
		return types.Room{}, false, fmt.Errorf("get editor: %w", err)
	}
	if editor.Deleted || editor.Role != types.RoleEditor {
		return types.Room{}, false, ErrEditorNotFound
	}

	room, created, err := s.db.UpsertRoom(database.CreateRoomParams{
		ExternalId: externalId,
		CreatorId:  creatorId,
		EditorId:   editorId,
	})
	if err != nil {
		return types.Room{}, false, fmt.Errorf("upsert room: %w", err)
	}

	return toRoom(room), created, nil
}

// SendMessage validates and persists a message, then derives a reminder
// for the recipient if their oldest unread message has no active one.
func (s *Service) SendMessage(roomExternalId string, senderId int, content string) (types.Message, error) {
	if term, blocked := CheckContent(content); blocked {
		s.log.Printf("blocked message from user %d in room %q: %s", senderId, roomExternalId, term)
		return types.Message{}, ErrBlockedContent
	}

	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrRoomNotFound
		}
		return types.Message{}, fmt.Errorf("get room: %w", err)
	}

	// Ended is terminal and takes precedence over frozen.
	if room.IsEnded {
		return types.Message{}, ErrRoomEnded
	}
	if room.IsFrozen {
		return types.Message{}, ErrRoomFrozen
	}

	if !room.Participant(senderId) {
		return types.Message{}, ErrNotParticipant
	}

	msg, err := s.db.CreateMessage(database.CreateMessageParams{
		RoomId:   room.Id,
		SenderId: senderId,
		Content:  content,
	})
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}

	recipient := room.Recipient(senderId)

	// Reminder derivation is best effort: the message is already
	// persisted, so failures here are logged rather than returned.
	if err := s.scheduleReminder(room.Id, recipient); err != nil {
		s.log.Printf("schedule reminder for room %d recipient %d: %v", room.Id, recipient, err)
	}

	return toMessage(msg, room.ExternalId), nil
}

func (s *Service) scheduleReminder(roomId, recipientId int) error {
	oldest, err := s.db.OldestUnreadMessage(roomId, recipientId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("oldest unread: %w", err)
	}

	created, err := s.db.CreateReminder(database.CreateReminderParams{
		RoomId:               roomId,
		RecipientId:          recipientId,
		FirstUnreadMessageId: oldest.Id,
		ScheduledFor:         time.Now().UTC().Add(s.delay),
	})
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	if created {
		s.log.Printf("scheduled reminder for recipient %d in room %d", recipientId, roomId)
	}

	return nil
}

// Messages returns the room's messages oldest first. Requester must be a
// participant or an admin.
func (s *Service) Messages(roomExternalId string, requesterId int) ([]types.Message, error) {
	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	if err := s.authorizeRead(room, requesterId); err != nil {
		return nil, err
	}

	dbMsgs, err := s.db.GetMessagesByRoom(room.Id)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	msgs := make([]types.Message, 0, len(dbMsgs))
	for _, m := range dbMsgs {
		msgs = append(msgs, toMessage(m, room.ExternalId))
	}

	return msgs, nil
}

// MyRooms returns the rooms the user participates in, most recently
// updated first, with the counterpart profile populated.
func (s *Service) MyRooms(userId int) ([]types.Room, error) {
	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	switch user.Role {
	case types.RoleCreator, types.RoleEditor:
	case types.RoleAdmin:
		return nil, ErrWrongRole
	default:
		return nil, ErrWrongRole
	}

	dbRooms, err := s.db.ListRoomsForUser(userId, user.Role)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rooms := make([]types.Room, 0, len(dbRooms))
	for _, rc := range dbRooms {
		room := toRoom(rc.Room)
		room.Counterpart = &types.User{
			Id:           rc.Counterpart.Id,
			Username:     rc.Counterpart.Username,
			EmailAddress: rc.Counterpart.EmailAddress,
			Role:         rc.Counterpart.Role,
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// MarkRead acknowledges a message as read and cancels every active
// reminder for the reading recipient in that room, regardless of which
// message triggered them.
func (s *Service) MarkRead(roomExternalId string, messageId, readerId int) (types.Message, error) {
	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrRoomNotFound
		}
		return types.Message{}, fmt.Errorf("get room: %w", err)
	}

	if !room.Participant(readerId) {
		return types.Message{}, ErrNotParticipant
	}

	msg, err := s.db.GetMessageById(messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrMessageNotFound
		}
		return types.Message{}, fmt.Errorf("get message: %w", err)
	}
	if msg.RoomId != room.Id {
		return types.Message{}, ErrMessageNotFound
	}

	if !msg.Read {
		msg, err = s.db.MarkMessageRead(messageId)
		if err != nil {
			return types.Message{}, fmt.Errorf("mark read: %w", err)
		}
	}

	n, err := s.db.CancelActiveReminders(room.Id, readerId)
	if err != nil {
		// The read itself succeeded; reminder cancellation is retried
		// implicitly by the poller's still-unread re-check.
		s.log.Printf("cancel reminders for room %d recipient %d: %v", room.Id, readerId, err)
	} else if n > 0 {
		s.log.Printf("cancelled %d reminder(s) for recipient %d in room %d", n, readerId, room.Id)
	}

	return toMessage(msg, room.ExternalId), nil
}

// AuthorizeJoin verifies the user may subscribe to the room's broadcast
// group and returns the room. Participants and admins qualify.
func (s *Service) AuthorizeJoin(roomExternalId string, userId int) (types.Room, error) {
	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrRoomNotFound
		}
		return types.Room{}, fmt.Errorf("get room: %w", err)
	}

	if err := s.authorizeRead(room, userId); err != nil {
		return types.Room{}, err
	}

	return toRoom(room), nil
}

func (s *Service) authorizeRead(room database.Room, userId int) error {
	if room.Participant(userId) {
		return nil
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if user.Role != types.RoleAdmin {
		return ErrNotParticipant
	}

	return nil
}

func toRoom(r database.Room) types.Room {
	return types.Room{
		Id:         r.Id,
		ExternalId: r.ExternalId,
		CreatorId:  r.CreatorId,
		EditorId:   r.EditorId,
		IsFrozen:   r.IsFrozen,
		IsEnded:    r.IsEnded,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toMessage(m database.Message, roomExternalId string) types.Message {
	return types.Message{
		Id:       m.Id,
		RoomId:   roomExternalId,
		SenderId: m.SenderId,
		Content:  m.Content,
		Read:     m.Read,
		SentAt:   m.CreatedAt,
	}
}
