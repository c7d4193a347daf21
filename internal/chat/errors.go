package chat

import "errors"

var (
	// ErrBlockedContent is returned when a message matches a blocked
	// pattern (email-like token or a 10+ digit run).
	ErrBlockedContent = errors.New("message contains blocked content")
	// ErrRoomEnded is returned on sends to a room an admin has ended.
	ErrRoomEnded = errors.New("chat room has ended")
	// ErrRoomFrozen is returned on sends to a room an admin has frozen.
	ErrRoomFrozen = errors.New("chat room is frozen")
	// ErrNotParticipant is returned when the caller is neither the
	// room's creator nor its editor (nor an admin, for reads).
	ErrNotParticipant = errors.New("not a participant of this room")
	// ErrWrongRole is returned when an operation requires a role the
	// caller does not hold.
	ErrWrongRole = errors.New("operation not permitted for role")
	// ErrEditorNotFound is returned when the requested editor does not
	// exist, is deleted, or is not an editor account.
	ErrEditorNotFound = errors.New("editor not found")
	// ErrRoomNotFound is returned when the referenced room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrMessageNotFound is returned when the referenced message does
	// not exist or belongs to another room.
	ErrMessageNotFound = errors.New("message not found")
)
