package database

import (
	"time"

	"github.com/reelmatch/chat-service/internal/types"
)

const (
	roomColumns = "id, external_id, creator_id, editor_id, is_frozen, is_ended, created_at, updated_at"
)

func (db *PgChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, role, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, username, email, role, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgChatRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET username = $2, password_hash = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, username, email, role, created_at, updated_at",
		params.UserId,
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgChatRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, deleted, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.Role,
		&user.Deleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgChatRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, deleted, created_at, updated_at "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.Role,
		&user.Deleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE external_id = $1 LIMIT 1", externalId,
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *PgChatRepository) scanRoom(row rowScanner) (Room, error) {
	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.CreatorId,
		&room.EditorId,
		&room.IsFrozen,
		&room.IsEnded,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

// UpsertRoom inserts a room for the (creator, editor) pair or returns the
// existing one. The unique pair index makes concurrent initiations safe;
// the bool result reports whether this call created the row.
func (db *PgChatRepository) UpsertRoom(params CreateRoomParams) (Room, bool, error) {
	res := db.conn.QueryRow(
		"INSERT INTO rooms (external_id, creator_id, editor_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) "+
			"ON CONFLICT (creator_id, editor_id) DO NOTHING "+
			"RETURNING "+roomColumns,
		params.ExternalId,
		params.CreatorId,
		params.EditorId,
		time.Now().UTC(),
	)

	room, err := db.scanRoom(res)
	if err == nil {
		return room, true, nil
	}

	// Conflict: the pair already has a room. Fetch it.
	row := db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE creator_id = $1 AND editor_id = $2 LIMIT 1",
		params.CreatorId,
		params.EditorId,
	)

	room, selErr := db.scanRoom(row)
	if selErr != nil {
		return Room{}, false, err
	}

	return room, false, nil
}

func (db *PgChatRepository) ListRoomsForUser(userId int, role types.Role) ([]RoomWithCounterpart, error) {
	var query string
	switch role {
	case types.RoleCreator:
		query = "SELECT r.id, r.external_id, r.creator_id, r.editor_id, r.is_frozen, r.is_ended, " +
			"r.created_at, r.updated_at, a.id, a.username, a.email, a.role " +
			"FROM rooms r JOIN accounts a ON a.id = r.editor_id " +
			"WHERE r.creator_id = $1 ORDER BY r.updated_at DESC"
	default:
		query = "SELECT r.id, r.external_id, r.creator_id, r.editor_id, r.is_frozen, r.is_ended, " +
			"r.created_at, r.updated_at, a.id, a.username, a.email, a.role " +
			"FROM rooms r JOIN accounts a ON a.id = r.creator_id " +
			"WHERE r.editor_id = $1 ORDER BY r.updated_at DESC"
	}

	rows, err := db.conn.Query(query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []RoomWithCounterpart
	for rows.Next() {
		var rc RoomWithCounterpart
		if err = rows.Scan(
			&rc.Id,
			&rc.ExternalId,
			&rc.CreatorId,
			&rc.EditorId,
			&rc.IsFrozen,
			&rc.IsEnded,
			&rc.CreatedAt,
			&rc.UpdatedAt,
			&rc.Counterpart.Id,
			&rc.Counterpart.Username,
			&rc.Counterpart.EmailAddress,
			&rc.Counterpart.Role,
		); err != nil {
			return nil, err
		}

		rooms = append(rooms, rc)
	}

	return rooms, rows.Err()
}

func (db *PgChatRepository) SetRoomFrozen(roomId int, frozen bool) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"UPDATE rooms SET is_frozen = $2, updated_at = $3 WHERE id = $1 RETURNING "+roomColumns,
		roomId,
		frozen,
		time.Now().UTC(),
	))
}

func (db *PgChatRepository) SetRoomEnded(roomId int, ended bool) (Room, error) {
	return db.scanRoom(db.conn.QueryRow(
		"UPDATE rooms SET is_ended = $2, updated_at = $3 WHERE id = $1 RETURNING "+roomColumns,
		roomId,
		ended,
		time.Now().UTC(),
	))
}

func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO messages (room_id, sender_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, room_id, sender_id, content, read, created_at",
		params.RoomId,
		params.SenderId,
		params.Content,
		time.Now().UTC(),
	)

	var msg Message
	err = res.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}

	// Bump the room so recently active rooms sort first.
	_, err = tx.Exec("UPDATE rooms SET updated_at = $2 WHERE id = $1", params.RoomId, msg.CreatedAt)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func (db *PgChatRepository) GetMessageById(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, sender_id, content, read, created_at FROM messages "+
			"WHERE id = $1 LIMIT 1",
		messageId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgChatRepository) GetMessagesByRoom(roomId int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, room_id, sender_id, content, read, created_at FROM messages "+
			"WHERE room_id = $1 ORDER BY created_at ASC, id ASC",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.Id, &msg.RoomId, &msg.SenderId, &msg.Content, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgChatRepository) MarkMessageRead(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"UPDATE messages SET read = TRUE WHERE id = $1 "+
			"RETURNING id, room_id, sender_id, content, read, created_at",
		messageId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgChatRepository) OldestUnreadMessage(roomId, recipientId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, sender_id, content, read, created_at FROM messages "+
			"WHERE room_id = $1 AND sender_id <> $2 AND NOT read "+
			"ORDER BY created_at ASC, id ASC LIMIT 1",
		roomId,
		recipientId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.RoomId,
		&msg.SenderId,
		&msg.Content,
		&msg.Read,
		&msg.CreatedAt,
	)

	return msg, err
}

// CreateReminder inserts a pending reminder unless an active one already
// exists for the (room, recipient) pair. The partial unique index absorbs
// the conflict, so concurrent sends never produce duplicates. Returns
// whether a row was inserted.
func (db *PgChatRepository) CreateReminder(params CreateReminderParams) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT INTO reminders (room_id, recipient_id, first_unread_message_id, scheduled_for, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"ON CONFLICT (room_id, recipient_id) WHERE NOT sent AND NOT cancelled DO NOTHING",
		params.RoomId,
		params.RecipientId,
		params.FirstUnreadMessageId,
		params.ScheduledFor.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (db *PgChatRepository) CancelActiveReminders(roomId, recipientId int) (int, error) {
	res, err := db.conn.Exec(
		"UPDATE reminders SET cancelled = TRUE "+
			"WHERE room_id = $1 AND recipient_id = $2 AND NOT sent AND NOT cancelled",
		roomId,
		recipientId,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

func (db *PgChatRepository) DueReminders(now time.Time) ([]Reminder, error) {
	rows, err := db.conn.Query(
		"SELECT id, room_id, recipient_id, first_unread_message_id, scheduled_for, sent, cancelled, created_at "+
			"FROM reminders WHERE scheduled_for <= $1 AND NOT sent AND NOT cancelled "+
			"ORDER BY scheduled_for ASC",
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err = rows.Scan(
			&r.Id,
			&r.RoomId,
			&r.RecipientId,
			&r.FirstUnreadMessageId,
			&r.ScheduledFor,
			&r.Sent,
			&r.Cancelled,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}

		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}

func (db *PgChatRepository) MarkReminderSent(reminderId int) error {
	_, err := db.conn.Exec("UPDATE reminders SET sent = TRUE WHERE id = $1", reminderId)
	return err
}
