package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomParticipant(t *testing.T) {
	room := Room{Id: 10, CreatorId: 1, EditorId: 2}

	tcases := []struct {
		name   string
		userId int
		want   bool
	}{
		{name: "creator", userId: 1, want: true},
		{name: "editor", userId: 2, want: true},
		{name: "stranger", userId: 42, want: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, room.Participant(tc.userId),
				"expected Participant(%d) to be %v", tc.userId, tc.want)
		})
	}
}

func TestRoomRecipient(t *testing.T) {
	room := Room{Id: 10, CreatorId: 1, EditorId: 2}

	assert.Equal(t, 2, room.Recipient(1), "expected editor to receive messages from the creator")
	assert.Equal(t, 1, room.Recipient(2), "expected creator to receive messages from the editor")
}
