package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseConstructors(t *testing.T) {
	tcases := []struct {
		name     string
		msg      *ServerMessage
		wantCode int
		wantErr  string
	}{
		{
			name:     "ok",
			msg:      NoErrOK(1, "data"),
			wantCode: 200,
		},
		{
			name:     "room not found",
			msg:      ErrRoomNotFound(2),
			wantCode: 404,
			wantErr:  "room not found",
		},
		{
			name:     "forbidden",
			msg:      ErrForbidden(3, "room is frozen"),
			wantCode: 403,
			wantErr:  "room is frozen",
		},
		{
			name:     "bad request",
			msg:      ErrBadRequest(4, "content is required"),
			wantCode: 400,
			wantErr:  "content is required",
		},
		{
			name:     "internal error",
			msg:      ErrInternalError(5),
			wantCode: 500,
			wantErr:  "internal server error",
		},
		{
			name:     "service unavailable",
			msg:      ErrServiceUnavailable(6),
			wantCode: 503,
			wantErr:  "service unavailable",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotNil(t, tc.msg.Response, "expected a response")
			assert.Equal(t, tc.wantCode, tc.msg.Response.ResponseCode, "expected response code to match")
			assert.Equal(t, tc.wantErr, tc.msg.Response.Error, "expected error text to match")
			assert.False(t, tc.msg.Timestamp.IsZero(), "expected a timestamp")
		})
	}
}

func TestErrInvalidMessage_negativeId(t *testing.T) {
	msg := ErrInvalidMessage(-1)
	assert.Equal(t, 0, msg.Id, "expected negative request ids to be dropped")
	assert.Equal(t, 400, msg.Response.ResponseCode, "expected a bad request response")
}

func TestServerMessageWireFormat(t *testing.T) {
	message := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: 200,
			Data:         "test data",
		},
	}

	expected := `{"id":1,"timestamp":"` + message.Timestamp.Format(time.RFC3339Nano) +
		`","response":{"response_code":200,"data":"test data"}}`

	bytes, err := json.Marshal(message)
	assert.NoError(t, err, "expected no error during serialization")
	assert.Equal(t, expected, string(bytes), "expected serialized message to match the wire format")
}
