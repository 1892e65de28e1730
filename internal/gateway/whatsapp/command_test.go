package whatsapp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseCommandVerbs(t *testing.T) {
	tests := []struct {
		body string
		want CommandKind
	}{
		{"START", CommandStart},
		{"start", CommandStart},
		{"  Start  ", CommandStart},
		{"STOP", CommandStop},
		{"LEAVE", CommandStop},
		{"leave", CommandStop},
		{"ACCEPT", CommandAccept},
		{"accept", CommandAccept},
		{"REJECT", CommandReject},
		{"", CommandUnknown},
		{"   ", CommandUnknown},
		{"HELLO", CommandUnknown},
		{"ACCEPTED", CommandUnknown},
		{"OK ACCEPT", CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			cmd := ParseCommand(tt.body)
			assert.Equal(t, tt.want, cmd.Kind)
		})
	}
}

func TestParseCommandWithBookingID(t *testing.T) {
	id := uuid.New()

	cmd := ParseCommand("ACCEPT " + id.String())
	assert.Equal(t, CommandAccept, cmd.Kind)
	assert.True(t, cmd.HasBookingID)
	assert.Equal(t, id, cmd.BookingID)

	cmd = ParseCommand("reject " + id.String())
	assert.Equal(t, CommandReject, cmd.Kind)
	assert.True(t, cmd.HasBookingID)
	assert.Equal(t, id, cmd.BookingID)
}

func TestParseCommandWithoutBookingID(t *testing.T) {
	cmd := ParseCommand("ACCEPT")
	assert.Equal(t, CommandAccept, cmd.Kind)
	assert.False(t, cmd.HasBookingID)
}

func TestParseCommandMalformedBookingID(t *testing.T) {
	cmd := ParseCommand("ACCEPT not-a-uuid")
	assert.Equal(t, CommandUnknown, cmd.Kind)
}

func TestTwiMLReplyEscapes(t *testing.T) {
	out := TwiMLReply("a < b & c")
	assert.Equal(t, "<Response><Message>a &lt; b &amp; c</Message></Response>", out)
}
