package whatsapp

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	from, to, body string
	sid            string
	err            error
	calls          int
}

func (f *fakeSender) SendMessage(from, to, body string) (string, error) {
	f.calls++
	f.from, f.to, f.body = from, to, body
	return f.sid, f.err
}

func TestGatewaySend(t *testing.T) {
	sender := &fakeSender{sid: "SM123"}
	g := NewGateway(sender, "+14155238886", logrus.New())

	sid, err := g.Send("+919876543210", "New booking request")
	require.NoError(t, err)
	assert.Equal(t, "SM123", sid)
	assert.Equal(t, "whatsapp:+14155238886", sender.from)
	assert.Equal(t, "whatsapp:+919876543210", sender.to)
	assert.Equal(t, "New booking request", sender.body)
}

func TestGatewaySendRejectsBadRecipient(t *testing.T) {
	sender := &fakeSender{}
	g := NewGateway(sender, "+14155238886", logrus.New())

	_, err := g.Send("9876543210", "hi")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Zero(t, sender.calls, "no send attempt for malformed number")

	_, err = g.Send("+123", "hi")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestGatewaySendRejectsEmptyBody(t *testing.T) {
	sender := &fakeSender{}
	g := NewGateway(sender, "+14155238886", logrus.New())

	_, err := g.Send("+919876543210", "")
	assert.ErrorIs(t, err, ErrEmptyBody)
	assert.Zero(t, sender.calls)
}

func TestGatewaySendSurfacesVendorError(t *testing.T) {
	sender := &fakeSender{err: errors.New("twilio down")}
	g := NewGateway(sender, "+14155238886", logrus.New())

	_, err := g.Send("+919876543210", "hi")
	assert.Error(t, err)
}
