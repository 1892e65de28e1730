package whatsapp

import (
	"errors"

	"fixit-server/config"
	"fixit-server/pkg/phone"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	// ErrInvalidRecipient means the destination is not a plausible E.164
	// number; no send attempt is made.
	ErrInvalidRecipient = errors.New("recipient is not a valid E.164 phone number")
	ErrEmptyBody        = errors.New("message body is empty")
)

// Sender is the raw message transport. Tests substitute a fake; production
// uses Twilio.
type Sender interface {
	SendMessage(from, to, body string) (string, error)
}

type twilioSender struct {
	client *twilio.RestClient
}

// NewTwilioSender builds the production Sender over the Twilio REST API.
func NewTwilioSender(cfg config.TwilioConfig) Sender {
	return &twilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
	}
}

func (s *twilioSender) SendMessage(from, to, body string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// Gateway sends WhatsApp messages to providers. Delivery is advisory for
// every caller in this system: a failed send never rolls back the booking
// mutation that triggered it.
type Gateway struct {
	sender Sender
	from   string
	log    *logrus.Logger
}

func NewGateway(sender Sender, from string, log *logrus.Logger) *Gateway {
	return &Gateway{
		sender: sender,
		from:   from,
		log:    log,
	}
}

// Send delivers body to the given E.164 destination and returns the
// provider-assigned message id. Expected failures (bad number, vendor
// outage) come back as errors, never panics.
func (g *Gateway) Send(toE164, body string) (string, error) {
	if !phone.IsE164(toE164) {
		return "", ErrInvalidRecipient
	}
	if body == "" {
		return "", ErrEmptyBody
	}

	sid, err := g.sender.SendMessage("whatsapp:"+g.from, "whatsapp:"+toE164, body)
	if err != nil {
		g.log.Warnf("WhatsApp send to %s failed: %+v", toE164, err)
		return "", err
	}

	g.log.Debugf("WhatsApp message %s sent to %s", sid, toE164)
	return sid, nil
}
