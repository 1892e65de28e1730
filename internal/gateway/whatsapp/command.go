package whatsapp

import (
	"strings"

	"github.com/google/uuid"
)

// CommandKind is the decoded verb of an inbound provider message.
type CommandKind string

const (
	CommandStart   CommandKind = "start"
	CommandStop    CommandKind = "stop"
	CommandAccept  CommandKind = "accept"
	CommandReject  CommandKind = "reject"
	CommandUnknown CommandKind = "unknown"
)

// Command is an inbound message decoded once at the ingress boundary.
// BookingID is only meaningful when HasBookingID is true; decisions without
// an explicit id target the provider's most recent outstanding request.
type Command struct {
	Kind         CommandKind
	BookingID    uuid.UUID
	HasBookingID bool
}

// ParseCommand tokenizes a free-text WhatsApp body into a Command.
// Matching is case-insensitive; anything unparseable is CommandUnknown,
// including a decision verb followed by a malformed booking id.
func ParseCommand(body string) Command {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(body)))
	if len(fields) == 0 {
		return Command{Kind: CommandUnknown}
	}

	switch fields[0] {
	case "START":
		return Command{Kind: CommandStart}
	case "STOP", "LEAVE":
		return Command{Kind: CommandStop}
	case "ACCEPT":
		return parseDecision(CommandAccept, fields)
	case "REJECT":
		return parseDecision(CommandReject, fields)
	}
	return Command{Kind: CommandUnknown}
}

func parseDecision(kind CommandKind, fields []string) Command {
	if len(fields) == 1 {
		return Command{Kind: kind}
	}

	id, err := uuid.Parse(fields[1])
	if err != nil {
		return Command{Kind: CommandUnknown}
	}
	return Command{Kind: kind, BookingID: id, HasBookingID: true}
}
