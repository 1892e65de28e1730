package whatsapp

import (
	"bytes"
	"encoding/xml"
)

// TwiMLReply renders the acknowledgement body Twilio expects from a
// webhook. The ingress always answers 200 with one of these, whatever
// happened internally.
func TwiMLReply(message string) string {
	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(message))

	var b bytes.Buffer
	b.WriteString("<Response><Message>")
	b.Write(escaped.Bytes())
	b.WriteString("</Message></Response>")
	return b.String()
}
