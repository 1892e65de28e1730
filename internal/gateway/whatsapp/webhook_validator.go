package whatsapp

import (
	"net/http"
	"strings"

	"fixit-server/config"

	twilioclient "github.com/twilio/twilio-go/client"
)

// WebhookValidator checks the X-Twilio-Signature header on inbound
// webhooks so that only the messaging platform can drive booking
// decisions. Validation can be switched off for sandbox setups where no
// stable public URL exists.
type WebhookValidator struct {
	validator twilioclient.RequestValidator
	enabled   bool
	baseURL   string
}

func NewWebhookValidator(cfg config.TwilioConfig, publicURL string) *WebhookValidator {
	return &WebhookValidator{
		validator: twilioclient.NewRequestValidator(cfg.AuthToken),
		enabled:   cfg.ValidateWebhook && cfg.AuthToken != "",
		baseURL:   strings.TrimSuffix(publicURL, "/"),
	}
}

// Validate reports whether the request carries a valid Twilio signature.
// The form must already be parsed.
func (v *WebhookValidator) Validate(r *http.Request) bool {
	if !v.enabled {
		return true
	}

	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	url := v.baseURL + r.URL.RequestURI()
	return v.validator.Validate(url, params, r.Header.Get("X-Twilio-Signature"))
}
