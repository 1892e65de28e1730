package googleauth

import (
	"context"
	"errors"

	"fixit-server/config"

	"cloud.google.com/go/auth/credentials/idtoken"
)

// Profile is the subset of the Google ID token claims the app needs.
type Profile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Verifier validates a Google-issued ID token against our client id.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Profile, error)
}

type googleVerifier struct {
	audience string
}

func NewVerifier(cfg config.GoogleConfig) Verifier {
	return &googleVerifier{audience: cfg.ClientID}
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*Profile, error) {
	if v.audience == "" {
		return nil, errors.New("google client id not configured")
	}

	tok, err := idtoken.Validate(ctx, rawToken, v.audience)
	if err != nil {
		return nil, err
	}

	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("google token does not contain email")
	}
	name, _ := tok.Claims["name"].(string)
	picture, _ := tok.Claims["picture"].(string)

	return &Profile{
		Subject: tok.Subject,
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}
