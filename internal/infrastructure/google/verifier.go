package google

import (
	"context"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Payload holds the verified claims extracted from a Google ID token.
type Payload struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify validates the Google ID token and returns the extracted payload.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*Payload, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	return payloadFromClaims(p), nil
}

func payloadFromClaims(p *idtoken.Payload) *Payload {
	email, _ := p.Claims["email"].(string)
	name, _ := p.Claims["name"].(string)
	picture, _ := p.Claims["picture"].(string)
	// Google sends email_verified as a bool, some proxies re-encode it as a string
	var verified bool
	switch ev := p.Claims["email_verified"].(type) {
	case bool:
		verified = ev
	case string:
		verified = ev == "true"
	}
	if name == "" {
		given, _ := p.Claims["given_name"].(string)
		family, _ := p.Claims["family_name"].(string)
		name = given
		if family != "" {
			if name != "" {
				name += " "
			}
			name += family
		}
	}
	return &Payload{
		Sub:           p.Subject,
		Email:         domain.NormalizeEmail(email),
		EmailVerified: verified,
		Name:          name,
		Picture:       picture,
	}
}
