package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vehicle-market-api/internal/domain"
	"google.golang.org/api/idtoken"
)

func TestVerify_ExtractsClaims(t *testing.T) {
	v := NewVerifier("client-id")
	v.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "tok", token)
		assert.Equal(t, "client-id", audience)
		return &idtoken.Payload{
			Subject: "google-123",
			Claims: map[string]interface{}{
				"email":          "Ana@Example.com",
				"email_verified": true,
				"given_name":     "Ana",
				"family_name":    "Lopez",
				"picture":        "https://lh3.example/p.jpg",
			},
		}, nil
	}

	p, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "google-123", p.Sub)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "Ana Lopez", p.Name)
	assert.Equal(t, "https://lh3.example/p.jpg", p.Picture)
}

func TestVerify_StringEmailVerified(t *testing.T) {
	p := payloadFromClaims(&idtoken.Payload{Claims: map[string]interface{}{"email_verified": "false", "name": "Bob"}})
	assert.False(t, p.EmailVerified)
	assert.Equal(t, "Bob", p.Name)
}

func TestVerify_InvalidToken(t *testing.T) {
	v := NewVerifier("client-id")
	v.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("bad signature")
	}
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
