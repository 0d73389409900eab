package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vehicle-market-api/internal/config"
	"github.com/vehicle-market-api/internal/domain"
)

// Claims holds the session token payload.
type Claims struct {
	UserID      uint   `json:"userId"`
	Email       string `json:"email"`
	FirebaseUID string `json:"firebaseUid"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 session tokens.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
	now        func() time.Time
}

// Issuer is stamped on every session token and required on verification.
const Issuer = "vehicle-market-api"

func NewProvider(cfg *config.Config) (*Provider, error) {
	privKey, err := readKey(cfg.JWTPrivateKeyPath, jwt.ParseRSAPrivateKeyFromPEM)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pubKey, err := readKey(cfg.JWTPublicKeyPath, jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	if !privKey.PublicKey.Equal(pubKey) {
		return nil, errors.New("public key does not match private key")
	}
	return &Provider{privateKey: privKey, publicKey: pubKey, expiry: cfg.JWTExpiry, now: time.Now}, nil
}

func readKey[K any](path string, parse func([]byte) (K, error)) (K, error) {
	var zero K
	b, err := os.ReadFile(path)
	if err != nil {
		return zero, err
	}
	k, err := parse(b)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}
	return k, nil
}

// Sign issues a session token for u.
func (p *Provider) Sign(u *domain.User) (string, error) {
	now := p.now()
	claims := Claims{
		UserID:      u.UserID,
		Email:       u.Email,
		FirebaseUID: u.FirebaseUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(u.UserID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify checks signature and expiry and returns the token claims.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
