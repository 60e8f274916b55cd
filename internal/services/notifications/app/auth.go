package server

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid indicates a bearer token failed verification.
	ErrTokenInvalid = errors.New("access token is invalid")
	// ErrTokenExpired indicates a bearer token is past its expiry.
	ErrTokenExpired = errors.New("access token is expired")
)

// AccessTokenConfig defines how API bearer tokens are verified.
type AccessTokenConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
}

// VerifyAccessToken validates one EdDSA bearer token and returns the user ID
// carried in its subject claim.
func VerifyAccessToken(token string, cfg AccessTokenConfig) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenInvalid
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return "", errors.New("access token verifier is not configured")
	}

	var parsed accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", ErrTokenInvalid
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return "", ErrTokenInvalid
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return "", ErrTokenInvalid
	}
	if parsed.ExpiresAt == nil {
		return "", ErrTokenInvalid
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return "", ErrTokenExpired
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return "", ErrTokenInvalid
	}
	userID := strings.TrimSpace(parsed.Subject)
	if userID == "" {
		return "", ErrTokenInvalid
	}
	return userID, nil
}

// DecodeAccessTokenPublicKey decodes a base64 Ed25519 public key, accepting
// standard and raw-url alphabets.
func DecodeAccessTokenPublicKey(raw string) (ed25519.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("access token public key is required")
	}
	keyBytes, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		keyBytes, err = base64.RawURLEncoding.DecodeString(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode access token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("access token public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, value := range audience {
		if value == expected {
			return true
		}
	}
	return false
}

// internalTokenMatches compares the presented internal service token in
// constant time.
func internalTokenMatches(presented string, configured string) bool {
	presented = strings.TrimSpace(presented)
	if presented == "" || configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
