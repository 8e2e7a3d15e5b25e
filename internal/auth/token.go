package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/coop-console/internal/domain"
)

var (
	// ErrMissingClaims is returned when a token lacks the subject or role claim.
	ErrMissingClaims = errors.New("token missing required claims")
	// ErrEmptyToken is returned for a blank token string.
	ErrEmptyToken = errors.New("empty token")
)

// Claims describes the backend-issued JWT payload.
type Claims struct {
	Role     string `json:"role"`
	MemberID string `json:"memberId,omitempty"`
	jwt.RegisteredClaims
}

// TokenDecoder verifies and decodes backend credentials.
type TokenDecoder struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenDecoder builds a decoder for HS256 tokens signed with secret.
// Expiry is not checked here; the backend rejects stale credentials itself.
func NewTokenDecoder(secret string) *TokenDecoder {
	return &TokenDecoder{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Decode validates the signature and extracts the identity claims.
func (d *TokenDecoder) Decode(tokenStr string) (domain.Identity, error) {
	if tokenStr == "" {
		return domain.Identity{}, ErrEmptyToken
	}

	parsed, err := d.parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return d.secret, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Role == "" {
		return domain.Identity{}, ErrMissingClaims
	}

	return domain.Identity{
		SubjectID:       claims.Subject,
		Role:            domain.Role(claims.Role),
		MemberReference: claims.MemberID,
	}, nil
}

// TokenIssuer signs credentials in the shape the backend issues them.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds a new issuer.
func NewTokenIssuer(secret string, ttlMinutes int) *TokenIssuer {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenIssuer{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Issue builds and signs a JWT for the identity.
func (ti *TokenIssuer) Issue(identity domain.Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ti.ttl)
	claims := &Claims{
		Role:     string(identity.Role),
		MemberID: identity.MemberReference,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
