package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/coop-console/internal/domain"
)

const testSecret = "test-secret"

func TestTokenIssueAndDecode(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 5)
	decoder := NewTokenDecoder(testSecret)

	token, exp, err := issuer.Issue(domain.Identity{SubjectID: "u-1", Role: domain.RoleAgent, MemberReference: "M-77"})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	identity, err := decoder.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.SubjectID)
	assert.Equal(t, domain.RoleAgent, identity.Role)
	assert.Equal(t, "M-77", identity.MemberReference)
}

func TestDecodeKeepsRoleClaimVerbatim(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 5)
	decoder := NewTokenDecoder(testSecret)

	for _, role := range []domain.Role{"ADMIN", "Branch", "super-user"} {
		token, _, err := issuer.Issue(domain.Identity{SubjectID: "s", Role: role})
		require.NoError(t, err)

		identity, err := decoder.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, role, identity.Role)
	}
}

func TestDecodeIgnoresExpiry(t *testing.T) {
	claims := &Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	identity, err := NewTokenDecoder(testSecret).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, identity.Role)
}

func TestDecodeRejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 5)
	decoder := NewTokenDecoder(testSecret)

	valid, _, err := issuer.Issue(domain.Identity{SubjectID: "u-1", Role: domain.RoleUser})
	require.NoError(t, err)

	foreign, _, err := NewTokenIssuer("other-secret", 5).Issue(domain.Identity{SubjectID: "u-1", Role: domain.RoleUser})
	require.NoError(t, err)

	noRole, _, err := issuer.Issue(domain.Identity{SubjectID: "u-1"})
	require.NoError(t, err)

	noSubject, _, err := issuer.Issue(domain.Identity{Role: domain.RoleAdmin})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"three segments": "invalid.token.string",
		"wrong secret":   foreign,
		"missing role":   noRole,
		"missing sub":    noSubject,
		"alg none":       unsigned,
		"truncated":      valid[:len(valid)-4],
		"tampered":       strings.Replace(valid, ".", ".x", 1),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decoder.Decode(token)
			assert.Error(t, err)
		})
	}
}
