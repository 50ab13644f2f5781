package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	m := NewManager("secret", 4*time.Hour)

	token, exp, err := m.GenerateSessionToken("call-1", "company-1", "agent-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(4*time.Hour), exp, time.Minute)

	claims, err := m.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "call-1", claims.CallID)
	assert.Equal(t, "company-1", claims.CompanyID)
	assert.Equal(t, "agent-1", claims.AgentID)
}

func TestSessionToken_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.GenerateSessionToken("call-1", "company-1", "agent-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	token, _, err := NewManager("secret", time.Hour).GenerateSessionToken("c", "co", "a")
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestSessionToken_Tampered(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _, err := m.GenerateSessionToken("c", "co", "a")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = m.ValidateSessionToken(tampered)
	assert.Error(t, err)
}

func TestSessionToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{CallID: "c", CompanyID: "co", AgentID: "a"}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).ValidateSessionToken(signed)
	assert.Error(t, err)
}

func TestGenerateSessionToken_RequiresScope(t *testing.T) {
	_, _, err := NewManager("secret", time.Hour).GenerateSessionToken("", "co", "a")
	assert.Error(t, err)
}
