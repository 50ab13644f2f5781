package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager handles session token operations
type Manager struct {
	secret string
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewManager creates a new JWT manager
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{
		secret: secret,
		expiry: expiry,
		issuer: "sales-mentor",
		now:    time.Now,
	}
}

// GenerateSessionToken signs an HS256 token scoped to a single call
func (m *Manager) GenerateSessionToken(callID, companyID, agentID string) (string, time.Time, error) {
	if callID == "" || companyID == "" || agentID == "" {
		return "", time.Time{}, fmt.Errorf("call, company and agent are required")
	}

	now := m.now()
	expiresAt := now.Add(m.expiry)
	claims := &Claims{
		CallID:    callID,
		CompanyID: companyID,
		AgentID:   agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   agentID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateSessionToken verifies signature and expiry and returns the claims
func (m *Manager) ValidateSessionToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.CallID == "" || claims.CompanyID == "" {
		return nil, fmt.Errorf("token missing call scope")
	}

	return claims, nil
}

// GetSessionExpiry returns session token expiry duration
func (m *Manager) GetSessionExpiry() time.Duration {
	return m.expiry
}
