package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a session token to one call of one agent
type Claims struct {
	CallID    string `json:"call_id"`
	CompanyID string `json:"company_id"`
	AgentID   string `json:"agent_id"`
	jwt.RegisteredClaims
}
