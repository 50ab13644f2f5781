package call

import (
	"time"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// CallResponse represents a call in responses
type CallResponse struct {
	ID        string                 `json:"id"`
	CompanyID string                 `json:"company_id"`
	AgentID   string                 `json:"agent_id"`
	Title     string                 `json:"title,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Status    string                 `json:"status"`
	StartedAt time.Time              `json:"started_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
}

// CreateCallResponse represents the response after creating a call
type CreateCallResponse struct {
	Call      *CallResponse `json:"call"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	WSURL     string        `json:"ws_url"`
}

// InsightResponse represents a persisted insight in responses
type InsightResponse struct {
	ID          string    `json:"id"`
	CallID      string    `json:"call_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title,omitempty"`
	Question    string    `json:"question,omitempty"`
	Urgency     string    `json:"urgency,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	Confidence  float64   `json:"confidence"`
	Quote       string    `json:"quote"`
	Suggestions []string  `json:"suggestions"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsightListResponse represents the insights of a call
type InsightListResponse struct {
	CallID   string             `json:"call_id"`
	Insights []*InsightResponse `json:"insights"`
	Total    int                `json:"total"`
}

// ReportResponse represents a post-call report
type ReportResponse struct {
	ID         string              `json:"id"`
	CallID     string              `json:"call_id"`
	ReportMD   string              `json:"report_md"`
	ReportJSON entities.ReportData `json:"report_json"`
	CreatedAt  time.Time           `json:"created_at"`
}
