package call

// CreateCallRequest represents the request to start a coached call
type CreateCallRequest struct {
	CompanyID string                 `json:"company_id" validate:"required,uuid"`
	AgentID   string                 `json:"agent_id" validate:"required,uuid"`
	Title     string                 `json:"title,omitempty" validate:"omitempty,max=255"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ListInsightsRequest represents query parameters for listing insights
type ListInsightsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}
