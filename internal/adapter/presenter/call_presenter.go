package presenter

import (
	"encoding/json"

	"github.com/johnquangdev/sales-mentor/internal/adapter/dto/call"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	callUsecase "github.com/johnquangdev/sales-mentor/internal/usecase/call"
)

// ToCallResponse converts a Call entity to CallResponse DTO
func ToCallResponse(c *entities.Call) *call.CallResponse {
	if c == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &call.CallResponse{
		ID:        c.ID.String(),
		CompanyID: c.CompanyID.String(),
		AgentID:   c.AgentID.String(),
		Title:     c.Title,
		Metadata:  metadata,
		Status:    string(c.Status),
		StartedAt: c.StartedAt,
		EndedAt:   c.EndedAt,
	}
}

// ToCreateCallResponse converts the create use case output to its DTO
func ToCreateCallResponse(out *callUsecase.CreateCallOutput) *call.CreateCallResponse {
	if out == nil {
		return nil
	}
	return &call.CreateCallResponse{
		Call:      ToCallResponse(out.Call),
		Token:     out.Token,
		ExpiresAt: out.ExpiresAt,
		WSURL:     out.WSURL,
	}
}

// ToInsightResponse converts an Insight entity to InsightResponse DTO
func ToInsightResponse(i *entities.Insight) *call.InsightResponse {
	if i == nil {
		return nil
	}

	model := i.Model.Data()
	suggestions := i.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return &call.InsightResponse{
		ID:          i.ID.String(),
		CallID:      i.CallID.String(),
		Type:        string(i.Type),
		Title:       model.Title,
		Question:    model.Question,
		Urgency:     string(model.Urgency),
		Channel:     model.Channel,
		Confidence:  i.Confidence,
		Quote:       i.Quote,
		Suggestions: suggestions,
		Provider:    model.Provider,
		Model:       model.Model,
		CreatedAt:   i.CreatedAt,
	}
}

// ToInsightListResponse converts the insights of a call to InsightListResponse
func ToInsightListResponse(callID string, insights []*entities.Insight) *call.InsightListResponse {
	items := make([]*call.InsightResponse, len(insights))
	for i, in := range insights {
		items[i] = ToInsightResponse(in)
	}
	return &call.InsightListResponse{
		CallID:   callID,
		Insights: items,
		Total:    len(items),
	}
}

// ToReportResponse converts a Report entity to ReportResponse DTO
func ToReportResponse(r *entities.Report) *call.ReportResponse {
	if r == nil {
		return nil
	}
	return &call.ReportResponse{
		ID:         r.ID.String(),
		CallID:     r.CallID.String(),
		ReportMD:   r.Markdown,
		ReportJSON: r.Data.Data(),
		CreatedAt:  r.CreatedAt,
	}
}
