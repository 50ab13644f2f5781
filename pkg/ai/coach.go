package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

const providerName = "openai"

// Coach renders coaching cards through a chat completion model
type Coach struct {
	client *ChatClient
	logger *zap.Logger
}

// NewCoach creates a coach backed by client
func NewCoach(client *ChatClient, logger *zap.Logger) *Coach {
	return &Coach{client: client, logger: logger}
}

// Describe returns the provider and model recorded with each insight
func (c *Coach) Describe() (string, string) {
	return providerName, c.client.Model()
}

// GenerateInsightCard asks the model for a card about a detected category
func (c *Coach) GenerateInsightCard(ctx context.Context, category entities.Category, quote string, recent []string) (*entities.InsightCard, error) {
	content, err := c.client.Complete(ctx, []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: cardPrompt(category, quote, recent)},
	}, 0.7, 400)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s card: %w", category, err)
	}

	card, err := parseCard(content)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("⚠️ Unparseable card from model",
				zap.String("category", string(category)),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return card, nil
}

// GenerateContextualInsight asks the model whether the recent lines call for
// an intervention. It returns nil when they don't.
func (c *Coach) GenerateContextualInsight(ctx context.Context, segments []string) (*entities.InsightCard, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	content, err := c.client.Complete(ctx, []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: contextualPrompt(segments)},
	}, 0.5, 400)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze conversation: %w", err)
	}

	var reply struct {
		Intervene bool `json:"intervene"`
		entities.InsightCard
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &reply); err != nil {
		return nil, fmt.Errorf("invalid contextual reply: %w", err)
	}
	if !reply.Intervene {
		return nil, nil
	}
	if strings.TrimSpace(reply.Title) == "" {
		return nil, fmt.Errorf("invalid contextual reply: missing title")
	}
	card := reply.InsightCard
	return &card, nil
}

// GenerateReport writes the post-call report in markdown
func (c *Coach) GenerateReport(ctx context.Context, segments []*entities.Segment, insights []*entities.Insight) (string, error) {
	content, err := c.client.CompleteText(ctx, []ChatMessage{
		{Role: "system", Content: reportSystemPrompt},
		{Role: "user", Content: reportPrompt(segments, insights)},
	}, 0.7, 2000)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return emptyReport, nil
	}
	return content, nil
}

func parseCard(content string) (*entities.InsightCard, error) {
	var card entities.InsightCard
	if err := json.Unmarshal([]byte(stripFences(content)), &card); err != nil {
		return nil, fmt.Errorf("invalid card: %w", err)
	}
	if strings.TrimSpace(card.Title) == "" {
		return nil, fmt.Errorf("invalid card: missing title")
	}
	if len(card.Suggestions) > 3 {
		card.Suggestions = card.Suggestions[:3]
	}
	return &card, nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
