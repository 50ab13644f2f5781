package insight

import (
	"context"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// Generator renders insight cards. Implementations live in pkg/ai.
type Generator interface {
	// GenerateInsightCard renders a card for a detected category
	GenerateInsightCard(ctx context.Context, category entities.Category, quote string, recent []string) (*entities.InsightCard, error)

	// GenerateContextualInsight inspects recent client lines and returns nil when
	// the conversation needs no intervention
	GenerateContextualInsight(ctx context.Context, segments []string) (*entities.InsightCard, error)

	// Describe identifies the provider and model for persistence
	Describe() (provider, model string)
}

// Slot is the exclusive generation claim handed out by the cooldown manager
type Slot interface {
	Commit()
	Abort()
}
