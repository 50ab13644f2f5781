package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// InsightRepository defines the interface for insight data access
type InsightRepository interface {
	// Create persists an insight
	Create(ctx context.Context, insight *entities.Insight) error

	// ListByCall returns the insights of a call, newest first
	ListByCall(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Insight, error)
}
