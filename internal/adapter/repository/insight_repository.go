package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
)

var _ repositories.InsightRepository = (*InsightRepository)(nil)

// InsightRepository implements the insight repository interface using GORM
type InsightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// Create persists an insight
func (r *InsightRepository) Create(ctx context.Context, insight *entities.Insight) error {
	if insight == nil {
		return errors.New("insight cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(insight).Error; err != nil {
		return fmt.Errorf("failed to create insight: %w", err)
	}
	return nil
}

// ListByCall returns the insights of a call, newest first. A non-positive
// limit returns all of them.
func (r *InsightRepository) ListByCall(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Insight, error) {
	var insights []*entities.Insight
	query := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&insights).Error; err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return insights, nil
}
