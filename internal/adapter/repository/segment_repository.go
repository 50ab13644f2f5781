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

var _ repositories.SegmentRepository = (*SegmentRepository)(nil)

// SegmentRepository implements the segment repository interface using GORM
type SegmentRepository struct {
	db *gorm.DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *gorm.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// Create persists a segment
func (r *SegmentRepository) Create(ctx context.Context, segment *entities.Segment) error {
	if segment == nil {
		return errors.New("segment cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(segment).Error; err != nil {
		return fmt.Errorf("failed to create segment: %w", err)
	}
	return nil
}

// ListRecentClient returns up to limit most recent CLIENTE segments, oldest first
func (r *SegmentRepository) ListRecentClient(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	if err := r.db.WithContext(ctx).
		Where("call_id = ? AND speaker = ?", callID, entities.SpeakerClient).
		Order("created_at DESC").
		Limit(limit).
		Find(&segments).Error; err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments, nil
}

// ListByCall returns every segment of a call, oldest first
func (r *SegmentRepository) ListByCall(ctx context.Context, callID uuid.UUID) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	if err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at ASC").
		Find(&segments).Error; err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	return segments, nil
}

// CountClient returns the number of CLIENTE segments stored for a call
func (r *SegmentRepository) CountClient(ctx context.Context, callID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Segment{}).
		Where("call_id = ? AND speaker = ?", callID, entities.SpeakerClient).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count segments: %w", err)
	}
	return count, nil
}
