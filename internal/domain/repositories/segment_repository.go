package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// SegmentRepository defines the interface for segment data access
type SegmentRepository interface {
	// Create persists a segment
	Create(ctx context.Context, segment *entities.Segment) error

	// ListRecentClient returns up to limit most recent CLIENTE segments, oldest first
	ListRecentClient(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Segment, error)

	// ListByCall returns every segment of a call, oldest first
	ListByCall(ctx context.Context, callID uuid.UUID) ([]*entities.Segment, error)

	// CountClient returns the number of CLIENTE segments stored for a call
	CountClient(ctx context.Context, callID uuid.UUID) (int64, error)
}
