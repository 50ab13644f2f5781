package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// ReportRepository defines the interface for post-call report data access
type ReportRepository interface {
	// Create persists a report
	Create(ctx context.Context, report *entities.Report) error

	// FindLatestByCall returns the newest report of a call, or nil when none exists
	FindLatestByCall(ctx context.Context, callID uuid.UUID) (*entities.Report, error)
}
