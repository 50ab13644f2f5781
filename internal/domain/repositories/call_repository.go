package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// CallRepository defines the interface for call data access
type CallRepository interface {
	// Create inserts a new call
	Create(ctx context.Context, call *entities.Call) error

	// FindByID retrieves a call by ID, returning nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error)

	// MarkEnded sets status ENDED and ended_at, keeping an existing ended_at
	MarkEnded(ctx context.Context, id uuid.UUID) (*entities.Call, error)

	// FindCompany retrieves a company by ID, returning nil when it does not exist
	FindCompany(ctx context.Context, id uuid.UUID) (*entities.Company, error)

	// FindAgent retrieves an agent by ID, returning nil when it does not exist
	FindAgent(ctx context.Context, id uuid.UUID) (*entities.Agent, error)
}
