package call

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// Service defines the interface for call use case
type Service interface {
	// CreateCall starts a RUNNING call and mints its session credential
	CreateCall(ctx context.Context, input CreateCallInput) (*CreateCallOutput, error)

	// GetCall retrieves a call by ID
	GetCall(ctx context.Context, callID uuid.UUID) (*entities.Call, error)

	// StopCall ends a call and closes its live session
	StopCall(ctx context.Context, callID uuid.UUID) (*entities.Call, error)

	// ListInsights returns the insights of a call, newest first
	ListInsights(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Insight, error)

	// GetReport returns the newest post-call report of a call
	GetReport(ctx context.Context, callID uuid.UUID) (*entities.Report, error)
}

// SessionTerminator stops the live session of a call
type SessionTerminator interface {
	Terminate(callID, reason string) bool
}

// Ensure CallService implements Service interface
var _ Service = (*CallService)(nil)
