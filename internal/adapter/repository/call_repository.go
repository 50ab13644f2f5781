package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
)

var _ repositories.CallRepository = (*CallRepository)(nil)

// CallRepository implements the call repository interface using GORM
type CallRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{
		db: db,
	}
}

// Create creates a new call
func (r *CallRepository) Create(ctx context.Context, call *entities.Call) error {
	if call == nil {
		return errors.New("call cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// FindByID finds a call by ID, returning nil when it does not exist
func (r *CallRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	var call entities.Call
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find call by ID: %w", err)
	}
	return &call, nil
}

// MarkEnded sets the call ENDED. An existing ended_at is kept so repeated
// stops are idempotent.
func (r *CallRepository) MarkEnded(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	var call entities.Call
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&call).Error; err != nil {
			return err
		}
		if call.IsEnded() && call.EndedAt != nil {
			return nil
		}

		endedAt := time.Now()
		if call.EndedAt != nil {
			endedAt = *call.EndedAt
		}
		if err := tx.Model(&call).Updates(map[string]interface{}{
			"status":   entities.CallStatusEnded,
			"ended_at": endedAt,
		}).Error; err != nil {
			return err
		}
		call.Status = entities.CallStatusEnded
		call.EndedAt = &endedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to end call: %w", err)
	}
	return &call, nil
}

// FindCompany finds a company by ID, returning nil when it does not exist
func (r *CallRepository) FindCompany(ctx context.Context, id uuid.UUID) (*entities.Company, error) {
	var company entities.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return &company, nil
}

// FindAgent finds an agent by ID, returning nil when it does not exist
func (r *CallRepository) FindAgent(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	var agent entities.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}
	return &agent, nil
}
