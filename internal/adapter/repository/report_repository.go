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

var _ repositories.ReportRepository = (*ReportRepository)(nil)

// ReportRepository implements the report repository interface using GORM
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a report
func (r *ReportRepository) Create(ctx context.Context, report *entities.Report) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// FindLatestByCall returns the newest report of a call, or nil when none exists
func (r *ReportRepository) FindLatestByCall(ctx context.Context, callID uuid.UUID) (*entities.Report, error) {
	var report entities.Report
	if err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("created_at DESC").
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return &report, nil
}
