package call

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
)

// ReportWriter drafts the markdown of a post-call report
type ReportWriter interface {
	GenerateReport(ctx context.Context, segments []*entities.Segment, insights []*entities.Insight) (string, error)
	Describe() (string, string)
}

// Reporter builds and stores post-call reports
type Reporter struct {
	segmentRepo repositories.SegmentRepository
	insightRepo repositories.InsightRepository
	reportRepo  repositories.ReportRepository
	writer      ReportWriter
	timeout     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewReporter creates a reporter. A non-positive timeout leaves generation
// bounded only by the caller's context.
func NewReporter(
	segmentRepo repositories.SegmentRepository,
	insightRepo repositories.InsightRepository,
	reportRepo repositories.ReportRepository,
	writer ReportWriter,
	timeout time.Duration,
	logger *zap.Logger,
) *Reporter {
	return &Reporter{
		segmentRepo: segmentRepo,
		insightRepo: insightRepo,
		reportRepo:  reportRepo,
		writer:      writer,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate writes and stores the report of a call. It returns nil when the
// call has no segments to report on.
func (r *Reporter) Generate(ctx context.Context, callID uuid.UUID) (*entities.Report, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	segments, err := r.segmentRepo.ListByCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, nil
	}

	newestFirst, err := r.insightRepo.ListByCall(ctx, callID, 0)
	if err != nil {
		return nil, err
	}
	insights := make([]*entities.Insight, len(newestFirst))
	for i, in := range newestFirst {
		insights[len(newestFirst)-1-i] = in
	}

	markdown, err := r.writer.GenerateReport(ctx, segments, insights)
	if err != nil {
		return nil, err
	}

	provider, model := r.writer.Describe()
	data := summarize(callID, segments, insights, entities.ReportModel{Provider: provider, Model: model}, r.now().UTC())
	report := &entities.Report{
		CallID:   callID,
		Markdown: markdown,
		Data:     datatypes.NewJSONType(data),
		Model:    datatypes.NewJSONType(data.Model),
	}
	if err := r.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("📝 Post-call report saved",
			zap.String("call_id", callID.String()),
			zap.String("report_id", report.ID.String()),
			zap.Int("segments", len(segments)),
			zap.Int("insights", len(insights)),
		)
	}
	return report, nil
}

// Latest returns the newest report of a call, or nil when none exists
func (r *Reporter) Latest(ctx context.Context, callID uuid.UUID) (*entities.Report, error) {
	return r.reportRepo.FindLatestByCall(ctx, callID)
}

func summarize(callID uuid.UUID, segments []*entities.Segment, insights []*entities.Insight, model entities.ReportModel, now time.Time) entities.ReportData {
	byCategory := make(map[entities.Category]int)
	for _, in := range insights {
		byCategory[in.Type]++
	}

	var duration int64
	if last := segments[len(segments)-1]; last.EndMs != nil {
		duration = *last.EndMs
	}

	return entities.ReportData{
		CallID:      callID.String(),
		GeneratedAt: now,
		Summary: entities.ReportTotals{
			TotalSegments: len(segments),
			TotalInsights: len(insights),
			DurationMs:    duration,
		},
		InsightsByCategory: byCategory,
		Model:              model,
	}
}
