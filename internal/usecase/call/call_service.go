package call

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/sales-mentor/internal/usecase/errors"
	"github.com/johnquangdev/sales-mentor/internal/usecase/session"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

// CallService handles call business logic
type CallService struct {
	callRepo    repositories.CallRepository
	insightRepo repositories.InsightRepository
	reporter    *Reporter
	tokens      *jwt.Manager
	sessions    SessionTerminator
	wsURL       string
	logger      *zap.Logger
}

// NewCallService creates a new call service. A nil reporter disables post-call reports.
func NewCallService(
	callRepo repositories.CallRepository,
	insightRepo repositories.InsightRepository,
	reporter *Reporter,
	tokens *jwt.Manager,
	sessions SessionTerminator,
	wsURL string,
	logger *zap.Logger,
) *CallService {
	return &CallService{
		callRepo:    callRepo,
		insightRepo: insightRepo,
		reporter:    reporter,
		tokens:      tokens,
		sessions:    sessions,
		wsURL:       wsURL,
		logger:      logger,
	}
}

// CreateCallInput represents input for creating a call
type CreateCallInput struct {
	CompanyID uuid.UUID
	AgentID   uuid.UUID
	Title     string
	Metadata  map[string]interface{}
}

// CreateCallOutput is a created call with the credential for its session
type CreateCallOutput struct {
	Call      *entities.Call
	Token     string
	ExpiresAt time.Time
	WSURL     string
}

// CreateCall creates a RUNNING call for an agent of the company
func (s *CallService) CreateCall(ctx context.Context, input CreateCallInput) (*CreateCallOutput, error) {
	company, err := s.callRepo.FindCompany(ctx, input.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("company %s: %w", input.CompanyID, usecaseErrors.ErrNotFound)
	}

	agent, err := s.callRepo.FindAgent(ctx, input.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", input.AgentID, usecaseErrors.ErrNotFound)
	}
	if agent.CompanyID != company.ID {
		return nil, fmt.Errorf("agent %s does not belong to company %s: %w", agent.ID, company.ID, usecaseErrors.ErrForbidden)
	}

	var metadata datatypes.JSON
	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("invalid metadata: %w", usecaseErrors.ErrInvalidInput)
		}
		metadata = raw
	}

	call := entities.NewCall(company.ID, agent.ID, input.Title, metadata)
	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	token, expiresAt, err := s.tokens.GenerateSessionToken(call.ID.String(), company.ID.String(), agent.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📞 Call created",
			zap.String("call_id", call.ID.String()),
			zap.String("company_id", company.ID.String()),
			zap.String("agent_id", agent.ID.String()),
		)
	}

	return &CreateCallOutput{
		Call:      call,
		Token:     token,
		ExpiresAt: expiresAt,
		WSURL:     s.sessionURL(call.ID.String(), token),
	}, nil
}

// GetCall retrieves a call by ID
func (s *CallService) GetCall(ctx context.Context, callID uuid.UUID) (*entities.Call, error) {
	call, err := s.callRepo.FindByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call: %w", err)
	}
	if call == nil {
		return nil, usecaseErrors.ErrCallNotFound
	}
	return call, nil
}

// StopCall marks the call ENDED, terminates its live session and writes the
// post-call report. Report failures are logged and never fail the stop.
// Stopping an ended call returns the stored call and keeps its report.
func (s *CallService) StopCall(ctx context.Context, callID uuid.UUID) (*entities.Call, error) {
	call, err := s.callRepo.MarkEnded(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to stop call: %w", err)
	}
	if call == nil {
		return nil, usecaseErrors.ErrCallNotFound
	}

	closed := false
	if s.sessions != nil {
		closed = s.sessions.Terminate(callID.String(), session.ReasonCallEnd)
	}

	if s.logger != nil {
		s.logger.Info("🛑 Call stopped",
			zap.String("call_id", callID.String()),
			zap.Bool("session_closed", closed),
		)
	}

	s.writeReport(context.WithoutCancel(ctx), callID)
	return call, nil
}

// GetReport returns the newest post-call report of a call
func (s *CallService) GetReport(ctx context.Context, callID uuid.UUID) (*entities.Report, error) {
	if _, err := s.GetCall(ctx, callID); err != nil {
		return nil, err
	}
	if s.reporter == nil {
		return nil, usecaseErrors.ErrReportNotFound
	}

	report, err := s.reporter.Latest(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, usecaseErrors.ErrReportNotFound
	}
	return report, nil
}

func (s *CallService) writeReport(ctx context.Context, callID uuid.UUID) {
	if s.reporter == nil {
		return
	}

	existing, err := s.reporter.Latest(ctx, callID)
	if err != nil {
		s.logReportError(callID, err)
		return
	}
	if existing != nil {
		return
	}

	report, err := s.reporter.Generate(ctx, callID)
	if err != nil {
		s.logReportError(callID, err)
		return
	}
	if report == nil && s.logger != nil {
		s.logger.Info("📝 No segments recorded, skipping report", zap.String("call_id", callID.String()))
	}
}

func (s *CallService) logReportError(callID uuid.UUID, err error) {
	if s.logger != nil {
		s.logger.Warn("⚠️ Failed to generate post-call report",
			zap.String("call_id", callID.String()),
			zap.Error(err),
		)
	}
}

// ListInsights returns the insights of a call, newest first
func (s *CallService) ListInsights(ctx context.Context, callID uuid.UUID, limit int) ([]*entities.Insight, error) {
	if _, err := s.GetCall(ctx, callID); err != nil {
		return nil, err
	}

	insights, err := s.insightRepo.ListByCall(ctx, callID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return insights, nil
}

func (s *CallService) sessionURL(callID, token string) string {
	q := url.Values{}
	q.Set("call_id", callID)
	q.Set("token", token)
	return s.wsURL + "?" + q.Encode()
}
