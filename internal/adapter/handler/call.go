package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/errors"
	"github.com/johnquangdev/sales-mentor/internal/adapter/dto/call"
	"github.com/johnquangdev/sales-mentor/internal/adapter/presenter"
	callUsecase "github.com/johnquangdev/sales-mentor/internal/usecase/call"
)

const defaultInsightLimit = 100

// Call handles call-related HTTP requests
type Call struct {
	callService callUsecase.Service
	logger      *zap.Logger
}

// NewCallHandler creates a new call handler
func NewCallHandler(callService callUsecase.Service, logger *zap.Logger) *Call {
	return &Call{
		callService: callService,
		logger:      logger,
	}
}

// CreateCall handles POST /v1/calls
// @Summary      Start a coached call
// @Description  Creates a RUNNING call and returns the session token and websocket URL
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Param        request  body      call.CreateCallRequest  true  "Call creation request"
// @Success      201      {object}  call.CreateCallResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid payload, company or agent"
// @Router       /v1/calls [post]
func (h *Call) CreateCall(c echo.Context) error {
	var req call.CreateCallRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}

	input := callUsecase.CreateCallInput{
		CompanyID: uuid.MustParse(req.CompanyID),
		AgentID:   uuid.MustParse(req.AgentID),
		Title:     req.Title,
		Metadata:  req.Metadata,
	}

	output, err := h.callService.CreateCall(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}

	return HandleCreated(h.logger, c, presenter.ToCreateCallResponse(output))
}

// GetCall handles GET /v1/calls/:call_id
// @Summary      Get call details
// @Tags         Calls
// @Produce      json
// @Param        call_id  path      string  true  "Call ID (UUID)"
// @Success      200      {object}  call.CallResponse
// @Failure      404      {object}  map[string]interface{}  "Call not found"
// @Router       /v1/calls/{call_id} [get]
func (h *Call) GetCall(c echo.Context) error {
	callID, err := parseCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.callService.GetCall(c.Request().Context(), callID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, callID.String()))
	}

	return HandleSuccess(h.logger, c, presenter.ToCallResponse(result))
}

// StopCall handles POST /v1/calls/:call_id/stop
// @Summary      Stop a call
// @Description  Marks the call ENDED and closes its live coaching session
// @Tags         Calls
// @Produce      json
// @Param        call_id  path      string  true  "Call ID (UUID)"
// @Success      200      {object}  call.CallResponse
// @Failure      404      {object}  map[string]interface{}  "Call not found"
// @Router       /v1/calls/{call_id}/stop [post]
func (h *Call) StopCall(c echo.Context) error {
	callID, err := parseCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.callService.StopCall(c.Request().Context(), callID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, callID.String()))
	}

	return HandleSuccess(h.logger, c, presenter.ToCallResponse(result))
}

// ListInsights handles GET /v1/calls/:call_id/insights
// @Summary      List call insights
// @Description  Returns the persisted insights of a call, newest first
// @Tags         Calls
// @Produce      json
// @Param        call_id  path      string  true   "Call ID (UUID)"
// @Param        limit    query     int     false  "Max items (1-500)"
// @Success      200      {object}  call.InsightListResponse
// @Failure      404      {object}  map[string]interface{}  "Call not found"
// @Router       /v1/calls/{call_id}/insights [get]
func (h *Call) ListInsights(c echo.Context) error {
	callID, err := parseCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req call.ListInsightsRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("limit must be a number"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}
	if req.Limit == 0 {
		req.Limit = defaultInsightLimit
	}

	insights, err := h.callService.ListInsights(c.Request().Context(), callID, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, callID.String()))
	}

	return HandleSuccess(h.logger, c, presenter.ToInsightListResponse(callID.String(), insights))
}

// GetReport handles GET /v1/calls/:call_id/report
// @Summary      Get the post-call report
// @Description  Returns the newest report written when the call was stopped
// @Tags         Calls
// @Produce      json
// @Param        call_id  path      string  true  "Call ID (UUID)"
// @Success      200      {object}  call.ReportResponse
// @Failure      404      {object}  map[string]interface{}  "Call or report not found"
// @Router       /v1/calls/{call_id}/report [get]
func (h *Call) GetReport(c echo.Context) error {
	callID, err := parseCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	report, err := h.callService.GetReport(c.Request().Context(), callID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, callID.String()))
	}

	return HandleSuccess(h.logger, c, presenter.ToReportResponse(report))
}

func parseCallID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("call_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("call_id must be a valid UUID")
	}
	return id, nil
}
