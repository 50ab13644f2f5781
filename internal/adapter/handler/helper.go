package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/errors"
	usecaseErrors "github.com/johnquangdev/sales-mentor/internal/usecase/errors"
	"github.com/johnquangdev/sales-mentor/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps use case errors to their HTTP representation
func toAppError(err error, callID string) error {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrCallNotFound):
		return errors.ErrCallNotFound(callID)
	case stdErrors.Is(err, usecaseErrors.ErrReportNotFound):
		return errors.ErrReportNotFound(callID)
	case stdErrors.Is(err, usecaseErrors.ErrNotFound):
		return errors.AppError{
			Raw:      err,
			HTTPCode: http.StatusBadRequest,
			Code:     errors.ErrorCode_NOT_FOUND,
			Message:  "Company or agent not found",
		}
	case stdErrors.Is(err, usecaseErrors.ErrForbidden):
		appErr := errors.ErrPermissionDenied("Agent does not belong to company")
		appErr.HTTPCode = http.StatusBadRequest
		return appErr
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	}
	return err
}

// validationError reports the failing fields of a request
func validationError(err error) errors.AppError {
	appErr := errors.ErrInvalidPayload()
	appErr.Raw = err
	for _, field := range validator.Fields(err) {
		appErr = appErr.WithDetail(field, "invalid")
	}
	return appErr
}
