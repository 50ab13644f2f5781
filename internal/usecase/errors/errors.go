package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden access")
	ErrNotFound     = errors.New("resource not found")
)

// Call errors
var (
	ErrCallNotFound   = errors.New("call not found")
	ErrReportNotFound = errors.New("report not found")
)

// Insight errors
var (
	ErrGenerationFailed = errors.New("insight generation failed")
	ErrNoInsight        = errors.New("no insight produced")
)
