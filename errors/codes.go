package errors

// ErrorCode is the stable machine-readable code carried by AppError
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_PERMISSION_DENIED ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1005

	// Session handshake
	ErrorCode_SESSION_MISSING_PARAMS   ErrorCode = 2000
	ErrorCode_SESSION_INVALID_TOKEN    ErrorCode = 2001
	ErrorCode_SESSION_CALL_MISMATCH    ErrorCode = 2002
	ErrorCode_SESSION_CALL_NOT_FOUND   ErrorCode = 2003
	ErrorCode_SESSION_COMPANY_MISMATCH ErrorCode = 2004
	ErrorCode_SESSION_CALL_ENDED       ErrorCode = 2005

	// Calls
	ErrorCode_CALL_NOT_FOUND       ErrorCode = 3000
	ErrorCode_CALL_CREATION_FAILED ErrorCode = 3001
	ErrorCode_REPORT_NOT_FOUND     ErrorCode = 3002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                  "OK",
	ErrorCode_INTERNAL:                 "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:         "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                "NOT_FOUND",
	ErrorCode_PERMISSION_DENIED:        "PERMISSION_DENIED",
	ErrorCode_INVALID_PAYLOAD:          "INVALID_PAYLOAD",
	ErrorCode_SESSION_MISSING_PARAMS:   "SESSION_MISSING_PARAMS",
	ErrorCode_SESSION_INVALID_TOKEN:    "SESSION_INVALID_TOKEN",
	ErrorCode_SESSION_CALL_MISMATCH:    "SESSION_CALL_MISMATCH",
	ErrorCode_SESSION_CALL_NOT_FOUND:   "SESSION_CALL_NOT_FOUND",
	ErrorCode_SESSION_COMPANY_MISMATCH: "SESSION_COMPANY_MISMATCH",
	ErrorCode_SESSION_CALL_ENDED:       "SESSION_CALL_ENDED",
	ErrorCode_CALL_NOT_FOUND:           "CALL_NOT_FOUND",
	ErrorCode_CALL_CREATION_FAILED:     "CALL_CREATION_FAILED",
	ErrorCode_REPORT_NOT_FOUND:         "REPORT_NOT_FOUND",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
