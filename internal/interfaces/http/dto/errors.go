package dto

import (
	"net/http"

	"github.com/invoicer/backend/internal/domain/shared"
)

// API error codes, formatted ERR_<DESCRIPTION>
const (
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeUnauthorized  = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired  = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid  = "ERR_TOKEN_INVALID"
	ErrCodeForbidden     = "ERR_FORBIDDEN"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeConflict      = "ERR_CONFLICT"
	ErrCodeQuotaExceeded = "ERR_QUOTA_EXCEEDED"
	ErrCodePrecondition  = "ERR_PRECONDITION_FAILED"
	ErrCodeUpstream      = "ERR_UPSTREAM"
	ErrCodeRateLimited   = "ERR_RATE_LIMITED"
	ErrCodeTooLarge      = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// A blocked delete is reported as 400, not 409, and the free-tier cap as 403.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeConflict:     http.StatusBadRequest,
	ErrCodePrecondition: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeQuotaExceeded: http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited: http.StatusTooManyRequests,
	ErrCodeUpstream:    http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to API error codes
var domainCodeMapping = map[string]string{
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeInvalidInput:  ErrCodeInvalidInput,
	shared.CodeConflict:      ErrCodeConflict,
	shared.CodeUnauthorized:  ErrCodeUnauthorized,
	shared.CodeForbidden:     ErrCodeForbidden,
	shared.CodeQuotaExceeded: ErrCodeQuotaExceeded,
	shared.CodePrecondition:  ErrCodePrecondition,
	shared.CodeUpstream:      ErrCodeUpstream,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Codes already in API form, and unknown codes, are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
