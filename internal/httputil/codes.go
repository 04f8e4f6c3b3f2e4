package httputil

// Machine-readable error codes used across the API.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeNotVerified     = "NOT_VERIFIED"
	CodeValidationError = "VALIDATION_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
)
