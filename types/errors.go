package types

// Error codes returned in APIResponse.ErrorCode. Callers branch on the code,
// never on the message text.
const (
	ErrCodeMissingLocation   = "MISSING_LOCATION"
	ErrCodeInvalidCoordinate = "INVALID_COORDINATE"
	ErrCodeOutOfRange        = "OUT_OF_RANGE"
	ErrCodeAccuracyTooLow    = "ACCURACY_TOO_LOW"
	ErrCodeAlreadyCheckedIn  = "ALREADY_CHECKED_IN"
	ErrCodeAlreadyCheckedOut = "ALREADY_CHECKED_OUT"
	ErrCodeNoCheckInFound    = "NO_CHECK_IN_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeStorageFailure    = "STORAGE_FAILURE"
	ErrCodeNotFound          = "NOT_FOUND"
)

const (
	ErrInvalidInput  = "Invalid input"
	ErrDatabaseError = "Database error"
	ErrUnauthorized  = "Unauthorized access"
	ErrInternalError = "internal server error"
)

// Error is a business-rule failure. Data carries the context a caller needs
// to render a precise message (computed distance, thresholds, current state).
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// With attaches a context value and returns the error for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}
