package mau

import "fmt"

// Error codes carried by every failure the engine surfaces.
const (
	// BusyErrorCode indicates a form is already being processed for the chat.
	BusyErrorCode = "EBUSY"
	// FormNotFoundErrorCode indicates no registered or resumable form.
	FormNotFoundErrorCode = "ENOFORM"
	// I18nErrorCode indicates internationalization failed or is unavailable.
	I18nErrorCode = "EI18N"
	// QueryNotFoundErrorCode indicates a session/query position inconsistency
	// or a jump to a query missing from the form.
	QueryNotFoundErrorCode = "ENOQUERY"
	// SessionErrorCode indicates an incompatible session or a store failure.
	SessionErrorCode = "ESESS"
)

// Error is the engine's error type. Match on kind with errors.Is against
// the exported sentinels; the wrapped cause, if any, is reachable through
// errors.Unwrap.
type Error struct {
	Code    string
	Message string
	cause   error
}

// Sentinels for matching by kind.
var (
	ErrBusy          = &Error{Code: BusyErrorCode, Message: "busy"}
	ErrFormNotFound  = &Error{Code: FormNotFoundErrorCode, Message: "form not found"}
	ErrI18n          = &Error{Code: I18nErrorCode, Message: "i18n failed"}
	ErrQueryNotFound = &Error{Code: QueryNotFoundErrorCode, Message: "query not found"}
	ErrSession       = &Error{Code: SessionErrorCode, Message: "session error"}
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the lower-level cause, if one was wrapped.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s: %s", fmt.Sprintf(format, args...), cause),
		cause:   cause,
	}
}
