package errors

import (
	stderrors "errors"
)

// DetailResponse is the error body shape the dashboard backend answers with
// ({"detail": "..."}).
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ToResponse converts an AppError to the backend's error body.
func (e *AppError) ToResponse() DetailResponse {
	return DetailResponse{Detail: e.Message}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
