package errs

import "net/http"

// ErrCode represents an error code in the system.
type ErrCode int

// A set of error codes used by the application.
const (
	OK ErrCode = iota
	InvalidArgument
	FailedPrecondition
	NotFound
	Internal
	InternalOnlyLog
	Unavailable
)

var codeNames = map[ErrCode]string{
	OK:                 "ok",
	InvalidArgument:    "invalid_argument",
	FailedPrecondition: "failed_precondition",
	NotFound:           "not_found",
	Internal:           "internal",
	InternalOnlyLog:    "internal",
	Unavailable:        "unavailable",
}

var httpStatus = map[ErrCode]int{
	OK:                 http.StatusOK,
	InvalidArgument:    http.StatusBadRequest,
	FailedPrecondition: http.StatusConflict,
	NotFound:           http.StatusNotFound,
	Internal:           http.StatusInternalServerError,
	InternalOnlyLog:    http.StatusInternalServerError,
	Unavailable:        http.StatusServiceUnavailable,
}

// MarshalText implements the text marshaller so the name of the code is
// what travels in the response.
func (ec ErrCode) MarshalText() ([]byte, error) {
	return []byte(codeNames[ec]), nil
}

// String returns the name of the error code.
func (ec ErrCode) String() string {
	return codeNames[ec]
}
