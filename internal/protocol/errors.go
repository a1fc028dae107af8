package protocol

import "fmt"

// ErrorCode classifies codec failures so callers can log and count them
// without string matching.
type ErrorCode uint16

const (
	ErrCodeUnknown     ErrorCode = 0
	ErrCodeShortBuffer ErrorCode = 1001
	ErrCodeTruncated   ErrorCode = 1002
	ErrCodeBadType     ErrorCode = 1003
	ErrCodeBadVersion  ErrorCode = 1004
	ErrCodeTooLarge    ErrorCode = 1005
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeShortBuffer:
		return "short_buffer"
	case ErrCodeTruncated:
		return "truncated"
	case ErrCodeBadType:
		return "bad_type"
	case ErrCodeBadVersion:
		return "bad_version"
	case ErrCodeTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by this package.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("protocol: %s", e.Code)
	}
	return fmt.Sprintf("protocol: %s: %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code, so detailed errors still
// satisfy errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrShortBuffer = &Error{Code: ErrCodeShortBuffer}
	ErrTruncated   = &Error{Code: ErrCodeTruncated}
	ErrBadType     = &Error{Code: ErrCodeBadType}
	ErrBadVersion  = &Error{Code: ErrCodeBadVersion}
	ErrTooLarge    = &Error{Code: ErrCodeTooLarge}
)

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Code extracts the ErrorCode from err, or ErrCodeUnknown.
func Code(err error) ErrorCode {
	if pe, ok := err.(*Error); ok {
		return pe.Code
	}
	return ErrCodeUnknown
}
