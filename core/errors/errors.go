package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidConfig   ErrorCode = "INVALID_CONFIG"
	CodeInvalidSnapshot ErrorCode = "INVALID_SNAPSHOT"
	CodeFetchFailed     ErrorCode = "FETCH_FAILED"
	CodeExtractFailed   ErrorCode = "EXTRACT_FAILED"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

const (
	CtxPath    = "path"
	CtxModule  = "module"
	CtxVersion = "version"
)

// CodedError carries a stable code for the CLI alongside the wrapped cause.
type CodedError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *CodedError) WithContext(key string, value any) *CodedError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *CodedError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &CodedError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) *CodedError {
	return &CodedError{Code: code, Message: msg, Err: err}
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf returns the code of the first CodedError in err's chain, or
// CodeInternal.
func CodeOf(err error) ErrorCode {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}
