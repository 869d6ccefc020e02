package errors

import "fmt"

// New creates a new CodedError with the given code and message.
// The classification is derived from the code.
func New(code ErrorCode, message string) CodedError {
	return &codedError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a new CodedError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) CodedError {
	return New(code, fmt.Sprintf(format, args...))
}
