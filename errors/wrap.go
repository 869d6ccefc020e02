package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an existing error with a code and message.
// Returns nil if err is nil.
//
// If err is already a CodedError its classification is preserved, so a
// retryable backend failure stays retryable after being wrapped.
func Wrap(err error, code ErrorCode, message string) CodedError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var coded CodedError
	if errors.As(err, &coded) {
		classification = coded.Classification()
	}

	return &codedError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) CodedError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}
