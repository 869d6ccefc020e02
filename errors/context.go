package errors

import "errors"

// WithContext returns a copy of err with key set to value in its context.
// Non-coded errors are wrapped with CodeUnknown first.
// Returns nil if err is nil.
func WithContext(err error, key string, value interface{}) CodedError {
	if err == nil {
		return nil
	}

	var coded CodedError
	if !errors.As(err, &coded) {
		coded = &codedError{
			code:           CodeUnknown,
			classification: ClassificationPermanent,
			message:        err.Error(),
			cause:          err,
		}
	}

	newContext := make(map[string]interface{})
	for k, v := range coded.Context() {
		newContext[k] = v
	}
	newContext[key] = value

	return &codedError{
		code:           coded.Code(),
		classification: coded.Classification(),
		message:        coded.Message(),
		context:        newContext,
		cause:          coded.Unwrap(),
	}
}
