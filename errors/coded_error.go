package errors

import "fmt"

// codedError is the concrete implementation of CodedError.
// Values are immutable once created.
type codedError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]interface{}
	cause          error
}

// Error implements the error interface.
// Format: "[Code] message" or "[Code] message: cause".
func (e *codedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *codedError) Code() ErrorCode {
	return e.code
}

func (e *codedError) Classification() ErrorClassification {
	return e.classification
}

func (e *codedError) Message() string {
	return e.message
}

// Context returns a copy so callers cannot mutate the error.
func (e *codedError) Context() map[string]interface{} {
	if e.context == nil {
		return nil
	}
	ctx := make(map[string]interface{}, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}
	return ctx
}

func (e *codedError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a CodedError with the same code and no
// message of its own, so sentinel values such as ErrNotFound match any
// error carrying that code.
func (e *codedError) Is(target error) bool {
	t, ok := target.(*codedError)
	if !ok {
		return false
	}
	return t.message == "" && t.cause == nil && t.code == e.code
}
