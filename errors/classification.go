package errors

// ErrorClassification indicates whether an error is retryable or permanent.
type ErrorClassification string

const (
	// ClassificationRetryable indicates a transient failure that may succeed
	// on a later attempt.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates the failure describes the state of
	// the tree and will not change by retrying.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification is retryable.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeUnavailable: ClassificationRetryable,
	CodeOutOfSpace:  ClassificationRetryable, // space may be freed

	CodeNotFound:            ClassificationPermanent,
	CodeAlreadyExists:       ClassificationPermanent,
	CodeInvalidParams:       ClassificationPermanent,
	CodeNotReadable:         ClassificationPermanent,
	CodeNotWritable:         ClassificationPermanent,
	CodeNotSupported:        ClassificationPermanent,
	CodeUnsupportedEncoding: ClassificationPermanent,
	CodeTooManyEntries:      ClassificationPermanent,
	CodeContentsModified:    ClassificationPermanent,
	CodeExceedsMaxFileSize:  ClassificationPermanent,
	CodeUnknown:             ClassificationPermanent,
}

func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
