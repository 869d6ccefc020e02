package errors

// ErrorCode is an opaque identifier for a filesystem failure.
// Codes are plain strings so they read naturally in logs and can be compared
// by callers without importing backend packages.
type ErrorCode string

const (
	// CodeUnknown indicates an unclassified failure.
	CodeUnknown ErrorCode = "Unknown"

	// CodeInvalidParams indicates the caller passed an invalid argument,
	// typically a malformed path.
	CodeInvalidParams ErrorCode = "InvalidParams"

	// CodeNotFound indicates the file or directory does not exist.
	CodeNotFound ErrorCode = "NotFound"

	// CodeNotReadable indicates the entry exists but cannot be read.
	CodeNotReadable ErrorCode = "NotReadable"

	// CodeUnsupportedEncoding indicates the requested text encoding is not
	// known, or the contents cannot be decoded with it.
	CodeUnsupportedEncoding ErrorCode = "UnsupportedEncoding"

	// CodeNotSupported indicates the backend does not implement the operation.
	CodeNotSupported ErrorCode = "NotSupported"

	// CodeNotWritable indicates the entry cannot be written.
	CodeNotWritable ErrorCode = "NotWritable"

	// CodeOutOfSpace indicates the backend has no room for the write.
	CodeOutOfSpace ErrorCode = "OutOfSpace"

	// CodeTooManyEntries indicates a directory listing exceeded its limit.
	CodeTooManyEntries ErrorCode = "TooManyEntries"

	// CodeAlreadyExists indicates the destination of a create or rename
	// already exists.
	CodeAlreadyExists ErrorCode = "AlreadyExists"

	// CodeContentsModified indicates the contents changed underneath a
	// pending write.
	CodeContentsModified ErrorCode = "ContentsModified"

	// CodeExceedsMaxFileSize indicates the file is too large to be read as text.
	CodeExceedsMaxFileSize ErrorCode = "ExceedsMaxFileSize"

	// CodeUnavailable indicates a remote backend could not be reached.
	CodeUnavailable ErrorCode = "Unavailable"
)

// Sentinel values for use with errors.Is. They match any CodedError that
// carries the same code.
var (
	ErrNotFound            error = &codedError{code: CodeNotFound, classification: ClassificationPermanent}
	ErrAlreadyExists       error = &codedError{code: CodeAlreadyExists, classification: ClassificationPermanent}
	ErrNotWritable         error = &codedError{code: CodeNotWritable, classification: ClassificationPermanent}
	ErrNotReadable         error = &codedError{code: CodeNotReadable, classification: ClassificationPermanent}
	ErrNotSupported        error = &codedError{code: CodeNotSupported, classification: ClassificationPermanent}
	ErrUnsupportedEncoding error = &codedError{code: CodeUnsupportedEncoding, classification: ClassificationPermanent}
)
