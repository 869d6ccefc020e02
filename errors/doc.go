// Package errors provides the coded error values passed between storage
// backends, file handles and callers.
//
// Every failure reported by a storage implementation carries an ErrorCode,
// an opaque string identifier such as "NotFound" or "NotWritable". Handles
// never interpret or translate these codes; they forward the error value
// unchanged so that callers can branch on GetCode(err).
//
// # Creating errors
//
//	err := errors.New(errors.CodeNotFound, "no such file")
//	err := errors.Newf(errors.CodeUnsupportedEncoding, "unknown encoding %q", name)
//
// # Wrapping backend errors
//
//	data, err := f.Read(buf)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeNotReadable, "read failed")
//	}
//
// Errors coming straight from io/fs or os can be mapped onto codes with
// FromFS, which recognizes fs.ErrNotExist, fs.ErrExist, fs.ErrPermission and
// the other standard sentinels:
//
//	if _, err := bfs.Stat(name); err != nil {
//	    return errors.FromFS(err, "stat", name)
//	}
//
// # Classification
//
// Codes are classified as retryable or permanent. A remote backend that is
// briefly unreachable reports CodeUnavailable, which IsRetryable reports as
// retryable; everything describing the state of the tree (NotFound,
// AlreadyExists, ...) is permanent. The handle layer itself never retries.
//
// # Standard Library Compatibility
//
// CodedError values work with errors.Is, errors.As and errors.Unwrap; the
// wrapped cause stays reachable through the chain:
//
//	if errors.Is(err, fs.ErrNotExist) { ... }
package errors
