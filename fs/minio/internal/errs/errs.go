// Package errs translates MinIO errors into coded storage errors.
package errs

import (
	stderrors "errors"
	"net"
	"net/url"

	"github.com/minio/minio-go/v7"

	"github.com/tobimo/brackets/errors"
)

// Translate converts a MinIO error into a coded error for the given
// operation and path. The original error stays in the chain.
func Translate(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var coded errors.CodedError
	if stderrors.As(err, &coded) {
		return err
	}

	code := errors.CodeUnknown
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		code = errors.CodeNotFound
	case "AccessDenied":
		if op == "read" || op == "readdir" || op == "stat" {
			code = errors.CodeNotReadable
		} else {
			code = errors.CodeNotWritable
		}
	case "EntityTooLarge":
		code = errors.CodeExceedsMaxFileSize
	case "XMinioStorageFull":
		code = errors.CodeOutOfSpace
	case "InvalidObjectName", "KeyTooLongError":
		code = errors.CodeInvalidParams
	case "SlowDown", "ServiceUnavailable", "RequestTimeout", "XMinioServerNotInitialized":
		code = errors.CodeUnavailable
	case "":
		var urlErr *url.Error
		var netErr net.Error
		if stderrors.As(err, &urlErr) || stderrors.As(err, &netErr) {
			code = errors.CodeUnavailable
		}
	}

	return errors.WithContext(errors.Wrapf(err, code, "minio: %s %s", op, path), "path", path)
}

// NotFound returns a NotFound error for the given operation and path.
func NotFound(op, path string) error {
	return errors.WithContext(errors.Newf(errors.CodeNotFound, "minio: %s %s: no such object", op, path), "path", path)
}
