package errors

import (
	stderrors "errors"
	"io/fs"
	"syscall"
)

// FromFS converts an error returned by io/fs, os or a billy filesystem into
// a CodedError. The original error stays in the chain. Errors that are
// already coded are returned as is. Returns nil if err is nil.
func FromFS(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return err
	}

	var code ErrorCode
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		code = CodeNotFound
	case stderrors.Is(err, fs.ErrExist):
		code = CodeAlreadyExists
	case stderrors.Is(err, fs.ErrPermission):
		if op == "read" || op == "readdir" {
			code = CodeNotReadable
		} else {
			code = CodeNotWritable
		}
	case stderrors.Is(err, syscall.ENOSPC):
		code = CodeOutOfSpace
	case stderrors.Is(err, syscall.EISDIR), stderrors.Is(err, syscall.ENOTDIR):
		code = CodeInvalidParams
	default:
		code = CodeUnknown
	}

	return WithContext(Wrapf(err, code, "%s %s", op, path), "path", path)
}
